package repository

import (
	"context"
	"database/sql"

	"github.com/Take3Presents/RoomBot/internal/model"
)

// SwapLogRepo provides access to the swaps table, the append-only record
// of completed exchanges.  Rows are written inside the redemption
// transaction so the log can never show a swap that was rolled back.
type SwapLogRepo struct {
	db *sql.DB
}

// NewSwapLogRepo returns a new SwapLogRepo bound to the given database.
func NewSwapLogRepo(db *sql.DB) *SwapLogRepo { return &SwapLogRepo{db: db} }

// CreateTx appends a swap record within the provided transaction and
// populates the generated ID.
func (r *SwapLogRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *model.SwapLog) error {
	const q = `INSERT INTO swaps (room_one_id, room_two_id, guest_one_id, guest_two_id, code)
               VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rec.RoomOneID, rec.RoomTwoID, rec.GuestOne, rec.GuestTwo, rec.Code)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	return nil
}

// ListRecent returns the most recent swaps, newest first, capped at limit.
// Used by the admin boundary for spot checks.
func (r *SwapLogRepo) ListRecent(ctx context.Context, limit int) ([]model.SwapLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT id, room_one_id, room_two_id, guest_one_id, guest_two_id, code, created_at
               FROM swaps ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SwapLog, 0)
	for rows.Next() {
		var s model.SwapLog
		if err := rows.Scan(&s.ID, &s.RoomOneID, &s.RoomTwoID, &s.GuestOne, &s.GuestTwo, &s.Code, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
