package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Take3Presents/RoomBot/internal/model"
)

// SwapCodeRepo provides data access to the swap_codes ledger.  Every code
// ever issued is kept together with its terminal status; the rooms table
// only mirrors the currently active code.  The unique index on the code
// column is what enforces issuance-time uniqueness across all codes.
type SwapCodeRepo struct {
	db *sql.DB
}

// NewSwapCodeRepo returns a new SwapCodeRepo bound to the given database.
func NewSwapCodeRepo(db *sql.DB) *SwapCodeRepo { return &SwapCodeRepo{db: db} }

const codeColumns = `id, room_id, code, status, issued_at, redeemed_at, created_at`

func scanCode(row interface{ Scan(...interface{}) error }) (*model.SwapCode, error) {
	var c model.SwapCode
	var redeemedAt sql.NullTime
	err := row.Scan(&c.ID, &c.RoomID, &c.Code, &c.Status, &c.IssuedAt, &redeemedAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.IssuedAt = c.IssuedAt.UTC()
	if redeemedAt.Valid {
		t := redeemedAt.Time.UTC()
		c.RedeemedAt = &t
	}
	return &c, nil
}

// CreateTx inserts a new ACTIVE code row within the provided transaction
// and populates the generated ID.  A unique-key violation on the code
// column is returned unchanged so the generator can detect the collision
// via IsDuplicateEntry and re-roll.
func (r *SwapCodeRepo) CreateTx(ctx context.Context, tx *sql.Tx, rec *model.SwapCode) error {
	const q = `INSERT INTO swap_codes (room_id, code, status, issued_at) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, rec.RoomID, rec.Code, model.CodeActive,
		rec.IssuedAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rec.ID = uint64(id)
	rec.Status = model.CodeActive
	return nil
}

// GetByCode returns the ledger row for a code regardless of status.  The
// caller decides how a non-ACTIVE status maps onto its error taxonomy.
// sql.ErrNoRows is returned when the code was never issued.
func (r *SwapCodeRepo) GetByCode(ctx context.Context, code string) (*model.SwapCode, error) {
	const q = `SELECT ` + codeColumns + ` FROM swap_codes WHERE code = ?`
	return scanCode(r.db.QueryRowContext(ctx, q, code))
}

// GetByCodeForUpdateTx loads a code row with an exclusive lock inside the
// provided transaction.  Two concurrent redemptions of the same code
// serialize here: the loser re-reads a REDEEMED status after the winner
// commits.  Lock contention surfaces as ErrConflict.
func (r *SwapCodeRepo) GetByCodeForUpdateTx(ctx context.Context, tx *sql.Tx, code string) (*model.SwapCode, error) {
	const q = `SELECT ` + codeColumns + ` FROM swap_codes WHERE code = ? FOR UPDATE`
	c, err := scanCode(tx.QueryRowContext(ctx, q, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, AsConflict(err)
	}
	return c, nil
}

// ActiveByRoomTx returns the ACTIVE code for a room, if any, within the
// provided transaction.  The caller holds the room row lock, so the
// idempotent-return path of issuance is race free.  Returns nil, nil when
// the room has no active code.
func (r *SwapCodeRepo) ActiveByRoomTx(ctx context.Context, tx *sql.Tx, roomID uint64) (*model.SwapCode, error) {
	const q = `SELECT ` + codeColumns + ` FROM swap_codes WHERE room_id = ? AND status = ?`
	c, err := scanCode(tx.QueryRowContext(ctx, q, roomID, model.CodeActive))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, AsConflict(err)
	}
	return c, nil
}

// MarkTx moves a code to a terminal status within the provided
// transaction.  redeemedAt is recorded only for REDEEMED.
func (r *SwapCodeRepo) MarkTx(ctx context.Context, tx *sql.Tx, id uint64, status string, redeemedAt *time.Time) error {
	const q = `UPDATE swap_codes SET status = ?, redeemed_at = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, status, nullableTime(redeemedAt), id)
	return AsConflict(err)
}

// ListActive returns all ACTIVE code rows.  The auditor uses this for its
// read-only scan; no locks are taken.
func (r *SwapCodeRepo) ListActive(ctx context.Context) ([]model.SwapCode, error) {
	const q = `SELECT ` + codeColumns + ` FROM swap_codes WHERE status = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, model.CodeActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SwapCode, 0)
	for rows.Next() {
		c, err := scanCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
