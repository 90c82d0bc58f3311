package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Take3Presents/RoomBot/internal/model"
)

// GuestRepo provides data access to the guests table.  Guest rows are
// created by the external list ingestion; here they are read for
// authentication and the my-rooms projection, and written only by the
// swap engine (room binding) and credential rotation.
type GuestRepo struct {
	db *sql.DB
}

// NewGuestRepo returns a new GuestRepo bound to the provided database.
func NewGuestRepo(db *sql.DB) *GuestRepo { return &GuestRepo{db: db} }

const guestColumns = `id, email, name, ticket, transfer, invitation,
       credential_hash, room_id, can_login, created_at, updated_at`

func scanGuest(row interface{ Scan(...interface{}) error }) (*model.Guest, error) {
	var g model.Guest
	var roomID sql.NullInt64
	err := row.Scan(
		&g.ID, &g.Email, &g.Name, &g.Ticket, &g.Transfer, &g.Invitation,
		&g.CredentialHash, &roomID, &g.CanLogin, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if roomID.Valid {
		id := uint64(roomID.Int64)
		g.RoomID = &id
	}
	return &g, nil
}

// ListByEmail returns every guest record sharing the given email.  One
// person may hold several tickets and therefore several rows; all rows
// share one login credential.
func (r *GuestRepo) ListByEmail(ctx context.Context, email string) ([]model.Guest, error) {
	const q = `SELECT ` + guestColumns + ` FROM guests WHERE email = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Guest, 0)
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns every guest.  Used by the consistency auditor only.
func (r *GuestRepo) ListAll(ctx context.Context) ([]model.Guest, error) {
	const q = `SELECT ` + guestColumns + ` FROM guests ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Guest, 0)
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetForUpdateTx re-loads a guest inside the provided transaction with an
// exclusive row lock.  ErrGuestNotFound is returned for a missing row and
// lock contention surfaces as ErrConflict.
func (r *GuestRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Guest, error) {
	const q = `SELECT ` + guestColumns + ` FROM guests WHERE id = ? FOR UPDATE`
	g, err := scanGuest(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGuestNotFound
	}
	return g, AsConflict(err)
}

// SetRoomTx rewrites a guest's room binding within the provided
// transaction.  Pass nil to detach the guest (administrative state only).
func (r *GuestRepo) SetRoomTx(ctx context.Context, tx *sql.Tx, guestID uint64, roomID *uint64) error {
	const q = `UPDATE guests SET room_id = ? WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, nullableID(roomID), guestID)
	return AsConflict(err)
}

// UpdateCredential stores a new bcrypt credential hash for every guest row
// sharing the given email.  Rotation invalidates the previous passphrase
// for all of the person's tickets at once.
func (r *GuestRepo) UpdateCredential(ctx context.Context, email, hash string) (int64, error) {
	const q = `UPDATE guests SET credential_hash = ? WHERE email = ?`
	res, err := r.db.ExecContext(ctx, q, hash, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
