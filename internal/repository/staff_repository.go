package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Take3Presents/RoomBot/internal/model"
)

// ErrStaffNotFound is returned when a staff lookup matches no row.
var ErrStaffNotFound = errors.New("staff not found")

// StaffRepo provides data access to the staff table.  Staff accounts are
// provisioned out of band; this repository only reads them for login.
type StaffRepo struct {
	db *sql.DB
}

// NewStaffRepo returns a new StaffRepo bound to the given database.
func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{db: db} }

// GetByEmail returns a staff account by email, or ErrStaffNotFound.
func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (*model.Staff, error) {
	const q = `SELECT id, email, name, credential_hash, is_admin, created_at, updated_at
               FROM staff WHERE email = ?`
	var s model.Staff
	err := r.db.QueryRowContext(ctx, q, email).Scan(
		&s.ID, &s.Email, &s.Name, &s.CredentialHash, &s.IsAdmin, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
