package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrFindingNotFound is returned when no audit finding matches the given ID.
var ErrFindingNotFound = errors.New("finding not found")

// Finding mirrors a row of the audit_findings table.  Each row records one
// bijection violation detected by the auditor, keyed by a UUID so the
// admin boundary can address findings individually.  Resolution is either
// "repaired" or "dismissed"; a finding with a NULL resolved_at is open.
type Finding struct {
	ID         string     // audit_findings.id (UUID)
	Kind       string     // audit_findings.kind
	RoomID     *uint64    // audit_findings.room_id (nullable)
	GuestID    *uint64    // audit_findings.guest_id (nullable)
	Detail     string     // audit_findings.detail (human readable description)
	Repairable bool       // audit_findings.repairable
	DetectedAt time.Time  // audit_findings.detected_at
	ResolvedAt *time.Time // audit_findings.resolved_at (nullable)
	Resolution string     // audit_findings.resolution ('' while open)
}

// FindingRepo provides data access to the audit_findings table.
type FindingRepo struct {
	db *sql.DB
}

// NewFindingRepo returns a new FindingRepo bound to the given database.
func NewFindingRepo(db *sql.DB) *FindingRepo { return &FindingRepo{db: db} }

// Create inserts a finding.  The caller supplies the UUID.
func (r *FindingRepo) Create(ctx context.Context, f *Finding) error {
	const q = `INSERT INTO audit_findings (id, kind, room_id, guest_id, detail, repairable, detected_at)
               VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, f.ID, f.Kind, nullableID(f.RoomID), nullableID(f.GuestID),
		f.Detail, f.Repairable, f.DetectedAt.UTC().Format("2006-01-02 15:04:05"))
	return err
}

// GetByID returns a finding by UUID, or ErrFindingNotFound.
func (r *FindingRepo) GetByID(ctx context.Context, id string) (*Finding, error) {
	const q = `SELECT id, kind, room_id, guest_id, detail, repairable, detected_at, resolved_at, COALESCE(resolution, '')
               FROM audit_findings WHERE id = ?`
	f, err := scanFinding(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFindingNotFound
	}
	return f, err
}

// ListOpen returns all findings that have not been resolved, oldest first.
func (r *FindingRepo) ListOpen(ctx context.Context) ([]Finding, error) {
	const q = `SELECT id, kind, room_id, guest_id, detail, repairable, detected_at, resolved_at, COALESCE(resolution, '')
               FROM audit_findings WHERE resolved_at IS NULL ORDER BY detected_at, id`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Finding, 0)
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve stamps a finding with its resolution.  Returns
// ErrFindingNotFound when the finding does not exist or was already
// resolved, so a repair cannot be applied twice.
func (r *FindingRepo) Resolve(ctx context.Context, id, resolution string) error {
	const q = `UPDATE audit_findings SET resolved_at = UTC_TIMESTAMP(), resolution = ?
               WHERE id = ? AND resolved_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, resolution, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrFindingNotFound
	}
	return nil
}

func scanFinding(row interface{ Scan(...interface{}) error }) (*Finding, error) {
	var f Finding
	var roomID, guestID sql.NullInt64
	var resolvedAt sql.NullTime
	err := row.Scan(&f.ID, &f.Kind, &roomID, &guestID, &f.Detail, &f.Repairable,
		&f.DetectedAt, &resolvedAt, &f.Resolution)
	if err != nil {
		return nil, err
	}
	if roomID.Valid {
		id := uint64(roomID.Int64)
		f.RoomID = &id
	}
	if guestID.Valid {
		id := uint64(guestID.Int64)
		f.GuestID = &id
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		f.ResolvedAt = &t
	}
	return &f, nil
}
