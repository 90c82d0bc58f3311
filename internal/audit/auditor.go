// Package audit implements the consistency auditor: a lock-free scan of
// the room/guest bijection and the code ledger, persisted findings, and
// supervised repair of the subset of findings that have a single safe fix.
package audit

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Take3Presents/RoomBot/internal/model"
	"github.com/Take3Presents/RoomBot/internal/repository"
)

// ErrNotRepairable is returned by Repair for findings that need a human
// decision.
var ErrNotRepairable = errors.New("finding is not auto-repairable")

// Auditor detects and repairs referential inconsistencies.  Scan reads
// without locks and may therefore report transient states; Repair
// re-validates every finding under row locks before changing anything.
type Auditor struct {
	db       *sql.DB
	rooms    *repository.RoomRepo
	guests   *repository.GuestRepo
	codes    *repository.SwapCodeRepo
	findings *repository.FindingRepo
	now      func() time.Time
}

// NewAuditor wires an Auditor from its collaborators.
func NewAuditor(db *sql.DB, rooms *repository.RoomRepo, guests *repository.GuestRepo,
	codes *repository.SwapCodeRepo, findings *repository.FindingRepo) *Auditor {
	return &Auditor{
		db:       db,
		rooms:    rooms,
		guests:   guests,
		codes:    codes,
		findings: findings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Scan snapshots rooms, guests and active codes, classifies every
// inconsistency, persists the ones not already on file as open findings,
// and returns the full open set.  The scan takes no locks: a redemption
// committing mid-snapshot can surface as a transient finding, which is
// why repair re-checks.
func (a *Auditor) Scan(ctx context.Context) ([]repository.Finding, error) {
	rooms, err := a.rooms.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	guests, err := a.guests.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	codes, err := a.codes.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	issues := Classify(rooms, guests, codes)

	open, err := a.findings.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(open))
	for _, f := range open {
		seen[findingKey(f.Kind, f.RoomID, f.GuestID)] = true
	}

	created := 0
	for _, is := range issues {
		if seen[is.key()] {
			continue
		}
		seen[is.key()] = true
		f := &repository.Finding{
			ID:         uuid.NewString(),
			Kind:       is.Kind,
			RoomID:     is.RoomID,
			GuestID:    is.GuestID,
			Detail:     is.Detail,
			Repairable: is.Repairable,
			DetectedAt: a.now(),
		}
		if err := a.findings.Create(ctx, f); err != nil {
			return nil, err
		}
		created++
	}
	if created > 0 {
		log.Printf("auditor: scan recorded %d new finding(s)", created)
	}
	return a.findings.ListOpen(ctx)
}

// ListOpen returns the open findings without rescanning.
func (a *Auditor) ListOpen(ctx context.Context) ([]repository.Finding, error) {
	return a.findings.ListOpen(ctx)
}

// Dismiss closes a finding without touching data.  Used for report-only
// kinds once an operator has dealt with them out of band.
func (a *Auditor) Dismiss(ctx context.Context, findingID string) error {
	return a.findings.Resolve(ctx, findingID, "dismissed")
}

// Repair applies the single safe fix for a repairable finding.  The
// affected rows are locked, the inconsistency is re-checked against live
// data, and the fix plus the finding's resolution commit atomically with
// respect to the row changes.  A finding whose condition no longer holds
// is closed as self-healed without further writes.
func (a *Auditor) Repair(ctx context.Context, findingID string) error {
	f, err := a.findings.GetByID(ctx, findingID)
	if err != nil {
		return err
	}
	if !f.Repairable {
		return ErrNotRepairable
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if held, err := repository.MaintenanceHeldTx(ctx, tx); err != nil {
		return err
	} else if held {
		return repository.ErrConflict
	}

	var resolution string
	switch f.Kind {
	case KindDanglingGuestRef:
		resolution, err = a.repairDanglingRefTx(ctx, tx, f)
	case KindOrphanCode:
		resolution, err = a.repairOrphanCodeTx(ctx, tx, f)
	default:
		return ErrNotRepairable
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return repository.AsConflict(err)
	}
	committed = true

	// The resolved_at stamp lives outside the repair transaction; Resolve
	// guards against double application on its own.
	if err := a.findings.Resolve(ctx, findingID, resolution); err != nil {
		return err
	}
	log.Printf("auditor: finding %s resolved (%s)", findingID, resolution)
	return nil
}

// repairDanglingRefTx re-aligns a one-sided room/guest link.  The room's
// occupant pointer is the stronger side: room assignments come from the
// inventory of record, so the guest's room link follows the room.
func (a *Auditor) repairDanglingRefTx(ctx context.Context, tx *sql.Tx, f *repository.Finding) (string, error) {
	if f.RoomID == nil || f.GuestID == nil {
		return "", ErrNotRepairable
	}
	room, err := a.rooms.GetForUpdateTx(ctx, tx, *f.RoomID)
	if err != nil {
		return "", err
	}
	guest, err := a.guests.GetForUpdateTx(ctx, tx, *f.GuestID)
	if err != nil {
		return "", err
	}

	roomClaims := room.GuestID != nil && *room.GuestID == guest.ID
	guestClaims := guest.RoomID != nil && *guest.RoomID == room.ID
	switch {
	case roomClaims && guestClaims:
		return "self-healed", nil
	case roomClaims && !guestClaims:
		if err := a.guests.SetRoomTx(ctx, tx, guest.ID, &room.ID); err != nil {
			return "", err
		}
		return "repaired: guest link set to follow room occupant", nil
	case !roomClaims && guestClaims:
		if err := a.guests.SetRoomTx(ctx, tx, guest.ID, nil); err != nil {
			return "", err
		}
		return "repaired: stale guest link cleared", nil
	default:
		return "self-healed", nil
	}
}

// repairOrphanCodeTx retires any active code for the room and clears the
// room's mirror, returning the room to the idle state.  Revoking is
// always safe: the guest can request a fresh code.
func (a *Auditor) repairOrphanCodeTx(ctx context.Context, tx *sql.Tx, f *repository.Finding) (string, error) {
	if f.RoomID == nil {
		return "", ErrNotRepairable
	}
	room, err := a.rooms.GetForUpdateTx(ctx, tx, *f.RoomID)
	if err != nil {
		return "", err
	}
	active, err := a.codes.ActiveByRoomTx(ctx, tx, room.ID)
	if err != nil {
		return "", err
	}

	if active == nil && room.SwapCode == nil {
		return "self-healed", nil
	}
	mirrored := active != nil && room.SwapCode != nil && *room.SwapCode == active.Code
	if mirrored && room.GuestID != nil {
		return "self-healed", nil
	}
	if active != nil {
		if err := a.codes.MarkTx(ctx, tx, active.ID, model.CodeRevoked, nil); err != nil {
			return "", err
		}
	}
	if room.SwapCode != nil {
		if err := a.rooms.SetCodeTx(ctx, tx, room.ID, nil, nil); err != nil {
			return "", err
		}
	}
	return "repaired: code revoked and mirror cleared", nil
}
