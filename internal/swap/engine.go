package swap

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/Take3Presents/RoomBot/internal/model"
	"github.com/Take3Presents/RoomBot/internal/queue"
	"github.com/Take3Presents/RoomBot/internal/repository"
)

// codeMintRetries bounds how many fresh codes the engine will try when the
// unique index reports a collision before giving up with
// ErrCodeSpaceExhausted.
const codeMintRetries = 5

// EventPublisher delivers domain events to the notification collaborator.
// Publishing happens strictly after commit and failures are logged, never
// propagated: a swap that committed is a swap that happened.
type EventPublisher interface {
	PublishRoomSwapped(ctx context.Context, ev queue.RoomSwappedEvent) error
}

// Engine executes swap-code issuance, redemption and revocation.  The
// store's transactions and row locks are the only concurrency control: the
// engine keeps no in-memory lock table, because one worker process's
// memory means nothing to the others.
type Engine struct {
	db       *sql.DB
	rooms    *repository.RoomRepo
	guests   *repository.GuestRepo
	codes    *repository.SwapCodeRepo
	swaps    *repository.SwapLogRepo
	strategy Strategy
	settings *Settings
	policy   Policy
	events   EventPublisher // may be nil in tests
	now      func() time.Time
}

// NewEngine wires an Engine from its collaborators.  settings must be
// non-nil; events may be nil when no broker is configured.
func NewEngine(db *sql.DB, rooms *repository.RoomRepo, guests *repository.GuestRepo,
	codes *repository.SwapCodeRepo, swaps *repository.SwapLogRepo,
	strategy Strategy, settings *Settings, events EventPublisher) *Engine {
	if db == nil || rooms == nil || guests == nil || codes == nil || swaps == nil || strategy == nil || settings == nil {
		panic("nil dependency passed to swap.NewEngine")
	}
	return &Engine{
		db:       db,
		rooms:    rooms,
		guests:   guests,
		codes:    codes,
		swaps:    swaps,
		strategy: strategy,
		settings: settings,
		policy:   Policy{CodeTTL: settings.CodeTTL(), Cooldown: settings.Cooldown()},
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// IssuedCode is returned by IssueCode.
type IssuedCode struct {
	Code      string    `json:"code"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedeemResult is returned by Redeem.  RoomNumber is the redeemer's new
// room; PartnerName is the guest they traded with.
type RedeemResult struct {
	RoomNumber  string `json:"swapped_room_number"`
	Hotel       string `json:"hotel"`
	PartnerName string `json:"partner_name"`
}

// IssueCode mints (or idempotently returns) the active swap code for the
// room, on behalf of the guest identified by actorEmail.  Only the current
// occupant may request a code for their own room.  The room row stays
// locked from the eligibility check through the code write, so two
// simultaneous requests observe the same resulting code.
func (e *Engine) IssueCode(ctx context.Context, roomID uint64, actorEmail string) (*IssuedCode, error) {
	if !e.settings.SwapsEnabled() {
		return nil, ErrSwapsDisabled
	}
	now := e.now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	room, err := e.rooms.GetForUpdateTx(ctx, tx, roomID)
	if err != nil {
		return nil, err
	}
	if held, err := repository.MaintenanceHeldTx(ctx, tx); err != nil {
		return nil, err
	} else if held {
		return nil, repository.ErrConflict
	}
	if err := e.checkOwnership(ctx, tx, room, actorEmail); err != nil {
		return nil, err
	}
	if err := e.policy.CanInitiate(room, now); err != nil {
		return nil, err
	}

	// Idempotent path: an unexpired active code is returned as-is so
	// repeated clicks never churn codes.  A stale active code is retired
	// first within the same transaction.
	existing, err := e.codes.ActiveByRoomTx(ctx, tx, room.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.ValidAt(now, e.settings.CodeTTL()) {
			if err := tx.Commit(); err != nil {
				return nil, repository.AsConflict(err)
			}
			committed = true
			return &IssuedCode{
				Code:      existing.Code,
				IssuedAt:  existing.IssuedAt,
				ExpiresAt: existing.IssuedAt.Add(e.settings.CodeTTL()),
			}, nil
		}
		if err := e.codes.MarkTx(ctx, tx, existing.ID, model.CodeExpired, nil); err != nil {
			return nil, err
		}
	}

	rec := &model.SwapCode{RoomID: room.ID, IssuedAt: now}
	if err := e.mintTx(ctx, tx, rec); err != nil {
		return nil, err
	}
	if err := e.rooms.SetCodeTx(ctx, tx, room.ID, &rec.Code, &rec.IssuedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, repository.AsConflict(err)
	}
	committed = true
	return &IssuedCode{
		Code:      rec.Code,
		IssuedAt:  rec.IssuedAt,
		ExpiresAt: rec.IssuedAt.Add(e.settings.CodeTTL()),
	}, nil
}

// mintTx inserts a fresh unique code row, re-rolling on unique-index
// collisions up to codeMintRetries times.
func (e *Engine) mintTx(ctx context.Context, tx *sql.Tx, rec *model.SwapCode) error {
	for attempt := 0; attempt < codeMintRetries; attempt++ {
		code, err := e.strategy.NewCode()
		if err != nil {
			return err
		}
		rec.Code = code
		err = e.codes.CreateTx(ctx, tx, rec)
		if err == nil {
			return nil
		}
		if repository.IsDuplicateEntry(err) {
			continue
		}
		return repository.AsConflict(err)
	}
	log.Printf("swap-engine: SEVERE: code space exhausted after %d attempts for room %d", codeMintRetries, rec.RoomID)
	return ErrCodeSpaceExhausted
}

// Redeem consumes a swap code on behalf of the guest identified by
// actorEmail and atomically exchanges the two rooms' occupants.  Both
// room rows are locked in ascending ID order, eligibility is re-checked
// under the locks, and every mutation commits or rolls back as one unit.
func (e *Engine) Redeem(ctx context.Context, code, actorEmail string) (*RedeemResult, error) {
	if !e.settings.SwapsEnabled() {
		return nil, ErrSwapsDisabled
	}
	now := e.now()

	// Unlocked pre-check to find both room IDs before taking any locks.
	// Everything here is re-validated after lock acquisition.
	codeRow, err := e.codes.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	mine, err := e.redeemerRoom(ctx, actorEmail, codeRow.RoomID)
	if err != nil {
		return nil, err
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Stable lock order: ascending room ID, never requester-first.  Two
	// redemptions over overlapping rooms serialize instead of deadlocking.
	lockOrder := []uint64{codeRow.RoomID, mine}
	sort.Slice(lockOrder, func(i, j int) bool { return lockOrder[i] < lockOrder[j] })
	locked := make(map[uint64]*model.Room, 2)
	for _, id := range lockOrder {
		room, err := e.rooms.GetForUpdateTx(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = room
	}
	theirs := locked[codeRow.RoomID]
	ours := locked[mine]

	if held, err := repository.MaintenanceHeldTx(ctx, tx); err != nil {
		return nil, err
	} else if held {
		return nil, repository.ErrConflict
	}

	// Re-read the code row under its own lock; its status may have moved
	// between the pre-check and lock acquisition.
	codeRow, err = e.codes.GetByCodeForUpdateTx(ctx, tx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	if err := e.checkOwnership(ctx, tx, ours, actorEmail); err != nil {
		return nil, err
	}
	if err := e.policy.CanRedeem(codeRow, theirs, ours, now); err != nil {
		if errors.Is(err, ErrCodeExpired) && codeRow.Status == model.CodeActive {
			// Lazy expiry transition: retire the code and clear the
			// mirror so the owning room returns to idle.  This is a
			// legitimate state change, not a failed swap, so it commits.
			if mErr := e.codes.MarkTx(ctx, tx, codeRow.ID, model.CodeExpired, nil); mErr != nil {
				return nil, mErr
			}
			if mErr := e.rooms.SetCodeTx(ctx, tx, theirs.ID, nil, nil); mErr != nil {
				return nil, mErr
			}
			if cErr := tx.Commit(); cErr != nil {
				return nil, repository.AsConflict(cErr)
			}
			committed = true
		}
		return nil, err
	}

	guestOne, err := e.guests.GetForUpdateTx(ctx, tx, *theirs.GuestID)
	if err != nil {
		return nil, err
	}
	guestTwo, err := e.guests.GetForUpdateTx(ctx, tx, *ours.GuestID)
	if err != nil {
		return nil, err
	}

	exchangeBindings(theirs, ours, now)

	if err := e.rooms.SaveSwapStateTx(ctx, tx, theirs); err != nil {
		return nil, err
	}
	if err := e.rooms.SaveSwapStateTx(ctx, tx, ours); err != nil {
		return nil, err
	}
	if err := e.guests.SetRoomTx(ctx, tx, guestOne.ID, &ours.ID); err != nil {
		return nil, err
	}
	if err := e.guests.SetRoomTx(ctx, tx, guestTwo.ID, &theirs.ID); err != nil {
		return nil, err
	}
	if err := e.codes.MarkTx(ctx, tx, codeRow.ID, model.CodeRedeemed, &now); err != nil {
		return nil, err
	}
	if err := e.swaps.CreateTx(ctx, tx, &model.SwapLog{
		RoomOneID: theirs.ID,
		RoomTwoID: ours.ID,
		GuestOne:  guestOne.ID,
		GuestTwo:  guestTwo.ID,
		Code:      codeRow.Code,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, repository.AsConflict(err)
	}
	committed = true

	log.Printf("swap-engine: swapped rooms %s and %s (%s) via code", theirs.Number, ours.Number, theirs.Hotel)
	e.publishSwap(ctx, theirs, ours, guestOne, guestTwo, codeRow.Code, now)

	return &RedeemResult{
		RoomNumber:  theirs.Number,
		Hotel:       theirs.Hotel,
		PartnerName: guestOne.Name,
	}, nil
}

// Revoke cancels a room's active code.  Owners revoke their own room;
// admins may revoke any room's code by passing admin=true.  Revocation
// returns the room to the idle state without touching assignments.
func (e *Engine) Revoke(ctx context.Context, roomID uint64, actorEmail string, admin bool) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	room, err := e.rooms.GetForUpdateTx(ctx, tx, roomID)
	if err != nil {
		return err
	}
	if !admin {
		if err := e.checkOwnership(ctx, tx, room, actorEmail); err != nil {
			return err
		}
	}
	active, err := e.codes.ActiveByRoomTx(ctx, tx, room.ID)
	if err != nil {
		return err
	}
	if active == nil {
		return ErrCodeNotFound
	}
	if err := e.codes.MarkTx(ctx, tx, active.ID, model.CodeRevoked, nil); err != nil {
		return err
	}
	if err := e.rooms.SetCodeTx(ctx, tx, room.ID, nil, nil); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return repository.AsConflict(err)
	}
	committed = true
	return nil
}

// checkOwnership verifies that the locked room's occupant is one of the
// guest records behind actorEmail.
func (e *Engine) checkOwnership(ctx context.Context, tx *sql.Tx, room *model.Room, actorEmail string) error {
	if room.GuestID == nil {
		return ErrNotOwner
	}
	occupant, err := e.guests.GetForUpdateTx(ctx, tx, *room.GuestID)
	if err != nil {
		if errors.Is(err, repository.ErrGuestNotFound) {
			return ErrNotOwner
		}
		return err
	}
	if occupant.Email != actorEmail {
		return ErrNotOwner
	}
	return nil
}

// redeemerRoom resolves which of the actor's rooms takes part in the
// swap.  Most guests have exactly one; a guest holding several tickets
// gets the room that is not itself the code's owning room, preferring an
// exact room-type match when more than one qualifies.
func (e *Engine) redeemerRoom(ctx context.Context, actorEmail string, owningRoomID uint64) (uint64, error) {
	guests, err := e.guests.ListByEmail(ctx, actorEmail)
	if err != nil {
		return 0, err
	}
	candidates := make([]uint64, 0, len(guests))
	for _, g := range guests {
		if g.RoomID != nil && *g.RoomID != owningRoomID {
			candidates = append(candidates, *g.RoomID)
		}
	}
	switch len(candidates) {
	case 0:
		// Either the guest has no room at all, or their only room is the
		// code's own room; the latter surfaces as ErrSelfSwap after the
		// locks are taken so that the state machine sees the attempt.
		for _, g := range guests {
			if g.RoomID != nil {
				return *g.RoomID, nil
			}
		}
		return 0, ErrIneligibleRoom
	case 1:
		return candidates[0], nil
	}
	owning, err := e.rooms.GetByID(ctx, owningRoomID)
	if err != nil {
		return 0, err
	}
	for _, id := range candidates {
		room, err := e.rooms.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		if room.RoomType == owning.RoomType && room.Swappable() {
			return id, nil
		}
	}
	return candidates[0], nil
}

// publishSwap emits the domain event for the notification collaborator.
// It runs after commit, outside any transaction, and only logs failures.
func (e *Engine) publishSwap(ctx context.Context, theirs, ours *model.Room, guestOne, guestTwo *model.Guest, code string, at time.Time) {
	if e.events == nil {
		return
	}
	ev := queue.RoomSwappedEvent{
		RoomOne:      theirs.Number,
		RoomTwo:      ours.Number,
		Hotel:        theirs.Hotel,
		RoomType:     theirs.RoomType,
		GuestOne:     guestOne.Name,
		GuestOneMail: guestOne.Email,
		GuestTwo:     guestTwo.Name,
		GuestTwoMail: guestTwo.Email,
		Code:         code,
		SwappedAt:    at.Format(time.RFC3339),
	}
	if err := e.events.PublishRoomSwapped(ctx, ev); err != nil {
		log.Printf("swap-engine: publish room.swapped failed: %v", err)
	}
}
