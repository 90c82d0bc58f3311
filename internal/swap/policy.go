package swap

import (
	"time"

	"github.com/Take3Presents/RoomBot/internal/model"
)

// Policy holds the pure eligibility predicates consulted by issuance and
// redemption.  It has no side effects and performs no I/O: it only reads
// the flags already loaded by the caller within the same transaction.
// The global kill-switch is checked by the engine before any predicate
// runs, so it does not appear here.
type Policy struct {
	CodeTTL  time.Duration // validity window of swap codes
	Cooldown time.Duration // per-room wait after a completed swap
}

// CanInitiate reports whether a room may issue a swap code at the given
// instant.  A room qualifies when it is occupied, available, flagged
// swappable, not special, and not on cooldown.
func (p Policy) CanInitiate(room *model.Room, now time.Time) error {
	if !room.Swappable() {
		return ErrIneligibleRoom
	}
	if room.OnCooldown(now, p.Cooldown) {
		return ErrRoomCooldown
	}
	return nil
}

// CanRedeem reports whether the given code may be redeemed at the given
// instant to exchange the code-owning room with the redeemer's room.
// Checks run in order of specificity: code status first, then the
// validity window, self-swap, and finally the room-level checks.  Both
// sides must qualify, because eligibility at issuance time does not
// survive an admin flipping a flag between issuance and redemption.
func (p Policy) CanRedeem(code *model.SwapCode, owning, redeeming *model.Room, now time.Time) error {
	switch code.Status {
	case model.CodeActive:
		// fall through to the window check
	case model.CodeRedeemed:
		return ErrCodeAlreadyRedeemed
	case model.CodeExpired:
		return ErrCodeExpired
	default:
		// revoked codes are indistinguishable from unknown ones
		return ErrCodeNotFound
	}
	if !code.ValidAt(now, p.CodeTTL) {
		return ErrCodeExpired
	}
	if owning.ID == redeeming.ID {
		return ErrSelfSwap
	}
	if owning.RoomType != redeeming.RoomType {
		return ErrTypeMismatch
	}
	for _, room := range []*model.Room{owning, redeeming} {
		if !room.Swappable() {
			return ErrIneligibleRoom
		}
		if room.OnCooldown(now, p.Cooldown) {
			return ErrRoomCooldown
		}
	}
	return nil
}
