package model

import "time"

// Swap code statuses as stored in swap_codes.status.  A code is created
// ACTIVE and leaves that state exactly once: consumed by a redemption
// (REDEEMED), aged out (EXPIRED) or cancelled (REVOKED).
const (
	CodeActive   = "ACTIVE"
	CodeRedeemed = "REDEEMED"
	CodeExpired  = "EXPIRED"
	CodeRevoked  = "REVOKED"
)

// SwapCode models a row of the `swap_codes` ledger.  The ledger keeps every
// code ever issued together with its terminal status, which is what lets a
// second redemption of a consumed code be reported as already-redeemed
// rather than unknown.  Expiry is always derived from IssuedAt plus the
// configured window; no absolute deadline is persisted.
type SwapCode struct {
	ID         uint64     // swap_codes.id
	RoomID     uint64     // swap_codes.room_id (owning room)
	Code       string     // swap_codes.code (unique across all codes)
	Status     string     // swap_codes.status
	IssuedAt   time.Time  // swap_codes.issued_at
	RedeemedAt *time.Time // swap_codes.redeemed_at (nullable)
	CreatedAt  time.Time  // swap_codes.created_at
}

// ValidAt reports whether the code is redeemable at the given instant for
// the given validity window.  The boundary is exclusive: a code redeemed at
// exactly IssuedAt+window is expired.
func (c *SwapCode) ValidAt(now time.Time, window time.Duration) bool {
	return c.Status == CodeActive && now.Before(c.IssuedAt.Add(window))
}

// SwapLog models a row of the `swaps` table, the append-only record of
// completed exchanges.  Room one is always the code-issuing side.
type SwapLog struct {
	ID        uint64    // swaps.id
	RoomOneID uint64    // swaps.room_one_id
	RoomTwoID uint64    // swaps.room_two_id
	GuestOne  uint64    // swaps.guest_one_id (occupant of room one before the swap)
	GuestTwo  uint64    // swaps.guest_two_id
	Code      string    // swaps.code (the consumed swap code)
	CreatedAt time.Time // swaps.created_at
}
