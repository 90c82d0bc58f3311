package model

import "time"

// Room represents a physical hotel room as stored in the `rooms` table.
// Rooms are created by the external inventory ingestion; the swap-related
// columns (swap_code, swap_code_at, swap_at, guest_id and the occupant
// detail pairs) are mutated exclusively by the swap engine.
//
// A room holds at most one active swap code at a time.  The code columns
// here mirror the active row of the swap_codes ledger so that issuance can
// be idempotent and displays need no join; the ledger remains the record
// of a code's final status.
type Room struct {
	ID                  uint64     // rooms.id
	Number              string     // rooms.number (stable room number, unique per hotel)
	Hotel               string     // rooms.hotel
	RoomType            string     // rooms.room_type (short product name, e.g. "King")
	HotelRoomName       string     // rooms.hotel_room_name (hotel's own type name)
	IsAvailable         bool       // rooms.is_available
	IsSwappable         bool       // rooms.is_swappable
	IsSmoking           bool       // rooms.is_smoking
	IsLakeview          bool       // rooms.is_lakeview
	IsADA               bool       // rooms.is_ada
	IsHearingAccessible bool       // rooms.is_hearing_accessible
	IsSpecial           bool       // rooms.is_special (chapel etc, never swappable)
	SwapCode            *string    // rooms.swap_code (mirrored active code, nullable)
	SwapCodeAt          *time.Time // rooms.swap_code_at (when the active code was issued)
	SwapAt              *time.Time // rooms.swap_at (last completed swap)
	CheckIn             *time.Time // rooms.check_in (date, nullable)
	CheckOut            *time.Time // rooms.check_out (date, nullable)
	SPTicketID          string     // rooms.sp_ticket_id (ticket that placed the room)
	Primary             string     // rooms.primary_name
	Secondary           string     // rooms.secondary_name
	Notes               string     // rooms.notes
	GuestID             *uint64    // rooms.guest_id (nullable, administrative-only when unset)
	CreatedAt           time.Time  // rooms.created_at
	UpdatedAt           time.Time  // rooms.updated_at
}

// Swappable reports whether the room may participate in a swap on its own
// flags: it must have an occupant, be marked swappable, and not be one of
// the special rooms.  The global kill-switch and the cooldown window are
// enforced by the engine, not here.
func (r *Room) Swappable() bool {
	return r.GuestID != nil && r.IsAvailable && r.IsSwappable && !r.IsSpecial
}

// OnCooldown reports whether the room completed a swap within the cooldown
// window ending at now.  A zero cooldown disables the check.
func (r *Room) OnCooldown(now time.Time, cooldown time.Duration) bool {
	if r.SwapAt == nil || cooldown <= 0 {
		return false
	}
	return now.Before(r.SwapAt.Add(cooldown))
}
