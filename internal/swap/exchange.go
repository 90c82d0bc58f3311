package swap

import (
	"time"

	"github.com/Take3Presents/RoomBot/internal/model"
)

// exchangeBindings swaps the occupant-owned fields of two rooms in place.
// The rooms themselves (number, hotel, type, feature flags) stay put; the
// people and their booking details move.  The owning room's code mirror is
// cleared because its code is consumed by the trade, and both rooms start
// their cooldown clock at now.
func exchangeBindings(owning, redeeming *model.Room, now time.Time) {
	owning.GuestID, redeeming.GuestID = redeeming.GuestID, owning.GuestID
	owning.Primary, redeeming.Primary = redeeming.Primary, owning.Primary
	owning.Secondary, redeeming.Secondary = redeeming.Secondary, owning.Secondary
	owning.CheckIn, redeeming.CheckIn = redeeming.CheckIn, owning.CheckIn
	owning.CheckOut, redeeming.CheckOut = redeeming.CheckOut, owning.CheckOut
	owning.SPTicketID, redeeming.SPTicketID = redeeming.SPTicketID, owning.SPTicketID

	owning.SwapCode = nil
	owning.SwapCodeAt = nil
	redeeming.SwapCode = nil
	redeeming.SwapCodeAt = nil

	t := now
	owning.SwapAt = &t
	t2 := now
	redeeming.SwapAt = &t2
}
