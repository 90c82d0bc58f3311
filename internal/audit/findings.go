package audit

import (
	"fmt"

	"github.com/Take3Presents/RoomBot/internal/model"
)

// Finding kinds, stored verbatim in audit_findings.kind.
const (
	// KindDanglingGuestRef is a one-sided room/guest reference: a room
	// points at a guest whose own room_id disagrees, a guest points at a
	// room whose guest_id disagrees, or a reference targets a row that
	// does not exist.  One-sided cases are repairable by following the
	// room's side of the link.
	KindDanglingGuestRef = "DANGLING_GUEST_REF"

	// KindOrphanCode is a disagreement between the swap_codes ledger and
	// the rooms.swap_code mirror: an ACTIVE ledger row whose room mirrors
	// a different (or no) code, or a mirrored code with no ACTIVE ledger
	// row behind it.  Repaired by revoking the code and clearing the
	// mirror.
	KindOrphanCode = "ORPHAN_CODE"

	// KindDuplicateAssignment is two guests claiming the same room or two
	// rooms claiming the same guest.  Never auto-repaired: either side
	// may be the legitimate one.
	KindDuplicateAssignment = "DUPLICATE_ASSIGNMENT"

	// KindUnassignedGuest is a login-capable guest with no room at all.
	// Report-only; the guest may simply not have been placed yet.
	KindUnassignedGuest = "UNASSIGNED_GUEST"
)

// Issue is one detected inconsistency, before it is persisted as a
// finding.  Detection is pure so it can be exercised without a database.
type Issue struct {
	Kind       string
	RoomID     *uint64
	GuestID    *uint64
	Detail     string
	Repairable bool
}

// Classify walks a full snapshot of rooms, guests and active codes and
// returns every bijection violation it can see.  It takes plain slices,
// not repositories: the caller decides how consistent the snapshot is.
// The scan itself runs without locks, so Repair re-validates every issue
// under row locks before touching anything.
func Classify(rooms []model.Room, guests []model.Guest, activeCodes []model.SwapCode) []Issue {
	issues := make([]Issue, 0)

	guestByID := make(map[uint64]*model.Guest, len(guests))
	for i := range guests {
		guestByID[guests[i].ID] = &guests[i]
	}
	roomByID := make(map[uint64]*model.Room, len(rooms))
	for i := range rooms {
		roomByID[rooms[i].ID] = &rooms[i]
	}

	// Room side of the guest link.
	roomsClaiming := make(map[uint64][]uint64) // guest ID -> room IDs claiming them
	for i := range rooms {
		rm := &rooms[i]
		if rm.GuestID == nil {
			continue
		}
		roomsClaiming[*rm.GuestID] = append(roomsClaiming[*rm.GuestID], rm.ID)
		g, ok := guestByID[*rm.GuestID]
		if !ok {
			issues = append(issues, Issue{
				Kind:   KindDanglingGuestRef,
				RoomID: &rm.ID, GuestID: rm.GuestID,
				Detail:     fmt.Sprintf("room %s (%s) references guest %d which does not exist", rm.Number, rm.Hotel, *rm.GuestID),
				Repairable: false,
			})
			continue
		}
		if g.RoomID == nil || *g.RoomID != rm.ID {
			issues = append(issues, Issue{
				Kind:   KindDanglingGuestRef,
				RoomID: &rm.ID, GuestID: &g.ID,
				Detail:     fmt.Sprintf("room %s (%s) references guest %d but the guest's room link disagrees", rm.Number, rm.Hotel, g.ID),
				Repairable: true,
			})
		}
	}

	// Guest side of the room link.
	guestsClaiming := make(map[uint64][]uint64) // room ID -> guest IDs claiming it
	for i := range guests {
		g := &guests[i]
		if g.RoomID == nil {
			// A guest claimed by some room is a dangling reference, not
			// an unassigned guest; report it once, as the former.
			if g.CanLogin && len(roomsClaiming[g.ID]) == 0 {
				issues = append(issues, Issue{
					Kind:    KindUnassignedGuest,
					GuestID: &g.ID,
					Detail:  fmt.Sprintf("guest %d (%s) can log in but holds no room", g.ID, g.Email),
				})
			}
			continue
		}
		guestsClaiming[*g.RoomID] = append(guestsClaiming[*g.RoomID], g.ID)
		rm, ok := roomByID[*g.RoomID]
		if !ok {
			issues = append(issues, Issue{
				Kind:    KindDanglingGuestRef,
				RoomID:  g.RoomID,
				GuestID: &g.ID,
				Detail:  fmt.Sprintf("guest %d (%s) references room %d which does not exist", g.ID, g.Email, *g.RoomID),
			})
			continue
		}
		if rm.GuestID == nil || *rm.GuestID != g.ID {
			issues = append(issues, Issue{
				Kind:   KindDanglingGuestRef,
				RoomID: &rm.ID, GuestID: &g.ID,
				Detail:     fmt.Sprintf("guest %d (%s) claims room %s (%s) but the room's occupant link disagrees", g.ID, g.Email, rm.Number, rm.Hotel),
				Repairable: true,
			})
		}
	}

	for guestID, claimants := range roomsClaiming {
		if len(claimants) > 1 {
			issues = append(issues, Issue{
				Kind:    KindDuplicateAssignment,
				GuestID: &guestID,
				Detail:  fmt.Sprintf("guest %d is claimed as occupant by %d rooms", guestID, len(claimants)),
			})
		}
	}
	for roomID, claimants := range guestsClaiming {
		if len(claimants) > 1 {
			issues = append(issues, Issue{
				Kind:   KindDuplicateAssignment,
				RoomID: &roomID,
				Detail: fmt.Sprintf("room %d is claimed by %d guests", roomID, len(claimants)),
			})
		}
	}

	// Ledger against the mirrored code columns.
	activeByRoom := make(map[uint64]*model.SwapCode, len(activeCodes))
	for i := range activeCodes {
		activeByRoom[activeCodes[i].RoomID] = &activeCodes[i]
	}
	for i := range activeCodes {
		c := &activeCodes[i]
		rm, ok := roomByID[c.RoomID]
		switch {
		case !ok || rm.SwapCode == nil || *rm.SwapCode != c.Code:
			issues = append(issues, Issue{
				Kind:   KindOrphanCode,
				RoomID: &c.RoomID,
				Detail:     fmt.Sprintf("active code for room %d is not mirrored on the room", c.RoomID),
				Repairable: true,
			})
		case rm.GuestID == nil:
			issues = append(issues, Issue{
				Kind:   KindOrphanCode,
				RoomID: &c.RoomID,
				Detail:     fmt.Sprintf("room %s (%s) holds an active code but has no occupant", rm.Number, rm.Hotel),
				Repairable: true,
			})
		}
	}
	for i := range rooms {
		rm := &rooms[i]
		if rm.SwapCode == nil {
			continue
		}
		c, ok := activeByRoom[rm.ID]
		if !ok || c.Code != *rm.SwapCode {
			issues = append(issues, Issue{
				Kind:   KindOrphanCode,
				RoomID: &rm.ID,
				Detail:     fmt.Sprintf("room %s (%s) mirrors a code with no active ledger entry", rm.Number, rm.Hotel),
				Repairable: true,
			})
		}
	}

	return issues
}

// key identifies an issue for deduplication against already-open
// findings: same kind against the same rows is the same problem.
func (i Issue) key() string {
	room, guest := uint64(0), uint64(0)
	if i.RoomID != nil {
		room = *i.RoomID
	}
	if i.GuestID != nil {
		guest = *i.GuestID
	}
	return fmt.Sprintf("%s/%d/%d", i.Kind, room, guest)
}

func findingKey(kind string, roomID, guestID *uint64) string {
	return Issue{Kind: kind, RoomID: roomID, GuestID: guestID}.key()
}
