package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Take3Presents/RoomBot/internal/model"
)

func room(id, guestID uint64) model.Room {
	rm := model.Room{
		ID:          id,
		Number:      "100",
		Hotel:       "Grand",
		RoomType:    "King",
		IsAvailable: true,
		IsSwappable: true,
	}
	if guestID != 0 {
		rm.GuestID = &guestID
	}
	return rm
}

func guest(id, roomID uint64) model.Guest {
	g := model.Guest{ID: id, Email: "g@example.com", Name: "Guest", CanLogin: true}
	if roomID != 0 {
		g.RoomID = &roomID
	}
	return g
}

func kinds(issues []Issue) map[string]int {
	out := make(map[string]int)
	for _, is := range issues {
		out[is.Kind]++
	}
	return out
}

func TestClassify_CleanStateHasNoIssues(t *testing.T) {
	rooms := []model.Room{room(1, 10), room(2, 11)}
	guests := []model.Guest{guest(10, 1), guest(11, 2)}
	issues := Classify(rooms, guests, nil)
	assert.Empty(t, issues)
}

func TestClassify_RoomReferencesMissingGuest(t *testing.T) {
	rooms := []model.Room{room(1, 99)}
	issues := Classify(rooms, nil, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, KindDanglingGuestRef, issues[0].Kind)
	assert.False(t, issues[0].Repairable)
}

func TestClassify_OneSidedLinkIsRepairable(t *testing.T) {
	// The room claims the guest, the guest's own link is empty.
	rooms := []model.Room{room(1, 10)}
	guests := []model.Guest{guest(10, 0)}
	issues := Classify(rooms, guests, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, KindDanglingGuestRef, issues[0].Kind)
	assert.True(t, issues[0].Repairable)
	require.NotNil(t, issues[0].RoomID)
	require.NotNil(t, issues[0].GuestID)
	assert.Equal(t, uint64(1), *issues[0].RoomID)
	assert.Equal(t, uint64(10), *issues[0].GuestID)
}

func TestClassify_GuestClaimsRoomThatDisagrees(t *testing.T) {
	// Guest 10 claims room 1, but room 1 is occupied by guest 11.
	rooms := []model.Room{room(1, 11)}
	guests := []model.Guest{guest(10, 1), guest(11, 1)}
	issues := Classify(rooms, guests, nil)

	k := kinds(issues)
	assert.Equal(t, 1, k[KindDanglingGuestRef])
	// Both guests claim room 1.
	assert.Equal(t, 1, k[KindDuplicateAssignment])
}

func TestClassify_TwoRoomsClaimOneGuest(t *testing.T) {
	rooms := []model.Room{room(1, 10), room(2, 10)}
	guests := []model.Guest{guest(10, 1)}
	issues := Classify(rooms, guests, nil)

	k := kinds(issues)
	assert.Equal(t, 1, k[KindDuplicateAssignment])
	// Room 2's claim is also a one-sided dangling reference.
	assert.GreaterOrEqual(t, k[KindDanglingGuestRef], 1)
}

func TestClassify_UnassignedLoginCapableGuest(t *testing.T) {
	guests := []model.Guest{guest(10, 0)}
	issues := Classify(nil, guests, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, KindUnassignedGuest, issues[0].Kind)
	assert.False(t, issues[0].Repairable)
}

func TestClassify_UnassignedGuestWithoutLoginIgnored(t *testing.T) {
	g := guest(10, 0)
	g.CanLogin = false
	issues := Classify(nil, []model.Guest{g}, nil)
	assert.Empty(t, issues)
}

func TestClassify_ActiveCodeNotMirrored(t *testing.T) {
	rooms := []model.Room{room(1, 10)}
	guests := []model.Guest{guest(10, 1)}
	codes := []model.SwapCode{{ID: 1, RoomID: 1, Code: "BlueFalcon42", Status: model.CodeActive, IssuedAt: time.Now().UTC()}}
	issues := Classify(rooms, guests, codes)
	require.Len(t, issues, 1)
	assert.Equal(t, KindOrphanCode, issues[0].Kind)
	assert.True(t, issues[0].Repairable)
}

func TestClassify_MirroredCodeWithoutLedgerEntry(t *testing.T) {
	rm := room(1, 10)
	code := "GhostCode1"
	rm.SwapCode = &code
	rooms := []model.Room{rm}
	guests := []model.Guest{guest(10, 1)}
	issues := Classify(rooms, guests, nil)
	require.Len(t, issues, 1)
	assert.Equal(t, KindOrphanCode, issues[0].Kind)
	assert.True(t, issues[0].Repairable)
}

func TestClassify_ActiveCodeOnUnoccupiedRoom(t *testing.T) {
	rm := room(1, 0)
	code := "BlueFalcon42"
	rm.SwapCode = &code
	issued := time.Now().UTC()
	rm.SwapCodeAt = &issued
	codes := []model.SwapCode{{ID: 1, RoomID: 1, Code: code, Status: model.CodeActive, IssuedAt: issued}}
	issues := Classify([]model.Room{rm}, nil, codes)
	require.Len(t, issues, 1)
	assert.Equal(t, KindOrphanCode, issues[0].Kind)
	assert.True(t, issues[0].Repairable)
}

func TestClassify_MatchingMirrorIsClean(t *testing.T) {
	rm := room(1, 10)
	code := "BlueFalcon42"
	rm.SwapCode = &code
	issued := time.Now().UTC()
	rm.SwapCodeAt = &issued
	rooms := []model.Room{rm}
	guests := []model.Guest{guest(10, 1)}
	codes := []model.SwapCode{{ID: 1, RoomID: 1, Code: code, Status: model.CodeActive, IssuedAt: issued}}
	issues := Classify(rooms, guests, codes)
	assert.Empty(t, issues)
}

func TestIssueKey_DistinguishesKindAndRows(t *testing.T) {
	r1, g1 := uint64(1), uint64(10)
	a := Issue{Kind: KindOrphanCode, RoomID: &r1}
	b := Issue{Kind: KindDanglingGuestRef, RoomID: &r1, GuestID: &g1}
	c := Issue{Kind: KindOrphanCode, RoomID: &r1}
	assert.NotEqual(t, a.key(), b.key())
	assert.Equal(t, a.key(), c.key())
	assert.Equal(t, a.key(), findingKey(KindOrphanCode, &r1, nil))
}
