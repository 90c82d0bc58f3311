package swap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Take3Presents/RoomBot/internal/model"
)

var testNow = time.Date(2026, 5, 14, 12, 0, 0, 0, time.UTC)

func guestRoom(id uint64, roomType string) *model.Room {
	gid := id + 100
	return &model.Room{
		ID:          id,
		Number:      "10" + string(rune('0'+id)),
		Hotel:       "Grand",
		RoomType:    roomType,
		IsAvailable: true,
		IsSwappable: true,
		GuestID:     &gid,
	}
}

func activeCode(roomID uint64, issuedAt time.Time) *model.SwapCode {
	return &model.SwapCode{
		ID:       1,
		RoomID:   roomID,
		Code:     "BlueFalcon42",
		Status:   model.CodeActive,
		IssuedAt: issuedAt,
	}
}

func testPolicy() Policy {
	return Policy{CodeTTL: 24 * time.Hour, Cooldown: 15 * time.Minute}
}

func TestCanInitiate_EligibleRoom(t *testing.T) {
	p := testPolicy()
	require.NoError(t, p.CanInitiate(guestRoom(1, "King"), testNow))
}

func TestCanInitiate_RejectsUnoccupiedRoom(t *testing.T) {
	p := testPolicy()
	rm := guestRoom(1, "King")
	rm.GuestID = nil
	assert.ErrorIs(t, p.CanInitiate(rm, testNow), ErrIneligibleRoom)
}

func TestCanInitiate_RejectsUnswappableFlags(t *testing.T) {
	p := testPolicy()

	rm := guestRoom(1, "King")
	rm.IsSwappable = false
	assert.ErrorIs(t, p.CanInitiate(rm, testNow), ErrIneligibleRoom)

	rm = guestRoom(1, "King")
	rm.IsAvailable = false
	assert.ErrorIs(t, p.CanInitiate(rm, testNow), ErrIneligibleRoom)

	rm = guestRoom(1, "King")
	rm.IsSpecial = true
	assert.ErrorIs(t, p.CanInitiate(rm, testNow), ErrIneligibleRoom)
}

func TestCanInitiate_RejectsRoomOnCooldown(t *testing.T) {
	p := testPolicy()
	rm := guestRoom(1, "King")
	recent := testNow.Add(-5 * time.Minute)
	rm.SwapAt = &recent
	assert.ErrorIs(t, p.CanInitiate(rm, testNow), ErrRoomCooldown)
}

func TestCanInitiate_AllowsRoomAfterCooldown(t *testing.T) {
	p := testPolicy()
	rm := guestRoom(1, "King")
	old := testNow.Add(-16 * time.Minute)
	rm.SwapAt = &old
	require.NoError(t, p.CanInitiate(rm, testNow))
}

func TestCanRedeem_HappyPath(t *testing.T) {
	p := testPolicy()
	owning := guestRoom(1, "King")
	redeeming := guestRoom(2, "King")
	code := activeCode(owning.ID, testNow.Add(-time.Hour))
	require.NoError(t, p.CanRedeem(code, owning, redeeming, testNow))
}

func TestCanRedeem_TerminalStatuses(t *testing.T) {
	p := testPolicy()
	owning := guestRoom(1, "King")
	redeeming := guestRoom(2, "King")

	code := activeCode(owning.ID, testNow.Add(-time.Hour))
	code.Status = model.CodeRedeemed
	assert.ErrorIs(t, p.CanRedeem(code, owning, redeeming, testNow), ErrCodeAlreadyRedeemed)

	code.Status = model.CodeExpired
	assert.ErrorIs(t, p.CanRedeem(code, owning, redeeming, testNow), ErrCodeExpired)

	// Revoked codes look no different from codes that never existed.
	code.Status = model.CodeRevoked
	assert.ErrorIs(t, p.CanRedeem(code, owning, redeeming, testNow), ErrCodeNotFound)
}

func TestCanRedeem_WindowBoundaryIsExpired(t *testing.T) {
	p := testPolicy()
	owning := guestRoom(1, "King")
	redeeming := guestRoom(2, "King")

	// One second inside the window.
	code := activeCode(owning.ID, testNow.Add(-p.CodeTTL).Add(time.Second))
	require.NoError(t, p.CanRedeem(code, owning, redeeming, testNow))

	// Exactly at the boundary: expired.
	code = activeCode(owning.ID, testNow.Add(-p.CodeTTL))
	assert.ErrorIs(t, p.CanRedeem(code, owning, redeeming, testNow), ErrCodeExpired)
}

func TestCanRedeem_RejectsSelfSwap(t *testing.T) {
	p := testPolicy()
	rm := guestRoom(1, "King")
	code := activeCode(rm.ID, testNow.Add(-time.Hour))
	assert.ErrorIs(t, p.CanRedeem(code, rm, rm, testNow), ErrSelfSwap)
}

func TestCanRedeem_RejectsTypeMismatch(t *testing.T) {
	p := testPolicy()
	owning := guestRoom(1, "King")
	redeeming := guestRoom(2, "Queen")
	code := activeCode(owning.ID, testNow.Add(-time.Hour))
	assert.ErrorIs(t, p.CanRedeem(code, owning, redeeming, testNow), ErrTypeMismatch)
}

func TestCanRedeem_BothSidesMustQualify(t *testing.T) {
	p := testPolicy()
	code := activeCode(1, testNow.Add(-time.Hour))

	// The owning room lost its swappable flag after issuance.
	owning := guestRoom(1, "King")
	owning.IsSwappable = false
	redeeming := guestRoom(2, "King")
	assert.ErrorIs(t, p.CanRedeem(code, owning, redeeming, testNow), ErrIneligibleRoom)

	// The redeemer's room is on cooldown.
	owning = guestRoom(1, "King")
	redeeming = guestRoom(2, "King")
	recent := testNow.Add(-time.Minute)
	redeeming.SwapAt = &recent
	assert.ErrorIs(t, p.CanRedeem(code, owning, redeeming, testNow), ErrRoomCooldown)
}

func TestCanRedeem_StatusWinsOverWindow(t *testing.T) {
	p := testPolicy()
	owning := guestRoom(1, "King")
	redeeming := guestRoom(2, "King")

	// A redeemed code that has also aged out still reports
	// already-redeemed, not expired.
	code := activeCode(owning.ID, testNow.Add(-48*time.Hour))
	code.Status = model.CodeRedeemed
	assert.ErrorIs(t, p.CanRedeem(code, owning, redeeming, testNow), ErrCodeAlreadyRedeemed)
}

func TestCanRedeem_ZeroCooldownDisablesCheck(t *testing.T) {
	p := Policy{CodeTTL: 24 * time.Hour, Cooldown: 0}
	owning := guestRoom(1, "King")
	redeeming := guestRoom(2, "King")
	recent := testNow.Add(-time.Second)
	owning.SwapAt = &recent
	redeeming.SwapAt = &recent
	code := activeCode(owning.ID, testNow.Add(-time.Hour))
	require.NoError(t, p.CanRedeem(code, owning, redeeming, testNow))
}
