package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSwapCodeValidAt(t *testing.T) {
	issued := time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC)
	window := 24 * time.Hour
	code := SwapCode{Status: CodeActive, IssuedAt: issued}

	assert.True(t, code.ValidAt(issued, window))
	assert.True(t, code.ValidAt(issued.Add(window-time.Second), window))

	// The boundary instant itself is expired.
	assert.False(t, code.ValidAt(issued.Add(window), window))
	assert.False(t, code.ValidAt(issued.Add(window+time.Second), window))
}

func TestSwapCodeValidAt_NonActiveNeverValid(t *testing.T) {
	issued := time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC)
	window := 24 * time.Hour
	for _, status := range []string{CodeRedeemed, CodeExpired, CodeRevoked} {
		code := SwapCode{Status: status, IssuedAt: issued}
		assert.False(t, code.ValidAt(issued.Add(time.Minute), window), "status %s", status)
	}
}

func TestRoomSwappable(t *testing.T) {
	gid := uint64(10)
	rm := Room{GuestID: &gid, IsAvailable: true, IsSwappable: true}
	assert.True(t, rm.Swappable())

	rm.IsSpecial = true
	assert.False(t, rm.Swappable())

	rm = Room{GuestID: &gid, IsAvailable: false, IsSwappable: true}
	assert.False(t, rm.Swappable())

	rm = Room{GuestID: nil, IsAvailable: true, IsSwappable: true}
	assert.False(t, rm.Swappable())
}

func TestRoomOnCooldown(t *testing.T) {
	now := time.Date(2026, 5, 14, 12, 0, 0, 0, time.UTC)
	cooldown := 15 * time.Minute

	rm := Room{}
	assert.False(t, rm.OnCooldown(now, cooldown), "never swapped")

	swapped := now.Add(-5 * time.Minute)
	rm.SwapAt = &swapped
	assert.True(t, rm.OnCooldown(now, cooldown))

	swapped = now.Add(-cooldown)
	rm.SwapAt = &swapped
	assert.False(t, rm.OnCooldown(now, cooldown), "boundary instant is off cooldown")

	assert.False(t, rm.OnCooldown(now, 0), "zero cooldown disables the check")
}
