// Package swap implements the swap transaction engine: code issuance,
// redemption and revocation for room exchanges, together with the
// eligibility policy and the code generation strategy.  All mutations run
// inside single store transactions with row locks acquired in a stable
// order; the package never holds a lock while waiting on anything outside
// the database.
package swap

import "errors"

// Policy rejections.  These are expected, user-facing failures: the caller
// must change something (use a different code, wait out a window, talk to
// an admin) before retrying.  None of them leave any state behind.
var (
	// ErrSwapsDisabled is returned by every operation while the global
	// kill-switch is off.  Checked before anything else.
	ErrSwapsDisabled = errors.New("room swaps are not currently enabled")

	// ErrNotOwner is returned when the acting guest does not occupy the
	// room being acted upon.
	ErrNotOwner = errors.New("room does not belong to acting guest")

	// ErrIneligibleRoom is returned when a room fails the availability /
	// swappable / special-room check on either side of a swap.
	ErrIneligibleRoom = errors.New("room is not eligible for swapping")

	// ErrRoomCooldown is returned when a room completed a swap too
	// recently to participate in another one.
	ErrRoomCooldown = errors.New("room was swapped too recently")

	// ErrTypeMismatch is returned when the two rooms are of different
	// room types; only like-for-like exchanges are allowed.
	ErrTypeMismatch = errors.New("rooms are of different types")

	// ErrSelfSwap is returned when a code is redeemed against the room
	// that issued it.
	ErrSelfSwap = errors.New("cannot redeem a code against its own room")

	// ErrCodeNotFound is returned when no issued code matches the
	// submitted value, or the matching code was revoked.
	ErrCodeNotFound = errors.New("no room matching code")

	// ErrCodeExpired is returned when the matching code is past its
	// validity window.
	ErrCodeExpired = errors.New("swap code has expired")

	// ErrCodeAlreadyRedeemed is returned when the matching code was
	// already consumed by a completed swap.
	ErrCodeAlreadyRedeemed = errors.New("swap code was already redeemed")
)

// ErrCodeSpaceExhausted is an operational failure: the generator could not
// mint a unique code within its retry budget.  It indicates a
// misconfigured code space or retry budget, not a user mistake, and is
// logged as an escalation where it occurs.
var ErrCodeSpaceExhausted = errors.New("could not generate a unique swap code")
