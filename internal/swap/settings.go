package swap

import (
	"sync/atomic"
	"time"
)

// Settings carries the configuration the engine consumes: the global
// kill-switch, the code validity window and the per-room cooldown.  It is
// injected into the engine at construction and re-read on every call, so
// an admin toggle of the kill-switch takes effect immediately across all
// request workers without a hidden process-wide global.
type Settings struct {
	enabled  atomic.Bool
	codeTTL  time.Duration
	cooldown time.Duration
}

// NewSettings builds a Settings value with the given initial kill-switch
// position, code validity window and room cooldown.
func NewSettings(enabled bool, codeTTL, cooldown time.Duration) *Settings {
	s := &Settings{codeTTL: codeTTL, cooldown: cooldown}
	s.enabled.Store(enabled)
	return s
}

// SwapsEnabled reports the current position of the global kill-switch.
func (s *Settings) SwapsEnabled() bool { return s.enabled.Load() }

// SetSwapsEnabled flips the global kill-switch.
func (s *Settings) SetSwapsEnabled(v bool) { s.enabled.Store(v) }

// CodeTTL returns the validity window applied to issued codes.  Expiry is
// always derived as issued_at + CodeTTL; no absolute deadline is stored.
func (s *Settings) CodeTTL() time.Duration { return s.codeTTL }

// Cooldown returns the wait imposed on a room after a completed swap.
func (s *Settings) Cooldown() time.Duration { return s.cooldown }
