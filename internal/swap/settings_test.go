package swap

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSettings_KillSwitchToggle(t *testing.T) {
	s := NewSettings(true, 24*time.Hour, 15*time.Minute)
	assert.True(t, s.SwapsEnabled())

	s.SetSwapsEnabled(false)
	assert.False(t, s.SwapsEnabled())

	s.SetSwapsEnabled(true)
	assert.True(t, s.SwapsEnabled())

	assert.Equal(t, 24*time.Hour, s.CodeTTL())
	assert.Equal(t, 15*time.Minute, s.Cooldown())
}

func TestSettings_ConcurrentToggleIsSafe(t *testing.T) {
	s := NewSettings(true, time.Hour, 0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v bool) {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s.SetSwapsEnabled(v)
				_ = s.SwapsEnabled()
			}
		}(i%2 == 0)
	}
	wg.Wait()
	// Either position is fine; the test only has to finish without the
	// race detector firing.
	_ = s.SwapsEnabled()
}
