package session

import (
	"sync"
	"time"

	"github.com/coder/quartz"
)

// TurnTimer holds at most one pending timeout for the seat whose turn it is.
// Arming replaces the previous timeout; a zero duration disables the timer
// entirely.
type TurnTimer struct {
	clock quartz.Clock
	d     time.Duration

	mu      sync.Mutex
	pending *quartz.Timer
	gen     int
}

// NewTurnTimer creates a timer that fires after d on the given clock. Tests
// inject a quartz mock.
func NewTurnTimer(clock quartz.Clock, d time.Duration) *TurnTimer {
	return &TurnTimer{clock: clock, d: d}
}

// Arm schedules fire for the given turn, cancelling any pending timeout.
func (t *TurnTimer) Arm(playerID string, turnIndex int, fire func(playerID string, turnIndex int)) {
	if t.d <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.pending != nil {
		t.pending.Stop()
	}
	t.gen++
	gen := t.gen

	t.pending = t.clock.AfterFunc(t.d, func() {
		t.mu.Lock()
		stale := gen != t.gen
		t.mu.Unlock()
		if !stale {
			fire(playerID, turnIndex)
		}
	})
}

// Stop cancels the pending timeout, if any.
func (t *TurnTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}
