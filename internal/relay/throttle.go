package relay

import (
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	DefaultThreshold = 0.5
	DefaultInterval  = 30 * time.Second
)

// Throttle decides whether a wind-speed reading is worth forwarding: either
// it moved by at least Threshold since the last forward, or Interval has
// passed since then.
type Throttle struct {
	clock     clockwork.Clock
	threshold float64
	interval  time.Duration

	mu         sync.Mutex
	sent       bool
	lastValue  float64
	lastSentAt time.Time
}

// NewThrottle creates a Throttle that has never sent. A nil clock uses the
// real clock.
func NewThrottle(clock clockwork.Clock, threshold float64, interval time.Duration) *Throttle {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Throttle{clock: clock, threshold: threshold, interval: interval}
}

// Allow reports whether speed should be forwarded. When it returns true the
// value and instant are recorded immediately, before any send completes, so
// a failed send does not roll the state back.
func (t *Throttle) Allow(speed float64) bool {
	if math.IsNaN(speed) || math.IsInf(speed, 0) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	hasChanged := !t.sent || math.Abs(speed-t.lastValue) >= t.threshold
	longEnough := !t.sent || now.Sub(t.lastSentAt) >= t.interval
	if !hasChanged && !longEnough {
		return false
	}

	t.sent = true
	t.lastValue = speed
	t.lastSentAt = now
	return true
}

// Last returns the last forwarded value and when it was forwarded.
func (t *Throttle) Last() (value float64, at time.Time, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastValue, t.lastSentAt, t.sent
}
