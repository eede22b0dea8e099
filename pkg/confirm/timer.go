package confirm // import "github.com/joincivil/content-moderation-adapter/pkg/confirm"

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// InstantTimer is a backoff.Timer that fires as soon as it is started and
// records the requested waits. Used for dry runs and tests.
type InstantTimer struct {
	c     chan time.Time
	mu    sync.Mutex
	waits []time.Duration
}

// NewInstantTimer returns an InstantTimer
func NewInstantTimer() *InstantTimer {
	return &InstantTimer{c: make(chan time.Time, 1)}
}

// InstantTimers returns a timer factory for Watcher.NewTimer whose timers
// all record into the returned InstantTimer. The timers share one channel, so
// polls using them must not overlap.
func InstantTimers() (func() backoff.Timer, *InstantTimer) {
	t := NewInstantTimer()
	return func() backoff.Timer { return t }, t
}

// Start implements backoff.Timer
func (t *InstantTimer) Start(duration time.Duration) {
	t.mu.Lock()
	t.waits = append(t.waits, duration)
	t.mu.Unlock()
	select {
	case t.c <- time.Now():
	default:
	}
}

// Stop implements backoff.Timer
func (t *InstantTimer) Stop() {}

// C implements backoff.Timer
func (t *InstantTimer) C() <-chan time.Time {
	return t.c
}

// Waits returns the durations the timer was started with
func (t *InstantTimer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration{}, t.waits...)
}
