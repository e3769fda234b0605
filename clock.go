package awaittree

import (
	"sync/atomic"
	"time"
)

// Clock is the time source a Tree uses to stamp node start times and compute
// elapsed durations for display. Tests substitute a fakeClock to get the
// literal, deterministic elapsed times tests require.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// DefaultClock is the Clock used by new tree contexts unless overridden.
var DefaultClock Clock = systemClock{}

// CoarseClock caches time.Now() and refreshes it on a fixed tick, matching
// a monotonic, coarse clock time source: pushing a span is on
// the hot path of every instrumented await point, so we trade a bounded
// amount of timestamp precision for avoiding a syscall/vDSO call per push.
type CoarseClock struct {
	now    atomic.Int64 // UnixNano
	ticker *time.Ticker
	done   chan struct{}
}

// NewCoarseClock starts a background goroutine that refreshes the cached
// time every interval. Call Stop to release it.
func NewCoarseClock(interval time.Duration) *CoarseClock {
	c := &CoarseClock{
		ticker: time.NewTicker(interval),
		done:   make(chan struct{}),
	}
	c.now.Store(time.Now().UnixNano())
	go c.run()
	return c
}

func (c *CoarseClock) run() {
	for {
		select {
		case t := <-c.ticker.C:
			c.now.Store(t.UnixNano())
		case <-c.done:
			return
		}
	}
}

// Now returns the most recently cached timestamp.
func (c *CoarseClock) Now() time.Time {
	return time.Unix(0, c.now.Load())
}

// Stop releases the background ticker goroutine.
func (c *CoarseClock) Stop() {
	c.ticker.Stop()
	close(c.done)
}

// fakeClock is a manually-advanced Clock used by tests to reproduce the
// literal elapsed times in scenario tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock(start time.Time) *fakeClock { return &fakeClock{t: start} }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
