// Package testutil provides deterministic helpers for tests and the
// conformance harness.
package testutil

import (
	"sync"
	"time"
)

// WallClock is a settable wall clock for tests.
//
// Production code takes `func() time.Time`; tests hand it clock.Now
// and drive time explicitly with Set and Advance. Time never moves on
// its own, so window boundaries (idempotency, undo) can be pinned
// exactly.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type WallClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewWallClock creates a clock frozen at the given instant.
func NewWallClock(at time.Time) *WallClock {
	return &WallClock{now: at}
}

// Now returns the current frozen instant.
//
// The method value clock.Now satisfies the `func() time.Time`
// injection point.
func (c *WallClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to an absolute instant. Backwards moves are
// allowed; tests own the timeline.
func (c *WallClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}

// Advance moves the clock forward (or, with a negative duration,
// backward) relative to its current instant.
func (c *WallClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
