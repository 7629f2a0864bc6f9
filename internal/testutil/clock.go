package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe manual clock for tests.
//
// Now returns the current instant and then advances it by Step, so every
// call observes a strictly later time. Records and journal rows created
// under a FixedClock get reproducible timestamps.
type FixedClock struct {
	mu    sync.Mutex
	now   time.Time
	start time.Time
	step  time.Duration
}

// NewFixedClock creates a clock starting at start that advances by step
// on every call to Now.
func NewFixedClock(start time.Time, step time.Duration) *FixedClock {
	return &FixedClock{now: start, start: start, step: step}
}

// Now returns the current instant and advances the clock.
//
// Thread-safe: uses mutex to protect now.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the current instant without advancing.
func (c *FixedClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to its start.
func (c *FixedClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
