package testutil

import (
	"sync"
	"time"
)

// Clock is a deterministic time source. Every call to Now advances it by Step.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	Step time.Duration
}

// NewClock returns a Clock starting at 2025-01-01 00:00:00 UTC that advances
// one second per reading.
func NewClock() *Clock {
	return &Clock{
		now:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Step: time.Second,
	}
}

// Now returns the current reading and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.Step)
	return t
}
