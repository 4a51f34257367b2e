// Package testutil provides deterministic helpers for tests.
package testutil

import (
	"sync"
	"time"
)

// DeterministicClock hands out strictly increasing wall-clock timestamps
// from a fixed base, so event timestamps in tests are reproducible across
// runs and machines.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu   sync.Mutex
	base time.Time
	step time.Duration
	n    int64
}

// NewDeterministicClock creates a clock starting at base, advancing by step
// on each call to Next.
func NewDeterministicClock(base time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{base: base.UTC(), step: step}
}

// NewClock creates a clock with a fixed, arbitrary base (2024-01-01T00:00:00Z)
// advancing one second per call. Convenient default for most tests.
func NewClock() *DeterministicClock {
	return NewDeterministicClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)
}

// Next returns the next timestamp and advances the clock.
func (c *DeterministicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.base.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// Current returns the most recently issued timestamp without advancing.
// Before the first Next call it returns the base.
func (c *DeterministicClock) Current() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return c.base
	}
	return c.base.Add(time.Duration(c.n-1) * c.step)
}

// Reset rewinds the clock to its base. After Reset, Next returns the base
// timestamp again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
