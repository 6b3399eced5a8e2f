// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rc

import (
	"sync"
	"time"
)

// Clock supplies the time for stages that move over time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a clock that only moves when told to. Simulations and tests
// drive timed stages with it.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a clock stopped at start
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ticker measures whole milliseconds elapsed between calls
type ticker struct {
	clock Clock
	last  time.Time
}

func newTicker(c Clock) ticker {
	if c == nil {
		c = SystemClock{}
	}
	return ticker{clock: c, last: c.Now()}
}

// elapsed returns the whole milliseconds since the previous call. The
// sub-millisecond remainder carries over to the next call.
func (t *ticker) elapsed() int32 {
	now := t.clock.Now()
	d := now.Sub(t.last).Milliseconds()
	if d < 0 {
		t.last = now
		return 0
	}
	t.last = t.last.Add(time.Duration(d) * time.Millisecond)
	if d > 1<<30 {
		d = 1 << 30
	}
	return int32(d)
}

// peek returns the milliseconds since the previous call without restarting
func (t *ticker) peek() int32 {
	d := t.clock.Now().Sub(t.last).Milliseconds()
	if d < 0 {
		return 0
	}
	if d > 1<<30 {
		d = 1 << 30
	}
	return int32(d)
}

// reset restarts the measurement from now
func (t *ticker) reset() {
	t.last = t.clock.Now()
}
