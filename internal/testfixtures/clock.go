// Package testfixtures holds helpers shared by tests across packages.
package testfixtures

import (
	"sync"
	"time"
)

// ReferenceTime is Monday 2026-03-02 00:00 UTC, the anchor for scenario tests.
func ReferenceTime() time.Time {
	return time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
}

// Clock is a controllable time source.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock set to start, or to ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the clock's current instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// At sets the clock to hh:mm on the reference day.
func (c *Clock) At(hour, minute int) time.Time {
	t := ReferenceTime().Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
	c.Set(t)
	return t
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}
