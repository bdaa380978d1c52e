// Package testutil holds helpers shared by package tests.
package testutil

import (
	"sync"
	"time"
)

// Clock is a settable wall clock for tests.
//
// Engines and the fulfillment client take a func() time.Time; pass
// clock.Now so "today", "this month" and minted timestamps are fixed.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock stopped at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Date is time.Date in UTC at the given hour and minute.
func Date(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}
