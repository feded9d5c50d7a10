// Package clock abstracts time access so that time-sensitive logic can be
// tested deterministically. Core code never reads the wall clock directly;
// it takes a Clock and asks it for now.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current instant.
type Clock interface {
	// Now returns the current time in UTC.
	Now() time.Time
}

// Compile-time interface guards.
var (
	_ Clock = System{}
	_ Clock = (*Fixed)(nil)
)

// System is the real wall clock.
type System struct{}

// Now implements Clock.
func (System) Now() time.Time {
	return time.Now().UTC()
}

// Fixed is a controllable clock for tests. It is safe for concurrent use.
type Fixed struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixed creates a Fixed clock set to the given instant.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{now: t.UTC()}
}

// Now implements Clock.
func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Set moves the clock to a new instant.
func (f *Fixed) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t.UTC()
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}
