package utils

import "time"

// Clock abstracts wall-clock reads so retry scheduling and quiet-hours logic
// can be tested without real waits.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FakeClock is a manually advanced clock for tests.
type FakeClock struct {
	Current time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{Current: t}
}

func (c *FakeClock) Now() time.Time { return c.Current }

// Advance moves the fake clock forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.Current = c.Current.Add(d)
}
