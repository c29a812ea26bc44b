package animation

import "time"

// Clock is the time source of the animation loop and the reactor.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// ManualClock is a Clock whose time only moves when told to. Sleep advances
// it instead of blocking, so animations driven by it finish immediately with
// the exact frame sequence a real clock would produce.
type ManualClock struct {
	now    time.Time
	slept  time.Duration
	sleeps int
}

// NewManualClock returns a ManualClock starting at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

func (c *ManualClock) Now() time.Time { return c.now }

func (c *ManualClock) Sleep(d time.Duration) {
	c.now = c.now.Add(d)
	c.slept += d
	c.sleeps++
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) { c.now = t }

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// Slept returns the total duration and number of Sleep calls.
func (c *ManualClock) Slept() (time.Duration, int) { return c.slept, c.sleeps }
