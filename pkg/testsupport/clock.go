package testsupport

import (
	"sync"
	"time"

	"github.com/goliatone/go-formbuilder/pkg/autosave"
)

// FakeClock drives autosave timers by hand. Timers fire only when Advance
// moves the clock past their deadline.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	when    time.Duration
	fn      func()
	stopped bool
	fired   bool
}

// NewFakeClock returns a clock at offset zero.
func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

// AfterFunc satisfies autosave.AfterFunc.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) autosave.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	timer := &fakeTimer{clock: c, when: c.now + d, fn: f}
	c.timers = append(c.timers, timer)
	return timer
}

// Advance moves the clock forward and runs due callbacks synchronously on
// the caller's goroutine, in the order the timers were created.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, timer := range c.timers {
		if !timer.stopped && !timer.fired && timer.when <= c.now {
			timer.fired = true
			due = append(due, timer)
		}
	}
	c.mu.Unlock()

	for _, timer := range due {
		timer.fn()
	}
}

// Pending reports how many timers are armed and not yet fired or stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, timer := range c.timers {
		if !timer.stopped && !timer.fired {
			n++
		}
	}
	return n
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
