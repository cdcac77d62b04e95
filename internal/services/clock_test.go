package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeTimer records whether it was stopped or fired.
type fakeTimer struct {
	mu      sync.Mutex
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}

	t.stopped = true

	return true
}

func (t *fakeTimer) fire() {
	t.mu.Lock()

	if t.stopped || t.fired {
		t.mu.Unlock()

		return
	}

	t.fired = true
	f := t.f
	t.mu.Unlock()

	f()
}

// fakeClock drives the debounced saver deterministically. Timers never fire
// on their own; tests call fireLast to simulate the window elapsing.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(time.Millisecond)

	return c.now
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{f: f}
	c.timers = append(c.timers, t)

	return t
}

// fireLast fires the most recently scheduled timer, the one a live debounce
// would see elapse.
func (c *fakeClock) fireLast() {
	c.mu.Lock()
	if len(c.timers) == 0 {
		c.mu.Unlock()

		return
	}

	t := c.timers[len(c.timers)-1]
	c.mu.Unlock()

	t.fire()
}

// scheduled returns how many timers were ever created.
func (c *fakeClock) scheduled() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.timers)
}

func TestRealClock_AfterFunc(t *testing.T) {
	t.Parallel()

	clock := NewClock()

	done := make(chan struct{})
	timer := clock.AfterFunc(time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	assert.False(t, timer.Stop())
	assert.False(t, clock.Now().IsZero())
}
