package sim

import (
	"sort"
	"sync"
	"time"
)

type timer struct {
	next     time.Duration
	interval time.Duration
	fn       func()
	seq      int
}

// Clock is a virtual clock. Sleep advances the time without blocking and
// runs the callbacks due meanwhile, which drives the simulated peer of the
// sleeping side.
type Clock struct {
	now     time.Duration
	timers  []*timer
	seq     int
	running bool
	lock    sync.Mutex
}

// NewClock creates a Clock at time 0.
func NewClock() *Clock {
	return &Clock{}
}

// Now returns the virtual time elapsed.
func (c *Clock) Now() time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Every runs fn every interval, starting one interval from now.
func (c *Clock) Every(interval time.Duration, fn func()) {
	c.schedule(interval, interval, fn)
}

// After runs fn once after d.
func (c *Clock) After(d time.Duration, fn func()) {
	c.schedule(d, 0, fn)
}

func (c *Clock) schedule(d, interval time.Duration, fn func()) {
	c.lock.Lock()
	c.seq++
	c.timers = append(c.timers, &timer{next: c.now + d, interval: interval, fn: fn, seq: c.seq})
	c.lock.Unlock()
}

// Sleep implements link.Clock. Callbacks sleeping themselves only advance
// the time.
func (c *Clock) Sleep(d time.Duration) {
	c.lock.Lock()
	deadline := c.now + d
	if c.running {
		if deadline > c.now {
			c.now = deadline
		}
		c.lock.Unlock()
		return
	}
	c.running = true
	for {
		t := c.nextLocked(deadline)
		if t == nil {
			break
		}
		if t.next > c.now {
			c.now = t.next
		}
		if t.interval > 0 {
			t.next += t.interval
		} else {
			c.removeLocked(t)
		}
		c.lock.Unlock()
		t.fn()
		c.lock.Lock()
	}
	if deadline > c.now {
		c.now = deadline
	}
	c.running = false
	c.lock.Unlock()
}

// Advance is the same as Sleep.
func (c *Clock) Advance(d time.Duration) {
	c.Sleep(d)
}

func (c *Clock) nextLocked(deadline time.Duration) *timer {
	if len(c.timers) == 0 {
		return nil
	}
	sort.Slice(c.timers, func(i, j int) bool {
		if c.timers[i].next == c.timers[j].next {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].next < c.timers[j].next
	})
	if t := c.timers[0]; t.next <= deadline {
		return t
	}
	return nil
}

func (c *Clock) removeLocked(t *timer) {
	for n, ent := range c.timers {
		if ent == t {
			c.timers = append(c.timers[:n], c.timers[n+1:]...)
			return
		}
	}
}
