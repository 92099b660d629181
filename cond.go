package lockx

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var realClock = clockwork.NewRealClock()

// Cond is a condition variable with deadline- and context-bounded waits.
//
// It exists because sync.Cond cannot bound a wait, and the monitor loops in
// this package need waits that give up at a deadline. Unlike sync.Cond the
// locker is passed per call, so one Cond can serve callers holding the same
// lock through different wrappers; a *Guard or *RGuard is a sync.Locker and
// works here directly.
//
// Properties:
//   - Signal wakes the longest-enqueued waiter.
//   - A notification between enqueue and sleep is never lost.
//   - Waiters can wake without their predicate holding; callers must
//     re-check in a loop.
//
// The zero value is ready to use and times against the real clock; NewCond
// injects a different clock.
type Cond struct {
	_     noCopy
	clock clockwork.Clock

	// mu guards the waiter list. It is never held while sleeping.
	mu   sync.Mutex
	head *condWaiter
	tail *condWaiter
}

type condWaiter struct {
	ch chan struct{}
	// next is protected by Cond.mu
	next *condWaiter
}

// NewCond returns a Cond whose timed waits are measured with clock. A nil
// clock means the real clock.
func NewCond(clock clockwork.Clock) *Cond {
	if clock == nil {
		clock = realClock
	}
	return &Cond{clock: clock}
}

func (c *Cond) clk() clockwork.Clock {
	if c.clock != nil {
		return c.clock
	}
	return realClock
}

// enqueue appends a waiter while the caller still holds the lock it is about
// to release, so the waiter is visible to notifiers before the lock drops.
func (c *Cond) enqueue() *condWaiter {
	w := &condWaiter{ch: make(chan struct{})}
	c.mu.Lock()
	if c.tail == nil {
		c.head = w
	} else {
		c.tail.next = w
	}
	c.tail = w
	c.mu.Unlock()
	return w
}

// remove unlinks w if it is still queued. A waiter that is already gone was
// taken by Signal or Broadcast and needs no unlinking.
func (c *Cond) remove(w *condWaiter) {
	c.mu.Lock()
	var prev *condWaiter
	for curr := c.head; curr != nil; curr = curr.next {
		if curr == w {
			if prev == nil {
				c.head = curr.next
			} else {
				prev.next = curr.next
			}
			if curr == c.tail {
				c.tail = prev
			}
			break
		}
		prev = curr
	}
	c.mu.Unlock()
}

// Wait atomically releases l and suspends the calling goroutine until Signal
// or Broadcast wakes it, then re-acquires l before returning. The caller must
// hold l.
func (c *Cond) Wait(l sync.Locker) {
	w := c.enqueue()
	l.Unlock()
	<-w.ch
	l.Lock()
}

// WaitUntil is Wait bounded by an absolute deadline. If deadline already
// passed it returns false immediately and l is never released. Otherwise the
// goroutine sleeps until woken or until the deadline fires, re-acquires l,
// and reports whether it woke before the deadline.
func (c *Cond) WaitUntil(l sync.Locker, deadline time.Time) bool {
	clk := c.clk()
	if deadline.Before(clk.Now()) {
		return false
	}
	w := c.enqueue()
	l.Unlock()

	timer := clk.NewTimer(deadline.Sub(clk.Now()))
	select {
	case <-w.ch:
	case <-timer.Chan():
	}
	timer.Stop()
	c.remove(w)

	l.Lock()
	return clk.Now().Before(deadline)
}

// WaitFor is WaitUntil with a deadline of now plus d.
func (c *Cond) WaitFor(l sync.Locker, d time.Duration) bool {
	return c.WaitUntil(l, c.clk().Now().Add(d))
}

// WaitContext is Wait bounded by ctx: it reports true when woken by Signal or
// Broadcast and false once ctx is done. A ctx that is already done returns
// false immediately with l never released.
func (c *Cond) WaitContext(ctx context.Context, l sync.Locker) bool {
	if ctx.Err() != nil {
		return false
	}
	w := c.enqueue()
	l.Unlock()

	select {
	case <-w.ch:
	case <-ctx.Done():
	}
	c.remove(w)

	l.Lock()
	return ctx.Err() == nil
}

// Signal wakes the longest-waiting goroutine, if there is one.
func (c *Cond) Signal() {
	c.mu.Lock()
	w := c.head
	if w != nil {
		c.head = w.next
		if c.head == nil {
			c.tail = nil
		}
		w.next = nil
		close(w.ch)
	}
	c.mu.Unlock()
}

// Broadcast wakes all current waiters.
func (c *Cond) Broadcast() {
	c.mu.Lock()
	for w := c.head; w != nil; {
		next := w.next
		w.next = nil
		close(w.ch)
		w = next
	}
	c.head = nil
	c.tail = nil
	c.mu.Unlock()
}
