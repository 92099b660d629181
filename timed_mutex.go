package lockx

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/llxisdsh/lockx/internal/opt"
)

// TimedMutex is a mutual-exclusion lock with deadline- and context-bounded
// acquisition, built as a monitor over a single held flag. As with
// TimedRWMutex, the predicate decides before the timeout does: a lock that is
// free when a bounded attempt starts or wakes is taken even if the deadline
// already passed.
//
// The zero value is ready to use and times against the real clock;
// NewTimedMutex injects a clock. A TimedMutex must not be copied after first
// use.
type TimedMutex struct {
	_      noCopy
	mu     opt.Mutex_
	gate   Cond
	locked bool
	clock  clockwork.Clock
}

// NewTimedMutex returns a TimedMutex whose deadlines are measured with clock.
// A nil clock means the real clock.
func NewTimedMutex(clock clockwork.Clock) *TimedMutex {
	if clock == nil {
		clock = realClock
	}
	m := &TimedMutex{clock: clock}
	m.gate.clock = clock
	return m
}

func (m *TimedMutex) clk() clockwork.Clock {
	if m.clock != nil {
		return m.clock
	}
	return realClock
}

// Lock acquires the lock, suspending until it is free.
func (m *TimedMutex) Lock() {
	m.mu.Lock()
	for m.locked {
		m.gate.Wait(&m.mu)
	}
	m.locked = true
	m.mu.Unlock()
}

// TryLock attempts the lock without suspending.
func (m *TimedMutex) TryLock() bool {
	m.mu.Lock()
	ok := !m.locked
	if ok {
		m.locked = true
	}
	m.mu.Unlock()
	return ok
}

// TryLockFor is TryLockUntil with a deadline of now plus d.
func (m *TimedMutex) TryLockFor(d time.Duration) bool {
	return m.TryLockUntil(m.clk().Now().Add(d))
}

// TryLockUntil attempts the lock, giving up at deadline.
func (m *TimedMutex) TryLockUntil(deadline time.Time) bool {
	m.mu.Lock()
	notTimedOut := m.clk().Now().Before(deadline)
	for notTimedOut && m.locked {
		notTimedOut = m.gate.WaitUntil(&m.mu, deadline)
	}
	ok := !m.locked
	if ok {
		m.locked = true
	}
	m.mu.Unlock()
	return ok
}

// TryLockContext attempts the lock until ctx is done.
func (m *TimedMutex) TryLockContext(ctx context.Context) bool {
	m.mu.Lock()
	live := ctx.Err() == nil
	for live && m.locked {
		live = m.gate.WaitContext(ctx, &m.mu)
	}
	ok := !m.locked
	if ok {
		m.locked = true
	}
	m.mu.Unlock()
	return ok
}

// Unlock releases the lock and wakes one waiter.
func (m *TimedMutex) Unlock() {
	m.mu.Lock()
	if !m.locked {
		m.mu.Unlock()
		panic("lockx: Unlock of unlocked TimedMutex")
	}
	m.locked = false
	m.mu.Unlock()
	m.gate.Signal()
}
