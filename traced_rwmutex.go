package lockx

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// TracedRWMutex wraps a TimedRWMutex and reports how long acquisitions wait.
// An acquisition that waits at least the slow threshold is logged as a
// warning carrying the operation, the measured wait and the packed state
// observed after entry; a zero threshold logs every acquisition. Failed try
// and bounded acquisitions are logged at debug level. Release operations are
// never logged.
//
// The wrapped surface is unchanged, so guards, RLocker and the capability
// interfaces all work over it.
type TracedRWMutex struct {
	mu   TimedRWMutex
	log  zerolog.Logger
	slow time.Duration
}

// NewTracedRWMutex returns a traced lock logging to log. Acquisitions waiting
// slow or longer are reported; waits are measured with clock, nil meaning the
// real clock.
func NewTracedRWMutex(log zerolog.Logger, slow time.Duration, clock clockwork.Clock) *TracedRWMutex {
	m := &TracedRWMutex{log: log, slow: slow}
	m.mu.setClock(clock)
	return m
}

func (m *TracedRWMutex) observe(op string, start time.Time, ok bool) bool {
	wait := m.mu.clk().Now().Sub(start)
	if !ok {
		m.log.Debug().Str("op", op).Dur("wait", wait).Msg("lock not acquired")
		return ok
	}
	if wait >= m.slow {
		m.log.Warn().
			Str("op", op).
			Dur("wait", wait).
			Uint8("state", m.mu.loadState()).
			Msg("slow lock acquisition")
	}
	return ok
}

// Lock acquires the write lock.
func (m *TracedRWMutex) Lock() {
	start := m.mu.clk().Now()
	m.mu.Lock()
	m.observe("Lock", start, true)
}

// TryLock attempts the write lock without suspending.
func (m *TracedRWMutex) TryLock() bool {
	start := m.mu.clk().Now()
	return m.observe("TryLock", start, m.mu.TryLock())
}

// Unlock releases the write lock.
func (m *TracedRWMutex) Unlock() {
	m.mu.Unlock()
}

// RLock acquires a read lock.
func (m *TracedRWMutex) RLock() {
	start := m.mu.clk().Now()
	m.mu.RLock()
	m.observe("RLock", start, true)
}

// TryRLock attempts a read lock without suspending.
func (m *TracedRWMutex) TryRLock() bool {
	start := m.mu.clk().Now()
	return m.observe("TryRLock", start, m.mu.TryRLock())
}

// RUnlock releases a read lock.
func (m *TracedRWMutex) RUnlock() {
	m.mu.RUnlock()
}

// TryLockFor attempts the write lock, giving up after d.
func (m *TracedRWMutex) TryLockFor(d time.Duration) bool {
	start := m.mu.clk().Now()
	return m.observe("TryLockFor", start, m.mu.TryLockFor(d))
}

// TryLockUntil attempts the write lock, giving up at deadline.
func (m *TracedRWMutex) TryLockUntil(deadline time.Time) bool {
	start := m.mu.clk().Now()
	return m.observe("TryLockUntil", start, m.mu.TryLockUntil(deadline))
}

// TryRLockFor attempts a read lock, giving up after d.
func (m *TracedRWMutex) TryRLockFor(d time.Duration) bool {
	start := m.mu.clk().Now()
	return m.observe("TryRLockFor", start, m.mu.TryRLockFor(d))
}

// TryRLockUntil attempts a read lock, giving up at deadline.
func (m *TracedRWMutex) TryRLockUntil(deadline time.Time) bool {
	start := m.mu.clk().Now()
	return m.observe("TryRLockUntil", start, m.mu.TryRLockUntil(deadline))
}

// TryLockContext attempts the write lock until ctx is done.
func (m *TracedRWMutex) TryLockContext(ctx context.Context) bool {
	start := m.mu.clk().Now()
	return m.observe("TryLockContext", start, m.mu.TryLockContext(ctx))
}

// TryRLockContext attempts a read lock until ctx is done.
func (m *TracedRWMutex) TryRLockContext(ctx context.Context) bool {
	start := m.mu.clk().Now()
	return m.observe("TryRLockContext", start, m.mu.TryRLockContext(ctx))
}

// RLocker returns a sync.Locker that acquires and releases the read side,
// traced like the direct calls.
func (m *TracedRWMutex) RLocker() sync.Locker {
	return (*tracedRLocker)(m)
}

type tracedRLocker TracedRWMutex

func (r *tracedRLocker) Lock()   { (*TracedRWMutex)(r).RLock() }
func (r *tracedRLocker) Unlock() { (*TracedRWMutex)(r).RUnlock() }
