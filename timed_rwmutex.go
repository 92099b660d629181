package lockx

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// TimedRWMutex is an RWMutex with deadline- and context-bounded acquisition.
// Every bounded wait re-checks its predicate after waking and lets the state
// decide before the timeout does, so a lock that frees up right at the
// deadline is still taken.
//
// The zero value is ready to use and times against the real clock;
// NewTimedRWMutex injects a clock.
type TimedRWMutex struct {
	RWMutex
	clock clockwork.Clock
}

// NewTimedRWMutex returns a TimedRWMutex whose deadlines are measured with
// clock. A nil clock means the real clock.
func NewTimedRWMutex(clock clockwork.Clock) *TimedRWMutex {
	rw := &TimedRWMutex{}
	rw.setClock(clock)
	return rw
}

func (rw *TimedRWMutex) setClock(clock clockwork.Clock) {
	if clock == nil {
		clock = realClock
	}
	rw.clock = clock
	rw.writerAvail.clock = clock
	rw.readerDrain.clock = clock
}

func (rw *TimedRWMutex) clk() clockwork.Clock {
	if rw.clock != nil {
		return rw.clock
	}
	return realClock
}

// TryLockFor is TryLockUntil with a deadline of now plus d.
func (rw *TimedRWMutex) TryLockFor(d time.Duration) bool {
	return rw.TryLockUntil(rw.clk().Now().Add(d))
}

// TryLockUntil attempts the write lock, giving up at deadline. A timeout
// before the claim leaves the state untouched. A timeout while draining rolls
// the claim back and wakes waiters, so a failed attempt is invisible
// afterwards.
func (rw *TimedRWMutex) TryLockUntil(deadline time.Time) bool {
	rw.mu.Lock()
	// 1. Claim the writer bit, bounded by deadline.
	for rw.state&writerBit != 0 {
		ok := rw.writerAvail.WaitUntil(&rw.mu, deadline)
		if rw.state&writerBit == 0 {
			break
		}
		if !ok {
			rw.mu.Unlock()
			return false
		}
	}
	rw.state |= writerBit
	// 2. Wait for existing readers to drain, rolling the claim back on
	// timeout.
	for rw.state&readerMask != 0 {
		ok := rw.readerDrain.WaitUntil(&rw.mu, deadline)
		if rw.state&readerMask == 0 {
			break
		}
		if !ok {
			rw.state &^= writerBit
			rw.mu.Unlock()
			rw.writerAvail.Broadcast()
			return false
		}
	}
	rw.mu.Unlock()
	return true
}

// TryRLockFor is TryRLockUntil with a deadline of now plus d.
func (rw *TimedRWMutex) TryRLockFor(d time.Duration) bool {
	return rw.TryRLockUntil(rw.clk().Now().Add(d))
}

// TryRLockUntil attempts a read lock, giving up at deadline. Failure leaves
// the state untouched; shared acquisition never partially claims, so there is
// nothing to roll back.
func (rw *TimedRWMutex) TryRLockUntil(deadline time.Time) bool {
	rw.mu.Lock()
	for rw.state&writerBit != 0 || rw.state&readerMask == readerMask {
		ok := rw.writerAvail.WaitUntil(&rw.mu, deadline)
		if rw.state&writerBit == 0 && rw.state&readerMask < readerMask {
			break
		}
		if !ok {
			rw.mu.Unlock()
			return false
		}
	}
	rw.state++
	rw.mu.Unlock()
	return true
}

// TryLockContext attempts the write lock until ctx is done. The rollback
// rules match TryLockUntil; a free lock is taken even under a done ctx.
func (rw *TimedRWMutex) TryLockContext(ctx context.Context) bool {
	rw.mu.Lock()
	for rw.state&writerBit != 0 {
		ok := rw.writerAvail.WaitContext(ctx, &rw.mu)
		if rw.state&writerBit == 0 {
			break
		}
		if !ok {
			rw.mu.Unlock()
			return false
		}
	}
	rw.state |= writerBit
	for rw.state&readerMask != 0 {
		ok := rw.readerDrain.WaitContext(ctx, &rw.mu)
		if rw.state&readerMask == 0 {
			break
		}
		if !ok {
			rw.state &^= writerBit
			rw.mu.Unlock()
			rw.writerAvail.Broadcast()
			return false
		}
	}
	rw.mu.Unlock()
	return true
}

// TryRLockContext attempts a read lock until ctx is done.
func (rw *TimedRWMutex) TryRLockContext(ctx context.Context) bool {
	rw.mu.Lock()
	for rw.state&writerBit != 0 || rw.state&readerMask == readerMask {
		ok := rw.writerAvail.WaitContext(ctx, &rw.mu)
		if rw.state&writerBit == 0 && rw.state&readerMask < readerMask {
			break
		}
		if !ok {
			rw.mu.Unlock()
			return false
		}
	}
	rw.state++
	rw.mu.Unlock()
	return true
}
