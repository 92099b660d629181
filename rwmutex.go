package lockx

import (
	"sync"

	"github.com/llxisdsh/lockx/internal/opt"
)

// RWMutex is a monitor-based Reader-Writer lock: one mutex and two condition
// variables guarding a packed state byte. Waiters are suspended rather than
// spun, so it suits critical sections long enough to make spinning wasteful.
//
// Properties:
//   - Writer-Preferred: a writer claims intent first, which blocks NEW
//     readers while existing ones drain.
//   - Bounded readers: at most MaxReaders concurrent read holders.
//
// State: one byte. Bit 7 is the writer claim, bits 0-6 count readers. The
// byte is only touched with the internal mutex held.
//
// The zero value is ready to use. An RWMutex must not be copied after first
// use.
type RWMutex struct {
	_  noCopy
	mu opt.Mutex_

	// writerAvail parks writers waiting to claim and readers blocked by a
	// claim or by full capacity. readerDrain parks the one claiming writer
	// until the last reader leaves.
	writerAvail Cond
	readerDrain Cond

	state uint8
}

const (
	writerBit  = 1 << 7
	readerMask = writerBit - 1

	// MaxReaders is the largest number of concurrent read holders. RLock
	// suspends and TryRLock fails while the count is at this bound.
	MaxReaders = readerMask
)

// Lock acquires the write lock, suspending until no other writer has claimed
// and every reader has drained.
func (rw *RWMutex) Lock() {
	rw.mu.Lock()
	// 1. Claim the writer bit. This blocks NEW readers.
	for rw.state&writerBit != 0 {
		rw.writerAvail.Wait(&rw.mu)
	}
	rw.state |= writerBit
	// 2. Wait for existing readers to drain.
	for rw.state&readerMask != 0 {
		rw.readerDrain.Wait(&rw.mu)
	}
	rw.mu.Unlock()
}

// TryLock attempts the write lock without suspending. It succeeds only when
// no writer has claimed and no reader holds.
func (rw *RWMutex) TryLock() bool {
	rw.mu.Lock()
	ok := rw.state == 0
	if ok {
		rw.state |= writerBit
	}
	rw.mu.Unlock()
	return ok
}

// Unlock releases the write lock and wakes everyone parked on the claim:
// pending writers and blocked readers alike.
func (rw *RWMutex) Unlock() {
	rw.mu.Lock()
	if rw.state&writerBit == 0 {
		rw.mu.Unlock()
		panic("lockx: Unlock of unlocked RWMutex")
	}
	rw.state = 0
	rw.mu.Unlock()
	rw.writerAvail.Broadcast()
}

// RLock acquires a read lock, suspending while a writer has claimed or the
// reader count is at MaxReaders.
func (rw *RWMutex) RLock() {
	rw.mu.Lock()
	for rw.state&writerBit != 0 || rw.state&readerMask == readerMask {
		rw.writerAvail.Wait(&rw.mu)
	}
	rw.state++
	rw.mu.Unlock()
}

// TryRLock attempts a read lock without suspending.
func (rw *RWMutex) TryRLock() bool {
	rw.mu.Lock()
	ok := rw.state&writerBit == 0 && rw.state&readerMask < readerMask
	if ok {
		rw.state++
	}
	rw.mu.Unlock()
	return ok
}

// RUnlock releases a read lock. Wakeups are narrow: the draining writer is
// signaled only when the last reader leaves, and one waiter blocked on full
// capacity is signaled only on the MaxReaders to MaxReaders-1 transition.
// Every other release wakes nobody.
func (rw *RWMutex) RUnlock() {
	rw.mu.Lock()
	if rw.state&readerMask == 0 {
		rw.mu.Unlock()
		panic("lockx: RUnlock of unlocked RWMutex")
	}
	rw.state--
	readers := rw.state & readerMask
	var wake *Cond
	if rw.state&writerBit != 0 {
		if readers == 0 {
			wake = &rw.readerDrain
		}
	} else if readers == readerMask-1 {
		wake = &rw.writerAvail
	}
	rw.mu.Unlock()
	if wake != nil {
		wake.Signal()
	}
}

// RLocker returns a sync.Locker that acquires and releases the read side.
func (rw *RWMutex) RLocker() sync.Locker {
	return (*rlocker)(rw)
}

type rlocker RWMutex

func (r *rlocker) Lock()   { (*RWMutex)(r).RLock() }
func (r *rlocker) Unlock() { (*RWMutex)(r).RUnlock() }

// loadState snapshots the packed state byte.
func (rw *RWMutex) loadState() uint8 {
	rw.mu.Lock()
	s := rw.state
	rw.mu.Unlock()
	return s
}
