package lockx

import "time"

// Guard is a scoped wrapper around an exclusive lock. It tracks whether it
// owns the lock and releases at most once, so a deferred Release is safe on
// every path out of a critical section.
//
// A Guard references the lock it wraps and never copies it. Hand the *Guard
// off to transfer ownership; a Guard must not be copied.
//
// The four constructors mirror the usual acquisition modes:
//
//	g := NewGuard(&mu)         // locks now, owning
//	g := NewDeferredGuard(&mu) // not locked yet
//	g := NewTryGuard(&mu)      // owning iff TryLock succeeded
//	g := NewAdoptGuard(&mu)    // caller already holds the lock
//
// Double-locking an owning guard or unlocking a non-owning one is a caller
// bug and panics. A Guard is a sync.Locker, so it can be handed to Cond.Wait;
// waiting with a non-owning guard panics the same way.
type Guard[L Lockable] struct {
	_     noCopy
	mu    L
	owned bool
}

// NewGuard locks l and returns an owning guard.
func NewGuard[L Lockable](l L) *Guard[L] {
	l.Lock()
	return &Guard[L]{mu: l, owned: true}
}

// NewDeferredGuard returns a non-owning guard over l without locking; lock it
// later through Lock, TryLock or the timed variants.
func NewDeferredGuard[L Lockable](l L) *Guard[L] {
	return &Guard[L]{mu: l}
}

// NewTryGuard try-locks l; the guard owns the lock iff that succeeded.
func NewTryGuard[L Lockable](l L) *Guard[L] {
	return &Guard[L]{mu: l, owned: l.TryLock()}
}

// NewAdoptGuard returns an owning guard over a lock the caller has already
// acquired, without locking again.
func NewAdoptGuard[L Lockable](l L) *Guard[L] {
	return &Guard[L]{mu: l, owned: true}
}

// Lock acquires the underlying lock. It panics if the guard already owns it.
func (g *Guard[L]) Lock() {
	if g.owned {
		panic("lockx: Lock of an owning Guard")
	}
	g.mu.Lock()
	g.owned = true
}

// TryLock attempts the underlying lock without suspending. It panics if the
// guard already owns it.
func (g *Guard[L]) TryLock() bool {
	if g.owned {
		panic("lockx: TryLock of an owning Guard")
	}
	g.owned = g.mu.TryLock()
	return g.owned
}

// TryLockFor attempts the underlying lock, giving up after d. It panics if
// the guard already owns the lock, or if L has no timed acquisition.
func (g *Guard[L]) TryLockFor(d time.Duration) bool {
	if g.owned {
		panic("lockx: TryLockFor of an owning Guard")
	}
	tl, ok := any(g.mu).(TimedLockable)
	if !ok {
		panic("lockx: TryLockFor of a Guard over a non-timed lock")
	}
	g.owned = tl.TryLockFor(d)
	return g.owned
}

// TryLockUntil attempts the underlying lock, giving up at deadline. It panics
// if the guard already owns the lock, or if L has no timed acquisition.
func (g *Guard[L]) TryLockUntil(deadline time.Time) bool {
	if g.owned {
		panic("lockx: TryLockUntil of an owning Guard")
	}
	tl, ok := any(g.mu).(TimedLockable)
	if !ok {
		panic("lockx: TryLockUntil of a Guard over a non-timed lock")
	}
	g.owned = tl.TryLockUntil(deadline)
	return g.owned
}

// Unlock releases the underlying lock and marks the guard non-owning. It
// panics if the guard does not own the lock.
func (g *Guard[L]) Unlock() {
	if !g.owned {
		panic("lockx: Unlock of a non-owning Guard")
	}
	g.owned = false
	g.mu.Unlock()
}

// Release unlocks iff the guard owns the lock. It is idempotent and meant
// for defer.
func (g *Guard[L]) Release() {
	if g.owned {
		g.owned = false
		g.mu.Unlock()
	}
}

// OwnsLock reports whether the guard currently owns the lock.
func (g *Guard[L]) OwnsLock() bool {
	return g.owned
}

// Mutex returns the wrapped lock.
func (g *Guard[L]) Mutex() L {
	return g.mu
}
