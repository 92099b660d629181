package lockx

import "time"

// RGuard is Guard's shared-side twin: a scoped wrapper over the read side of
// a Reader-Writer lock. Lock and TryLock map to RLock and TryRLock, Unlock to
// RUnlock, so an RGuard is a sync.Locker over shared acquisition and several
// RGuards can own the same lock at once.
//
// Ownership tracking, Release semantics and the misuse panics match Guard.
type RGuard[L RLockable] struct {
	_     noCopy
	mu    L
	owned bool
}

// NewRGuard read-locks l and returns an owning guard.
func NewRGuard[L RLockable](l L) *RGuard[L] {
	l.RLock()
	return &RGuard[L]{mu: l, owned: true}
}

// NewDeferredRGuard returns a non-owning guard over l without locking.
func NewDeferredRGuard[L RLockable](l L) *RGuard[L] {
	return &RGuard[L]{mu: l}
}

// NewTryRGuard try-read-locks l; the guard owns the lock iff that succeeded.
func NewTryRGuard[L RLockable](l L) *RGuard[L] {
	return &RGuard[L]{mu: l, owned: l.TryRLock()}
}

// NewAdoptRGuard returns an owning guard over a read lock the caller has
// already acquired, without locking again.
func NewAdoptRGuard[L RLockable](l L) *RGuard[L] {
	return &RGuard[L]{mu: l, owned: true}
}

// Lock acquires the read side of the underlying lock. It panics if the guard
// already owns it.
func (g *RGuard[L]) Lock() {
	if g.owned {
		panic("lockx: Lock of an owning RGuard")
	}
	g.mu.RLock()
	g.owned = true
}

// TryLock attempts the read side without suspending. It panics if the guard
// already owns it.
func (g *RGuard[L]) TryLock() bool {
	if g.owned {
		panic("lockx: TryLock of an owning RGuard")
	}
	g.owned = g.mu.TryRLock()
	return g.owned
}

// TryLockFor attempts the read side, giving up after d. It panics if the
// guard already owns the lock, or if L has no timed acquisition.
func (g *RGuard[L]) TryLockFor(d time.Duration) bool {
	if g.owned {
		panic("lockx: TryLockFor of an owning RGuard")
	}
	tl, ok := any(g.mu).(TimedRLockable)
	if !ok {
		panic("lockx: TryLockFor of an RGuard over a non-timed lock")
	}
	g.owned = tl.TryRLockFor(d)
	return g.owned
}

// TryLockUntil attempts the read side, giving up at deadline. It panics if
// the guard already owns the lock, or if L has no timed acquisition.
func (g *RGuard[L]) TryLockUntil(deadline time.Time) bool {
	if g.owned {
		panic("lockx: TryLockUntil of an owning RGuard")
	}
	tl, ok := any(g.mu).(TimedRLockable)
	if !ok {
		panic("lockx: TryLockUntil of an RGuard over a non-timed lock")
	}
	g.owned = tl.TryRLockUntil(deadline)
	return g.owned
}

// Unlock releases the read lock and marks the guard non-owning. It panics if
// the guard does not own the lock.
func (g *RGuard[L]) Unlock() {
	if !g.owned {
		panic("lockx: Unlock of a non-owning RGuard")
	}
	g.owned = false
	g.mu.RUnlock()
}

// Release read-unlocks iff the guard owns the lock. It is idempotent and
// meant for defer.
func (g *RGuard[L]) Release() {
	if g.owned {
		g.owned = false
		g.mu.RUnlock()
	}
}

// OwnsLock reports whether the guard currently owns the read lock.
func (g *RGuard[L]) OwnsLock() bool {
	return g.owned
}

// Mutex returns the wrapped lock.
func (g *RGuard[L]) Mutex() L {
	return g.mu
}
