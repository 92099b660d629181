package lockx

import (
	"sync"
	"time"
)

// Lockable is the minimal exclusive-lock capability the guards operate on.
// *sync.Mutex, *sync.RWMutex, *RWMutex, *TimedRWMutex, *TimedMutex and
// *TracedRWMutex all satisfy it.
type Lockable interface {
	Lock()
	TryLock() bool
	Unlock()
}

// TimedLockable extends Lockable with deadline-bounded acquisition.
type TimedLockable interface {
	Lockable
	TryLockFor(d time.Duration) bool
	TryLockUntil(deadline time.Time) bool
}

// RLockable is the shared-lock capability: the read side of a Reader-Writer
// lock.
type RLockable interface {
	RLock()
	TryRLock() bool
	RUnlock()
}

// TimedRLockable extends RLockable with deadline-bounded acquisition.
type TimedRLockable interface {
	RLockable
	TryRLockFor(d time.Duration) bool
	TryRLockUntil(deadline time.Time) bool
}

var (
	_ Lockable       = (*sync.Mutex)(nil)
	_ Lockable       = (*sync.RWMutex)(nil)
	_ RLockable      = (*sync.RWMutex)(nil)
	_ Lockable       = (*RWMutex)(nil)
	_ RLockable      = (*RWMutex)(nil)
	_ TimedLockable  = (*TimedRWMutex)(nil)
	_ TimedRLockable = (*TimedRWMutex)(nil)
	_ TimedLockable  = (*TimedMutex)(nil)
	_ TimedLockable  = (*TracedRWMutex)(nil)
	_ TimedRLockable = (*TracedRWMutex)(nil)

	_ sync.Locker = (*Guard[*sync.Mutex])(nil)
	_ sync.Locker = (*RGuard[*sync.RWMutex])(nil)
)
