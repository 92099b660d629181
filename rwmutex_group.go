package lockx

import (
	"github.com/llxisdsh/pb"
)

// RWMutexGroup provides monitor-based Reader-Writer locking on arbitrary
// keys.
//
// Features:
//   - RLock/RUnlock for shared access, Lock/Unlock for exclusive access,
//     plus the non-blocking Try forms.
//   - Infinite keys: entries are created on demand and dropped once the last
//     holder or waiter releases.
//
// Usage:
//
//	var group RWMutexGroup[string]
//
//	group.RLock("config")
//	read(config)
//	group.RUnlock("config")
//
//	group.Lock("config")
//	write(config)
//	group.Unlock("config")
//
// The zero value is ready to use.
type RWMutexGroup[K comparable] struct {
	_ noCopy
	m pb.MapOf[K, *rwMutexGroupEntry]
}

type rwMutexGroupEntry struct {
	mu RWMutex
	// ref is mutated only inside ProcessEntry, which serializes per key.
	ref int32
}

// retain returns the entry for k, creating it on demand, with its reference
// count raised on behalf of the caller.
func (g *RWMutexGroup[K]) retain(k K) *rwMutexGroupEntry {
	v, _ := g.m.ProcessEntry(
		k,
		func(l *pb.EntryOf[K, *rwMutexGroupEntry]) (*pb.EntryOf[K, *rwMutexGroupEntry], *rwMutexGroupEntry, bool) {
			if l != nil {
				l.Value.ref++
				return l, l.Value, true
			}
			e := &rwMutexGroupEntry{ref: 1}
			return &pb.EntryOf[K, *rwMutexGroupEntry]{Value: e}, e, false
		},
	)
	return v
}

// release drops one reference to k's entry and deletes it at zero.
func (g *RWMutexGroup[K]) release(k K) {
	g.m.ProcessEntry(
		k,
		func(l *pb.EntryOf[K, *rwMutexGroupEntry]) (*pb.EntryOf[K, *rwMutexGroupEntry], *rwMutexGroupEntry, bool) {
			if l == nil {
				return nil, nil, false
			}
			l.Value.ref--
			if l.Value.ref <= 0 {
				return nil, nil, true
			}
			return l, nil, false
		},
	)
}

// Lock acquires the write lock for key k, creating its entry on demand.
func (g *RWMutexGroup[K]) Lock(k K) {
	g.retain(k).mu.Lock()
}

// TryLock attempts the write lock for key k without suspending.
func (g *RWMutexGroup[K]) TryLock(k K) bool {
	ok := g.retain(k).mu.TryLock()
	if !ok {
		g.release(k)
	}
	return ok
}

// Unlock releases the write lock for key k and drops the entry once nobody
// holds or waits on it. Unlocking a key with no entry is a no-op.
func (g *RWMutexGroup[K]) Unlock(k K) {
	v, ok := g.m.Load(k)
	if !ok {
		return
	}
	v.mu.Unlock()
	g.release(k)
}

// RLock acquires a read lock for key k, creating its entry on demand.
func (g *RWMutexGroup[K]) RLock(k K) {
	g.retain(k).mu.RLock()
}

// TryRLock attempts a read lock for key k without suspending.
func (g *RWMutexGroup[K]) TryRLock(k K) bool {
	ok := g.retain(k).mu.TryRLock()
	if !ok {
		g.release(k)
	}
	return ok
}

// RUnlock releases a read lock for key k and drops the entry once nobody
// holds or waits on it. Unlocking a key with no entry is a no-op.
func (g *RWMutexGroup[K]) RUnlock(k K) {
	v, ok := g.m.Load(k)
	if !ok {
		return
	}
	v.mu.RUnlock()
	g.release(k)
}
