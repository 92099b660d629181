//go:build !deadlock

package opt

import "sync"

const DeadlockEnabled_ = false

// Mutex_ guards monitor state.
// In !deadlock mode, it is a plain sync.Mutex.
type Mutex_ = sync.Mutex
