//go:build deadlock

package opt

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

const DeadlockEnabled_ = true

// Mutex_ guards monitor state.
// In deadlock mode, it is a go-deadlock mutex that reports acquisitions stuck
// past the detector timeout.
type Mutex_ = deadlock.Mutex

func init() {
	deadlock.Opts.DeadlockTimeout = 30 * time.Second
}
