package lockx

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimedMutex_Basic(t *testing.T) {
	t.Parallel()
	var m TimedMutex

	m.Lock()
	assert.False(t, m.TryLock())
	m.Unlock()
	assert.True(t, m.TryLock())
	m.Unlock()
}

func TestTimedMutex_Blocks(t *testing.T) {
	t.Parallel()
	var m TimedMutex

	m.Lock()
	acquired := make(chan bool)
	go func() {
		m.Lock()
		acquired <- true
	}()
	select {
	case <-acquired:
		t.Fatal("Lock should block while the mutex is held")
	case <-time.After(10 * time.Millisecond):
	}
	m.Unlock()
	<-acquired
	m.Unlock()
}

func TestTimedMutex_Timeout(t *testing.T) {
	t.Parallel()
	clk := clockwork.NewFakeClock()
	m := NewTimedMutex(clk)

	m.Lock()

	res := make(chan bool, 1)
	go func() {
		res <- m.TryLockFor(time.Second)
	}()
	clk.BlockUntil(1)
	clk.Advance(time.Second)
	assert.False(t, <-res)

	m.Unlock()
	assert.True(t, m.TryLock())
	m.Unlock()
}

func TestTimedMutex_PastDeadline(t *testing.T) {
	t.Parallel()
	clk := clockwork.NewFakeClock()
	m := NewTimedMutex(clk)

	// Free mutex: handed over even under a past deadline.
	assert.True(t, m.TryLockUntil(clk.Now().Add(-time.Hour)))
	assert.False(t, m.TryLockUntil(clk.Now().Add(-time.Hour)))
	assert.False(t, m.TryLockFor(-time.Second))
	m.Unlock()
}

func TestTimedMutex_AcquiredBeforeDeadline(t *testing.T) {
	t.Parallel()
	clk := clockwork.NewFakeClock()
	m := NewTimedMutex(clk)

	m.Lock()

	res := make(chan bool, 1)
	go func() {
		res <- m.TryLockUntil(clk.Now().Add(time.Hour))
	}()
	clk.BlockUntil(1)

	m.Unlock()
	assert.True(t, <-res)
	m.Unlock()
}

func TestTimedMutex_Context(t *testing.T) {
	t.Parallel()
	var m TimedMutex

	m.Lock()

	ctx, cancel := context.WithCancel(context.Background())
	res := make(chan bool, 1)
	go func() {
		res <- m.TryLockContext(ctx)
	}()
	require.Eventually(t, func() bool {
		return m.gate.waiters() == 1
	}, time.Second, time.Millisecond)
	cancel()
	assert.False(t, <-res)
	m.Unlock()

	assert.True(t, m.TryLockContext(ctx), "a free mutex needs no waiting")
	m.Unlock()
}

func TestTimedMutex_UnlockPanics(t *testing.T) {
	t.Parallel()
	var m TimedMutex
	require.Panics(t, func() { m.Unlock() })
}
