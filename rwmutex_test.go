package lockx

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/llxisdsh/lockx/internal/opt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRWMutex_Basic(t *testing.T) {
	t.Parallel()
	var rw RWMutex

	rw.Lock()
	assert.Equal(t, uint8(writerBit), rw.loadState())
	rw.Unlock()
	assert.Equal(t, uint8(0), rw.loadState())

	rw.RLock()
	rw.RLock()
	assert.Equal(t, uint8(2), rw.loadState())
	rw.RUnlock()
	rw.RUnlock()
	assert.Equal(t, uint8(0), rw.loadState())
}

func TestRWMutex_TryLock(t *testing.T) {
	t.Parallel()
	var rw RWMutex

	assert.True(t, rw.TryLock())
	assert.False(t, rw.TryLock())
	assert.False(t, rw.TryRLock())
	rw.Unlock()

	assert.True(t, rw.TryRLock())
	assert.False(t, rw.TryLock(), "a reader must block writers")
	assert.True(t, rw.TryRLock())
	rw.RUnlock()
	rw.RUnlock()
	assert.True(t, rw.TryLock())
	rw.Unlock()
}

func TestRWMutex_ReaderCapacity(t *testing.T) {
	t.Parallel()
	var rw RWMutex

	for range MaxReaders {
		require.True(t, rw.TryRLock())
	}
	assert.Equal(t, uint8(MaxReaders), rw.loadState())
	assert.False(t, rw.TryRLock(), "reader slots are exhausted")

	rw.RUnlock()
	assert.True(t, rw.TryRLock())

	for range MaxReaders {
		rw.RUnlock()
	}
	assert.Equal(t, uint8(0), rw.loadState())
}

func TestRWMutex_CapacityWakeup(t *testing.T) {
	t.Parallel()
	var rw RWMutex

	for range MaxReaders {
		rw.RLock()
	}

	acquired := make(chan bool)
	go func() {
		rw.RLock()
		acquired <- true
	}()

	select {
	case <-acquired:
		t.Fatal("RLock should block while the lock is at capacity")
	case <-time.After(10 * time.Millisecond):
	}

	rw.RUnlock()
	<-acquired

	for range MaxReaders {
		rw.RUnlock()
	}
}

func TestRWMutex_WritePreference(t *testing.T) {
	t.Parallel()
	var rw RWMutex

	rw.RLock()

	writerIn := make(chan bool)
	go func() {
		rw.Lock()
		writerIn <- true
	}()

	// The claim lands even while the reader holds the lock.
	require.Eventually(t, func() bool {
		return rw.loadState()&writerBit != 0
	}, time.Second, time.Millisecond)

	assert.False(t, rw.TryRLock(), "a claimed lock must turn new readers away")

	readerIn := make(chan bool)
	go func() {
		rw.RLock()
		readerIn <- true
	}()
	select {
	case <-readerIn:
		t.Fatal("RLock should block behind a claimed writer")
	case <-time.After(10 * time.Millisecond):
	}

	rw.RUnlock()
	<-writerIn
	assert.Equal(t, uint8(writerBit), rw.loadState())

	rw.Unlock()
	<-readerIn
	rw.RUnlock()
	assert.Equal(t, uint8(0), rw.loadState())
}

func TestRWMutex_WriterDrainScenario(t *testing.T) {
	t.Parallel()
	var rw RWMutex

	assert.Equal(t, uint8(0), rw.loadState())
	rw.RLock()
	assert.Equal(t, uint8(1), rw.loadState())
	rw.RLock()
	assert.Equal(t, uint8(2), rw.loadState())

	locked := make(chan bool)
	go func() {
		rw.Lock()
		locked <- true
	}()
	require.Eventually(t, func() bool {
		return rw.loadState() == writerBit|2
	}, time.Second, time.Millisecond)

	rw.RUnlock()
	assert.Equal(t, uint8(writerBit|1), rw.loadState())
	select {
	case <-locked:
		t.Fatal("the writer should still be draining")
	case <-time.After(10 * time.Millisecond):
	}

	rw.RUnlock()
	<-locked
	assert.Equal(t, uint8(writerBit), rw.loadState())

	rw.Unlock()
	assert.Equal(t, uint8(0), rw.loadState())
}

func TestRWMutex_ReadersAndWriters(t *testing.T) {
	t.Parallel()
	var rw RWMutex
	var readers, writers int32

	readerN := runtime.GOMAXPROCS(0)
	writerN := 2
	loops := 1000
	if opt.DeadlockEnabled_ {
		loops = 200
	}

	var g errgroup.Group
	for range readerN {
		g.Go(func() error {
			for range loops {
				rw.RLock()
				atomic.AddInt32(&readers, 1)
				if atomic.LoadInt32(&writers) != 0 {
					return fmt.Errorf("reader saw an active writer")
				}
				atomic.AddInt32(&readers, -1)
				rw.RUnlock()
			}
			return nil
		})
	}
	for range writerN {
		g.Go(func() error {
			for range loops {
				rw.Lock()
				if n := atomic.AddInt32(&writers, 1); n != 1 {
					return fmt.Errorf("%d concurrent writers", n)
				}
				if n := atomic.LoadInt32(&readers); n != 0 {
					return fmt.Errorf("writer saw %d active readers", n)
				}
				atomic.AddInt32(&writers, -1)
				rw.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, uint8(0), rw.loadState())
}

func TestRWMutex_MisusePanics(t *testing.T) {
	t.Parallel()
	var rw RWMutex

	require.Panics(t, func() { rw.Unlock() })
	require.Panics(t, func() { rw.RUnlock() })

	rw.RLock()
	require.Panics(t, func() { rw.Unlock() }, "Unlock without the writer bit set")
	rw.RUnlock()
}

func TestRWMutex_RLocker(t *testing.T) {
	t.Parallel()
	var rw RWMutex

	r := rw.RLocker()
	r.Lock()
	assert.Equal(t, uint8(1), rw.loadState())
	r.Unlock()
	assert.Equal(t, uint8(0), rw.loadState())

	rw.Lock()
	acquired := make(chan bool)
	go func() {
		r.Lock()
		acquired <- true
	}()
	select {
	case <-acquired:
		t.Fatal("RLocker should block behind a writer")
	case <-time.After(10 * time.Millisecond):
	}
	rw.Unlock()
	<-acquired
	r.Unlock()
}
