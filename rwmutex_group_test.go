package lockx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestRWMutexGroup_PerKey(t *testing.T) {
	t.Parallel()
	var g RWMutexGroup[string]

	g.Lock("a")
	assert.False(t, g.TryLock("a"))
	assert.True(t, g.TryLock("b"), "keys lock independently")
	g.Unlock("b")
	g.Unlock("a")
	assert.True(t, g.TryLock("a"))
	g.Unlock("a")
}

func TestRWMutexGroup_SharedAccess(t *testing.T) {
	t.Parallel()
	var g RWMutexGroup[int]

	g.RLock(1)
	assert.True(t, g.TryRLock(1))
	assert.False(t, g.TryLock(1), "readers keep writers out")
	g.RUnlock(1)
	g.RUnlock(1)

	assert.True(t, g.TryLock(1))
	assert.False(t, g.TryRLock(1))
	g.Unlock(1)
}

func TestRWMutexGroup_Cleanup(t *testing.T) {
	t.Parallel()
	var g RWMutexGroup[string]

	g.Lock("k")
	_, ok := g.m.Load("k")
	assert.True(t, ok)
	g.Unlock("k")
	_, ok = g.m.Load("k")
	assert.False(t, ok, "an idle key must not linger")

	// Unlocking a key nobody holds is a no-op.
	g.Unlock("k")
	g.RUnlock("k")
}

func TestRWMutexGroup_Storm(t *testing.T) {
	t.Parallel()
	var g RWMutexGroup[int]
	var counters [4]int

	var eg errgroup.Group
	for range 8 {
		eg.Go(func() error {
			for i := range 1000 {
				k := i % 4
				g.Lock(k)
				counters[k]++
				g.Unlock(k)
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	for k, n := range counters {
		assert.Equal(t, 2000, n, "key %d", k)
		_, ok := g.m.Load(k)
		assert.False(t, ok)
	}
}
