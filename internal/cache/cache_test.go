package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipmanifest/extension/pkg/core"
)

var (
	pairAB = core.NewPair("a1", "b1")
	pairBC = core.NewPair("b2", "c1")
)

func TestReachCache_PutAndGet(t *testing.T) {
	c := NewReachCache()
	key := ReachKey{Start: "A", Depth: 0}

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Put(key, []core.PartID{"A", "B"}, []core.Pair{pairAB})

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []core.PartID{"A", "B"}, got)

	hits, misses := c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestReachCache_GetReturnsCopy(t *testing.T) {
	c := NewReachCache()
	key := ReachKey{Start: "A"}
	c.Put(key, []core.PartID{"A"}, nil)

	got, _ := c.Get(key)
	got[0] = "Z"

	again, _ := c.Get(key)
	assert.Equal(t, []core.PartID{"A"}, again)
}

func TestReachCache_InvalidateOnlyTaggedEntries(t *testing.T) {
	c := NewReachCache()
	fromA := ReachKey{Start: "A"}
	fromC := ReachKey{Start: "C", Depth: 1}
	isolated := ReachKey{Start: "D"}

	c.Put(fromA, []core.PartID{"A", "B", "C"}, []core.Pair{pairAB, pairBC})
	c.Put(fromC, []core.PartID{"C"}, []core.Pair{pairBC})
	c.Put(isolated, []core.PartID{"D"}, nil)

	dropped := c.Invalidate(pairAB)
	assert.Equal(t, 1, dropped)

	_, ok := c.Get(fromA)
	assert.False(t, ok)
	_, ok = c.Get(fromC)
	assert.True(t, ok)
	_, ok = c.Get(isolated)
	assert.True(t, ok)

	assert.Equal(t, 1, c.Invalidate(pairBC))
	assert.Equal(t, 1, c.Len())
}

func TestReachCache_PutReplacesTags(t *testing.T) {
	c := NewReachCache()
	key := ReachKey{Start: "A"}

	c.Put(key, []core.PartID{"A", "B"}, []core.Pair{pairAB})
	c.Put(key, []core.PartID{"A"}, nil)

	assert.Zero(t, c.Invalidate(pairAB), "stale tag must not drop the replacement")
	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []core.PartID{"A"}, got)
}

func TestReachCache_Reset(t *testing.T) {
	c := NewReachCache()
	c.Put(ReachKey{Start: "A"}, []core.PartID{"A"}, []core.Pair{pairAB})
	c.Reset()

	assert.Zero(t, c.Len())
	assert.Zero(t, c.Invalidate(pairAB))
}

func TestReachCache_ConcurrentAccess(t *testing.T) {
	c := NewReachCache()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(depth int) {
			defer wg.Done()
			c.Put(ReachKey{Start: "A", Depth: depth}, []core.PartID{"A"}, []core.Pair{pairAB})
		}(i)
		go func(depth int) {
			defer wg.Done()
			c.Get(ReachKey{Start: "A", Depth: depth})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, c.Len())
	assert.Equal(t, 50, c.Invalidate(pairAB))
}
