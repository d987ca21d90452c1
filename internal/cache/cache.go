package cache

import (
	"sync"

	"github.com/shipmanifest/extension/pkg/core"
)

// ReachKey identifies one connectivity query.
type ReachKey struct {
	Start core.PartID
	Depth int
}

type reachEntry struct {
	parts []core.PartID
	pairs []core.Pair
}

// ReachCache memoizes connectivity results. Each entry is tagged with the
// hatch pairings its traversal examined so a single hatch change only drops
// the entries that could have observed it.
type ReachCache struct {
	m       sync.Mutex
	entries map[ReachKey]reachEntry
	byPair  map[core.Pair]map[ReachKey]struct{}
	hits    int
	misses  int
}

func NewReachCache() *ReachCache {
	return &ReachCache{
		entries: make(map[ReachKey]reachEntry),
		byPair:  make(map[core.Pair]map[ReachKey]struct{}),
	}
}

// Reset drops every entry. Used when the vessel is replaced.
func (c *ReachCache) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.entries = make(map[ReachKey]reachEntry)
	c.byPair = make(map[core.Pair]map[ReachKey]struct{})
}

// Get returns a copy of the cached part list.
func (c *ReachCache) Get(key ReachKey) ([]core.PartID, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	out := make([]core.PartID, len(e.parts))
	copy(out, e.parts)
	return out, true
}

// Put stores a result along with the pairings examined to produce it.
func (c *ReachCache) Put(key ReachKey, parts []core.PartID, examined []core.Pair) {
	c.m.Lock()
	defer c.m.Unlock()
	c.dropLocked(key)

	e := reachEntry{
		parts: append([]core.PartID(nil), parts...),
		pairs: append([]core.Pair(nil), examined...),
	}
	c.entries[key] = e
	for _, p := range e.pairs {
		keys, ok := c.byPair[p]
		if !ok {
			keys = make(map[ReachKey]struct{})
			c.byPair[p] = keys
		}
		keys[key] = struct{}{}
	}
}

// Invalidate drops every entry whose traversal examined pair and returns how
// many were dropped.
func (c *ReachCache) Invalidate(pair core.Pair) int {
	c.m.Lock()
	defer c.m.Unlock()
	keys := c.byPair[pair]
	n := 0
	for k := range keys {
		if _, ok := c.entries[k]; ok {
			c.dropLocked(k)
			n++
		}
	}
	delete(c.byPair, pair)
	return n
}

func (c *ReachCache) dropLocked(key ReachKey) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	for _, p := range e.pairs {
		if keys, ok := c.byPair[p]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byPair, p)
			}
		}
	}
}

// Len returns the number of cached entries.
func (c *ReachCache) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counts since creation.
func (c *ReachCache) Stats() (hits, misses int) {
	c.m.Lock()
	defer c.m.Unlock()
	return c.hits, c.misses
}
