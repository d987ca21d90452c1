// Package topology answers which parts of a vessel are reachable from one
// another through open hatches.
package topology

import (
	"errors"
	"fmt"

	"github.com/shipmanifest/extension/internal/cache"
	"github.com/shipmanifest/extension/internal/hatch"
	"github.com/shipmanifest/extension/pkg/core"
)

// Unlimited depth traverses the whole connected component.
const Unlimited = 0

var (
	ErrUnknownPart  = errors.New("unknown part")
	ErrInvalidDepth = errors.New("invalid traversal depth")
)

// PartSet is a deduplicated set of parts in traversal order.
type PartSet struct {
	ids   []core.PartID
	index map[core.PartID]struct{}
}

func newPartSet(ids []core.PartID) PartSet {
	s := PartSet{ids: ids, index: make(map[core.PartID]struct{}, len(ids))}
	for _, id := range ids {
		s.index[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s PartSet) Contains(id core.PartID) bool {
	_, ok := s.index[id]
	return ok
}

// IDs returns the members in traversal order, start first.
func (s PartSet) IDs() []core.PartID {
	return append([]core.PartID(nil), s.ids...)
}

// Len returns the number of members.
func (s PartSet) Len() int {
	return len(s.ids)
}

// Graph is the connectivity view of one vessel. It subscribes to the hatch
// set so that cached results never outlive a hatch change.
type Graph struct {
	vessel  *core.Vessel
	hatches *hatch.Set
	cache   *cache.ReachCache
}

// NewGraph builds a graph over v. A nil cache disables memoization.
func NewGraph(v *core.Vessel, hatches *hatch.Set, c *cache.ReachCache) *Graph {
	g := &Graph{vessel: v, hatches: hatches, cache: c}
	if c != nil {
		c.Reset()
		hatches.OnChange(func(p core.Pair, _ hatch.State) {
			c.Invalidate(p)
		})
	}
	return g
}

// Vessel returns the vessel the graph was built over.
func (g *Graph) Vessel() *core.Vessel {
	return g.vessel
}

// ConnectedParts returns every part reachable from start within depth hops,
// crossing a docking pairing only while its hatch is open. depth 1 yields the
// start part plus its directly adjacent parts.
func (g *Graph) ConnectedParts(start core.PartID, depth int) (PartSet, error) {
	if depth < 0 {
		return PartSet{}, fmt.Errorf("%w: %d", ErrInvalidDepth, depth)
	}
	if _, ok := g.vessel.Part(start); !ok {
		return PartSet{}, fmt.Errorf("%w: %s", ErrUnknownPart, start)
	}

	key := cache.ReachKey{Start: start, Depth: depth}
	if g.cache != nil {
		if ids, ok := g.cache.Get(key); ok {
			return newPartSet(ids), nil
		}
	}

	ids, examined := g.walk(start, depth)
	if g.cache != nil {
		g.cache.Put(key, ids, examined)
	}
	return newPartSet(ids), nil
}

// walk runs a breadth-first traversal and returns the visited parts along
// with every pairing it looked at, open or not.
func (g *Graph) walk(start core.PartID, depth int) ([]core.PartID, []core.Pair) {
	visited := map[core.PartID]bool{start: true}
	frontier := []core.PartID{start}
	order := []core.PartID{start}
	seenPairs := make(map[core.Pair]bool)
	var examined []core.Pair

	for level := 1; depth == Unlimited || level <= depth; level++ {
		if len(frontier) == 0 {
			break
		}

		var next []core.PartID
		for _, id := range frontier {
			part, _ := g.vessel.Part(id)
			for _, nodeID := range part.Nodes {
				node, ok := g.vessel.Node(nodeID)
				if !ok || !node.Docked() {
					continue
				}
				pair := core.NewPair(node.ID, node.Peer)
				if !seenPairs[pair] {
					seenPairs[pair] = true
					examined = append(examined, pair)
				}
				if !g.hatches.IsOpen(pair) {
					continue
				}
				peer, ok := g.vessel.Node(node.Peer)
				if !ok || visited[peer.Part] {
					continue
				}
				visited[peer.Part] = true
				order = append(order, peer.Part)
				next = append(next, peer.Part)
			}
		}

		frontier = next
	}

	return order, examined
}

// Connected reports whether b is reachable from a through open hatches.
func (g *Graph) Connected(a, b core.PartID) (bool, error) {
	set, err := g.ConnectedParts(a, Unlimited)
	if err != nil {
		return false, err
	}
	if _, ok := g.vessel.Part(b); !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownPart, b)
	}
	return set.Contains(b), nil
}

// Parts resolves a set back to the vessel's parts.
func (g *Graph) Parts(set PartSet) []*core.Part {
	out := make([]*core.Part, 0, set.Len())
	for _, id := range set.ids {
		if p, ok := g.vessel.Part(id); ok {
			out = append(out, p)
		}
	}
	return out
}
