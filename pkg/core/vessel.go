// pkg/core/vessel.go
package core

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrDuplicatePart = errors.New("duplicate part id")
	ErrDuplicateNode = errors.New("duplicate docking node id")
	ErrBadDocking    = errors.New("inconsistent docking pair")
)

// Pair is an unordered docking pairing, stored with A < B.
type Pair struct {
	A NodeID
	B NodeID
}

// NewPair builds the canonical pair for two nodes.
func NewPair(a, b NodeID) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

func (p Pair) String() string {
	return string(p.A) + "<->" + string(p.B)
}

// Vessel is one assembly of parts as reported by the host. It is rebuilt from
// scratch on every dock/undock event.
type Vessel struct {
	ID    string
	Name  string
	parts map[PartID]*Part
	order []PartID
	nodes map[NodeID]*DockingNode
}

// NewVessel creates an empty vessel.
func NewVessel(id, name string) *Vessel {
	return &Vessel{
		ID:    id,
		Name:  name,
		parts: make(map[PartID]*Part),
		nodes: make(map[NodeID]*DockingNode),
	}
}

// AddPart registers a part. Nodes listed in p.Nodes must be added with AddNode.
func (v *Vessel) AddPart(p *Part) error {
	if _, ok := v.parts[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePart, p.ID)
	}
	v.parts[p.ID] = p
	v.order = append(v.order, p.ID)
	return nil
}

// AddNode registers a docking node on an existing part.
func (v *Vessel) AddNode(n *DockingNode) error {
	if _, ok := v.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	p, ok := v.parts[n.Part]
	if !ok {
		return fmt.Errorf("node %s references unknown part %s", n.ID, n.Part)
	}
	v.nodes[n.ID] = n
	if !containsNode(p.Nodes, n.ID) {
		p.Nodes = append(p.Nodes, n.ID)
	}
	return nil
}

func containsNode(ids []NodeID, id NodeID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Validate checks that every docking pairing is symmetric and joins two different parts.
func (v *Vessel) Validate() error {
	for id, n := range v.nodes {
		if !n.Docked() {
			continue
		}
		peer, ok := v.nodes[n.Peer]
		if !ok {
			return fmt.Errorf("%w: node %s docked to unknown node %s", ErrBadDocking, id, n.Peer)
		}
		if peer.Peer != id {
			return fmt.Errorf("%w: node %s -> %s is not mirrored", ErrBadDocking, id, n.Peer)
		}
		if peer.Part == n.Part {
			return fmt.Errorf("%w: node %s docks part %s to itself", ErrBadDocking, id, n.Part)
		}
	}
	return nil
}

// Part returns the part with the given id.
func (v *Vessel) Part(id PartID) (*Part, bool) {
	p, ok := v.parts[id]
	return p, ok
}

// Node returns the docking node with the given id.
func (v *Vessel) Node(id NodeID) (*DockingNode, bool) {
	n, ok := v.nodes[id]
	return n, ok
}

// Parts returns all parts in insertion order.
func (v *Vessel) Parts() []*Part {
	out := make([]*Part, 0, len(v.order))
	for _, id := range v.order {
		out = append(out, v.parts[id])
	}
	return out
}

// Len returns the number of parts.
func (v *Vessel) Len() int {
	return len(v.order)
}

// Pairs returns every docked pairing, sorted.
func (v *Vessel) Pairs() []Pair {
	seen := make(map[Pair]struct{})
	var out []Pair
	for id, n := range v.nodes {
		if !n.Docked() {
			continue
		}
		p := NewPair(id, n.Peer)
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// FindOccupant returns the part seating m.
func (v *Vessel) FindOccupant(m *CrewMember) (*Part, bool) {
	for _, p := range v.Parts() {
		if p.SeatIndex(m) >= 0 {
			return p, true
		}
	}
	return nil, false
}
