// pkg/core/part.go
package core

// PartID identifies a part for the lifetime of a session.
type PartID string

// NodeID identifies a docking node.
type NodeID string

// SeatKind distinguishes normal crew seats from externally mounted ones.
type SeatKind int

const (
	SeatInternal SeatKind = iota
	// SeatExternal seats are not part of crew-transfer accounting.
	SeatExternal
)

func (k SeatKind) String() string {
	if k == SeatExternal {
		return "external"
	}
	return "internal"
}

// Feature is an optional capability-specific facility carried by a part.
type Feature int

const (
	FeatureNone Feature = iota
	// FeatureCryoStorage holds frozen occupants that count as crew but use no seat.
	FeatureCryoStorage
)

func (f Feature) String() string {
	switch f {
	case FeatureCryoStorage:
		return "cryo-storage"
	default:
		return "none"
	}
}

// Seat is a crew position on a part. Occupant is a non-owning reference into the roster.
type Seat struct {
	Kind     SeatKind
	Occupant *CrewMember
}

// Occupied reports whether someone sits in the seat.
func (s Seat) Occupied() bool {
	return s.Occupant != nil
}

// DockingNode is a connection point on a part. Peer is empty while undocked.
type DockingNode struct {
	ID   NodeID
	Part PartID
	Peer NodeID
}

// Docked reports whether the node is paired with another node.
func (n *DockingNode) Docked() bool {
	return n != nil && n.Peer != ""
}

// Part is a physical vessel section.
type Part struct {
	ID        PartID
	Title     string
	Resources map[ResourceType]Container
	Seats     []Seat
	Data      []Counter
	Features  map[Feature]Counter
	Nodes     []NodeID
}

// HasFeature reports whether the part carries the feature.
func (p *Part) HasFeature(f Feature) bool {
	_, ok := p.Features[f]
	return ok
}

// SeatIndex returns the index of the seat holding m, or -1.
func (p *Part) SeatIndex(m *CrewMember) int {
	for i, s := range p.Seats {
		if s.Occupant == m {
			return i
		}
	}
	return -1
}

// FreeSeat returns the index of the first empty internal seat, or -1.
func (p *Part) FreeSeat() int {
	for i, s := range p.Seats {
		if s.Kind == SeatInternal && !s.Occupied() {
			return i
		}
	}
	return -1
}

// Occupants returns the crew members seated in the part.
func (p *Part) Occupants() []*CrewMember {
	var out []*CrewMember
	for _, s := range p.Seats {
		if s.Occupied() {
			out = append(out, s.Occupant)
		}
	}
	return out
}
