package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/shipmanifest/extension/internal/capability"
	"github.com/shipmanifest/extension/internal/hatch"
	"github.com/shipmanifest/extension/internal/roster"
	"github.com/shipmanifest/extension/pkg/core"
)

// ErrInvalidSnapshot wraps every structural problem found in a snapshot.
var ErrInvalidSnapshot = errors.New("invalid vessel snapshot")

// Parsed is a snapshot turned into domain objects.
type Parsed struct {
	Vessel    *core.Vessel
	Hatches   map[core.Pair]hatch.State
	Prelaunch bool
}

// Parser converts host snapshots into vessels. Host module names are mapped
// onto closed variants through the capability registry here and nowhere else.
type Parser struct {
	logger   *slog.Logger
	registry *capability.Registry
}

// NewParser creates a parser.
func NewParser(logger *slog.Logger, registry *capability.Registry) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger, registry: registry}
}

// Decode unmarshals a JSON snapshot.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("error unmarshalling vessel snapshot: %w", err)
	}
	return s, nil
}

// DecodeYAML unmarshals a YAML snapshot.
func DecodeYAML(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("error unmarshalling vessel snapshot: %w", err)
	}
	return s, nil
}

// ParseVessel decodes a JSON snapshot and builds it against r.
func (p *Parser) ParseVessel(data []byte, r *roster.Roster) (Parsed, error) {
	s, err := Decode(data)
	if err != nil {
		return Parsed{}, err
	}
	return p.Build(s, r)
}

// Build validates s and converts it. The roster is only touched once the
// whole snapshot is known to be valid: listed roster members are added, seat
// occupants are resolved by name (unknown names are created) and marked
// Assigned. Roster changes are applied as one unit; if the store rejects any
// of them the roster is left as it was.
func (p *Parser) Build(s Snapshot, r *roster.Roster) (Parsed, error) {
	v, err := p.buildVessel(s)
	if err != nil {
		return Parsed{}, err
	}
	if err := checkOccupants(s); err != nil {
		return Parsed{}, err
	}

	if r != nil {
		err := r.Apply(func() error {
			if err := p.applyRoster(s, r); err != nil {
				return err
			}
			return p.seatOccupants(s, v, r)
		})
		if err != nil {
			return Parsed{}, err
		}
	}

	out := Parsed{
		Vessel:    v,
		Hatches:   hatchStates(s),
		Prelaunch: s.Prelaunch,
	}
	p.logger.Debug("Parsed vessel snapshot",
		"vessel", v.Name,
		"parts", v.Len(),
		"hatches", len(out.Hatches))
	return out, nil
}

func (p *Parser) buildVessel(s Snapshot) (*core.Vessel, error) {
	v := core.NewVessel(s.ID, s.Name)

	for _, ps := range s.Parts {
		if ps.ID == "" {
			return nil, fmt.Errorf("%w: part with empty id", ErrInvalidSnapshot)
		}
		part := &core.Part{
			ID:        core.PartID(ps.ID),
			Title:     ps.Title,
			Resources: make(map[core.ResourceType]core.Container, len(ps.Resources)),
			Features:  make(map[core.Feature]core.Counter),
		}
		for name, c := range ps.Resources {
			part.Resources[core.ResourceType(name)] = c
		}
		for _, seat := range ps.Seats {
			part.Seats = append(part.Seats, core.Seat{Kind: p.seatKind(seat.Module)})
		}
		for _, n := range ps.Data {
			part.Data = append(part.Data, core.Count(n))
		}
		for _, m := range ps.Modules {
			f, ok := p.feature(m.Name)
			if !ok {
				p.logger.Debug("ignoring unmapped part module", "part", ps.ID, "module", m.Name)
				continue
			}
			part.Features[f] = core.Count(m.Count)
		}
		if err := v.AddPart(part); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
		}
	}

	for _, ps := range s.Parts {
		for _, ns := range ps.Nodes {
			if ns.ID == "" {
				return nil, fmt.Errorf("%w: part %s has a node with empty id", ErrInvalidSnapshot, ps.ID)
			}
			n := &core.DockingNode{ID: core.NodeID(ns.ID), Part: core.PartID(ps.ID), Peer: core.NodeID(ns.Peer)}
			if err := v.AddNode(n); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
			}
		}
	}

	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return v, nil
}

func (p *Parser) seatKind(module string) core.SeatKind {
	if p.registry == nil {
		return core.SeatInternal
	}
	return p.registry.SeatKindForModule(module)
}

func (p *Parser) feature(module string) (core.Feature, bool) {
	if p.registry == nil {
		return core.FeatureNone, false
	}
	return p.registry.FeatureForModule(module)
}

// checkOccupants rejects a snapshot seating one name twice, naming an
// occupant that could not be added to the roster, or carrying a bad roster
// entry.
func checkOccupants(s Snapshot) error {
	seen := make(map[string]string)
	for _, ps := range s.Parts {
		for _, seat := range ps.Seats {
			if seat.Occupant == "" {
				continue
			}
			if where, ok := seen[seat.Occupant]; ok {
				return fmt.Errorf("%w: %q seated in both %s and %s", ErrInvalidSnapshot, seat.Occupant, where, ps.ID)
			}
			seen[seat.Occupant] = ps.ID
			if err := roster.ValidateMember(occupant(seat.Occupant)); err != nil {
				return fmt.Errorf("%w: occupant %q: %w", ErrInvalidSnapshot, seat.Occupant, err)
			}
		}
	}
	for _, cs := range s.Roster {
		m, err := cs.member()
		if err == nil {
			err = roster.ValidateMember(m)
		}
		if err != nil {
			return fmt.Errorf("%w: roster entry %q: %w", ErrInvalidSnapshot, cs.Name, err)
		}
	}
	return nil
}

func (p *Parser) applyRoster(s Snapshot, r *roster.Roster) error {
	for _, cs := range s.Roster {
		if r.Exists(cs.Name) {
			continue
		}
		m, _ := cs.member()
		if _, err := r.Add(m); err != nil {
			return fmt.Errorf("roster entry %q: %w", cs.Name, err)
		}
	}
	return nil
}

func (p *Parser) seatOccupants(s Snapshot, v *core.Vessel, r *roster.Roster) error {
	for _, ps := range s.Parts {
		part, _ := v.Part(core.PartID(ps.ID))
		for i, seat := range ps.Seats {
			if seat.Occupant == "" {
				continue
			}
			m, ok := r.ByName(seat.Occupant)
			if !ok {
				var err error
				m, err = r.Add(occupant(seat.Occupant))
				if err != nil {
					return fmt.Errorf("occupant %q: %w", seat.Occupant, err)
				}
				p.logger.Info("unknown occupant added to roster", "name", m.Name, "part", ps.ID)
			}
			if err := r.SetStatus(m, core.StatusAssigned); err != nil {
				return fmt.Errorf("occupant %q: %w", seat.Occupant, err)
			}
			part.Seats[i].Occupant = m
		}
	}
	return nil
}

// occupant is the member created for a seated name the roster does not know.
func occupant(name string) core.CrewMember {
	return core.CrewMember{
		Name:      name,
		Trait:     core.TraitTourist,
		Courage:   0.5,
		Stupidity: 0.5,
		Status:    core.StatusAssigned,
	}
}

// hatchStates opens a pairing only when both sides report an open hatch.
func hatchStates(s Snapshot) map[core.Pair]hatch.State {
	open := make(map[core.NodeID]bool)
	peers := make(map[core.NodeID]core.NodeID)
	for _, ps := range s.Parts {
		for _, ns := range ps.Nodes {
			open[core.NodeID(ns.ID)] = ns.HatchOpen
			if ns.Peer != "" {
				peers[core.NodeID(ns.ID)] = core.NodeID(ns.Peer)
			}
		}
	}

	out := make(map[core.Pair]hatch.State)
	for a, b := range peers {
		pair := core.NewPair(a, b)
		if open[a] && open[b] {
			out[pair] = hatch.Open
		} else {
			out[pair] = hatch.Closed
		}
	}
	return out
}
