package session

import (
	"fmt"

	"github.com/shipmanifest/extension/internal/aggregate"
	"github.com/shipmanifest/extension/internal/hatch"
	"github.com/shipmanifest/extension/internal/parser"
	"github.com/shipmanifest/extension/internal/topology"
	"github.com/shipmanifest/extension/pkg/core"
)

// VesselInfo summarizes the loaded vessel.
type VesselInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Parts     int    `json:"parts"`
	Hatches   int    `json:"hatches"`
	Prelaunch bool   `json:"prelaunch"`
}

// LoadVessel replaces the current vessel with a JSON snapshot. On error the
// previous vessel stays loaded and the roster is untouched.
func (s *Session) LoadVessel(data []byte) (VesselInfo, error) {
	snap, err := parser.Decode(data)
	if err != nil {
		return VesselInfo{}, err
	}
	return s.LoadSnapshot(snap)
}

// LoadSnapshot replaces the current vessel with a decoded snapshot.
func (s *Session) LoadSnapshot(snap parser.Snapshot) (VesselInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parsed, err := s.parser.Build(snap, s.roster)
	if err != nil {
		return VesselInfo{}, err
	}

	s.vessel = parsed.Vessel
	s.prelaunch = parsed.Prelaunch
	s.hatches = hatch.NewSet(parsed.Vessel, parsed.Hatches)
	s.graph = topology.NewGraph(parsed.Vessel, s.hatches, s.reach)
	s.publishAttrs()

	info := s.infoLocked()
	s.logger.Info("vessel loaded", "vessel", info.Name, "parts", info.Parts, "hatches", info.Hatches)
	return info, nil
}

// ClearVessel drops the current vessel, as after an undock that leaves no
// vessel under control.
func (s *Session) ClearVessel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vessel == nil {
		return
	}
	name := s.vessel.Name
	s.vessel = nil
	s.hatches = nil
	s.graph = nil
	s.prelaunch = false
	s.reach.Reset()
	s.publishAttrs()
	s.logger.Info("vessel cleared", "vessel", name)
}

// Vessel returns a summary of the loaded vessel.
func (s *Session) Vessel() (VesselInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vessel == nil {
		return VesselInfo{}, ErrNoVessel
	}
	return s.infoLocked(), nil
}

func (s *Session) infoLocked() VesselInfo {
	return VesselInfo{
		ID:        s.vessel.ID,
		Name:      s.vessel.Name,
		Parts:     s.vessel.Len(),
		Hatches:   s.hatches.Len(),
		Prelaunch: s.prelaunch,
	}
}

// SetPrelaunch records whether the vessel is still at the launch site.
func (s *Session) SetPrelaunch(prelaunch bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vessel == nil {
		return ErrNoVessel
	}
	s.prelaunch = prelaunch
	return nil
}

// OpenHatch opens the hatch at node. Connectivity reflects the change before
// this returns.
func (s *Session) OpenHatch(node core.NodeID) (hatch.Hatch, error) {
	return s.setHatch(node, true)
}

// CloseHatch closes the hatch at node.
func (s *Session) CloseHatch(node core.NodeID) (hatch.Hatch, error) {
	return s.setHatch(node, false)
}

func (s *Session) setHatch(node core.NodeID, open bool) (hatch.Hatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hatches == nil {
		return hatch.Hatch{}, fmt.Errorf("%w: %w", hatch.ErrInvalidTransition, ErrNoVessel)
	}
	var err error
	if open {
		err = s.hatches.Open(node)
	} else {
		err = s.hatches.Close(node)
	}
	if err != nil {
		return hatch.Hatch{}, err
	}
	h, err := s.hatches.Get(node)
	if err != nil {
		return hatch.Hatch{}, err
	}
	s.logger.Debug("hatch set", "pair", h.Pair.String(), "state", h.Status())
	return h, nil
}

// Hatches lists every hatch of the loaded vessel.
func (s *Session) Hatches() ([]hatch.Hatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hatches == nil {
		return nil, ErrNoVessel
	}
	return s.hatches.List(), nil
}

// ConnectedParts returns the parts reachable from start through open hatches
// within depth steps (topology.Unlimited for no bound).
func (s *Session) ConnectedParts(start core.PartID, depth int) ([]core.PartID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.graph == nil {
		return nil, ErrNoVessel
	}
	set, err := s.graph.ConnectedParts(start, depth)
	if err != nil {
		return nil, err
	}
	return set.IDs(), nil
}

// Aggregate totals rt over the parts reachable from start. A partial result
// is returned with Totals.Err set; err is only set when nothing could be
// computed.
func (s *Session) Aggregate(start core.PartID, depth int, rt core.ResourceType) (aggregate.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	parts, err := s.reachableLocked(start, depth)
	if err != nil {
		return aggregate.Totals{}, err
	}
	t := s.engine.Aggregate(parts, rt)
	s.observeLocked(start, []aggregate.Totals{t})
	return t, nil
}

// AggregateAll totals every resource type carried by the parts reachable from start.
func (s *Session) AggregateAll(start core.PartID, depth int) (map[core.ResourceType]aggregate.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	parts, err := s.reachableLocked(start, depth)
	if err != nil {
		return nil, err
	}
	out := s.engine.Sum(parts)
	list := make([]aggregate.Totals, 0, len(out))
	for _, t := range out {
		list = append(list, t)
	}
	s.observeLocked(start, list)
	return out, nil
}

func (s *Session) reachableLocked(start core.PartID, depth int) ([]*core.Part, error) {
	if s.graph == nil {
		return nil, ErrNoVessel
	}
	set, err := s.graph.ConnectedParts(start, depth)
	if err != nil {
		return nil, err
	}
	return s.graph.Parts(set), nil
}

func (s *Session) observeLocked(start core.PartID, totals []aggregate.Totals) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveTotals(s.vessel.Name, start, totals)
}

// ReachStats returns the reach cache's size and hit counters.
func (s *Session) ReachStats() (entries, hits, misses int) {
	hits, misses = s.reach.Stats()
	return s.reach.Len(), hits, misses
}
