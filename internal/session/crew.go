package session

import (
	"fmt"

	"github.com/shipmanifest/extension/internal/roster"
	"github.com/shipmanifest/extension/internal/topology"
	"github.com/shipmanifest/extension/pkg/core"
)

// Patch carries the buffer fields a caller wants to change. Nil fields are left alone.
type Patch struct {
	Name      *string
	Trait     *string
	Gender    *core.Gender
	Courage   *float64
	Stupidity *float64
	Badass    *bool
}

func (p Patch) apply(b *roster.Buffer) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Trait != nil {
		b.Trait = *p.Trait
	}
	if p.Gender != nil {
		b.Gender = *p.Gender
	}
	if p.Courage != nil {
		b.Courage = *p.Courage
	}
	if p.Stupidity != nil {
		b.Stupidity = *p.Stupidity
	}
	if p.Badass != nil {
		b.Badass = *p.Badass
	}
}

// EditInfo describes the open roster edit.
type EditInfo struct {
	IsNew  bool
	Target string
	State  roster.TxState
	Policy roster.Policy
	Buffer roster.Buffer
}

func editInfo(e *roster.Edit) EditInfo {
	info := EditInfo{
		IsNew:  e.IsNew(),
		State:  e.State(),
		Policy: e.Policy(),
		Buffer: e.Buffer(),
	}
	if t := e.Target(); t != nil {
		info.Target = t.Name
	}
	return info
}

// Seated is a copy of a roster member and the part of the current vessel it
// sits in. Part is empty when the member has no seat.
type Seated struct {
	core.CrewMember
	Part core.PartID
}

func (s *Session) seatedLocked(m *core.CrewMember) Seated {
	out := Seated{CrewMember: *m}
	if p, ok := roster.FindPart(s.vessel, m); ok {
		out.Part = p.ID
	}
	return out
}

// Crew returns every roster member ordered by name.
func (s *Session) Crew() []Seated {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.roster.List()
	out := make([]Seated, 0, len(list))
	for _, m := range list {
		out = append(out, s.seatedLocked(m))
	}
	return out
}

// Member returns the named member.
func (s *Session) Member(name string) (Seated, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.memberLocked(name)
	if err != nil {
		return Seated{}, err
	}
	return s.seatedLocked(m), nil
}

func (s *Session) memberLocked(name string) (*core.CrewMember, error) {
	m, ok := s.roster.ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", roster.ErrUnknownMember, name)
	}
	return m, nil
}

// BeginEdit opens an edit on the named member, or on a new member when name
// is empty. An edit still open is cancelled first.
func (s *Session) BeginEdit(name string) (EditInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *core.CrewMember
	if name != "" {
		m, err := s.memberLocked(name)
		if err != nil {
			return EditInfo{}, err
		}
		target = m
	}
	e, err := s.roster.Begin(target, s.settings.Policy)
	if err != nil {
		return EditInfo{}, err
	}
	if s.edit != nil && s.edit.State() == roster.Editing {
		_ = s.edit.Cancel()
		s.logger.Debug("open roster edit discarded")
	}
	s.edit = e
	return editInfo(e), nil
}

// Edit returns the open edit.
func (s *Session) Edit() (EditInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return EditInfo{}, ErrNoEdit
	}
	return editInfo(s.edit), nil
}

// UpdateEdit applies p to the open edit's buffer.
func (s *Session) UpdateEdit(p Patch) (EditInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return EditInfo{}, ErrNoEdit
	}
	if err := s.edit.Update(p.apply); err != nil {
		return EditInfo{}, err
	}
	return editInfo(s.edit), nil
}

// CommitEdit applies the open edit. On a validation error the edit stays
// open so it can be corrected and committed again.
func (s *Session) CommitEdit() (core.CrewMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return core.CrewMember{}, ErrNoEdit
	}
	m, err := s.edit.Commit()
	if err != nil {
		s.logger.Warn("roster edit rejected", "error", err)
		return core.CrewMember{}, err
	}
	s.edit = nil
	return *m, nil
}

// CancelEdit discards the open edit.
func (s *Session) CancelEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return ErrNoEdit
	}
	err := s.edit.Cancel()
	s.edit = nil
	return err
}

// Respawn returns a dead or missing member to the available pool.
func (s *Session) Respawn(name string) (core.CrewMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.memberLocked(name)
	if err != nil {
		return core.CrewMember{}, err
	}
	if err := s.roster.Respawn(m); err != nil {
		return core.CrewMember{}, err
	}
	return *m, nil
}

func (s *Session) placementLocked() roster.Placement {
	return roster.Placement{RealismMode: s.settings.RealismMode, Prelaunch: s.prelaunch}
}

// AddCrew seats the named member in part.
func (s *Session) AddCrew(name string, part core.PartID) (core.CrewMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vessel == nil {
		return core.CrewMember{}, ErrNoVessel
	}
	m, err := s.memberLocked(name)
	if err != nil {
		return core.CrewMember{}, err
	}
	p, ok := s.vessel.Part(part)
	if !ok {
		return core.CrewMember{}, fmt.Errorf("%w: %s", topology.ErrUnknownPart, part)
	}
	if err := s.roster.AddCrew(p, m, s.placementLocked()); err != nil {
		return core.CrewMember{}, err
	}
	return *m, nil
}

// RemoveCrew unseats the named member.
func (s *Session) RemoveCrew(name string) (core.CrewMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vessel == nil {
		return core.CrewMember{}, ErrNoVessel
	}
	m, err := s.memberLocked(name)
	if err != nil {
		return core.CrewMember{}, err
	}
	if err := s.roster.RemoveCrew(s.vessel, m, s.placementLocked()); err != nil {
		return core.CrewMember{}, err
	}
	return *m, nil
}

// PartCrew returns the members seated in part and its crew count including
// frozen occupants.
func (s *Session) PartCrew(part core.PartID) ([]core.CrewMember, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vessel == nil {
		return nil, 0, ErrNoVessel
	}
	p, ok := s.vessel.Part(part)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", topology.ErrUnknownPart, part)
	}
	var seated []core.CrewMember
	for _, m := range p.Occupants() {
		seated = append(seated, *m)
	}
	n, err := roster.PartCrewCount(p, s.registry)
	return seated, n, err
}
