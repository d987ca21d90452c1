package roster

import (
	"errors"
	"fmt"

	"github.com/shipmanifest/extension/internal/aggregate"
	"github.com/shipmanifest/extension/pkg/core"
)

var (
	ErrRealismLocked = errors.New("crew changes locked after launch in realism mode")
	ErrPartFull      = errors.New("no free seat")
	ErrNotAvailable  = errors.New("crew member not available")
	ErrNotSeated     = errors.New("crew member not seated")
)

// Placement carries the vessel-level conditions for moving crew in and out.
type Placement struct {
	RealismMode bool
	// Prelaunch is true while the vessel has not left the launch site.
	Prelaunch bool
}

func (p Placement) locked() bool {
	return p.RealismMode && !p.Prelaunch
}

// AddCrew seats an available member in the first empty internal seat of part.
func (r *Roster) AddCrew(part *core.Part, m *core.CrewMember, p Placement) error {
	if p.locked() {
		return ErrRealismLocked
	}
	if cur, ok := r.members[m.ID]; !ok || cur != m {
		return fmt.Errorf("%w: %s", ErrUnknownMember, m.Name)
	}
	if m.Status != core.StatusAvailable {
		return fmt.Errorf("%w: %s is %s", ErrNotAvailable, m.Name, m.Status)
	}
	seat := part.FreeSeat()
	if seat < 0 {
		return fmt.Errorf("%w: part %s", ErrPartFull, part.ID)
	}
	if err := r.SetStatus(m, core.StatusAssigned); err != nil {
		return err
	}
	part.Seats[seat].Occupant = m
	r.logger.Info("crew added", "name", m.Name, "part", string(part.ID))
	return nil
}

// RemoveCrew clears m's seat on v and returns m to the available pool.
func (r *Roster) RemoveCrew(v *core.Vessel, m *core.CrewMember, p Placement) error {
	if p.locked() {
		return ErrRealismLocked
	}
	part, ok := FindPart(v, m)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotSeated, m.Name)
	}
	if err := r.SetStatus(m, core.StatusAvailable); err != nil {
		return err
	}
	part.Seats[part.SeatIndex(m)].Occupant = nil
	r.logger.Info("crew removed", "name", m.Name, "part", string(part.ID))
	return nil
}

// FindPart returns the part of v seating m.
func FindPart(v *core.Vessel, m *core.CrewMember) (*core.Part, bool) {
	if v == nil || m == nil {
		return nil, false
	}
	return v.FindOccupant(m)
}

// PartCrewCount returns the seated occupants of part plus any frozen crew the
// corrector reports. corrector may be nil.
func PartCrewCount(part *core.Part, corrector aggregate.CrewCorrector) (int, error) {
	n := len(part.Occupants())
	if corrector == nil {
		return n, nil
	}
	extra, err := corrector.CrewCorrection(part)
	if err != nil {
		return n, err
	}
	return n + extra, nil
}
