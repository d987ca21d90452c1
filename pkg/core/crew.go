// pkg/core/crew.go
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Roster store errors.
var (
	ErrCrewNotFound  = errors.New("crew member not found")
	ErrCrewDuplicate = errors.New("crew member already exists")
)

// CrewStatus is a roster member's assignment state.
type CrewStatus int

const (
	StatusAvailable CrewStatus = iota
	StatusAssigned
	StatusDead
	StatusMissing
)

func (s CrewStatus) String() string {
	switch s {
	case StatusAssigned:
		return "Assigned"
	case StatusDead:
		return "Dead"
	case StatusMissing:
		return "Missing"
	default:
		return "Available"
	}
}

// ParseCrewStatus converts a status name (case-insensitive) to a CrewStatus.
func ParseCrewStatus(s string) (CrewStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "available":
		return StatusAvailable, nil
	case "assigned":
		return StatusAssigned, nil
	case "dead":
		return StatusDead, nil
	case "missing":
		return StatusMissing, nil
	}
	return StatusAvailable, fmt.Errorf("unknown crew status %q", s)
}

// Gender of a crew member.
type Gender int

const (
	Male Gender = iota
	Female
)

func (g Gender) String() string {
	if g == Female {
		return "Female"
	}
	return "Male"
}

// ParseGender converts a gender name (case-insensitive) to a Gender.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "male":
		return Male, nil
	case "female":
		return Female, nil
	}
	return Male, fmt.Errorf("unknown gender %q", s)
}

// Known professions.
const (
	TraitPilot     = "Pilot"
	TraitEngineer  = "Engineer"
	TraitScientist = "Scientist"
	TraitTourist   = "Tourist"
)

// CrewMember is a roster record. ID is stable across renames.
type CrewMember struct {
	ID        uuid.UUID
	Name      string
	Trait     string
	Gender    Gender
	Courage   float64
	Stupidity float64
	Badass    bool
	Status    CrewStatus
}

// Editable reports whether the member's record may be opened for editing.
func (m *CrewMember) Editable() bool {
	return m.Status == StatusAvailable
}
