package parser

import (
	"github.com/shipmanifest/extension/pkg/core"
)

// Snapshot is the host's description of one vessel as it stands after a
// dock/undock event.
type Snapshot struct {
	ID        string         `json:"id" yaml:"id"`
	Name      string         `json:"name" yaml:"name"`
	Prelaunch bool           `json:"prelaunch" yaml:"prelaunch"`
	Parts     []PartSnapshot `json:"parts" yaml:"parts"`
	Roster    []CrewSnapshot `json:"roster,omitempty" yaml:"roster,omitempty"`
}

// PartSnapshot describes one part.
type PartSnapshot struct {
	ID        string                    `json:"id" yaml:"id"`
	Title     string                    `json:"title" yaml:"title"`
	Resources map[string]core.Container `json:"resources,omitempty" yaml:"resources,omitempty"`
	Seats     []SeatSnapshot            `json:"seats,omitempty" yaml:"seats,omitempty"`
	// Data holds the result count of each science data module.
	Data    []int            `json:"data,omitempty" yaml:"data,omitempty"`
	Modules []ModuleSnapshot `json:"modules,omitempty" yaml:"modules,omitempty"`
	Nodes   []NodeSnapshot   `json:"nodes,omitempty" yaml:"nodes,omitempty"`
}

// SeatSnapshot names the host module providing the seat and its occupant, if any.
type SeatSnapshot struct {
	Module   string `json:"module,omitempty" yaml:"module,omitempty"`
	Occupant string `json:"occupant,omitempty" yaml:"occupant,omitempty"`
}

// ModuleSnapshot is an integration-specific part module and the count it reports.
type ModuleSnapshot struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// NodeSnapshot is a docking node. Peer is empty while undocked.
type NodeSnapshot struct {
	ID        string `json:"id" yaml:"id"`
	Peer      string `json:"peer,omitempty" yaml:"peer,omitempty"`
	HatchOpen bool   `json:"hatchOpen" yaml:"hatchOpen"`
}

// CrewSnapshot is a roster entry carried along with the vessel.
type CrewSnapshot struct {
	Name      string  `json:"name" yaml:"name"`
	Trait     string  `json:"trait" yaml:"trait"`
	Gender    string  `json:"gender,omitempty" yaml:"gender,omitempty"`
	Courage   float64 `json:"courage" yaml:"courage"`
	Stupidity float64 `json:"stupidity" yaml:"stupidity"`
	Badass    bool    `json:"badass,omitempty" yaml:"badass,omitempty"`
	Status    string  `json:"status,omitempty" yaml:"status,omitempty"`
}

func (c CrewSnapshot) member() (core.CrewMember, error) {
	gender, err := core.ParseGender(c.Gender)
	if err != nil {
		return core.CrewMember{}, err
	}
	status, err := core.ParseCrewStatus(c.Status)
	if err != nil {
		return core.CrewMember{}, err
	}
	return core.CrewMember{
		Name:      c.Name,
		Trait:     c.Trait,
		Gender:    gender,
		Courage:   c.Courage,
		Stupidity: c.Stupidity,
		Badass:    c.Badass,
		Status:    status,
	}, nil
}
