// Package convert translates between roster domain types and GORM models.
package convert

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/shipmanifest/extension/internal/model"
	"github.com/shipmanifest/extension/pkg/core"
)

// CrewToRecord converts a core.CrewMember to a GORM CrewRecord.
// The GORM primary key is left zero; callers merge it in for updates.
func CrewToRecord(m core.CrewMember) model.CrewRecord {
	return model.CrewRecord{
		CrewID:    m.ID.String(),
		Name:      m.Name,
		Trait:     m.Trait,
		Gender:    m.Gender.String(),
		Courage:   m.Courage,
		Stupidity: m.Stupidity,
		Badass:    m.Badass,
		Status:    m.Status.String(),
	}
}

// RecordToCrew converts a GORM CrewRecord to a core.CrewMember.
func RecordToCrew(r model.CrewRecord) (core.CrewMember, error) {
	id, err := uuid.Parse(r.CrewID)
	if err != nil {
		return core.CrewMember{}, fmt.Errorf("crew record %q: bad id: %w", r.Name, err)
	}
	gender, err := core.ParseGender(r.Gender)
	if err != nil {
		return core.CrewMember{}, fmt.Errorf("crew record %q: %w", r.Name, err)
	}
	status, err := core.ParseCrewStatus(r.Status)
	if err != nil {
		return core.CrewMember{}, fmt.Errorf("crew record %q: %w", r.Name, err)
	}
	return core.CrewMember{
		ID:        id,
		Name:      r.Name,
		Trait:     r.Trait,
		Gender:    gender,
		Courage:   r.Courage,
		Stupidity: r.Stupidity,
		Badass:    r.Badass,
		Status:    status,
	}, nil
}

// RecordsToCrew converts a slice of records, stopping at the first bad one.
func RecordsToCrew(rs []model.CrewRecord) ([]core.CrewMember, error) {
	out := make([]core.CrewMember, 0, len(rs))
	for _, r := range rs {
		m, err := RecordToCrew(r)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
