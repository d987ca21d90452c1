package handlers

import (
	"github.com/shipmanifest/extension/internal/aggregate"
	"github.com/shipmanifest/extension/internal/hatch"
	"github.com/shipmanifest/extension/internal/session"
	"github.com/shipmanifest/extension/pkg/core"
)

// CrewView is the wire form of a roster member.
type CrewView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Trait     string  `json:"trait"`
	Gender    string  `json:"gender"`
	Courage   float64 `json:"courage"`
	Stupidity float64 `json:"stupidity"`
	Badass    bool    `json:"badass"`
	Status    string  `json:"status"`
	// Part is the seat's part for assigned members on the current vessel.
	Part string `json:"part,omitempty"`
}

func crewView(m core.CrewMember) CrewView {
	return CrewView{
		ID:        m.ID.String(),
		Name:      m.Name,
		Trait:     m.Trait,
		Gender:    m.Gender.String(),
		Courage:   m.Courage,
		Stupidity: m.Stupidity,
		Badass:    m.Badass,
		Status:    m.Status.String(),
	}
}

func seatedView(m session.Seated) CrewView {
	v := crewView(m.CrewMember)
	v.Part = string(m.Part)
	return v
}

func seatedViews(list []session.Seated) []CrewView {
	out := make([]CrewView, 0, len(list))
	for _, m := range list {
		out = append(out, seatedView(m))
	}
	return out
}

func crewViews(list []core.CrewMember) []CrewView {
	out := make([]CrewView, 0, len(list))
	for _, m := range list {
		out = append(out, crewView(m))
	}
	return out
}

// HatchView is the wire form of a hatch.
type HatchView struct {
	Nodes [2]string `json:"nodes"`
	Parts [2]string `json:"parts"`
	Title string    `json:"title"`
	State string    `json:"state"`
}

func hatchView(h hatch.Hatch) HatchView {
	return HatchView{
		Nodes: [2]string{string(h.Pair.A), string(h.Pair.B)},
		Parts: [2]string{string(h.Parts[0]), string(h.Parts[1])},
		Title: h.Title,
		State: h.Status(),
	}
}

// TotalsView is the wire form of an aggregate. Total is null for resources
// without a total and present, possibly zero, for all others.
type TotalsView struct {
	Resource string   `json:"resource"`
	Class    string   `json:"class"`
	Current  float64  `json:"current"`
	Total    *float64 `json:"total"`
	Excluded []string `json:"excluded,omitempty"`
	Partial  bool     `json:"partial"`
	Error    string   `json:"error,omitempty"`
}

func totalsView(t aggregate.Totals) TotalsView {
	v := TotalsView{
		Resource: string(t.Resource),
		Class:    t.Class,
		Current:  t.Current,
		Total:    t.TotalOrNil(),
		Partial:  t.Partial(),
	}
	for _, id := range t.Excluded {
		v.Excluded = append(v.Excluded, string(id))
	}
	if t.Err != nil {
		v.Error = t.Err.Error()
	}
	return v
}

// EditView is the wire form of an open roster edit.
type EditView struct {
	IsNew                 bool    `json:"isNew"`
	Target                string  `json:"target,omitempty"`
	State                 string  `json:"state"`
	AllowRename           bool    `json:"allowRename"`
	AllowProfessionChange bool    `json:"allowProfessionChange"`
	Name                  string  `json:"name"`
	Trait                 string  `json:"trait"`
	Gender                string  `json:"gender"`
	Courage               float64 `json:"courage"`
	Stupidity             float64 `json:"stupidity"`
	Badass                bool    `json:"badass"`
}

func editView(e session.EditInfo) EditView {
	return EditView{
		IsNew:                 e.IsNew,
		Target:                e.Target,
		State:                 e.State.String(),
		AllowRename:           e.Policy.AllowRename,
		AllowProfessionChange: e.Policy.AllowProfessionChange,
		Name:                  e.Buffer.Name,
		Trait:                 e.Buffer.Trait,
		Gender:                e.Buffer.Gender.String(),
		Courage:               e.Buffer.Courage,
		Stupidity:             e.Buffer.Stupidity,
		Badass:                e.Buffer.Badass,
	}
}

// PartCrewView is the wire form of a part's crew.
type PartCrewView struct {
	Part  string     `json:"part"`
	Crew  []CrewView `json:"crew"`
	Count int        `json:"count"`
}

// SettingsView is the wire form of the roster toggles.
type SettingsView struct {
	EnableRename           bool `json:"enableRename"`
	EnableChangeProfession bool `json:"enableChangeProfession"`
	RealismMode            bool `json:"realismMode"`
}

func settingsView(s session.Settings) SettingsView {
	return SettingsView{
		EnableRename:           s.Policy.AllowRename,
		EnableChangeProfession: s.Policy.AllowProfessionChange,
		RealismMode:            s.RealismMode,
	}
}
