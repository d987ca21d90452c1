package handlers

import (
	"fmt"
	"strings"

	"github.com/shipmanifest/extension/internal/capability"
	"github.com/shipmanifest/extension/internal/dispatcher"
	"github.com/shipmanifest/extension/internal/logging"
	"github.com/shipmanifest/extension/internal/parser"
	"github.com/shipmanifest/extension/internal/session"
	"github.com/shipmanifest/extension/internal/util"
	"github.com/shipmanifest/extension/pkg/core"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Session    *session.Session
	LogManager *logging.SlogManager
}

// Service turns host commands into session operations.
type Service struct {
	deps         Dependencies
	writeLogFunc func(functionName, data, level string)
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	s := &Service{deps: deps}
	s.writeLogFunc = func(functionName, data, level string) {
		if deps.LogManager != nil {
			deps.LogManager.WriteLog(functionName, data, level)
		}
	}
	return s
}

func (s *Service) writeLog(functionName, data, level string) {
	s.writeLogFunc(functionName, data, level)
}

// Register binds every session command to d.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	logged := []dispatcher.Option{dispatcher.Logged(), dispatcher.Recovered()}

	d.Register(":VESSEL:LOAD:", s.LoadVessel, logged...)
	d.Register(":VESSEL:CLEAR:", s.ClearVessel, logged...)
	d.Register(":VESSEL:PRELAUNCH:", s.SetPrelaunch, logged...)
	d.Register(":HATCH:OPEN:", s.OpenHatch, logged...)
	d.Register(":HATCH:CLOSE:", s.CloseHatch, logged...)
	d.Register(":HATCH:LIST:", s.ListHatches, dispatcher.Recovered())
	d.Register(":TOPOLOGY:CONNECTED:", s.ConnectedParts, dispatcher.Recovered())
	d.Register(":AGGREGATE:", s.Aggregate, dispatcher.Recovered())
	d.Register(":CAPABILITY:PROBE:", s.Probe, logged...)
	d.Register(":ROSTER:LIST:", s.ListRoster, dispatcher.Recovered())
	d.Register(":ROSTER:GET:", s.GetMember, dispatcher.Recovered())
	d.Register(":ROSTER:EDIT:GET:", s.GetEdit, dispatcher.Recovered())
	d.Register(":ROSTER:EDIT:BEGIN:", s.BeginEdit, logged...)
	d.Register(":ROSTER:EDIT:SET:", s.UpdateEdit, logged...)
	d.Register(":ROSTER:EDIT:COMMIT:", s.CommitEdit, logged...)
	d.Register(":ROSTER:EDIT:CANCEL:", s.CancelEdit, logged...)
	d.Register(":ROSTER:RESPAWN:", s.Respawn, logged...)
	d.Register(":CREW:ADD:", s.AddCrew, logged...)
	d.Register(":CREW:REMOVE:", s.RemoveCrew, logged...)
	d.Register(":CREW:PART:", s.PartCrew, dispatcher.Recovered())
	d.Register(":SETTINGS:GET:", s.GetSettings, dispatcher.Recovered())
	d.Register(":SETTINGS:SET:", s.SetSettings, logged...)
	d.Register(":LOG:GET:", s.GetLog, dispatcher.Recovered())
	d.Register(":LOG:CLEAR:", s.ClearLog, logged...)
	d.Register(":STATUS:", s.Status, dispatcher.Recovered())
}

func arg(e dispatcher.Event, i int) string {
	if i >= len(e.Args) {
		return ""
	}
	return strings.TrimSpace(util.CleanArg(e.Args[i]))
}

func requireArg(e dispatcher.Event, i int, what string) (string, error) {
	v := arg(e, i)
	if v == "" {
		return "", fmt.Errorf("%s: missing %s", e.Command, what)
	}
	return v, nil
}

// LoadVessel replaces the current vessel with the snapshot in args[0].
func (s *Service) LoadVessel(e dispatcher.Event) (any, error) {
	functionName := ":VESSEL:LOAD:"
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("%s: missing snapshot", functionName)
	}

	var snap parser.Snapshot
	if err := util.DecodeArg(e.Args[0], &snap); err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Error unmarshalling vessel snapshot: %v`, err), "ERROR")
		return nil, err
	}
	return s.deps.Session.LoadSnapshot(snap)
}

// ClearVessel drops the current vessel.
func (s *Service) ClearVessel(e dispatcher.Event) (any, error) {
	s.deps.Session.ClearVessel()
	return "ok", nil
}

// SetPrelaunch records whether the vessel has launched; args[0] is true or false.
func (s *Service) SetPrelaunch(e dispatcher.Event) (any, error) {
	var prelaunch bool
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("%s: missing flag", e.Command)
	}
	if err := util.DecodeArg(e.Args[0], &prelaunch); err != nil {
		return nil, err
	}
	if err := s.deps.Session.SetPrelaunch(prelaunch); err != nil {
		return nil, err
	}
	return prelaunch, nil
}

// OpenHatch opens the hatch at the node named in args[0].
func (s *Service) OpenHatch(e dispatcher.Event) (any, error) {
	node, err := requireArg(e, 0, "node id")
	if err != nil {
		return nil, err
	}
	h, err := s.deps.Session.OpenHatch(core.NodeID(node))
	if err != nil {
		return nil, err
	}
	return hatchView(h), nil
}

// CloseHatch closes the hatch at the node named in args[0].
func (s *Service) CloseHatch(e dispatcher.Event) (any, error) {
	node, err := requireArg(e, 0, "node id")
	if err != nil {
		return nil, err
	}
	h, err := s.deps.Session.CloseHatch(core.NodeID(node))
	if err != nil {
		return nil, err
	}
	return hatchView(h), nil
}

// ListHatches returns every hatch of the current vessel.
func (s *Service) ListHatches(e dispatcher.Event) (any, error) {
	hs, err := s.deps.Session.Hatches()
	if err != nil {
		return nil, err
	}
	out := make([]HatchView, 0, len(hs))
	for _, h := range hs {
		out = append(out, hatchView(h))
	}
	return out, nil
}

// scopeArgs selects the parts an operation covers.
type scopeArgs struct {
	Part     string `json:"part"`
	Depth    int    `json:"depth"`
	Resource string `json:"resource"`
}

func decodeScope(e dispatcher.Event) (scopeArgs, error) {
	var a scopeArgs
	if len(e.Args) == 0 {
		return a, fmt.Errorf("%s: missing scope", e.Command)
	}
	if err := util.DecodeArg(e.Args[0], &a); err != nil {
		return a, err
	}
	if a.Part == "" {
		return a, fmt.Errorf("%s: missing part", e.Command)
	}
	return a, nil
}

// ConnectedParts returns the part ids reachable from args[0].part within args[0].depth.
func (s *Service) ConnectedParts(e dispatcher.Event) (any, error) {
	a, err := decodeScope(e)
	if err != nil {
		return nil, err
	}
	ids, err := s.deps.Session.ConnectedParts(core.PartID(a.Part), a.Depth)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out, nil
}

// Aggregate totals args[0].resource over the parts reachable from
// args[0].part. Without a resource every type is totalled.
func (s *Service) Aggregate(e dispatcher.Event) (any, error) {
	a, err := decodeScope(e)
	if err != nil {
		return nil, err
	}
	start := core.PartID(a.Part)
	if a.Resource == "" {
		all, err := s.deps.Session.AggregateAll(start, a.Depth)
		if err != nil {
			return nil, err
		}
		out := make(map[string]TotalsView, len(all))
		for rt, t := range all {
			out[string(rt)] = totalsView(t)
		}
		return out, nil
	}
	t, err := s.deps.Session.Aggregate(start, a.Depth, core.ResourceType(a.Resource))
	if err != nil {
		return nil, err
	}
	return totalsView(t), nil
}

// Probe reports presence of the integration named in args[0]. A second
// argument "reprobe" forces detection again. Without arguments every
// integration's flag is returned.
func (s *Service) Probe(e dispatcher.Event) (any, error) {
	name := arg(e, 0)
	if name == "" {
		out := make(map[string]bool)
		for n, present := range s.deps.Session.Capabilities() {
			out[string(n)] = present
		}
		return out, nil
	}
	if strings.EqualFold(arg(e, 1), "reprobe") {
		return s.deps.Session.Reprobe(capability.Name(name)), nil
	}
	return s.deps.Session.Probe(capability.Name(name)), nil
}

// ListRoster returns every roster member with the part it sits in.
func (s *Service) ListRoster(e dispatcher.Event) (any, error) {
	return seatedViews(s.deps.Session.Crew()), nil
}

// GetMember returns the member named in args[0].
func (s *Service) GetMember(e dispatcher.Event) (any, error) {
	name, err := requireArg(e, 0, "name")
	if err != nil {
		return nil, err
	}
	m, err := s.deps.Session.Member(name)
	if err != nil {
		return nil, err
	}
	return seatedView(m), nil
}

// GetEdit returns the open edit.
func (s *Service) GetEdit(e dispatcher.Event) (any, error) {
	info, err := s.deps.Session.Edit()
	if err != nil {
		return nil, err
	}
	return editView(info), nil
}

// BeginEdit opens an edit on the member named in args[0], or on a new member.
func (s *Service) BeginEdit(e dispatcher.Event) (any, error) {
	info, err := s.deps.Session.BeginEdit(arg(e, 0))
	if err != nil {
		return nil, err
	}
	return editView(info), nil
}

// patchArgs is the wire form of session.Patch.
type patchArgs struct {
	Name      *string  `json:"name"`
	Trait     *string  `json:"trait"`
	Gender    *string  `json:"gender"`
	Courage   *float64 `json:"courage"`
	Stupidity *float64 `json:"stupidity"`
	Badass    *bool    `json:"badass"`
}

func (p patchArgs) patch() (session.Patch, error) {
	out := session.Patch{
		Name:      p.Name,
		Trait:     p.Trait,
		Courage:   p.Courage,
		Stupidity: p.Stupidity,
		Badass:    p.Badass,
	}
	if p.Gender != nil {
		g, err := core.ParseGender(*p.Gender)
		if err != nil {
			return out, err
		}
		out.Gender = &g
	}
	return out, nil
}

// UpdateEdit changes the open edit's buffer with the fields in args[0].
func (s *Service) UpdateEdit(e dispatcher.Event) (any, error) {
	functionName := ":ROSTER:EDIT:SET:"
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("%s: missing fields", functionName)
	}
	var a patchArgs
	if err := util.DecodeArg(e.Args[0], &a); err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Error unmarshalling edit fields: %v`, err), "ERROR")
		return nil, err
	}
	p, err := a.patch()
	if err != nil {
		return nil, err
	}
	info, err := s.deps.Session.UpdateEdit(p)
	if err != nil {
		return nil, err
	}
	return editView(info), nil
}

// CommitEdit applies the open edit.
func (s *Service) CommitEdit(e dispatcher.Event) (any, error) {
	m, err := s.deps.Session.CommitEdit()
	if err != nil {
		return nil, err
	}
	return crewView(m), nil
}

// CancelEdit discards the open edit.
func (s *Service) CancelEdit(e dispatcher.Event) (any, error) {
	if err := s.deps.Session.CancelEdit(); err != nil {
		return nil, err
	}
	return "ok", nil
}

// Respawn returns the dead or missing member named in args[0] to duty.
func (s *Service) Respawn(e dispatcher.Event) (any, error) {
	name, err := requireArg(e, 0, "name")
	if err != nil {
		return nil, err
	}
	m, err := s.deps.Session.Respawn(name)
	if err != nil {
		return nil, err
	}
	return crewView(m), nil
}

// AddCrew seats args[0].name in args[0].part.
func (s *Service) AddCrew(e dispatcher.Event) (any, error) {
	var a struct {
		Name string `json:"name"`
		Part string `json:"part"`
	}
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("%s: missing placement", e.Command)
	}
	if err := util.DecodeArg(e.Args[0], &a); err != nil {
		return nil, err
	}
	m, err := s.deps.Session.AddCrew(a.Name, core.PartID(a.Part))
	if err != nil {
		return nil, err
	}
	return crewView(m), nil
}

// RemoveCrew unseats the member named in args[0].
func (s *Service) RemoveCrew(e dispatcher.Event) (any, error) {
	name, err := requireArg(e, 0, "name")
	if err != nil {
		return nil, err
	}
	m, err := s.deps.Session.RemoveCrew(name)
	if err != nil {
		return nil, err
	}
	return crewView(m), nil
}

// PartCrew returns the members seated in the part named in args[0] and the
// part's crew count, which includes frozen occupants.
func (s *Service) PartCrew(e dispatcher.Event) (any, error) {
	part, err := requireArg(e, 0, "part id")
	if err != nil {
		return nil, err
	}
	seated, n, err := s.deps.Session.PartCrew(core.PartID(part))
	if err != nil {
		return nil, err
	}
	return PartCrewView{Part: part, Crew: crewViews(seated), Count: n}, nil
}

// GetSettings returns the active roster toggles.
func (s *Service) GetSettings(e dispatcher.Event) (any, error) {
	return settingsView(s.deps.Session.Settings()), nil
}

// settingsArgs is the wire form of a settings change. Missing fields keep
// their current value.
type settingsArgs struct {
	EnableRename           *bool `json:"enableRename"`
	EnableChangeProfession *bool `json:"enableChangeProfession"`
	RealismMode            *bool `json:"realismMode"`
}

// SetSettings changes the roster toggles with the fields in args[0]. An open
// edit keeps the policy it was begun with.
func (s *Service) SetSettings(e dispatcher.Event) (any, error) {
	functionName := ":SETTINGS:SET:"
	if len(e.Args) == 0 {
		return nil, fmt.Errorf("%s: missing settings", functionName)
	}
	var a settingsArgs
	if err := util.DecodeArg(e.Args[0], &a); err != nil {
		s.writeLog(functionName, fmt.Sprintf(`Error unmarshalling settings: %v`, err), "ERROR")
		return nil, err
	}
	cur := s.deps.Session.Settings()
	if a.EnableRename != nil {
		cur.Policy.AllowRename = *a.EnableRename
	}
	if a.EnableChangeProfession != nil {
		cur.Policy.AllowProfessionChange = *a.EnableChangeProfession
	}
	if a.RealismMode != nil {
		cur.RealismMode = *a.RealismMode
	}
	s.deps.Session.SetSettings(cur)
	return settingsView(cur), nil
}

// GetLog returns the diagnostic log, oldest first.
func (s *Service) GetLog(e dispatcher.Event) (any, error) {
	return s.deps.Session.LogEntries(), nil
}

// ClearLog empties the diagnostic log.
func (s *Service) ClearLog(e dispatcher.Event) (any, error) {
	s.deps.Session.ClearLog()
	return "ok", nil
}

// Status returns the session summary.
func (s *Service) Status(e dispatcher.Event) (any, error) {
	return s.deps.Session.Status(), nil
}

