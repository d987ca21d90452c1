package session

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipmanifest/extension/internal/aggregate"
	"github.com/shipmanifest/extension/internal/capability"
	"github.com/shipmanifest/extension/internal/hatch"
	"github.com/shipmanifest/extension/internal/logging"
	"github.com/shipmanifest/extension/internal/parser"
	"github.com/shipmanifest/extension/internal/roster"
	"github.com/shipmanifest/extension/internal/storage/memory"
	"github.com/shipmanifest/extension/internal/topology"
	"github.com/shipmanifest/extension/pkg/core"
)

type recordingObserver struct {
	calls []string
	count int
}

func (o *recordingObserver) ObserveTotals(vessel string, start core.PartID, totals []aggregate.Totals) {
	o.calls = append(o.calls, vessel+"/"+string(start))
	o.count += len(totals)
}

func newTestSession(t *testing.T, detect capability.Detector, settings Settings) (*Session, *logging.DiagnosticLog) {
	t.Helper()
	diag := logging.NewDiagnosticLog(100)
	logger := slog.New(logging.NewDiagnosticHandler(diag, slog.LevelInfo))
	s, err := New(Dependencies{
		Roster:      roster.New(memory.New(), logger),
		Registry:    capability.NewDefault(detect, logger),
		Diagnostics: diag,
		Logger:      logger,
	}, settings)
	require.NoError(t, err)
	return s, diag
}

func loadStation(t *testing.T, s *Session) VesselInfo {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "station.json"))
	require.NoError(t, err)
	info, err := s.LoadVessel(data)
	require.NoError(t, err)
	return info
}

func allPolicy() Settings {
	return Settings{Policy: roster.Policy{AllowRename: true, AllowProfessionChange: true}}
}

func TestNew_RequiresRoster(t *testing.T) {
	_, err := New(Dependencies{}, Settings{})
	assert.Error(t, err)
}

func TestLoadVessel(t *testing.T) {
	s, diag := newTestSession(t, nil, allPolicy())
	info := loadStation(t, s)

	assert.Equal(t, VesselInfo{ID: "b7c1", Name: "Minmus Station", Parts: 3, Hatches: 2}, info)
	got, err := s.Vessel()
	require.NoError(t, err)
	assert.Equal(t, info, got)

	var loaded bool
	for _, e := range diag.Entries() {
		if e.Level == slog.LevelInfo && strings.HasPrefix(e.Message, "vessel loaded") {
			loaded = true
		}
	}
	assert.True(t, loaded, "diagnostic log records the load")
}

func TestLoadVessel_InvalidKeepsPrevious(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	loadStation(t, s)
	crew := len(s.Crew())

	_, err := s.LoadVessel([]byte(`{"name":"broken","parts":[{"id":"a"},{"id":"a"}],"roster":[{"name":"New Kerman","trait":"Pilot"}]}`))
	require.ErrorIs(t, err, parser.ErrInvalidSnapshot)

	info, err := s.Vessel()
	require.NoError(t, err)
	assert.Equal(t, "Minmus Station", info.Name)
	assert.Len(t, s.Crew(), crew)
}

func TestLoadVessel_InvalidOccupantLeavesRoster(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	loadStation(t, s)
	_, err := s.RemoveCrew("Bob Kerman")
	require.NoError(t, err)
	before := s.Crew()

	_, err = s.LoadVessel([]byte(`{"name":"rover","parts":[{"id":"cab","seats":[
		{"occupant":"Bob Kerman"},{"occupant":"Ludwig Kerman"},{"occupant":"   "}]}],
		"roster":[{"name":"Gene Kerman","trait":"Engineer","courage":0.2,"stupidity":0.3}]}`))
	require.ErrorIs(t, err, parser.ErrInvalidSnapshot)
	assert.ErrorIs(t, err, roster.ErrInvalidAttribute)

	assert.Equal(t, before, s.Crew(), "a rejected snapshot changes no member")
	bob, err := s.Member("Bob Kerman")
	require.NoError(t, err)
	assert.Equal(t, core.StatusAvailable, bob.Status)
	_, err = s.BeginEdit("Bob Kerman")
	assert.NoError(t, err)

	info, err := s.Vessel()
	require.NoError(t, err)
	assert.Equal(t, "Minmus Station", info.Name)
}

func TestNoVessel(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())

	_, err := s.Vessel()
	assert.ErrorIs(t, err, ErrNoVessel)
	_, err = s.ConnectedParts("pod", topology.Unlimited)
	assert.ErrorIs(t, err, ErrNoVessel)
	_, err = s.Aggregate("pod", topology.Unlimited, core.ResourceCrew)
	assert.ErrorIs(t, err, ErrNoVessel)
	_, err = s.Hatches()
	assert.ErrorIs(t, err, ErrNoVessel)
	_, err = s.OpenHatch("pod-top")
	assert.ErrorIs(t, err, hatch.ErrInvalidTransition)
	_, err = s.AddCrew("Jebediah Kerman", "pod")
	assert.ErrorIs(t, err, ErrNoVessel)
	assert.ErrorIs(t, s.SetPrelaunch(true), ErrNoVessel)
}

func TestClearVessel(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	loadStation(t, s)
	_, err := s.ConnectedParts("pod", topology.Unlimited)
	require.NoError(t, err)

	s.ClearVessel()
	s.ClearVessel()

	_, err = s.Vessel()
	assert.ErrorIs(t, err, ErrNoVessel)
	entries, _, _ := s.ReachStats()
	assert.Zero(t, entries)
	assert.Empty(t, s.LogContext())
	assert.Len(t, s.Crew(), 4, "roster survives the vessel")
}

func TestHatchChangesConnectivity(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	loadStation(t, s)

	parts, err := s.ConnectedParts("pod", topology.Unlimited)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.PartID{"pod", "hab"}, parts)

	h, err := s.OpenHatch("lab-bottom")
	require.NoError(t, err)
	assert.Equal(t, hatch.Open, h.State)

	parts, err = s.ConnectedParts("pod", topology.Unlimited)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.PartID{"pod", "hab", "lab"}, parts)

	parts, err = s.ConnectedParts("pod", 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []core.PartID{"pod", "hab"}, parts)

	_, err = s.CloseHatch("pod-top")
	require.NoError(t, err)
	parts, err = s.ConnectedParts("pod", topology.Unlimited)
	require.NoError(t, err)
	assert.Equal(t, []core.PartID{"pod"}, parts)

	_, err = s.OpenHatch("lab-spare")
	assert.ErrorIs(t, err, hatch.ErrInvalidTransition)

	hs, err := s.Hatches()
	require.NoError(t, err)
	require.Len(t, hs, 2)
}

func TestAggregate(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	loadStation(t, s)

	fuel, err := s.Aggregate("pod", topology.Unlimited, "LiquidFuel")
	require.NoError(t, err)
	assert.Equal(t, 30.0, fuel.Current)
	assert.Equal(t, 100.0, fuel.Total)

	crew, err := s.Aggregate("pod", topology.Unlimited, core.ResourceCrew)
	require.NoError(t, err)
	assert.Equal(t, 2.0, crew.Current, "external seat and absent cryo storage do not count")
	assert.Equal(t, 4.0, crew.Total)

	science, err := s.Aggregate("pod", topology.Unlimited, core.ResourceScience)
	require.NoError(t, err)
	assert.Equal(t, 8.0, science.Current)
	assert.False(t, science.HasTotal)

	_, err = s.Aggregate("ghost", topology.Unlimited, core.ResourceCrew)
	assert.ErrorIs(t, err, topology.ErrUnknownPart)
}

func TestAggregate_WithCryoStorage(t *testing.T) {
	s, _ := newTestSession(t, func(capability.Name) bool { return true }, allPolicy())
	loadStation(t, s)
	assert.True(t, s.Probe(capability.DeepFreeze))

	crew, err := s.Aggregate("pod", topology.Unlimited, core.ResourceCrew)
	require.NoError(t, err)
	assert.Equal(t, 4.0, crew.Current)
	assert.Equal(t, 4.0, crew.Total)

	seated, n, err := s.PartCrew("hab")
	require.NoError(t, err)
	require.Len(t, seated, 1)
	assert.Equal(t, "Bob Kerman", seated[0].Name)
	assert.Equal(t, 3, n)
}

func TestAggregateAll_Observed(t *testing.T) {
	obs := &recordingObserver{}
	s, err := New(Dependencies{Roster: roster.New(nil, nil), Observer: obs}, allPolicy())
	require.NoError(t, err)
	loadStation(t, s)

	all, err := s.AggregateAll("pod", topology.Unlimited)
	require.NoError(t, err)
	assert.Contains(t, all, core.ResourceType("LiquidFuel"))
	assert.Contains(t, all, core.ResourceCrew)
	assert.Contains(t, all, core.ResourceScience)

	_, err = s.Aggregate("hab", 1, core.ResourceCrew)
	require.NoError(t, err)

	assert.Equal(t, []string{"Minmus Station/pod", "Minmus Station/hab"}, obs.calls)
	assert.Equal(t, len(all)+1, obs.count)
}

func TestEdit_NewMember(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	loadStation(t, s)

	info, err := s.BeginEdit("")
	require.NoError(t, err)
	assert.True(t, info.IsNew)
	assert.NotEmpty(t, info.Buffer.Name)

	taken := "Valentina Kerman"
	_, err = s.UpdateEdit(Patch{Name: &taken})
	require.NoError(t, err)
	_, err = s.CommitEdit()
	require.ErrorIs(t, err, roster.ErrNameConflict)

	cur, err := s.Edit()
	require.NoError(t, err)
	assert.Equal(t, roster.Editing, cur.State, "rejected commit leaves the edit open")

	name := "Lodnie Kerman"
	courage := 0.8
	_, err = s.UpdateEdit(Patch{Name: &name, Courage: &courage})
	require.NoError(t, err)
	m, err := s.CommitEdit()
	require.NoError(t, err)
	assert.Equal(t, name, m.Name)
	assert.Equal(t, core.StatusAvailable, m.Status)
	assert.Equal(t, 0.8, m.Courage)

	_, err = s.Edit()
	assert.ErrorIs(t, err, ErrNoEdit)
	assert.ErrorIs(t, s.CancelEdit(), ErrNoEdit)
}

func TestEdit_ExistingMember(t *testing.T) {
	s, _ := newTestSession(t, nil, Settings{Policy: roster.Policy{AllowRename: false, AllowProfessionChange: true}})
	loadStation(t, s)

	_, err := s.BeginEdit("Jebediah Kerman")
	assert.ErrorIs(t, err, roster.ErrNotEditable, "seated members are not editable")
	_, err = s.BeginEdit("Nobody Kerman")
	assert.ErrorIs(t, err, roster.ErrUnknownMember)

	info, err := s.BeginEdit("Valentina Kerman")
	require.NoError(t, err)
	assert.Equal(t, "Valentina Kerman", info.Target)

	name, trait := "Val Kerman", core.TraitEngineer
	_, err = s.UpdateEdit(Patch{Name: &name, Trait: &trait})
	require.NoError(t, err)
	m, err := s.CommitEdit()
	require.NoError(t, err)
	assert.Equal(t, "Valentina Kerman", m.Name, "rename disabled")
	assert.Equal(t, core.TraitEngineer, m.Trait)
}

func TestEdit_BeginReplacesOpenEdit(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	loadStation(t, s)

	_, err := s.BeginEdit("")
	require.NoError(t, err)
	info, err := s.BeginEdit("Valentina Kerman")
	require.NoError(t, err)
	assert.False(t, info.IsNew)

	require.NoError(t, s.CancelEdit())
	assert.Len(t, s.Crew(), 4)
}

func TestCrewPlacement(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	loadStation(t, s)

	m, err := s.AddCrew("Valentina Kerman", "lab")
	require.NoError(t, err)
	assert.Equal(t, core.StatusAssigned, m.Status)

	_, err = s.AddCrew("Valentina Kerman", "lab")
	assert.ErrorIs(t, err, roster.ErrNotAvailable)
	_, err = s.AddCrew("Valentina Kerman", "ghost")
	assert.ErrorIs(t, err, topology.ErrUnknownPart)

	m, err = s.RemoveCrew("Valentina Kerman")
	require.NoError(t, err)
	assert.Equal(t, core.StatusAvailable, m.Status)

	_, err = s.RemoveCrew("Valentina Kerman")
	assert.ErrorIs(t, err, roster.ErrNotSeated)
}

func TestCrew_SeatedPart(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	loadStation(t, s)

	jeb, err := s.Member("Jebediah Kerman")
	require.NoError(t, err)
	assert.Equal(t, core.PartID("pod"), jeb.Part)

	seats := map[string]core.PartID{}
	for _, m := range s.Crew() {
		seats[m.Name] = m.Part
	}
	assert.Equal(t, map[string]core.PartID{
		"Bill Kerman":      "pod",
		"Bob Kerman":       "hab",
		"Jebediah Kerman":  "pod",
		"Valentina Kerman": "",
	}, seats)

	s.ClearVessel()
	jeb, err = s.Member("Jebediah Kerman")
	require.NoError(t, err)
	assert.Empty(t, jeb.Part, "no vessel, no seat")
	_, err = s.Member("Nobody Kerman")
	assert.ErrorIs(t, err, roster.ErrUnknownMember)
}

func TestSetSettings(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	loadStation(t, s)

	_, err := s.BeginEdit("Valentina Kerman")
	require.NoError(t, err)

	s.SetSettings(Settings{RealismMode: true})
	assert.Equal(t, Settings{RealismMode: true}, s.Settings())

	cur, err := s.Edit()
	require.NoError(t, err)
	assert.True(t, cur.Policy.AllowRename, "an open edit keeps its policy")

	info, err := s.BeginEdit("Valentina Kerman")
	require.NoError(t, err)
	assert.False(t, info.Policy.AllowRename)
	assert.False(t, info.Policy.AllowProfessionChange)

	_, err = s.AddCrew("Valentina Kerman", "lab")
	assert.ErrorIs(t, err, roster.ErrRealismLocked)
}

func TestCrewPlacement_Realism(t *testing.T) {
	settings := allPolicy()
	settings.RealismMode = true
	s, _ := newTestSession(t, nil, settings)
	loadStation(t, s)

	_, err := s.AddCrew("Valentina Kerman", "lab")
	assert.ErrorIs(t, err, roster.ErrRealismLocked)
	_, err = s.RemoveCrew("Jebediah Kerman")
	assert.ErrorIs(t, err, roster.ErrRealismLocked)

	require.NoError(t, s.SetPrelaunch(true))
	_, err = s.AddCrew("Valentina Kerman", "lab")
	assert.NoError(t, err)
}

func TestRespawn(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	loadStation(t, s)

	_, err := s.Respawn("Valentina Kerman")
	assert.ErrorIs(t, err, roster.ErrNotRespawnable)

	s.mu.Lock()
	val, _ := s.roster.ByName("Valentina Kerman")
	require.NoError(t, s.roster.SetStatus(val, core.StatusDead))
	s.mu.Unlock()

	m, err := s.Respawn("Valentina Kerman")
	require.NoError(t, err)
	assert.Equal(t, core.StatusAvailable, m.Status)
}

func TestLogContext(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	assert.Empty(t, s.LogContext())

	loadStation(t, s)
	attrs := s.LogContext()
	require.Len(t, attrs, 2)
	assert.Equal(t, "vessel", attrs[0].Key)
	assert.Equal(t, "Minmus Station", attrs[0].Value.String())
}

func TestStatus(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	st := s.Status()
	assert.Empty(t, st.Vessel)
	assert.Equal(t, map[capability.Name]bool{capability.DeepFreeze: false}, st.Capabilities)

	loadStation(t, s)
	_, err := s.BeginEdit("")
	require.NoError(t, err)

	st = s.Status()
	assert.Equal(t, "Minmus Station", st.Vessel)
	assert.Equal(t, 3, st.Parts)
	assert.Equal(t, 2, st.Hatches)
	assert.Equal(t, 1, st.OpenHatches)
	assert.Equal(t, 4, st.Crew)
	assert.True(t, st.Editing)
	assert.Positive(t, st.LogEntries)
}

func TestConcurrentAccess(t *testing.T) {
	s, _ := newTestSession(t, nil, allPolicy())
	loadStation(t, s)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i%2 == 0 {
					_, _ = s.OpenHatch("lab-bottom")
					_, _ = s.CloseHatch("lab-bottom")
				} else {
					_, err := s.Aggregate("pod", topology.Unlimited, core.ResourceCrew)
					assert.NoError(t, err)
				}
			}
		}(i)
	}
	wg.Wait()

	_, err := s.CloseHatch("lab-bottom")
	require.NoError(t, err)
	parts, err := s.ConnectedParts("pod", topology.Unlimited)
	require.NoError(t, err)
	assert.Len(t, parts, 2)
}
