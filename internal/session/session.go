// Package session holds the state of one running extension instance: the
// roster, the current vessel with its hatches and topology, the open roster
// edit and the diagnostic log. Every exported method takes the session lock,
// so callers on different host threads are serialized.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/shipmanifest/extension/internal/aggregate"
	"github.com/shipmanifest/extension/internal/cache"
	"github.com/shipmanifest/extension/internal/capability"
	"github.com/shipmanifest/extension/internal/hatch"
	"github.com/shipmanifest/extension/internal/logging"
	"github.com/shipmanifest/extension/internal/parser"
	"github.com/shipmanifest/extension/internal/roster"
	"github.com/shipmanifest/extension/internal/topology"
	"github.com/shipmanifest/extension/pkg/core"
)

var (
	ErrNoVessel = errors.New("no vessel loaded")
	ErrNoEdit   = errors.New("no roster edit open")
)

// Observer receives every aggregate computed for a vessel.
type Observer interface {
	ObserveTotals(vessel string, start core.PartID, totals []aggregate.Totals)
}

// Settings are the host toggles the session applies.
type Settings struct {
	Policy      roster.Policy
	RealismMode bool
}

// Dependencies holds everything the session is built from.
type Dependencies struct {
	Roster      *roster.Roster
	Registry    *capability.Registry
	Engine      *aggregate.Engine
	Diagnostics *logging.DiagnosticLog
	Logger      *slog.Logger
	// Observer is optional.
	Observer Observer
}

// Session is the explicitly owned context every host command runs against.
type Session struct {
	mu sync.Mutex

	settings    Settings
	roster      *roster.Roster
	registry    *capability.Registry
	engine      *aggregate.Engine
	diagnostics *logging.DiagnosticLog
	observer    Observer
	logger      *slog.Logger
	parser      *parser.Parser

	vessel    *core.Vessel
	prelaunch bool
	hatches   *hatch.Set
	graph     *topology.Graph
	reach     *cache.ReachCache
	edit      *roster.Edit

	// attrs is read by the log context provider without taking mu.
	attrs atomic.Pointer[[]slog.Attr]
}

// New creates a session with no vessel loaded.
func New(deps Dependencies, settings Settings) (*Session, error) {
	if deps.Roster == nil {
		return nil, fmt.Errorf("session needs a roster")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Registry == nil {
		deps.Registry = capability.NewDefault(nil, deps.Logger)
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = logging.NewDiagnosticLog(logging.DefaultDiagnosticLimit)
	}
	if deps.Engine == nil {
		e, err := aggregate.New(deps.Registry, deps.Logger)
		if err != nil {
			return nil, fmt.Errorf("create aggregation engine: %w", err)
		}
		deps.Engine = e
	}

	s := &Session{
		settings:    settings,
		roster:      deps.Roster,
		registry:    deps.Registry,
		engine:      deps.Engine,
		diagnostics: deps.Diagnostics,
		observer:    deps.Observer,
		logger:      deps.Logger,
		parser:      parser.NewParser(deps.Logger, deps.Registry),
		reach:       cache.NewReachCache(),
	}
	s.publishAttrs()
	return s, nil
}

// LogContext returns attributes describing the current vessel. It never
// blocks on the session lock, so it is safe to call from a log handler.
func (s *Session) LogContext() []slog.Attr {
	if p := s.attrs.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *Session) publishAttrs() {
	var attrs []slog.Attr
	if s.vessel != nil {
		attrs = []slog.Attr{
			slog.String("vessel", s.vessel.Name),
			slog.Int("parts", s.vessel.Len()),
		}
	}
	s.attrs.Store(&attrs)
}

// Settings returns the active toggles.
func (s *Session) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetSettings replaces the active toggles. An open edit keeps the policy it
// was begun with.
func (s *Session) SetSettings(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Diagnostics returns the diagnostic log.
func (s *Session) Diagnostics() *logging.DiagnosticLog {
	return s.diagnostics
}

// LogEntries returns the diagnostic log contents, oldest first.
func (s *Session) LogEntries() []logging.Entry {
	return s.diagnostics.Entries()
}

// ClearLog drops every diagnostic entry.
func (s *Session) ClearLog() {
	s.diagnostics.Clear()
}

// Probe reports whether the named integration is present, using the cached flag.
func (s *Session) Probe(name capability.Name) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Probe(name)
}

// Reprobe recomputes the named integration's presence flag.
func (s *Session) Reprobe(name capability.Name) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Reprobe(name)
}

// Capabilities returns the presence flag of every known integration.
func (s *Session) Capabilities() map[capability.Name]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.Status()
}
