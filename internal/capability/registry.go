// Package capability detects optional companion integrations and answers
// per-part queries about them through one interface, whether or not the
// integration is installed.
package capability

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shipmanifest/extension/pkg/core"
)

// Name identifies an optional integration.
type Name string

// Detector reports whether the host has the named integration loaded.
type Detector func(Name) bool

// Provider answers per-part queries for one integration.
type Provider interface {
	Name() Name
	// HostModule is the host-specific module name marking a part as carrying Feature.
	HostModule() string
	Feature() core.Feature
	// Extra returns the additional crew a part contributes. It is only called
	// when the integration is present and the part carries the feature.
	Extra(part *core.Part) (int, error)
}

// absent stands in for an integration that is not installed.
type absent struct {
	Provider
}

func (absent) Extra(*core.Part) (int, error) { return 0, nil }

// Registry caches presence flags and routes queries to the resolved provider:
// the real adapter when present, a no-op stand-in otherwise.
// Not safe for concurrent use; the session serializes access.
type Registry struct {
	detect      Detector
	adapters    map[Name]Provider
	active      map[Name]Provider
	seatModules map[string]core.SeatKind
	logger      *slog.Logger
}

// New creates a registry. A nil detector treats every integration as absent.
func New(detect Detector, logger *slog.Logger) *Registry {
	if detect == nil {
		detect = func(Name) bool { return false }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		detect:   detect,
		adapters: make(map[Name]Provider),
		active:   make(map[Name]Provider),
		seatModules: map[string]core.SeatKind{
			"KerbalSeat": core.SeatExternal,
		},
		logger: logger,
	}
}

// Register adds an adapter, replacing any previous one with the same name.
func (r *Registry) Register(p Provider) {
	r.adapters[p.Name()] = p
	delete(r.active, p.Name())
}

// SetDetector swaps the presence detector and drops cached flags.
func (r *Registry) SetDetector(detect Detector) {
	if detect == nil {
		detect = func(Name) bool { return false }
	}
	r.detect = detect
	r.active = make(map[Name]Provider)
}

// Probe reports whether the integration is present. The first call per name
// consults the detector and is logged; later calls use the cached result.
func (r *Registry) Probe(name Name) bool {
	p, ok := r.active[name]
	if !ok {
		return r.Reprobe(name)
	}
	_, isAbsent := p.(absent)
	return !isAbsent
}

// Reprobe recomputes the presence flag.
func (r *Registry) Reprobe(name Name) bool {
	adapter, known := r.adapters[name]
	present := known && r.safeDetect(name)
	if present {
		r.active[name] = adapter
	} else {
		r.active[name] = absent{Provider: adapter}
	}
	r.logger.Info("capability probed", "capability", string(name), "present", present)
	return present
}

func (r *Registry) safeDetect(name Name) (present bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("capability detector failed", "capability", string(name), "panic", rec)
			present = false
		}
	}()
	return r.detect(name)
}

// query returns the extra count and whether it applies. err is set only when a
// present adapter fails.
func (r *Registry) query(name Name, part *core.Part) (count int, ok bool, err error) {
	if part == nil || !r.Probe(name) {
		return 0, false, nil
	}
	p := r.active[name]
	if !part.HasFeature(p.Feature()) {
		return 0, false, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			count, ok, err = 0, false, fmt.Errorf("capability %s on part %s: panic: %v", name, part.ID, rec)
		}
	}()
	n, err := p.Extra(part)
	if err != nil {
		return 0, false, fmt.Errorf("capability %s on part %s: %w", name, part.ID, err)
	}
	return n, true, nil
}

// Query returns the extra count the integration attributes to part. ok is false
// when the integration is absent, the part lacks the feature, or the adapter fails;
// failures are logged.
func (r *Registry) Query(name Name, part *core.Part) (int, bool) {
	n, ok, err := r.query(name, part)
	if err != nil {
		r.logger.Error("capability query failed", "error", err)
	}
	return n, ok
}

// CrewCorrection sums the extra crew every present integration attributes to
// part. Absent integrations contribute nothing and are not errors; a failing
// adapter is reported so the caller can exclude the part's correction.
func (r *Registry) CrewCorrection(part *core.Part) (int, error) {
	total := 0
	var errs []error
	for _, name := range r.Names() {
		n, ok, err := r.query(name, part)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			total += n
		}
	}
	if len(errs) > 0 {
		return 0, errors.Join(errs...)
	}
	return total, nil
}

// Names returns registered integration names in sorted order.
func (r *Registry) Names() []Name {
	out := make([]Name, 0, len(r.adapters))
	for n := range r.adapters {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Status returns presence flags for every registered integration.
func (r *Registry) Status() map[Name]bool {
	out := make(map[Name]bool, len(r.adapters))
	for _, n := range r.Names() {
		out[n] = r.Probe(n)
	}
	return out
}

// FeatureForModule maps a host module name to a closed feature variant.
// Presence is not required: a snapshot records what a part carries, not what
// is installed.
func (r *Registry) FeatureForModule(module string) (core.Feature, bool) {
	for _, n := range r.Names() {
		if p := r.adapters[n]; p.HostModule() == module {
			return p.Feature(), true
		}
	}
	return core.FeatureNone, false
}

// SeatKindForModule maps a host seat module name to a seat kind. Unknown
// names are ordinary internal seats.
func (r *Registry) SeatKindForModule(module string) core.SeatKind {
	if k, ok := r.seatModules[module]; ok {
		return k
	}
	return core.SeatInternal
}

// RegisterSeatModule maps an additional host seat module name.
func (r *Registry) RegisterSeatModule(module string, kind core.SeatKind) {
	r.seatModules[module] = kind
}
