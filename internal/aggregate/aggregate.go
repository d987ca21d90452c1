// Package aggregate computes resource and crew totals over a set of parts.
//
// Each resource class has its own rule. Generic resources sum container
// amounts and capacities. Crew counts occupied normal seats against normal
// seat capacity, plus any frozen occupants reported by an optional
// integration. Science sums data counts and has no capacity.
//
// Contributors are isolated from each other: one that fails or panics is
// left out of the sum, logged, and reported through Totals.Err wrapping
// ErrAggregationPartial. The rest of the sum is still returned.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/shipmanifest/extension/pkg/core"
)

const instrumentationName = "github.com/shipmanifest/extension/internal/aggregate"

// ErrAggregationPartial marks a result that excludes at least one faulting contributor.
var ErrAggregationPartial = errors.New("aggregation partial")

// CrewCorrector reports extra crew an integration attributes to a part.
type CrewCorrector interface {
	CrewCorrection(part *core.Part) (int, error)
}

// Totals is the result of one aggregation. Total is meaningful only when
// HasTotal is set; a zero capacity is still a total.
type Totals struct {
	Resource core.ResourceType
	Class    string
	Current  float64
	Total    float64
	HasTotal bool
	// Excluded lists the parts whose contribution was dropped, once per fault.
	Excluded []core.PartID
	Err      error
}

// Partial reports whether any contributor was excluded.
func (t Totals) Partial() bool {
	return len(t.Excluded) > 0
}

// TotalOrNil returns the total, or nil for resources that have none.
func (t Totals) TotalOrNil() *float64 {
	if !t.HasTotal {
		return nil
	}
	total := t.Total
	return &total
}

// Option configures an Engine.
type Option func(*Engine)

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) {
		e.meter = mp.Meter(instrumentationName)
	}
}

// Engine aggregates resources. The corrector may be nil.
type Engine struct {
	corrector CrewCorrector
	logger    *slog.Logger

	meter    metric.Meter
	runs     metric.Int64Counter
	excluded metric.Int64Counter
}

// New creates an Engine. Uses the global OTel meter unless overridden.
func New(corrector CrewCorrector, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		corrector: corrector,
		logger:    logger,
		meter:     otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(e)
	}

	var err error
	e.runs, err = e.meter.Int64Counter("aggregate.runs",
		metric.WithDescription("Aggregations computed"),
	)
	if err != nil {
		return nil, err
	}
	e.excluded, err = e.meter.Int64Counter("aggregate.contributors.excluded",
		metric.WithDescription("Contributors dropped from an aggregation after a fault"),
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// run accumulates one aggregation.
type run struct {
	e      *Engine
	totals Totals
	faults []error
}

func (r *run) exclude(part *core.Part, err error) {
	r.totals.Excluded = append(r.totals.Excluded, part.ID)
	r.faults = append(r.faults, err)
	r.e.logger.Warn("contributor excluded from aggregation",
		"resource", string(r.totals.Resource),
		"part", string(part.ID),
		"error", err,
	)
}

// guard calls fn, converting a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}

// Aggregate computes totals of rt over parts. Nil parts are skipped.
func (e *Engine) Aggregate(parts []*core.Part, rt core.ResourceType) Totals {
	r := &run{
		e: e,
		totals: Totals{
			Resource: rt,
			Class:    rt.Class().String(),
		},
	}

	switch rt.Class() {
	case core.ClassCrew:
		r.totals.HasTotal = true
		for _, p := range parts {
			if p != nil {
				r.crew(p)
			}
		}
	case core.ClassScience:
		for _, p := range parts {
			if p != nil {
				r.science(p)
			}
		}
	default:
		r.totals.HasTotal = true
		for _, p := range parts {
			if p != nil {
				r.generic(p, rt)
			}
		}
	}

	attrs := metric.WithAttributes(attribute.String("class", r.totals.Class))
	e.runs.Add(context.Background(), 1, attrs)
	if n := len(r.totals.Excluded); n > 0 {
		e.excluded.Add(context.Background(), int64(n), attrs)
		r.totals.Err = fmt.Errorf("%w: %d contributor(s) excluded: %w",
			ErrAggregationPartial, n, errors.Join(r.faults...))
	}
	if !r.totals.HasTotal {
		r.totals.Total = 0
	}
	return r.totals
}

func (r *run) generic(p *core.Part, rt core.ResourceType) {
	c, ok := p.Resources[rt]
	if !ok {
		return
	}
	if !c.Valid() {
		r.exclude(p, fmt.Errorf("part %s: container %s out of range (%g/%g)", p.ID, rt, c.Amount, c.Capacity))
		return
	}
	r.totals.Current += c.Amount
	r.totals.Total += c.Capacity
}

func (r *run) crew(p *core.Part) {
	occupied, capacity := 0, 0
	for _, s := range p.Seats {
		if s.Kind == core.SeatExternal {
			continue
		}
		capacity++
		if s.Occupied() {
			occupied++
		}
	}
	r.totals.Current += float64(occupied)
	r.totals.Total += float64(capacity)

	if r.e.corrector == nil {
		return
	}
	var extra int
	err := guard(func() error {
		var err error
		extra, err = r.e.corrector.CrewCorrection(p)
		return err
	})
	if err == nil && extra < 0 {
		err = fmt.Errorf("negative crew correction %d", extra)
	}
	if err != nil {
		r.exclude(p, fmt.Errorf("part %s: crew correction: %w", p.ID, err))
		return
	}
	r.totals.Current += float64(extra)
}

func (r *run) science(p *core.Part) {
	for i, d := range p.Data {
		if d == nil {
			continue
		}
		var n int
		err := guard(func() error {
			var err error
			n, err = d.Count()
			return err
		})
		if err == nil && n < 0 {
			err = fmt.Errorf("negative data count %d", n)
		}
		if err != nil {
			r.exclude(p, fmt.Errorf("part %s: data module %d: %w", p.ID, i, err))
			continue
		}
		r.totals.Current += float64(n)
	}
}

// Sum aggregates every resource type carried by parts, plus crew and science.
// Results are keyed by resource type.
func (e *Engine) Sum(parts []*core.Part) map[core.ResourceType]Totals {
	types := map[core.ResourceType]struct{}{
		core.ResourceCrew:    {},
		core.ResourceScience: {},
	}
	for _, p := range parts {
		if p == nil {
			continue
		}
		for rt := range p.Resources {
			types[rt] = struct{}{}
		}
	}
	out := make(map[core.ResourceType]Totals, len(types))
	for rt := range types {
		out[rt] = e.Aggregate(parts, rt)
	}
	return out
}
