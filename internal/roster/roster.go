// Package roster owns the crew members of a session and governs edits to
// them through validated transactions.
package roster

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/google/uuid"

	"github.com/shipmanifest/extension/internal/cache"
	"github.com/shipmanifest/extension/internal/storage"
	"github.com/shipmanifest/extension/pkg/core"
)

var (
	ErrNameConflict      = errors.New("name already in use")
	ErrInvalidAttribute  = errors.New("invalid attribute")
	ErrTransactionClosed = errors.New("edit transaction closed")
	ErrNotEditable       = errors.New("crew member not editable")
	ErrNotRespawnable    = errors.New("crew member is not dead or missing")
	ErrUnknownMember     = errors.New("unknown crew member")
)

// Option configures a Roster.
type Option func(*Roster)

// WithRand sets the source used for generated prototypes.
func WithRand(rng *rand.Rand) Option {
	return func(r *Roster) {
		r.rng = rng
	}
}

// Roster is the set of crew members. Seats elsewhere hold pointers into it,
// so members are never replaced, only mutated in place.
// Not safe for concurrent use; the session serializes access.
type Roster struct {
	members map[uuid.UUID]*core.CrewMember
	names   *cache.NameIndex
	store   storage.Backend
	logger  *slog.Logger
	rng     *rand.Rand

	// undo is non-nil while Apply runs.
	undo []func() error
}

// New creates an empty roster. store may be nil for a purely in-memory roster.
func New(store storage.Backend, logger *slog.Logger, opts ...Option) *Roster {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Roster{
		members: make(map[uuid.UUID]*core.CrewMember),
		names:   cache.NewNameIndex(),
		store:   store,
		logger:  logger,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load replaces the in-memory roster with the store's contents.
func (r *Roster) Load() error {
	if r.store == nil {
		return nil
	}
	list, err := r.store.List()
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	r.members = make(map[uuid.UUID]*core.CrewMember, len(list))
	r.names.Reset()
	for i := range list {
		m := list[i]
		r.members[m.ID] = &m
		r.names.Set(m.Name, m.ID)
	}
	r.logger.Info("roster loaded", "members", len(list))
	return nil
}

// Get returns the member with the given id.
func (r *Roster) Get(id uuid.UUID) (*core.CrewMember, bool) {
	m, ok := r.members[id]
	return m, ok
}

// ByName returns the member with the given name.
func (r *Roster) ByName(name string) (*core.CrewMember, bool) {
	id, ok := r.names.Get(name)
	if !ok {
		return nil, false
	}
	return r.Get(id)
}

// Exists reports whether any member has the given name.
func (r *Roster) Exists(name string) bool {
	_, ok := r.names.Get(name)
	return ok
}

// List returns every member ordered by name.
func (r *Roster) List() []*core.CrewMember {
	out := make([]*core.CrewMember, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of members.
func (r *Roster) Len() int {
	return len(r.members)
}

// Add inserts a fully formed member, assigning an id if it has none.
func (r *Roster) Add(m core.CrewMember) (*core.CrewMember, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if err := validate(m.Name, m.Trait, m.Courage, m.Stupidity); err != nil {
		return nil, err
	}
	if _, ok := r.members[m.ID]; ok {
		return nil, fmt.Errorf("%w: id %s", core.ErrCrewDuplicate, m.ID)
	}
	if r.names.Taken(m.Name, m.ID) {
		return nil, fmt.Errorf("%w: %q", ErrNameConflict, m.Name)
	}
	if err := r.persist(m, true); err != nil {
		return nil, err
	}
	stored := m
	r.members[m.ID] = &stored
	r.names.Set(m.Name, m.ID)
	r.record(func() error { return r.remove(stored.ID) })
	return &stored, nil
}

func (r *Roster) remove(id uuid.UUID) error {
	m, ok := r.members[id]
	if !ok {
		return nil
	}
	delete(r.members, id)
	r.names.Delete(m.Name, id)
	if r.store == nil {
		return nil
	}
	return r.store.Delete(id)
}

// SetStatus changes a member's status and persists it.
func (r *Roster) SetStatus(m *core.CrewMember, status core.CrewStatus) error {
	if _, ok := r.members[m.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMember, m.Name)
	}
	if m.Status == status {
		return nil
	}
	next := *m
	next.Status = status
	if err := r.persist(next, false); err != nil {
		return err
	}
	prev := m.Status
	m.Status = status
	r.record(func() error { return r.SetStatus(m, prev) })
	return nil
}

// Apply runs fn as one unit. If fn fails, every Add and SetStatus it made is
// undone, newest first, before the error is returned. Nested calls join the
// outermost unit.
func (r *Roster) Apply(fn func() error) error {
	if r.undo != nil {
		return fn()
	}
	r.undo = make([]func() error, 0)
	err := fn()
	steps := r.undo
	r.undo = nil
	if err == nil {
		return nil
	}
	for i := len(steps) - 1; i >= 0; i-- {
		if uerr := steps[i](); uerr != nil {
			r.logger.Error("roster rollback step failed", "error", uerr)
		}
	}
	r.logger.Warn("roster changes rolled back", "steps", len(steps), "error", err)
	return err
}

func (r *Roster) record(step func() error) {
	if r.undo != nil {
		r.undo = append(r.undo, step)
	}
}

// Respawn returns a dead or missing member to the available pool.
func (r *Roster) Respawn(m *core.CrewMember) error {
	if m.Status != core.StatusDead && m.Status != core.StatusMissing {
		return fmt.Errorf("%w: %s is %s", ErrNotRespawnable, m.Name, m.Status)
	}
	if err := r.SetStatus(m, core.StatusAvailable); err != nil {
		return err
	}
	r.logger.Info("crew member respawned", "name", m.Name)
	return nil
}

// persist writes m through to the store. Nothing is written when there is no store.
func (r *Roster) persist(m core.CrewMember, insert bool) error {
	if r.store == nil {
		return nil
	}
	var err error
	if insert {
		err = r.store.Insert(m)
	} else {
		err = r.store.Update(m)
	}
	if errors.Is(err, core.ErrCrewDuplicate) {
		return fmt.Errorf("%w: %q: %w", ErrNameConflict, m.Name, err)
	}
	if err != nil {
		return fmt.Errorf("persist crew %q: %w", m.Name, err)
	}
	return nil
}
