// internal/storage/memory/memory.go
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/shipmanifest/extension/pkg/core"
)

// Backend keeps roster records in memory. Records are lost when the process exits.
type Backend struct {
	members map[uuid.UUID]core.CrewMember
	names   map[string]uuid.UUID
	mu      sync.RWMutex
}

// New creates a new memory backend
func New() *Backend {
	return &Backend{
		members: make(map[uuid.UUID]core.CrewMember),
		names:   make(map[string]uuid.UUID),
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Insert adds a new member
func (b *Backend) Insert(m core.CrewMember) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.members[m.ID]; ok {
		return fmt.Errorf("%w: id %s", core.ErrCrewDuplicate, m.ID)
	}
	if _, ok := b.names[m.Name]; ok {
		return fmt.Errorf("%w: name %q", core.ErrCrewDuplicate, m.Name)
	}
	b.members[m.ID] = m
	b.names[m.Name] = m.ID
	return nil
}

// Update replaces an existing member, moving the name index on rename
func (b *Backend) Update(m core.CrewMember) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, ok := b.members[m.ID]
	if !ok {
		return fmt.Errorf("%w: id %s", core.ErrCrewNotFound, m.ID)
	}
	if owner, taken := b.names[m.Name]; taken && owner != m.ID {
		return fmt.Errorf("%w: name %q", core.ErrCrewDuplicate, m.Name)
	}
	delete(b.names, old.Name)
	b.members[m.ID] = m
	b.names[m.Name] = m.ID
	return nil
}

// Delete removes the member with the given id. Deleting an absent id is not an error.
func (b *Backend) Delete(id uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if m, ok := b.members[id]; ok {
		delete(b.names, m.Name)
		delete(b.members, id)
	}
	return nil
}

// List returns every member ordered by name
func (b *Backend) List() ([]core.CrewMember, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.CrewMember, 0, len(b.members))
	for _, m := range b.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
