// internal/storage/storage.go
package storage

import (
	"github.com/google/uuid"

	"github.com/shipmanifest/extension/pkg/core"
)

// Backend is the interface all roster store implementations must satisfy.
// Members are passed by value; the store never holds pointers into the live roster.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Insert adds a new member. Returns core.ErrCrewDuplicate if the id or name is taken.
	Insert(m core.CrewMember) error
	// Update replaces the record with the same id. Returns core.ErrCrewNotFound if absent.
	Update(m core.CrewMember) error

	// Delete removes the record with the given id. Absent ids are not an error.
	Delete(id uuid.UUID) error
	// List returns every member ordered by name.
	List() ([]core.CrewMember, error)
}
