package cache

import (
	"sync"

	"github.com/google/uuid"
)

// NameIndex maps crew names to their stable ids. Names are compared exactly.
type NameIndex struct {
	mu    sync.RWMutex
	names map[string]uuid.UUID
}

// NewNameIndex creates an empty NameIndex
func NewNameIndex() *NameIndex {
	return &NameIndex{
		names: make(map[string]uuid.UUID),
	}
}

// Get retrieves the id registered under name
func (c *NameIndex) Get(name string) (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.names[name]
	return id, ok
}

// Set registers name for id
func (c *NameIndex) Set(name string, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[name] = id
}

// Taken reports whether name belongs to anyone other than self.
func (c *NameIndex) Taken(name string, self uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.names[name]
	return ok && id != self
}

// Rename moves id from oldName to newName.
func (c *NameIndex) Rename(oldName, newName string, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.names[oldName]; ok && cur == id {
		delete(c.names, oldName)
	}
	c.names[newName] = id
}

// Delete removes name if it still belongs to id.
func (c *NameIndex) Delete(name string, id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.names[name]; ok && cur == id {
		delete(c.names, name)
	}
}

// Len returns the number of registered names
func (c *NameIndex) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}

// Reset clears the index
func (c *NameIndex) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names = make(map[string]uuid.UUID)
}
