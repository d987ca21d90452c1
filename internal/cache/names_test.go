package cache

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameIndex_SetAndGet(t *testing.T) {
	idx := NewNameIndex()
	id := uuid.New()

	idx.Set("Jebediah Kerman", id)

	got, ok := idx.Get("Jebediah Kerman")
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = idx.Get("jebediah kerman")
	assert.False(t, ok, "lookups are exact")
}

func TestNameIndex_Taken(t *testing.T) {
	idx := NewNameIndex()
	jeb := uuid.New()
	bill := uuid.New()
	idx.Set("Jebediah Kerman", jeb)

	assert.False(t, idx.Taken("Jebediah Kerman", jeb), "own name is not a conflict")
	assert.True(t, idx.Taken("Jebediah Kerman", bill))
	assert.False(t, idx.Taken("Bill Kerman", bill))
}

func TestNameIndex_Rename(t *testing.T) {
	idx := NewNameIndex()
	id := uuid.New()
	idx.Set("Bob Kerman", id)

	idx.Rename("Bob Kerman", "Robert Kerman", id)

	_, ok := idx.Get("Bob Kerman")
	assert.False(t, ok)
	got, ok := idx.Get("Robert Kerman")
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, 1, idx.Len())
}

func TestNameIndex_RenameKeepsOtherOwner(t *testing.T) {
	idx := NewNameIndex()
	other := uuid.New()
	idx.Set("Val Kerman", other)

	idx.Rename("Val Kerman", "Valentina Kerman", uuid.New())

	got, ok := idx.Get("Val Kerman")
	require.True(t, ok)
	assert.Equal(t, other, got)
}

func TestNameIndex_Delete(t *testing.T) {
	idx := NewNameIndex()
	id := uuid.New()
	idx.Set("Bill Kerman", id)

	idx.Delete("Bill Kerman", uuid.New())
	assert.Equal(t, 1, idx.Len(), "another id cannot remove the name")

	idx.Delete("Bill Kerman", id)
	_, ok := idx.Get("Bill Kerman")
	assert.False(t, ok)
}

func TestNameIndex_Reset(t *testing.T) {
	idx := NewNameIndex()
	idx.Set("a", uuid.New())
	idx.Set("b", uuid.New())
	assert.Equal(t, 2, idx.Len())

	idx.Reset()
	assert.Zero(t, idx.Len())
}

func TestNameIndex_ConcurrentAccess(t *testing.T) {
	idx := NewNameIndex()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := uuid.New()
			idx.Set(id.String(), id)
			idx.Get(id.String())
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, idx.Len())
}
