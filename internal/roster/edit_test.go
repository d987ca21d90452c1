package roster

import (
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipmanifest/extension/internal/storage/memory"
	"github.com/shipmanifest/extension/pkg/core"
)

var allowAll = Policy{AllowRename: true, AllowProfessionChange: true}

func TestCommit_NameConflictLeavesBothUnchanged(t *testing.T) {
	r, store := newTestRoster(t)
	jeb := addMember(t, r, "Jebediah Kerman", core.StatusAvailable)
	bill := addMember(t, r, "Bill Kerman", core.StatusAvailable)
	jebBefore, billBefore := *jeb, *bill

	e, err := r.Begin(bill, allowAll)
	require.NoError(t, err)
	require.NoError(t, e.Update(func(b *Buffer) {
		b.Name = "Jebediah Kerman"
		b.Courage = 1
	}))

	_, err = e.Commit()
	require.ErrorIs(t, err, ErrNameConflict)

	assert.Equal(t, jebBefore, *jeb)
	assert.Equal(t, billBefore, *bill)
	rec, ok := stored(t, store, "Bill Kerman")
	require.True(t, ok)
	assert.Equal(t, billBefore, rec)
	assert.Equal(t, Editing, e.State(), "a failed commit leaves the edit open")
}

func TestCommit_UnchangedNameSameIdentity(t *testing.T) {
	r, _ := newTestRoster(t)
	jeb := addMember(t, r, "Jebediah Kerman", core.StatusAvailable)

	e, err := r.Begin(jeb, allowAll)
	require.NoError(t, err)
	require.NoError(t, e.Update(func(b *Buffer) { b.Badass = true }))

	m, err := e.Commit()
	require.NoError(t, err)
	assert.Same(t, jeb, m)
	assert.True(t, jeb.Badass)
	assert.Equal(t, Committed, e.State())
}

func TestCommit_Rename(t *testing.T) {
	r, store := newTestRoster(t)
	bob := addMember(t, r, "Bob Kerman", core.StatusAvailable)
	id := bob.ID

	e, err := r.Begin(bob, allowAll)
	require.NoError(t, err)
	require.NoError(t, e.Update(func(b *Buffer) { b.Name = "  Robert Kerman " }))
	_, err = e.Commit()
	require.NoError(t, err)

	assert.Equal(t, "Robert Kerman", bob.Name)
	assert.Equal(t, id, bob.ID, "identity survives rename")
	assert.False(t, r.Exists("Bob Kerman"))
	got, ok := r.ByName("Robert Kerman")
	require.True(t, ok)
	assert.Same(t, bob, got)

	_, ok = stored(t, store, "Robert Kerman")
	assert.True(t, ok)
}

func TestCommit_InvalidAttributes(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Buffer)
	}{
		{"empty name", func(b *Buffer) { b.Name = "   " }},
		{"courage above 1", func(b *Buffer) { b.Courage = 1.01 }},
		{"courage negative", func(b *Buffer) { b.Courage = -0.1 }},
		{"stupidity above 1", func(b *Buffer) { b.Stupidity = 2 }},
		{"stupidity NaN", func(b *Buffer) { b.Stupidity = math.NaN() }},
		{"empty trait", func(b *Buffer) { b.Trait = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRoster(t)
			m := addMember(t, r, "Val Kerman", core.StatusAvailable)
			before := *m

			e, err := r.Begin(m, allowAll)
			require.NoError(t, err)
			require.NoError(t, e.Update(tt.edit))

			_, err = e.Commit()
			assert.ErrorIs(t, err, ErrInvalidAttribute)
			assert.Equal(t, before, *m)
		})
	}
}

func TestCommit_PolicyToggles(t *testing.T) {
	tests := []struct {
		name      string
		policy    Policy
		wantName  string
		wantTrait string
	}{
		{"both allowed", allowAll, "Valentina Kerman", core.TraitEngineer},
		{"rename only", Policy{AllowRename: true}, "Valentina Kerman", core.TraitPilot},
		{"profession only", Policy{AllowProfessionChange: true}, "Val Kerman", core.TraitEngineer},
		{"neither", Policy{}, "Val Kerman", core.TraitPilot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRoster(t)
			m := addMember(t, r, "Val Kerman", core.StatusAvailable)

			e, err := r.Begin(m, tt.policy)
			require.NoError(t, err)
			require.NoError(t, e.Update(func(b *Buffer) {
				b.Name = "Valentina Kerman"
				b.Trait = core.TraitEngineer
				b.Courage = 0.9
			}))
			_, err = e.Commit()
			require.NoError(t, err)

			assert.Equal(t, tt.wantName, m.Name)
			assert.Equal(t, tt.wantTrait, m.Trait)
			assert.Equal(t, 0.9, m.Courage, "other fields are always editable")
		})
	}
}

func TestCommit_RenameDisabledIgnoresConflictingBufferName(t *testing.T) {
	r, _ := newTestRoster(t)
	addMember(t, r, "Jebediah Kerman", core.StatusAvailable)
	bill := addMember(t, r, "Bill Kerman", core.StatusAvailable)

	e, err := r.Begin(bill, Policy{})
	require.NoError(t, err)
	require.NoError(t, e.Update(func(b *Buffer) { b.Name = "Jebediah Kerman" }))

	_, err = e.Commit()
	require.NoError(t, err, "only the effective name is checked")
	assert.Equal(t, "Bill Kerman", bill.Name)
}

func TestNewMember(t *testing.T) {
	r, store := newTestRoster(t)

	e, err := r.Begin(nil, allowAll)
	require.NoError(t, err)
	assert.True(t, e.IsNew())
	assert.Nil(t, e.Target())
	proto := e.Buffer()
	assert.NotEmpty(t, proto.Name)

	require.NoError(t, e.Update(func(b *Buffer) { b.Name = "Tim C Kerman" }))
	m, err := e.Commit()
	require.NoError(t, err)

	assert.Equal(t, "Tim C Kerman", m.Name)
	assert.Equal(t, core.StatusAvailable, m.Status)
	assert.Equal(t, proto.Trait, m.Trait)
	_, ok := stored(t, store, "Tim C Kerman")
	assert.True(t, ok)
}

func TestNewMember_RenameDisabledKeepsPrototypeName(t *testing.T) {
	r, _ := newTestRoster(t)

	e, err := r.Begin(nil, Policy{})
	require.NoError(t, err)
	proto := e.Buffer()
	require.NoError(t, e.Update(func(b *Buffer) {
		b.Name = "Ignored"
		b.Trait = core.TraitTourist
	}))

	m, err := e.Commit()
	require.NoError(t, err)
	assert.Equal(t, proto.Name, m.Name)
	assert.Equal(t, proto.Trait, m.Trait)
}

func TestNewMember_NameConflict(t *testing.T) {
	r, _ := newTestRoster(t)
	addMember(t, r, "Jebediah Kerman", core.StatusAvailable)

	e, err := r.Begin(nil, allowAll)
	require.NoError(t, err)
	require.NoError(t, e.Update(func(b *Buffer) { b.Name = "Jebediah Kerman" }))

	_, err = e.Commit()
	assert.ErrorIs(t, err, ErrNameConflict)
	assert.Equal(t, 1, r.Len())
}

func TestTransactionClosed(t *testing.T) {
	r, _ := newTestRoster(t)
	m := addMember(t, r, "Bill Kerman", core.StatusAvailable)

	committed, err := r.Begin(m, allowAll)
	require.NoError(t, err)
	_, err = committed.Commit()
	require.NoError(t, err)

	cancelled, err := r.Begin(m, allowAll)
	require.NoError(t, err)
	require.NoError(t, cancelled.Cancel())
	assert.Equal(t, Cancelled, cancelled.State())

	for _, e := range []*Edit{committed, cancelled} {
		_, err = e.Commit()
		assert.ErrorIs(t, err, ErrTransactionClosed)
		assert.ErrorIs(t, e.Cancel(), ErrTransactionClosed)
		assert.ErrorIs(t, e.Update(func(*Buffer) {}), ErrTransactionClosed)
	}
}

func TestCancel_DiscardsBuffer(t *testing.T) {
	r, _ := newTestRoster(t)
	m := addMember(t, r, "Bill Kerman", core.StatusAvailable)

	e, err := r.Begin(m, allowAll)
	require.NoError(t, err)
	require.NoError(t, e.Update(func(b *Buffer) { b.Name = "William Kerman" }))
	require.NoError(t, e.Cancel())

	assert.Equal(t, "Bill Kerman", m.Name)
}

func TestBegin_Errors(t *testing.T) {
	r, _ := newTestRoster(t)
	assigned := addMember(t, r, "Jebediah Kerman", core.StatusAssigned)
	dead := addMember(t, r, "Bob Kerman", core.StatusDead)

	_, err := r.Begin(assigned, allowAll)
	assert.ErrorIs(t, err, ErrNotEditable)
	_, err = r.Begin(dead, allowAll)
	assert.ErrorIs(t, err, ErrNotEditable)

	stranger := *assigned
	_, err = r.Begin(&stranger, allowAll)
	assert.ErrorIs(t, err, ErrUnknownMember)
}

func TestCommit_MemberAssignedWhileEditing(t *testing.T) {
	r, _ := newTestRoster(t)
	m := addMember(t, r, "Val Kerman", core.StatusAvailable)

	e, err := r.Begin(m, allowAll)
	require.NoError(t, err)
	require.NoError(t, r.SetStatus(m, core.StatusAssigned))

	_, err = e.Commit()
	assert.ErrorIs(t, err, ErrNotEditable)
}

func TestCommit_StoreFailure(t *testing.T) {
	store := memory.New()
	r := New(store, slog.Default())
	m := addMember(t, r, "Val Kerman", core.StatusAvailable)
	before := *m

	r.store = failingStore{store}
	e, err := r.Begin(m, allowAll)
	require.NoError(t, err)
	require.NoError(t, e.Update(func(b *Buffer) { b.Name = "Valentina Kerman" }))

	_, err = e.Commit()
	require.Error(t, err)
	assert.Equal(t, before, *m)
	assert.True(t, r.Exists("Val Kerman"))
	assert.False(t, r.Exists("Valentina Kerman"))
}

func TestTxState_String(t *testing.T) {
	assert.Equal(t, "Editing", Editing.String())
	assert.Equal(t, "Committed", Committed.String())
	assert.Equal(t, "Cancelled", Cancelled.String())
}
