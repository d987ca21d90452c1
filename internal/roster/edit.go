package roster

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/shipmanifest/extension/pkg/core"
)

// Policy holds the host toggles for roster edits. The two are independent.
type Policy struct {
	AllowRename           bool
	AllowProfessionChange bool
}

// TxState is the lifecycle state of an edit.
type TxState int

const (
	Editing TxState = iota
	Committed
	Cancelled
)

func (s TxState) String() string {
	switch s {
	case Committed:
		return "Committed"
	case Cancelled:
		return "Cancelled"
	default:
		return "Editing"
	}
}

// Buffer holds the mutable fields of a member while it is edited.
type Buffer struct {
	Name      string
	Trait     string
	Gender    core.Gender
	Courage   float64
	Stupidity float64
	Badass    bool
}

func bufferOf(m core.CrewMember) Buffer {
	return Buffer{
		Name:      m.Name,
		Trait:     m.Trait,
		Gender:    m.Gender,
		Courage:   m.Courage,
		Stupidity: m.Stupidity,
		Badass:    m.Badass,
	}
}

// Edit is one roster edit transaction. It commits at most once.
type Edit struct {
	roster *Roster
	target *core.CrewMember
	// original holds the prototype for a new member, or the target's fields at Begin.
	original Buffer
	policy   Policy
	buffer   Buffer
	state    TxState
}

// Begin opens an edit on m, or on a generated prototype when m is nil.
// Only available members can be edited.
func (r *Roster) Begin(m *core.CrewMember, p Policy) (*Edit, error) {
	e := &Edit{roster: r, policy: p, state: Editing}
	if m == nil {
		e.original = r.Prototype()
	} else {
		if cur, ok := r.members[m.ID]; !ok || cur != m {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMember, m.Name)
		}
		if !m.Editable() {
			return nil, fmt.Errorf("%w: %s is %s", ErrNotEditable, m.Name, m.Status)
		}
		e.target = m
		e.original = bufferOf(*m)
	}
	e.buffer = e.original
	return e, nil
}

// IsNew reports whether the edit creates a new member.
func (e *Edit) IsNew() bool {
	return e.target == nil
}

// Target returns the member being edited, or nil for a new member.
func (e *Edit) Target() *core.CrewMember {
	return e.target
}

// State returns the transaction state.
func (e *Edit) State() TxState {
	return e.state
}

// Policy returns the toggles the edit was opened with.
func (e *Edit) Policy() Policy {
	return e.policy
}

// Buffer returns a copy of the working fields.
func (e *Edit) Buffer() Buffer {
	return e.buffer
}

// Update modifies the working fields. Nothing touches the roster until Commit.
func (e *Edit) Update(fn func(*Buffer)) error {
	if e.state != Editing {
		return fmt.Errorf("%w: %s", ErrTransactionClosed, e.state)
	}
	fn(&e.buffer)
	return nil
}

// Cancel discards the edit.
func (e *Edit) Cancel() error {
	if e.state != Editing {
		return fmt.Errorf("%w: %s", ErrTransactionClosed, e.state)
	}
	e.state = Cancelled
	return nil
}

// effective applies the policy toggles to the buffer. A disabled field keeps
// its value from Begin, which for a new member is the prototype's.
func (e *Edit) effective() Buffer {
	b := e.buffer
	b.Name = strings.TrimSpace(b.Name)
	b.Trait = strings.TrimSpace(b.Trait)
	if !e.policy.AllowRename {
		b.Name = e.original.Name
	}
	if !e.policy.AllowProfessionChange {
		b.Trait = e.original.Trait
	}
	return b
}

// Commit validates the buffer and applies it. On error the roster is unchanged
// and the edit stays open so the caller can correct the buffer and retry.
func (e *Edit) Commit() (*core.CrewMember, error) {
	if e.state != Editing {
		return nil, fmt.Errorf("%w: %s", ErrTransactionClosed, e.state)
	}
	b := e.effective()
	if err := validate(b.Name, b.Trait, b.Courage, b.Stupidity); err != nil {
		return nil, err
	}

	r := e.roster
	if e.target == nil {
		m, err := r.Add(core.CrewMember{
			ID:        uuid.New(),
			Name:      b.Name,
			Trait:     b.Trait,
			Gender:    b.Gender,
			Courage:   b.Courage,
			Stupidity: b.Stupidity,
			Badass:    b.Badass,
			Status:    core.StatusAvailable,
		})
		if err != nil {
			return nil, err
		}
		e.state = Committed
		r.logger.Info("crew member created", "name", m.Name, "trait", m.Trait)
		return m, nil
	}

	m := e.target
	if !m.Editable() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotEditable, m.Name, m.Status)
	}
	if r.names.Taken(b.Name, m.ID) {
		return nil, fmt.Errorf("%w: %q", ErrNameConflict, b.Name)
	}

	next := *m
	next.Name = b.Name
	next.Trait = b.Trait
	next.Gender = b.Gender
	next.Courage = b.Courage
	next.Stupidity = b.Stupidity
	next.Badass = b.Badass
	if err := r.persist(next, false); err != nil {
		return nil, err
	}

	oldName := m.Name
	*m = next
	if oldName != m.Name {
		r.names.Rename(oldName, m.Name, m.ID)
	}
	e.state = Committed
	r.logger.Info("crew member updated", "name", m.Name, "previous", oldName)
	return m, nil
}

// ValidateMember checks the attributes every committed member must satisfy.
func ValidateMember(m core.CrewMember) error {
	return validate(m.Name, m.Trait, m.Courage, m.Stupidity)
}

func validate(name, trait string, courage, stupidity float64) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidAttribute)
	}
	if strings.TrimSpace(trait) == "" {
		return fmt.Errorf("%w: trait is empty", ErrInvalidAttribute)
	}
	if !unit(courage) {
		return fmt.Errorf("%w: courage %g outside [0,1]", ErrInvalidAttribute, courage)
	}
	if !unit(stupidity) {
		return fmt.Errorf("%w: stupidity %g outside [0,1]", ErrInvalidAttribute, stupidity)
	}
	return nil
}

func unit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
