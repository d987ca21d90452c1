// Package hatch tracks the open/closed state of the hatch on every docked
// pairing of a vessel.
package hatch

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shipmanifest/extension/pkg/core"
)

// ErrInvalidTransition is returned when a hatch is toggled on a node that is
// unknown or not docked.
var ErrInvalidTransition = errors.New("invalid hatch transition")

// State of a hatch.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "Open"
	}
	return "Closed"
}

// Listener is notified after every effective transition.
type Listener func(pair core.Pair, state State)

// Hatch is the view of one docked pairing.
type Hatch struct {
	Pair  core.Pair
	State State
	// Title is the title of the part owning Pair.A.
	Title string
	// Parts joined by the pairing, in Pair order.
	Parts [2]core.PartID
}

// Status returns the display text of the hatch state.
func (h Hatch) Status() string {
	return h.State.String()
}

// Set holds hatch state for one vessel. Not safe for concurrent use.
type Set struct {
	vessel    *core.Vessel
	states    map[core.Pair]State
	listeners []Listener
}

// NewSet creates a set for v with every pairing in the given initial state.
func NewSet(v *core.Vessel, initial map[core.Pair]State) *Set {
	s := &Set{
		vessel: v,
		states: make(map[core.Pair]State),
	}
	for _, p := range v.Pairs() {
		s.states[p] = initial[p]
	}
	return s
}

// OnChange registers a listener. Listeners run synchronously in registration order.
func (s *Set) OnChange(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Open opens the hatch on the pairing containing node.
func (s *Set) Open(node core.NodeID) error {
	return s.transition(node, Open)
}

// Close closes the hatch on the pairing containing node.
func (s *Set) Close(node core.NodeID) error {
	return s.transition(node, Closed)
}

func (s *Set) transition(node core.NodeID, to State) error {
	pair, err := s.pairFor(node)
	if err != nil {
		return err
	}
	if s.states[pair] == to {
		return nil
	}
	s.states[pair] = to
	for _, l := range s.listeners {
		l(pair, to)
	}
	return nil
}

func (s *Set) pairFor(node core.NodeID) (core.Pair, error) {
	n, ok := s.vessel.Node(node)
	if !ok {
		return core.Pair{}, fmt.Errorf("%w: unknown node %s", ErrInvalidTransition, node)
	}
	if !n.Docked() {
		return core.Pair{}, fmt.Errorf("%w: node %s is not docked", ErrInvalidTransition, node)
	}
	pair := core.NewPair(n.ID, n.Peer)
	if _, ok := s.states[pair]; !ok {
		return core.Pair{}, fmt.Errorf("%w: node %s has no hatch", ErrInvalidTransition, node)
	}
	return pair, nil
}

// State returns the state of the pairing. Unknown pairings read as Closed.
func (s *Set) State(pair core.Pair) State {
	return s.states[pair]
}

// IsOpen reports whether the pairing's hatch is open.
func (s *Set) IsOpen(pair core.Pair) bool {
	return s.states[pair] == Open
}

// Get returns the hatch on the pairing containing node.
func (s *Set) Get(node core.NodeID) (Hatch, error) {
	pair, err := s.pairFor(node)
	if err != nil {
		return Hatch{}, err
	}
	return s.view(pair), nil
}

// List returns every hatch sorted by pairing.
func (s *Set) List() []Hatch {
	pairs := make([]core.Pair, 0, len(s.states))
	for p := range s.states {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})

	out := make([]Hatch, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, s.view(p))
	}
	return out
}

func (s *Set) view(pair core.Pair) Hatch {
	h := Hatch{Pair: pair, State: s.states[pair]}
	if a, ok := s.vessel.Node(pair.A); ok {
		h.Parts[0] = a.Part
		if part, ok := s.vessel.Part(a.Part); ok {
			h.Title = part.Title
		}
	}
	if b, ok := s.vessel.Node(pair.B); ok {
		h.Parts[1] = b.Part
	}
	return h
}

// Len returns the number of hatches.
func (s *Set) Len() int {
	return len(s.states)
}
