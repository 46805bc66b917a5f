package fsm

import (
	"fmt"
)

// Definition holds the FSM structure before building a Machine.
// State and transition tables are immutable once built.
type Definition[S, E comparable] struct {
	states      map[S]*State[S, E]
	order       []S
	transitions []Transition[S, E]
	initial     S
	hasInitial  bool
}

// NewDefinition creates a new FSM definition builder
func NewDefinition[S, E comparable]() *Definition[S, E] {
	return &Definition[S, E]{
		states:      make(map[S]*State[S, E]),
		transitions: make([]Transition[S, E], 0),
	}
}

// State adds a state to the definition
func (d *Definition[S, E]) State(id S, opts ...StateOption[S, E]) *Definition[S, E] {
	s := &State[S, E]{ID: id}
	for _, opt := range opts {
		opt(s)
	}
	if _, ok := d.states[id]; !ok {
		d.order = append(d.order, id)
	}
	d.states[id] = s
	return d
}

// Transition adds a transition rule
func (d *Definition[S, E]) Transition(from S, event E, to S, opts ...TransitionOption[S, E]) *Definition[S, E] {
	return d.add(Transition[S, E]{From: from, Event: event, To: to}, opts)
}

// AnyStateTransition adds a transition that can fire from any state
func (d *Definition[S, E]) AnyStateTransition(event E, to S, opts ...TransitionOption[S, E]) *Definition[S, E] {
	return d.add(Transition[S, E]{AnyState: true, Event: event, To: to}, opts)
}

// InternalTransition adds a rule that runs its action without changing state
func (d *Definition[S, E]) InternalTransition(from S, event E, opts ...TransitionOption[S, E]) *Definition[S, E] {
	return d.add(Transition[S, E]{From: from, Event: event, Internal: true}, opts)
}

// AnyStateInternal adds an action-only rule that matches in every state
func (d *Definition[S, E]) AnyStateInternal(event E, opts ...TransitionOption[S, E]) *Definition[S, E] {
	return d.add(Transition[S, E]{AnyState: true, Event: event, Internal: true}, opts)
}

func (d *Definition[S, E]) add(t Transition[S, E], opts []TransitionOption[S, E]) *Definition[S, E] {
	for _, opt := range opts {
		opt(&t)
	}
	d.transitions = append(d.transitions, t)
	return d
}

// Initial sets the initial state
func (d *Definition[S, E]) Initial(id S) *Definition[S, E] {
	d.initial = id
	d.hasInitial = true
	return d
}

// Validate checks the definition for errors
func (d *Definition[S, E]) Validate() error {
	if !d.hasInitial {
		return fmt.Errorf("no initial state defined")
	}

	if _, ok := d.states[d.initial]; !ok {
		return fmt.Errorf("initial state %v not defined", d.initial)
	}

	for i, t := range d.transitions {
		if !t.AnyState {
			if _, ok := d.states[t.From]; !ok {
				return fmt.Errorf("transition %d from undefined state %v", i, t.From)
			}
		}
		if t.Internal {
			if t.Action == nil {
				return fmt.Errorf("internal transition %d on event %v has no action", i, t.Event)
			}
			continue
		}
		if _, ok := d.states[t.To]; !ok {
			return fmt.Errorf("transition %d to undefined state %v", i, t.To)
		}
	}

	for _, id := range d.order {
		if s := d.states[id]; s.Timeout < 0 {
			return fmt.Errorf("state %v has negative timeout", id)
		}
	}

	return nil
}

// States returns the state identifiers in declaration order
func (d *Definition[S, E]) States() []S {
	out := make([]S, len(d.order))
	copy(out, d.order)
	return out
}

// Build creates a Machine from the definition
func (d *Definition[S, E]) Build(opts ...MachineOption[S, E]) (*Machine[S, E], error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	m := &Machine[S, E]{
		definition:   d,
		currentState: d.initial,
		timers:       make(map[string]*timerEntry[S, E]),
		logger:       Logger,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.clock == nil {
		m.clock = SystemClock()
	}

	return m, nil
}
