package fsm

import "time"

// State defines a state in the machine. All handlers are optional.
type State[S, E comparable] struct {
	ID S

	OnEnter  func(ctx *Context[S, E])
	OnExit   func(ctx *Context[S, E])
	OnUpdate func(ctx *Context[S, E])

	// Declarative timeout: armed on entry, cancelled on exit, polled by Tick
	Timeout      time.Duration
	TimeoutEvent E
}

// StateOption is a functional option for configuring a State
type StateOption[S, E comparable] func(*State[S, E])

// WithOnEnter sets the entry action for the state
func WithOnEnter[S, E comparable](fn func(*Context[S, E])) StateOption[S, E] {
	return func(s *State[S, E]) {
		s.OnEnter = fn
	}
}

// WithOnExit sets the exit action for the state
func WithOnExit[S, E comparable](fn func(*Context[S, E])) StateOption[S, E] {
	return func(s *State[S, E]) {
		s.OnExit = fn
	}
}

// WithOnUpdate sets the per-tick action invoked by Machine.Update
func WithOnUpdate[S, E comparable](fn func(*Context[S, E])) StateOption[S, E] {
	return func(s *State[S, E]) {
		s.OnUpdate = fn
	}
}

// WithTimeout sets a declarative timeout that is armed on entry.
// When it expires, Tick feeds event to the machine.
func WithTimeout[S, E comparable](duration time.Duration, event E) StateOption[S, E] {
	return func(s *State[S, E]) {
		s.Timeout = duration
		s.TimeoutEvent = event
	}
}
