package fsm

import (
	"fmt"
	"log/slog"
)

// Machine is the runtime FSM instance.
//
// A Machine is driven synchronously from a single goroutine. Handlers run
// on the caller's stack and may call back into the machine (SetState,
// timers) without deadlocking.
type Machine[S, E comparable] struct {
	definition   *Definition[S, E]
	currentState S
	active       bool

	timers map[string]*timerEntry[S, E]
	clock  Clock

	logger              *slog.Logger
	stateChangeCallback func(from, to S)
}

// MachineOption is a functional option for configuring a Machine
type MachineOption[S, E comparable] func(*Machine[S, E])

// WithLogger sets the logger for the machine
func WithLogger[S, E comparable](logger *slog.Logger) MachineOption[S, E] {
	return func(m *Machine[S, E]) {
		m.logger = logger
	}
}

// WithClock sets the millisecond time source used by timers
func WithClock[S, E comparable](clock Clock) MachineOption[S, E] {
	return func(m *Machine[S, E]) {
		m.clock = clock
	}
}

// WithStateChangeCallback sets a callback invoked after each state change
func WithStateChangeCallback[S, E comparable](fn func(from, to S)) MachineOption[S, E] {
	return func(m *Machine[S, E]) {
		m.stateChangeCallback = fn
	}
}

// OnStateChange sets a callback invoked after each state change.
// Can be called after Build() but before Start().
func (m *Machine[S, E]) OnStateChange(fn func(from, to S)) {
	m.stateChangeCallback = fn
}

// Start activates the machine and runs the entry handler of the current
// state. The current state is the initial state unless SetState was
// called before Start. Calling Start on an active machine is a no-op.
func (m *Machine[S, E]) Start() {
	if m.active {
		return
	}
	m.active = true
	m.logger.Debug("starting fsm", "state", m.currentState)
	m.enterState(m.currentState, m.makeContext(m.currentState, m.currentState))
}

// Stop runs the exit handler of the current state, cancels all timers
// and deactivates the machine.
func (m *Machine[S, E]) Stop() {
	if !m.active {
		return
	}
	m.exitState(m.currentState, m.makeContext(m.currentState, m.currentState))
	m.StopAllTimers()
	m.active = false
	m.logger.Debug("stopped fsm", "state", m.currentState)
}

// Reset returns to the initial state. An active machine runs the exit
// handler of the current state and the entry handler of the initial one.
func (m *Machine[S, E]) Reset() {
	initial := m.definition.initial
	if !m.active {
		m.currentState = initial
		return
	}
	from := m.currentState
	ctx := m.makeContext(from, initial)
	m.exitState(from, ctx)
	m.currentState = initial
	m.enterState(initial, ctx)
	m.notify(from, initial)
}

// IsActive reports whether the machine has been started
func (m *Machine[S, E]) IsActive() bool {
	return m.active
}

// CurrentState returns the current state
func (m *Machine[S, E]) CurrentState() S {
	return m.currentState
}

// SetState forces the machine into a state. When active, the exit handler
// of the current state and the entry handler of the new state always run,
// even if both are the same state. When inactive only the state is
// recorded.
func (m *Machine[S, E]) SetState(id S) {
	from := m.currentState
	if !m.active {
		m.currentState = id
		return
	}
	m.logger.Debug("forcing state", "from", from, "to", id)
	ctx := m.makeContext(from, id)
	m.exitState(from, ctx)
	m.currentState = id
	m.enterState(id, ctx)
	m.notify(from, id)
}

// ProcessEvent looks up the first transition matching the current state
// and event and executes it. It reports whether a state-changing
// transition ran; internal transitions and unmatched events return false.
func (m *Machine[S, E]) ProcessEvent(event E) bool {
	if !m.active {
		return false
	}

	t := m.findTransition(event)
	if t == nil {
		m.logger.Debug("no transition", "state", m.currentState, "event", event)
		return false
	}

	if t.Internal {
		ctx := m.makeContext(m.currentState, m.currentState)
		ctx.Event = event
		ctx.HasEvent = true
		m.logger.Debug("internal transition", "state", m.currentState, "event", event)
		t.Action(ctx)
		return false
	}

	m.executeTransition(t, event)
	return true
}

// Update runs the update handler of the current state, if any
func (m *Machine[S, E]) Update() {
	if !m.active {
		return
	}
	state := m.definition.states[m.currentState]
	if state == nil || state.OnUpdate == nil {
		return
	}
	state.OnUpdate(m.makeContext(m.currentState, m.currentState))
}

// findTransition scans the transition table in declaration order
func (m *Machine[S, E]) findTransition(event E) *Transition[S, E] {
	for i := range m.definition.transitions {
		t := &m.definition.transitions[i]
		if t.matches(m.currentState, event) {
			return t
		}
	}
	return nil
}

// executeTransition runs exit, action, assignment and entry in that order
func (m *Machine[S, E]) executeTransition(t *Transition[S, E], event E) {
	from := m.currentState
	to := t.To

	m.logger.Debug("executing transition", "from", from, "to", to, "event", event)

	ctx := m.makeContext(from, to)
	ctx.Event = event
	ctx.HasEvent = true

	m.exitState(from, ctx)

	if t.Action != nil {
		t.Action(ctx)
	}

	m.currentState = to
	m.enterState(to, ctx)
	m.notify(from, to)
}

func (m *Machine[S, E]) notify(from, to S) {
	if m.stateChangeCallback != nil && from != to {
		m.stateChangeCallback(from, to)
	}
}

// enterState arms the declarative timeout and runs the entry handler.
// Unknown states are skipped.
func (m *Machine[S, E]) enterState(id S, ctx *Context[S, E]) {
	state := m.definition.states[id]
	if state == nil {
		return
	}

	m.logger.Debug("entering state", "state", id)

	if state.Timeout > 0 {
		m.startTimerInternal(timeoutTimerName(id), state.Timeout, state.TimeoutEvent, true, id)
	}

	if state.OnEnter != nil {
		state.OnEnter(ctx)
	}
}

// exitState cancels state-scoped timers and runs the exit handler
func (m *Machine[S, E]) exitState(id S, ctx *Context[S, E]) {
	m.cleanupTimersForState(id)

	state := m.definition.states[id]
	if state == nil {
		return
	}

	m.logger.Debug("exiting state", "state", id)

	if state.OnExit != nil {
		state.OnExit(ctx)
	}
}

// makeContext creates a context for callbacks
func (m *Machine[S, E]) makeContext(from, to S) *Context[S, E] {
	return &Context[S, E]{
		FSM:       m,
		FromState: from,
		ToState:   to,
		Logger:    m.logger,
	}
}

func timeoutTimerName[S comparable](id S) string {
	return fmt.Sprintf("_timeout_%v", id)
}
