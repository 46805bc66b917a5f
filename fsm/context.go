package fsm

import (
	"log/slog"
	"time"
)

// Context is passed to all state handlers and provides access to FSM operations
type Context[S, E comparable] struct {
	FSM       *Machine[S, E]
	Event     E    // Event being processed (zero value during Start/SetState)
	HasEvent  bool // Event is meaningful
	FromState S    // State we're transitioning from
	ToState   S    // State we're transitioning to
	Logger    *slog.Logger
}

// CurrentState returns the current state
func (c *Context[S, E]) CurrentState() S {
	return c.FSM.CurrentState()
}

// Now returns the machine clock's current timestamp in milliseconds
func (c *Context[S, E]) Now() uint32 {
	return c.FSM.clock.Millis()
}

// StartTimer starts a named timer scoped to the current state.
// If a timer with the same name exists, it is replaced.
func (c *Context[S, E]) StartTimer(name string, duration time.Duration, event E) {
	c.FSM.startTimerInternal(name, duration, event, true, c.FSM.currentState)
}

// StopTimer stops a timer by name. No-op if timer doesn't exist.
func (c *Context[S, E]) StopTimer(name string) {
	c.FSM.StopTimer(name)
}

// ResetTimer restarts a running timer from the current time
func (c *Context[S, E]) ResetTimer(name string) {
	c.FSM.ResetTimer(name)
}

// TimerActive checks if a timer is currently running
func (c *Context[S, E]) TimerActive(name string) bool {
	return c.FSM.TimerActive(name)
}
