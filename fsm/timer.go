package fsm

import (
	"slices"
	"time"
)

// timerEntry tracks a running timer. Timers are polled by Tick against
// the machine clock rather than fired from a goroutine.
type timerEntry[S, E comparable] struct {
	event       E
	stateScoped bool
	ownerState  S
	duration    time.Duration
	started     uint32
}

// expired compares elapsed time with unsigned subtraction so the check
// survives wraparound of the millisecond counter.
func (e *timerEntry[S, E]) expired(now uint32) bool {
	return now-e.started >= uint32(e.duration.Milliseconds())
}

// startTimerInternal starts a named timer with scope tracking
func (m *Machine[S, E]) startTimerInternal(name string, duration time.Duration, event E, stateScoped bool, owner S) {
	m.timers[name] = &timerEntry[S, E]{
		event:       event,
		stateScoped: stateScoped,
		ownerState:  owner,
		duration:    duration,
		started:     m.clock.Millis(),
	}

	m.logger.Debug("timer started", "name", name, "duration", duration, "event", event)
}

// StartTimer starts a named timer that survives state changes.
// If a timer with the same name exists, it is replaced.
func (m *Machine[S, E]) StartTimer(name string, duration time.Duration, event E) {
	var none S
	m.startTimerInternal(name, duration, event, false, none)
}

// StopTimer stops a timer by name
func (m *Machine[S, E]) StopTimer(name string) {
	if _, ok := m.timers[name]; ok {
		delete(m.timers, name)
		m.logger.Debug("timer stopped", "name", name)
	}
}

// StopAllTimers stops all running timers
func (m *Machine[S, E]) StopAllTimers() {
	for name := range m.timers {
		m.logger.Debug("timer stopped (cleanup)", "name", name)
	}
	clear(m.timers)
}

// TimerActive checks if a timer is running
func (m *Machine[S, E]) TimerActive(name string) bool {
	_, ok := m.timers[name]
	return ok
}

// ResetTimer restarts a running timer from the current time, keeping its
// duration and event. No-op if the timer doesn't exist.
func (m *Machine[S, E]) ResetTimer(name string) {
	if entry, ok := m.timers[name]; ok {
		entry.started = m.clock.Millis()
	}
}

// ResetTimeout restarts the declarative timeout of the current state
func (m *Machine[S, E]) ResetTimeout() {
	m.ResetTimer(timeoutTimerName(m.currentState))
}

// TimeoutActive reports whether the current state's declarative timeout is armed
func (m *Machine[S, E]) TimeoutActive() bool {
	return m.TimerActive(timeoutTimerName(m.currentState))
}

// Tick fires every expired timer by processing its event. Timers that
// expire together fire in name order. A timer cancelled by an earlier
// firing in the same tick does not fire.
func (m *Machine[S, E]) Tick() {
	if !m.active || len(m.timers) == 0 {
		return
	}

	now := m.clock.Millis()
	var due []string
	for name, entry := range m.timers {
		if entry.expired(now) {
			due = append(due, name)
		}
	}
	slices.Sort(due)

	for _, name := range due {
		entry, ok := m.timers[name]
		if !ok || !entry.expired(now) {
			continue
		}
		delete(m.timers, name)
		m.logger.Debug("timer fired", "name", name, "event", entry.event)
		m.ProcessEvent(entry.event)
	}
}

// cleanupTimersForState cancels all state-scoped timers owned by the given state
func (m *Machine[S, E]) cleanupTimersForState(id S) {
	for name, entry := range m.timers {
		if entry.stateScoped && entry.ownerState == id {
			delete(m.timers, name)
			m.logger.Debug("timer cleaned up (state exit)", "name", name, "state", id)
		}
	}
}
