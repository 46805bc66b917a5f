package fsm

import (
	"strings"
	"testing"
	"time"
)

type testState int

const (
	stateA testState = iota
	stateB
	stateC
	stateUnknown
)

type testEvent int

const (
	evGo testEvent = iota
	evBack
	evNext
	evTimeout
	evPoke
)

// fakeClock is a manually advanced millisecond clock
type fakeClock struct {
	now uint32
}

func (c *fakeClock) Millis() uint32 { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now += uint32(d.Milliseconds()) }

type machine = Machine[testState, testEvent]
type ctx = Context[testState, testEvent]

func build(t *testing.T, def *Definition[testState, testEvent], clock Clock) *machine {
	t.Helper()
	m, err := def.Build(WithClock[testState, testEvent](clock))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return m
}

func TestBasicTransition(t *testing.T) {
	def := NewDefinition[testState, testEvent]().
		State(stateA).
		State(stateB).
		Transition(stateA, evGo, stateB).
		Transition(stateB, evBack, stateA).
		Initial(stateA)

	m := build(t, def, &fakeClock{})
	m.Start()

	if m.CurrentState() != stateA {
		t.Errorf("expected state %v, got %v", stateA, m.CurrentState())
	}

	if !m.ProcessEvent(evGo) {
		t.Fatalf("expected evGo to change state")
	}
	if m.CurrentState() != stateB {
		t.Errorf("expected state %v, got %v", stateB, m.CurrentState())
	}

	if m.ProcessEvent(evGo) {
		t.Errorf("expected evGo to be unhandled in %v", stateB)
	}

	if !m.ProcessEvent(evBack) {
		t.Fatalf("expected evBack to change state")
	}
	if m.CurrentState() != stateA {
		t.Errorf("expected state %v, got %v", stateA, m.CurrentState())
	}
}

func TestInactiveMachineIgnoresEvents(t *testing.T) {
	def := NewDefinition[testState, testEvent]().
		State(stateA).
		State(stateB).
		Transition(stateA, evGo, stateB).
		Initial(stateA)

	m := build(t, def, &fakeClock{})

	if m.IsActive() {
		t.Fatalf("machine should be inactive before Start")
	}
	if m.ProcessEvent(evGo) {
		t.Errorf("inactive machine handled event")
	}
	if m.CurrentState() != stateA {
		t.Errorf("expected state %v, got %v", stateA, m.CurrentState())
	}
}

func TestEntryExitActions(t *testing.T) {
	var entryCount, exitCount int

	def := NewDefinition[testState, testEvent]().
		State(stateA,
			WithOnEnter(func(c *ctx) { entryCount++ }),
			WithOnExit(func(c *ctx) { exitCount++ }),
		).
		State(stateB).
		Transition(stateA, evGo, stateB).
		Initial(stateA)

	m := build(t, def, &fakeClock{})
	m.Start()

	if entryCount != 1 {
		t.Errorf("expected entry count 1, got %d", entryCount)
	}

	m.ProcessEvent(evGo)

	if exitCount != 1 {
		t.Errorf("expected exit count 1, got %d", exitCount)
	}
}

func TestTransitionOrder(t *testing.T) {
	var trace []string

	def := NewDefinition[testState, testEvent]().
		State(stateA, WithOnExit(func(c *ctx) { trace = append(trace, "exit-a") })).
		State(stateB, WithOnEnter(func(c *ctx) {
			trace = append(trace, "enter-b")
			if c.CurrentState() != stateB {
				t.Errorf("entry ran before state assignment")
			}
		})).
		Transition(stateA, evGo, stateB, WithAction(func(c *ctx) {
			trace = append(trace, "action")
			if c.CurrentState() != stateA {
				t.Errorf("action ran after state assignment")
			}
			if !c.HasEvent || c.Event != evGo {
				t.Errorf("action context missing event")
			}
			if c.FromState != stateA || c.ToState != stateB {
				t.Errorf("unexpected from/to %v/%v", c.FromState, c.ToState)
			}
		})).
		Initial(stateA)

	m := build(t, def, &fakeClock{})
	m.Start()
	m.ProcessEvent(evGo)

	if got := strings.Join(trace, ","); got != "exit-a,action,enter-b" {
		t.Errorf("unexpected order: %s", got)
	}
}

func TestFirstMatchWins(t *testing.T) {
	def := NewDefinition[testState, testEvent]().
		State(stateA).
		State(stateB).
		State(stateC).
		Transition(stateA, evGo, stateB).
		Transition(stateA, evGo, stateC).
		Initial(stateA)

	m := build(t, def, &fakeClock{})
	m.Start()
	m.ProcessEvent(evGo)

	if m.CurrentState() != stateB {
		t.Errorf("expected first declared transition to win, got %v", m.CurrentState())
	}
}

func TestWildcardTransition(t *testing.T) {
	def := NewDefinition[testState, testEvent]().
		State(stateA).
		State(stateB).
		State(stateC).
		Transition(stateA, evGo, stateB).
		AnyStateTransition(evNext, stateC).
		Initial(stateA)

	m := build(t, def, &fakeClock{})
	m.Start()

	m.ProcessEvent(evGo)
	if !m.ProcessEvent(evNext) {
		t.Fatalf("wildcard transition did not fire")
	}
	if m.CurrentState() != stateC {
		t.Errorf("expected state %v, got %v", stateC, m.CurrentState())
	}
}

func TestInternalTransition(t *testing.T) {
	var actions, entries, exits int

	def := NewDefinition[testState, testEvent]().
		State(stateA,
			WithOnEnter(func(c *ctx) { entries++ }),
			WithOnExit(func(c *ctx) { exits++ }),
		).
		InternalTransition(stateA, evPoke, WithAction(func(c *ctx) { actions++ })).
		Initial(stateA)

	m := build(t, def, &fakeClock{})
	m.Start()

	if m.ProcessEvent(evPoke) {
		t.Errorf("internal transition reported a state change")
	}
	if actions != 1 {
		t.Errorf("expected 1 action, got %d", actions)
	}
	if entries != 1 || exits != 0 {
		t.Errorf("internal transition ran entry/exit: entries=%d exits=%d", entries, exits)
	}
}

func TestAnyStateInternal(t *testing.T) {
	var actions int

	def := NewDefinition[testState, testEvent]().
		State(stateA).
		State(stateB).
		Transition(stateA, evGo, stateB).
		AnyStateInternal(evPoke, WithAction(func(c *ctx) { actions++ })).
		Initial(stateA)

	m := build(t, def, &fakeClock{})
	m.Start()

	m.ProcessEvent(evPoke)
	m.ProcessEvent(evGo)
	m.ProcessEvent(evPoke)

	if actions != 2 {
		t.Errorf("expected 2 actions, got %d", actions)
	}
	if m.CurrentState() != stateB {
		t.Errorf("expected state %v, got %v", stateB, m.CurrentState())
	}
}

func TestSelfTransitionRunsExitAndEntry(t *testing.T) {
	var entries, exits int

	def := NewDefinition[testState, testEvent]().
		State(stateA,
			WithOnEnter(func(c *ctx) { entries++ }),
			WithOnExit(func(c *ctx) { exits++ }),
		).
		Transition(stateA, evGo, stateA).
		Initial(stateA)

	m := build(t, def, &fakeClock{})
	m.Start()

	if !m.ProcessEvent(evGo) {
		t.Errorf("self transition should report true")
	}
	if entries != 2 || exits != 1 {
		t.Errorf("expected entries=2 exits=1, got %d/%d", entries, exits)
	}
}

func TestSetState(t *testing.T) {
	var entries, exits int

	def := NewDefinition[testState, testEvent]().
		State(stateA,
			WithOnEnter(func(c *ctx) { entries++ }),
			WithOnExit(func(c *ctx) { exits++ }),
		).
		State(stateB).
		Initial(stateA)

	m := build(t, def, &fakeClock{})

	// Before Start only the state is recorded
	m.SetState(stateB)
	if entries != 0 || exits != 0 {
		t.Fatalf("SetState on inactive machine ran handlers")
	}
	m.SetState(stateA)
	m.Start()
	if entries != 1 {
		t.Fatalf("expected entry on start, got %d", entries)
	}

	// Forcing the same state still runs exit and entry
	m.SetState(stateA)
	if entries != 2 || exits != 1 {
		t.Errorf("expected entries=2 exits=1, got %d/%d", entries, exits)
	}

	// Unknown states are accepted and handlers are skipped
	m.SetState(stateUnknown)
	if m.CurrentState() != stateUnknown {
		t.Errorf("expected state %v, got %v", stateUnknown, m.CurrentState())
	}
	if exits != 2 {
		t.Errorf("expected exit from %v, got %d exits", stateA, exits)
	}
}

func TestStartEntersPresetState(t *testing.T) {
	var entered testState = -1

	def := NewDefinition[testState, testEvent]().
		State(stateA).
		State(stateC, WithOnEnter(func(c *ctx) { entered = c.ToState })).
		Initial(stateA)

	m := build(t, def, &fakeClock{})
	m.SetState(stateC)
	m.Start()

	if entered != stateC {
		t.Errorf("expected start to enter %v, got %v", stateC, entered)
	}
}

func TestResetAndStop(t *testing.T) {
	var exitsB int

	def := NewDefinition[testState, testEvent]().
		State(stateA).
		State(stateB, WithOnExit(func(c *ctx) { exitsB++ })).
		Transition(stateA, evGo, stateB).
		Initial(stateA)

	m := build(t, def, &fakeClock{})
	m.Start()
	m.ProcessEvent(evGo)

	m.Reset()
	if m.CurrentState() != stateA {
		t.Errorf("expected reset to %v, got %v", stateA, m.CurrentState())
	}
	if exitsB != 1 {
		t.Errorf("expected exit from %v on reset", stateB)
	}

	m.ProcessEvent(evGo)
	m.Stop()
	if m.IsActive() {
		t.Errorf("machine still active after Stop")
	}
	if exitsB != 2 {
		t.Errorf("expected exit on stop, got %d", exitsB)
	}
	if m.ProcessEvent(evGo) {
		t.Errorf("stopped machine handled event")
	}
}

func TestUpdateHandler(t *testing.T) {
	var updates int

	def := NewDefinition[testState, testEvent]().
		State(stateA, WithOnUpdate(func(c *ctx) { updates++ })).
		State(stateB).
		Transition(stateA, evGo, stateB).
		Initial(stateA)

	m := build(t, def, &fakeClock{})
	m.Update()
	m.Start()
	m.Update()
	m.Update()
	m.ProcessEvent(evGo)
	m.Update()

	if updates != 2 {
		t.Errorf("expected 2 updates, got %d", updates)
	}
}

func TestDeclarativeTimeout(t *testing.T) {
	clock := &fakeClock{}

	def := NewDefinition[testState, testEvent]().
		State(stateA, WithTimeout[testState](100*time.Millisecond, evTimeout)).
		State(stateB).
		Transition(stateA, evTimeout, stateB).
		Initial(stateA)

	m := build(t, def, clock)
	m.Start()

	if !m.TimeoutActive() {
		t.Fatalf("timeout not armed on entry")
	}

	clock.advance(99 * time.Millisecond)
	m.Tick()
	if m.CurrentState() != stateA {
		t.Fatalf("timeout fired early")
	}

	clock.advance(time.Millisecond)
	m.Tick()
	if m.CurrentState() != stateB {
		t.Errorf("expected state %v after timeout, got %v", stateB, m.CurrentState())
	}
}

func TestResetTimeout(t *testing.T) {
	clock := &fakeClock{}

	def := NewDefinition[testState, testEvent]().
		State(stateA, WithTimeout[testState](100*time.Millisecond, evTimeout)).
		State(stateB).
		Transition(stateA, evTimeout, stateB).
		Initial(stateA)

	m := build(t, def, clock)
	m.Start()

	clock.advance(80 * time.Millisecond)
	m.ResetTimeout()
	clock.advance(80 * time.Millisecond)
	m.Tick()
	if m.CurrentState() != stateA {
		t.Fatalf("timeout fired despite reset")
	}

	clock.advance(20 * time.Millisecond)
	m.Tick()
	if m.CurrentState() != stateB {
		t.Errorf("expected timeout after reset period, got %v", m.CurrentState())
	}
}

func TestTimerWraparound(t *testing.T) {
	clock := &fakeClock{now: 0xFFFFFFF0}

	def := NewDefinition[testState, testEvent]().
		State(stateA, WithTimeout[testState](50*time.Millisecond, evTimeout)).
		State(stateB).
		Transition(stateA, evTimeout, stateB).
		Initial(stateA)

	m := build(t, def, clock)
	m.Start()

	clock.advance(40 * time.Millisecond)
	m.Tick()
	if m.CurrentState() != stateA {
		t.Fatalf("timeout fired early across wrap")
	}

	clock.advance(10 * time.Millisecond)
	m.Tick()
	if m.CurrentState() != stateB {
		t.Errorf("timeout did not fire across wrap")
	}
}

func TestImperativeTimer(t *testing.T) {
	clock := &fakeClock{}

	def := NewDefinition[testState, testEvent]().
		State(stateA, WithOnEnter(func(c *ctx) {
			c.StartTimer("blink", 30*time.Millisecond, evNext)
		})).
		State(stateB).
		Transition(stateA, evNext, stateB).
		Initial(stateA)

	m := build(t, def, clock)
	m.Start()

	if !m.TimerActive("blink") {
		t.Fatalf("timer not started")
	}

	clock.advance(30 * time.Millisecond)
	m.Tick()

	if m.CurrentState() != stateB {
		t.Errorf("expected state %v, got %v", stateB, m.CurrentState())
	}
	if m.TimerActive("blink") {
		t.Errorf("fired timer still active")
	}
}

func TestTimerCancelOnStateExit(t *testing.T) {
	clock := &fakeClock{}

	def := NewDefinition[testState, testEvent]().
		State(stateA, WithOnEnter(func(c *ctx) {
			c.StartTimer("scoped", 50*time.Millisecond, evNext)
		})).
		State(stateB).
		State(stateC).
		Transition(stateA, evGo, stateB).
		Transition(stateB, evNext, stateC).
		Initial(stateA)

	m := build(t, def, clock)
	m.Start()
	m.StartTimer("global", 50*time.Millisecond, evNext)

	m.ProcessEvent(evGo)
	if m.TimerActive("scoped") {
		t.Errorf("state-scoped timer survived exit")
	}
	if !m.TimerActive("global") {
		t.Fatalf("global timer cancelled on exit")
	}

	clock.advance(50 * time.Millisecond)
	m.Tick()
	if m.CurrentState() != stateC {
		t.Errorf("expected global timer to drive %v, got %v", stateC, m.CurrentState())
	}
}

func TestStateChangeCallback(t *testing.T) {
	var changes [][2]testState

	def := NewDefinition[testState, testEvent]().
		State(stateA).
		State(stateB).
		Transition(stateA, evGo, stateB).
		Transition(stateB, evGo, stateB).
		Initial(stateA)

	m, err := def.Build(WithStateChangeCallback[testState, testEvent](func(from, to testState) {
		changes = append(changes, [2]testState{from, to})
	}))
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	m.Start()

	m.ProcessEvent(evGo)
	m.ProcessEvent(evGo)

	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0] != [2]testState{stateA, stateB} {
		t.Errorf("unexpected change %v", changes[0])
	}
}

func TestReentrantSetState(t *testing.T) {
	var sub *Machine[testState, testEvent]

	subDef := NewDefinition[testState, testEvent]().
		State(stateA).
		State(stateB).
		State(stateC).
		Initial(stateA)
	sub = build(t, subDef, &fakeClock{})
	sub.Start()

	def := NewDefinition[testState, testEvent]().
		State(stateA).
		State(stateB, WithOnEnter(func(c *ctx) {
			sub.SetState(stateC)
			// The machine being entered can be forced from its own handler
			c.FSM.StopTimer("missing")
		})).
		Transition(stateA, evGo, stateB).
		Initial(stateA)

	m := build(t, def, &fakeClock{})
	m.Start()
	m.ProcessEvent(evGo)

	if sub.CurrentState() != stateC {
		t.Errorf("expected sub machine in %v, got %v", stateC, sub.CurrentState())
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		def     *Definition[testState, testEvent]
		wantErr bool
	}{
		{
			name:    "no initial state",
			def:     NewDefinition[testState, testEvent]().State(stateA),
			wantErr: true,
		},
		{
			name:    "undefined initial state",
			def:     NewDefinition[testState, testEvent]().State(stateA).Initial(stateB),
			wantErr: true,
		},
		{
			name: "transition to undefined state",
			def: NewDefinition[testState, testEvent]().
				State(stateA).
				Transition(stateA, evGo, stateB).
				Initial(stateA),
			wantErr: true,
		},
		{
			name: "transition from undefined state",
			def: NewDefinition[testState, testEvent]().
				State(stateA).
				Transition(stateC, evGo, stateA).
				Initial(stateA),
			wantErr: true,
		},
		{
			name: "internal transition without action",
			def: NewDefinition[testState, testEvent]().
				State(stateA).
				InternalTransition(stateA, evPoke).
				Initial(stateA),
			wantErr: true,
		},
		{
			name: "valid definition",
			def: NewDefinition[testState, testEvent]().
				State(stateA).
				State(stateB).
				Transition(stateA, evGo, stateB).
				AnyStateTransition(evBack, stateA).
				Initial(stateA),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
