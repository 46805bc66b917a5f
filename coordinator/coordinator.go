// Package coordinator wires the event processor, the three state machines
// and the mode handlers into one per-tick update.
package coordinator

import (
	"log/slog"
	"time"

	"github.com/librescoot/gatekeeper/cvinput"
	"github.com/librescoot/gatekeeper/events"
	"github.com/librescoot/gatekeeper/fsm"
	"github.com/librescoot/gatekeeper/modes"
	"github.com/librescoot/gatekeeper/settings"
)

// MenuTimeout closes the menu after this long without button activity
const MenuTimeout = 60 * time.Second

// Inputs is the sampled hardware surface. Buttons report logical pressed
// levels.
type Inputs interface {
	ButtonA() bool
	ButtonB() bool
	ReadCV() uint8
	Millis() uint32
}

type (
	topMachine  = fsm.Machine[TopState, events.Event]
	modeMachine = fsm.Machine[modes.Mode, events.Event]
	menuMachine = fsm.Machine[Page, events.Event]
)

// Coordinator owns the runtime state of the device. It is driven by
// calling Update once per sample period from a single goroutine.
type Coordinator struct {
	settings *settings.Settings
	board    Inputs
	store    settings.Saver
	logger   *slog.Logger
	onChange func(machine, from, to string)

	cvHigh, cvLow uint8

	events  events.Processor
	cv      *cvinput.Input
	modeCtx modes.Context

	top  *topMachine
	mode *modeMachine
	menu *menuMachine

	menuEntryMode modes.Mode
	menuEnterTime uint32
	lastActivity  uint32
	output        bool
	lastEvent     events.Event
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithStore sets the collaborator that persists settings on menu exit
func WithStore(store settings.Saver) Option {
	return func(c *Coordinator) {
		c.store = store
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithCVThresholds overrides the CV hysteresis switching points
func WithCVThresholds(high, low uint8) Option {
	return func(c *Coordinator) {
		c.cvHigh, c.cvLow = high, low
	}
}

// WithStateChangeCallback sets a callback invoked after any of the three
// machines changes state. machine is "top", "mode" or "menu".
func WithStateChangeCallback(fn func(machine, from, to string)) Option {
	return func(c *Coordinator) {
		c.onChange = fn
	}
}

// New builds a coordinator in Perform/Gate/PageGateCV. s is owned and
// mutated by the coordinator; a nil s disables value editing and saving.
func New(s *settings.Settings, board Inputs, opts ...Option) *Coordinator {
	c := &Coordinator{
		settings: s,
		board:    board,
		logger:   slog.Default(),
		cvHigh:   cvinput.DefaultHighThreshold,
		cvLow:    cvinput.DefaultLowThreshold,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "coordinator")
	c.cv = cvinput.NewWithThresholds(c.cvHigh, c.cvLow)

	modes.Init(&c.modeCtx, modes.Gate, s, board.Millis())

	clock := fsm.ClockFunc(board.Millis)

	c.top = mustBuild(fsm.NewDefinition[TopState, events.Event]().
		State(Perform).
		State(Menu, fsm.WithTimeout[TopState](MenuTimeout, events.Timeout)).
		Transition(Perform, events.MenuToggle, Menu, fsm.WithAction(c.enterMenu)).
		Transition(Menu, events.MenuToggle, Perform, fsm.WithAction(c.exitMenu)).
		Transition(Menu, events.Timeout, Perform, fsm.WithAction(c.exitMenu)).
		Initial(Perform),
		fsm.WithClock[TopState, events.Event](clock),
		fsm.WithLogger[TopState, events.Event](c.logger.With("fsm", "top")),
		fsm.WithStateChangeCallback[TopState, events.Event](notify[TopState](c, "top")),
	)

	modeDef := fsm.NewDefinition[modes.Mode, events.Event]()
	for m := modes.Gate; m < modes.Count; m++ {
		modeDef.State(m)
	}
	c.mode = mustBuild(modeDef.
		AnyStateInternal(events.ModeNext, fsm.WithAction(c.advanceMode)).
		Initial(modes.Gate),
		fsm.WithClock[modes.Mode, events.Event](clock),
		fsm.WithLogger[modes.Mode, events.Event](c.logger.With("fsm", "mode")),
		fsm.WithStateChangeCallback[modes.Mode, events.Event](notify[modes.Mode](c, "mode")),
	)

	menuDef := fsm.NewDefinition[Page, events.Event]()
	for p := PageGateCV; p < PageCount; p++ {
		menuDef.State(p)
	}
	c.menu = mustBuild(menuDef.
		AnyStateInternal(events.ATap, fsm.WithAction(c.advancePage)).
		AnyStateInternal(events.BTap, fsm.WithAction(c.cycleValue)).
		Initial(PageGateCV),
		fsm.WithClock[Page, events.Event](clock),
		fsm.WithLogger[Page, events.Event](c.logger.With("fsm", "menu")),
		fsm.WithStateChangeCallback[Page, events.Event](notify[Page](c, "menu")),
	)

	return c
}

func mustBuild[S, E comparable](def *fsm.Definition[S, E], opts ...fsm.MachineOption[S, E]) *fsm.Machine[S, E] {
	m, err := def.Build(opts...)
	if err != nil {
		panic("coordinator: " + err.Error())
	}
	return m
}

type stringer interface {
	comparable
	String() string
}

func notify[S stringer](c *Coordinator, machine string) func(from, to S) {
	return func(from, to S) {
		if c.onChange != nil {
			c.onChange(machine, from.String(), to.String())
		}
	}
}

// Start activates the three machines and stamps the activity time
func (c *Coordinator) Start() {
	if c == nil {
		return
	}
	c.top.Start()
	c.mode.Start()
	c.menu.Start()
	c.lastActivity = c.board.Millis()
}

// Update runs one tick: sample inputs, derive and route one event, poll
// the menu timeout, then run the active mode's signal handler.
func (c *Coordinator) Update() {
	if c == nil {
		return
	}

	now := c.board.Millis()
	cvHigh := c.cv.Update(c.board.ReadCV())

	ev := c.events.Update(events.Input{
		ButtonA: c.board.ButtonA(),
		ButtonB: c.board.ButtonB(),
		CV:      cvHigh,
		Now:     now,
	})
	c.lastEvent = ev

	if ev != events.None {
		c.route(ev, now)
	}

	c.top.Tick()

	out, _ := modes.Process(&c.modeCtx, c.modeInput(cvHigh), now)
	c.output = out
}

func (c *Coordinator) route(ev events.Event, now uint32) {
	was := c.top.CurrentState()
	if was == Menu {
		c.touch(now)
	}

	if c.top.ProcessEvent(ev) {
		return
	}

	switch was {
	case Perform:
		c.mode.ProcessEvent(ev)
	case Menu:
		c.menu.ProcessEvent(ev)
	}
}

// modeInput combines the signal sources for the active mode. In the menu
// the buttons navigate, so only CV drives the mode.
func (c *Coordinator) modeInput(cvHigh bool) bool {
	if c.top.CurrentState() != Perform {
		return cvHigh
	}

	a := c.events.APressed()
	in := cvHigh || (c.events.BPressed() && !a)

	if c.mode.CurrentState() == modes.Gate && c.settings != nil && c.settings.GateAMode == settings.GateAManual {
		in = in || a
	}
	return in
}

// touch records button activity and restarts the menu timeout
func (c *Coordinator) touch(now uint32) {
	c.lastActivity = now
	c.top.ResetTimeout()
}

// TopState returns Perform or Menu
func (c *Coordinator) TopState() TopState {
	if c == nil {
		return Perform
	}
	return c.top.CurrentState()
}

// Mode returns the active mode
func (c *Coordinator) Mode() modes.Mode {
	if c == nil {
		return modes.Gate
	}
	return c.mode.CurrentState()
}

// SetMode forces the active mode and reinitializes its context.
// Out of range modes are ignored.
func (c *Coordinator) SetMode(m modes.Mode) {
	if c == nil || m >= modes.Count {
		return
	}
	c.mode.SetState(m)
	modes.Init(&c.modeCtx, m, c.settings, c.board.Millis())
}

// InMenu reports whether the settings menu is open
func (c *Coordinator) InMenu() bool {
	return c != nil && c.top.CurrentState() == Menu
}

// Page returns the current menu page. It keeps its value after the menu
// closes.
func (c *Coordinator) Page() Page {
	if c == nil {
		return PageGateCV
	}
	return c.menu.CurrentState()
}

// Output returns the gate output level computed by the last Update
func (c *Coordinator) Output() bool {
	return c != nil && c.output
}

// CVState returns the hysteresis-filtered CV level
func (c *Coordinator) CVState() bool {
	return c != nil && c.cv.State()
}

// CVSample returns the last raw CV sample
func (c *Coordinator) CVSample() uint8 {
	if c == nil {
		return 0
	}
	return c.cv.Sample()
}

// LastEvent returns the event derived by the last Update
func (c *Coordinator) LastEvent() events.Event {
	if c == nil {
		return events.None
	}
	return c.lastEvent
}

// MenuEnterTime returns when the menu was last opened
func (c *Coordinator) MenuEnterTime() uint32 {
	if c == nil {
		return 0
	}
	return c.menuEnterTime
}

// MenuEntryMode returns the mode that was active when the menu was last opened
func (c *Coordinator) MenuEntryMode() modes.Mode {
	if c == nil {
		return modes.Gate
	}
	return c.menuEntryMode
}

// LastActivity returns the timestamp of the last menu activity
func (c *Coordinator) LastActivity() uint32 {
	if c == nil {
		return 0
	}
	return c.lastActivity
}

// Settings returns the settings record the coordinator edits
func (c *Coordinator) Settings() *settings.Settings {
	if c == nil {
		return nil
	}
	return c.settings
}

// LEDFeedback returns the mode handler's LED descriptor augmented with the
// application state and the current page's setting value.
func (c *Coordinator) LEDFeedback() modes.Feedback {
	if c == nil {
		return modes.Feedback{}
	}

	fb := modes.LED(&c.modeCtx)
	page := c.menu.CurrentState()

	fb.Mode = c.mode.CurrentState()
	fb.Page = uint8(page)
	fb.InMenu = c.top.CurrentState() == Menu
	fb.SettingValue = 0
	fb.SettingCount = 1

	if f, ok := page.Field(); ok && c.settings != nil {
		fb.SettingValue = *c.settings.Ptr(f)
		fb.SettingCount = settings.Limit(f)
	}

	return fb
}
