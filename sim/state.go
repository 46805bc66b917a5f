// Package sim hosts the control core on a simulated board: input sources,
// a CV generator, state snapshots for renderers and a command socket.
package sim

import (
	"fmt"

	"github.com/librescoot/gatekeeper/coordinator"
	"github.com/librescoot/gatekeeper/hal"
	"github.com/librescoot/gatekeeper/modes"
)

const (
	// MaxEvents is the size of the event log ring
	MaxEvents = 16

	// StateVersion is the schema version of rendered snapshots
	StateVersion = 1
)

// LEDNames label the LED chain in chain order
var LEDNames = [hal.LEDCount]string{"mode", "activity"}

// EventType classifies logged events
type EventType uint8

const (
	EventStateChange EventType = iota
	EventModeChange
	EventPageChange
	EventInput
	EventOutput
	EventInfo
)

var eventTypeNames = [...]string{
	EventStateChange: "state_change",
	EventModeChange:  "mode_change",
	EventPageChange:  "page_change",
	EventInput:       "input",
	EventOutput:      "output",
	EventInfo:        "info",
}

func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "unknown"
}

// LogEvent is one entry of the event log
type LogEvent struct {
	TimeMs  uint32
	Type    EventType
	Message string
}

// State collects everything a renderer shows. Setters mark it dirty only
// when a value actually changes.
type State struct {
	Version     int
	TimestampMs uint32

	Top    coordinator.TopState
	Mode   modes.Mode
	Page   coordinator.Page
	InMenu bool

	ButtonA   bool
	ButtonB   bool
	CVIn      bool  // after hysteresis
	CVVoltage uint8 // raw ADC sample

	Output bool
	LEDs   [hal.LEDCount]hal.Color

	LegendVisible bool

	events [MaxEvents]LogEvent
	head   int
	count  int
	total  uint64

	dirty bool
}

// NewState returns a snapshot in the power-on state
func NewState() *State {
	return &State{
		Version: StateVersion,
		Top:     coordinator.Perform,
		Mode:    modes.Gate,
		Page:    coordinator.PageGateCV,
		dirty:   true,
	}
}

func (s *State) SetFSM(top coordinator.TopState, mode modes.Mode, page coordinator.Page, inMenu bool) {
	if s.Top != top || s.Mode != mode || s.Page != page || s.InMenu != inMenu {
		s.Top, s.Mode, s.Page, s.InMenu = top, mode, page, inMenu
		s.dirty = true
	}
}

func (s *State) SetInputs(buttonA, buttonB, cvIn bool, cvVoltage uint8) {
	if s.ButtonA != buttonA || s.ButtonB != buttonB || s.CVIn != cvIn || s.CVVoltage != cvVoltage {
		s.ButtonA, s.ButtonB, s.CVIn, s.CVVoltage = buttonA, buttonB, cvIn, cvVoltage
		s.dirty = true
	}
}

func (s *State) SetOutput(on bool) {
	if s.Output != on {
		s.Output = on
		s.dirty = true
	}
}

// SetTime updates the timestamp. Time alone does not make the state dirty;
// renderers refresh on their own interval.
func (s *State) SetTime(ms uint32) {
	s.TimestampMs = ms
}

func (s *State) SetLED(index int, c hal.Color) {
	if index < 0 || index >= hal.LEDCount {
		return
	}
	if s.LEDs[index] != c {
		s.LEDs[index] = c
		s.dirty = true
	}
}

// AddEvent appends to the ring, overwriting the oldest entry when full
func (s *State) AddEvent(typ EventType, timeMs uint32, format string, args ...any) {
	s.events[s.head] = LogEvent{
		TimeMs:  timeMs,
		Type:    typ,
		Message: fmt.Sprintf(format, args...),
	}
	s.head = (s.head + 1) % MaxEvents
	if s.count < MaxEvents {
		s.count++
	}
	s.total++
	s.dirty = true
}

// Events returns the retained events, oldest first
func (s *State) Events() []LogEvent {
	out := make([]LogEvent, 0, s.count)
	start := 0
	if s.count == MaxEvents {
		start = s.head
	}
	for i := 0; i < s.count; i++ {
		out = append(out, s.events[(start+i)%MaxEvents])
	}
	return out
}

// EventsSince returns the retained events added after the seq'th event and
// the current sequence number
func (s *State) EventsSince(seq uint64) ([]LogEvent, uint64) {
	all := s.Events()
	n := s.total - seq
	if seq > s.total {
		n = 0
	}
	if n > uint64(len(all)) {
		n = uint64(len(all))
	}
	return all[len(all)-int(n):], s.total
}

// PageName returns the page name, or false outside the menu
func (s *State) PageName() (string, bool) {
	if !s.InMenu {
		return "", false
	}
	return s.Page.String(), true
}

func (s *State) ToggleLegend() {
	s.LegendVisible = !s.LegendVisible
	s.dirty = true
}

func (s *State) Dirty() bool {
	return s.dirty
}

func (s *State) ClearDirty() {
	s.dirty = false
}

func (s *State) MarkDirty() {
	s.dirty = true
}
