package coordinator

import (
	"fmt"

	"github.com/librescoot/gatekeeper/modes"
	"github.com/librescoot/gatekeeper/settings"
)

// TopState selects between normal operation and the settings menu
type TopState uint8

const (
	Perform TopState = iota
	Menu
)

func (s TopState) String() string {
	switch s {
	case Perform:
		return "PERFORM"
	case Menu:
		return "MENU"
	}
	return fmt.Sprintf("top(%d)", uint8(s))
}

// Page is a menu page. Pages form a ring grouped by mode.
type Page uint8

const (
	PageGateCV Page = iota
	PageTriggerBehavior
	PageTriggerPulseLen
	PageToggleBehavior
	PageDivideDivisor
	PageCyclePattern
	PageCVGlobal
	PageMenuTimeout
)

// PageCount is the number of menu pages
const PageCount = 8

var pageNames = [PageCount]string{
	"GATE_CV", "TRIGGER_BEHAVIOR", "TRIGGER_PULSE_LEN", "TOGGLE_BEHAVIOR",
	"DIVIDE_DIVISOR", "CYCLE_PATTERN", "CV_GLOBAL", "MENU_TIMEOUT",
}

func (p Page) String() string {
	if p < PageCount {
		return pageNames[p]
	}
	return fmt.Sprintf("page(%d)", uint8(p))
}

// Next returns the following page, wrapping at the end of the ring
func (p Page) Next() Page {
	return (p + 1) % PageCount
}

// binding ties a page to the settings field it edits and the mode that
// field configures. Unbound pages have no editable value.
type binding struct {
	field settings.Field
	mode  modes.Mode
	bound bool
}

var pageBindings = [PageCount]binding{
	PageGateCV:          {settings.FieldGateAMode, modes.Gate, true},
	PageTriggerBehavior: {settings.FieldTriggerEdge, modes.Trigger, true},
	PageTriggerPulseLen: {settings.FieldTriggerPulse, modes.Trigger, true},
	PageToggleBehavior:  {settings.FieldToggleEdge, modes.Toggle, true},
	PageDivideDivisor:   {settings.FieldDivideDivisor, modes.Divide, true},
	PageCyclePattern:    {settings.FieldCycleTempo, modes.Cycle, true},
}

// Field returns the settings field edited on p
func (p Page) Field() (settings.Field, bool) {
	if p >= PageCount {
		return 0, false
	}
	b := pageBindings[p]
	return b.field, b.bound
}

// Mode returns the mode whose pages include p. Global pages report false.
func (p Page) Mode() (modes.Mode, bool) {
	if p >= PageCount {
		return 0, false
	}
	b := pageBindings[p]
	return b.mode, b.bound
}

// StartPage returns the first menu page relevant to m
func StartPage(m modes.Mode) Page {
	switch m {
	case modes.Trigger:
		return PageTriggerBehavior
	case modes.Toggle:
		return PageToggleBehavior
	case modes.Divide:
		return PageDivideDivisor
	case modes.Cycle:
		return PageCyclePattern
	}
	return PageGateCV
}
