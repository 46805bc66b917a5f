// Package modes implements the five output-shaping modes and their LED
// feedback.
package modes

import (
	"fmt"
	"strings"

	"github.com/librescoot/gatekeeper/hal"
	"github.com/librescoot/gatekeeper/settings"
)

// Mode selects how the input level is shaped into the output
type Mode uint8

const (
	Gate Mode = iota
	Trigger
	Toggle
	Divide
	Cycle
)

// Count is the number of modes
const Count = settings.ModeCount

var modeNames = [Count]string{"GATE", "TRIGGER", "TOGGLE", "DIVIDE", "CYCLE"}

func (m Mode) String() string {
	if m < Count {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Next returns the following mode, wrapping after Cycle
func (m Mode) Next() Mode {
	return (m + 1) % Count
}

// Parse resolves a mode name, ignoring case
func Parse(name string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(n, name) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mode %q", name)
}

var modeColors = [Count]hal.Color{
	Gate:    {R: 0, G: 255, B: 0},
	Trigger: {R: 0, G: 128, B: 255},
	Toggle:  {R: 255, G: 64, B: 0},
	Divide:  {R: 255, G: 0, B: 255},
	Cycle:   {R: 255, G: 255, B: 0},
}

// ActivityColor is the color of the activity LED when lit
var ActivityColor = hal.Color{R: 255, G: 255, B: 255}

// Color returns the indicator color of m
func (m Mode) Color() hal.Color {
	if m < Count {
		return modeColors[m]
	}
	return hal.Off
}
