//go:build linux

package pihal

import (
	rpio "github.com/stianeikeland/go-rpio/v4"

	"github.com/librescoot/gatekeeper/hal"
)

// LEDs shows the feedback on plain GPIO LEDs. A pin is driven high while
// its color is brighter than the threshold. Pin 0 disables a slot.
type LEDs struct {
	pins   [hal.LEDCount]rpio.Pin
	used   [hal.LEDCount]bool
	colors [hal.LEDCount]hal.Color
}

// ledThreshold is the channel level that counts as lit
const ledThreshold = 64

// NewLEDs configures pins as outputs. rpio must be open (see Open).
func NewLEDs(pins [hal.LEDCount]int) *LEDs {
	l := &LEDs{}
	for i, p := range pins {
		if p == 0 {
			continue
		}
		l.pins[i] = rpio.Pin(p)
		l.used[i] = true
		l.pins[i].Output()
		l.pins[i].Low()
	}
	return l
}

func (l *LEDs) SetLED(index int, c hal.Color) {
	if index < 0 || index >= hal.LEDCount {
		return
	}
	l.colors[index] = c
}

func (l *LEDs) LED(index int) hal.Color {
	if index < 0 || index >= hal.LEDCount {
		return hal.Off
	}
	return l.colors[index]
}

func (l *LEDs) Show() {
	for i := range l.pins {
		if !l.used[i] {
			continue
		}
		if lit(l.colors[i]) {
			l.pins[i].High()
		} else {
			l.pins[i].Low()
		}
	}
}

func lit(c hal.Color) bool {
	return c.R >= ledThreshold || c.G >= ledThreshold || c.B >= ledThreshold
}

var _ hal.LEDs = (*LEDs)(nil)
