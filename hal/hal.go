// Package hal abstracts the Gatekeeper board: two buttons, one CV input,
// one gate output, a millisecond clock, settings storage and two RGB LEDs.
package hal

import "io"

// Board is the per-tick hardware surface
type Board interface {
	// ButtonA and ButtonB report the logical pressed level.
	// Active-low wiring is resolved by the implementation.
	ButtonA() bool
	ButtonB() bool

	// ReadCV returns an 8-bit sample of the CV input (0 = 0 V, 255 = 5 V)
	ReadCV() uint8

	SetOutput(on bool)
	Output() bool

	// Millis is a monotonic millisecond counter that wraps at 2^32
	Millis() uint32
	Delay(ms uint32)
}

// EEPROM is byte-addressable non-volatile storage
type EEPROM interface {
	io.ReaderAt
	io.WriterAt
	Size() int
}

// Color is a 24-bit RGB value
type Color struct {
	R, G, B uint8
}

// Off is the unlit color
var Off = Color{}

// Scale returns c dimmed by brightness/255
func (c Color) Scale(brightness uint8) Color {
	return Color{
		R: uint8(uint16(c.R) * uint16(brightness) / 255),
		G: uint8(uint16(c.G) * uint16(brightness) / 255),
		B: uint8(uint16(c.B) * uint16(brightness) / 255),
	}
}

// LED indices in chain order
const (
	LEDMode     = 0
	LEDActivity = 1
	LEDCount    = 2
)

// LEDs drives the RGB indicator chain
type LEDs interface {
	SetLED(index int, c Color)
	LED(index int) Color
	Show()
}
