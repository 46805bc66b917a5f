// Package simhal implements the hal interfaces on virtual time for the
// simulator and tests.
package simhal

import (
	"sync"

	"github.com/librescoot/gatekeeper/hal"
)

// Board is a simulated Gatekeeper board. Time only moves through Advance,
// Delay or SetTime. Input setters are safe to call from other goroutines.
type Board struct {
	mu sync.Mutex

	now     uint32
	buttonA bool
	buttonB bool
	cv      uint8

	adcFault bool
	adcStuck uint8

	output bool
	leds   [hal.LEDCount]hal.Color
	shows  int
}

// NewBoard returns a board at time zero with all inputs released
func NewBoard() *Board {
	return &Board{}
}

func (b *Board) ButtonA() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buttonA
}

func (b *Board) ButtonB() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buttonB
}

// ReadCV returns the CV sample, or the stuck value while an ADC fault is
// injected
func (b *Board) ReadCV() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.adcFault {
		return b.adcStuck
	}
	return b.cv
}

func (b *Board) SetOutput(on bool) {
	b.mu.Lock()
	b.output = on
	b.mu.Unlock()
}

func (b *Board) Output() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.output
}

func (b *Board) Millis() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now
}

// Delay advances virtual time
func (b *Board) Delay(ms uint32) {
	b.Advance(ms)
}

// Advance moves virtual time forward
func (b *Board) Advance(ms uint32) {
	b.mu.Lock()
	b.now += ms
	b.mu.Unlock()
}

// SetTime jumps virtual time to an absolute value
func (b *Board) SetTime(ms uint32) {
	b.mu.Lock()
	b.now = ms
	b.mu.Unlock()
}

// ResetTime rewinds virtual time to zero
func (b *Board) ResetTime() {
	b.SetTime(0)
}

func (b *Board) SetButtonA(pressed bool) {
	b.mu.Lock()
	b.buttonA = pressed
	b.mu.Unlock()
}

func (b *Board) SetButtonB(pressed bool) {
	b.mu.Lock()
	b.buttonB = pressed
	b.mu.Unlock()
}

// SetCV sets the raw ADC sample
func (b *Board) SetCV(sample uint8) {
	b.mu.Lock()
	b.cv = sample
	b.mu.Unlock()
}

// CV returns the raw ADC sample ignoring faults
func (b *Board) CV() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cv
}

// SetADCFault pins ReadCV to stuck while on
func (b *Board) SetADCFault(on bool, stuck uint8) {
	b.mu.Lock()
	b.adcFault = on
	b.adcStuck = stuck
	b.mu.Unlock()
}

// ADCFault reports whether an ADC fault is injected
func (b *Board) ADCFault() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.adcFault
}

func (b *Board) SetLED(index int, c hal.Color) {
	if index < 0 || index >= hal.LEDCount {
		return
	}
	b.mu.Lock()
	b.leds[index] = c
	b.mu.Unlock()
}

func (b *Board) LED(index int) hal.Color {
	if index < 0 || index >= hal.LEDCount {
		return hal.Off
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.leds[index]
}

// Show latches the LED buffer. The simulated chain has no latch, so only
// the call count is recorded.
func (b *Board) Show() {
	b.mu.Lock()
	b.shows++
	b.mu.Unlock()
}

// Shows returns how many times the LED buffer was latched
func (b *Board) Shows() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shows
}

// Reset releases all inputs, clears faults and outputs, and rewinds time
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = 0
	b.buttonA, b.buttonB = false, false
	b.cv = 0
	b.adcFault, b.adcStuck = false, 0
	b.output = false
	b.leds = [hal.LEDCount]hal.Color{}
}

var (
	_ hal.Board  = (*Board)(nil)
	_ hal.LEDs   = (*Board)(nil)
	_ hal.EEPROM = (*EEPROM)(nil)
)
