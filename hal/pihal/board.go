//go:build linux

// Package pihal runs the board on a Raspberry Pi: buttons and the gate
// output on GPIO, the CV input on a PCF8591 I2C ADC.
package pihal

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/davecheney/i2c"
	rpio "github.com/stianeikeland/go-rpio/v4"

	"github.com/librescoot/gatekeeper/hal"
)

// pcf8591Control selects a single-ended input channel
const pcf8591Control = 0x00

// Config assigns pins (BCM numbering) and the ADC
type Config struct {
	ButtonAPin int
	ButtonBPin int
	OutputPin  int

	I2CBus     int
	ADCAddress uint8
	ADCChannel uint8

	Logger *slog.Logger
}

// Board drives real hardware
type Board struct {
	buttonA rpio.Pin
	buttonB rpio.Pin
	output  rpio.Pin
	outOn   bool

	adc     *i2c.I2C
	control byte
	lastCV  uint8
	buf     [2]byte

	start  time.Time
	logger *slog.Logger
}

// Open maps the GPIO registers and opens the I2C bus
func Open(cfg Config) (*Board, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ADCChannel > 3 {
		return nil, fmt.Errorf("adc channel %d out of range", cfg.ADCChannel)
	}

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	adc, err := i2c.New(cfg.ADCAddress, cfg.I2CBus)
	if err != nil {
		rpio.Close()
		return nil, fmt.Errorf("open i2c bus %d: %w", cfg.I2CBus, err)
	}

	b := &Board{
		buttonA: rpio.Pin(cfg.ButtonAPin),
		buttonB: rpio.Pin(cfg.ButtonBPin),
		output:  rpio.Pin(cfg.OutputPin),
		adc:     adc,
		control: pcf8591Control | cfg.ADCChannel,
		start:   time.Now(),
		logger:  cfg.Logger.With("component", "pihal"),
	}

	for _, pin := range []rpio.Pin{b.buttonA, b.buttonB} {
		pin.Input()
		pin.PullUp()
	}
	b.output.Output()
	b.output.Low()

	b.logger.Info("board opened",
		"button_a", cfg.ButtonAPin,
		"button_b", cfg.ButtonBPin,
		"output", cfg.OutputPin,
		"i2c_bus", cfg.I2CBus,
		"adc_addr", fmt.Sprintf("0x%02x", cfg.ADCAddress))

	return b, nil
}

// Buttons pull the pin low when pressed
func (b *Board) ButtonA() bool {
	return b.buttonA.Read() == rpio.Low
}

func (b *Board) ButtonB() bool {
	return b.buttonB.Read() == rpio.Low
}

// ReadCV returns the latest conversion. The PCF8591 returns the previous
// conversion first, so two bytes are read. On a bus error the last good
// sample is kept.
func (b *Board) ReadCV() uint8 {
	if _, err := b.adc.Write([]byte{b.control}); err != nil {
		b.logger.Debug("adc write failed", "error", err)
		return b.lastCV
	}
	if _, err := b.adc.Read(b.buf[:]); err != nil {
		b.logger.Debug("adc read failed", "error", err)
		return b.lastCV
	}
	b.lastCV = b.buf[1]
	return b.lastCV
}

func (b *Board) SetOutput(on bool) {
	b.outOn = on
	if on {
		b.output.High()
	} else {
		b.output.Low()
	}
}

func (b *Board) Output() bool {
	return b.outOn
}

// Millis is monotonic and wraps after ~49.7 days like the firmware counter
func (b *Board) Millis() uint32 {
	return uint32(time.Since(b.start).Milliseconds())
}

func (b *Board) Delay(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

// Close releases the output, the bus and the GPIO mapping
func (b *Board) Close() error {
	b.output.Low()
	err := b.adc.Close()
	if cerr := rpio.Close(); err == nil {
		err = cerr
	}
	return err
}

var _ hal.Board = (*Board)(nil)
