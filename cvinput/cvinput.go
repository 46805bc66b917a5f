// Package cvinput converts 8-bit CV samples into a debounced gate level
// using a software Schmitt trigger.
package cvinput

const (
	DefaultHighThreshold = 128 // about 2.5 V
	DefaultLowThreshold  = 77  // about 1.5 V
)

// Input tracks the hysteresis state of one CV channel
type Input struct {
	high, low uint8
	last      uint8
	state     bool
}

// New returns an input with the default thresholds
func New() *Input {
	return NewWithThresholds(DefaultHighThreshold, DefaultLowThreshold)
}

// NewWithThresholds returns an input that goes high above high and low
// below low
func NewWithThresholds(high, low uint8) *Input {
	return &Input{high: high, low: low}
}

// Update feeds one ADC sample and returns the resulting level
func (c *Input) Update(sample uint8) bool {
	if c == nil {
		return false
	}
	c.last = sample
	if c.state {
		if sample < c.low {
			c.state = false
		}
	} else if sample > c.high {
		c.state = true
	}
	return c.state
}

// State returns the current level
func (c *Input) State() bool {
	return c != nil && c.state
}

// Sample returns the last ADC sample
func (c *Input) Sample() uint8 {
	if c == nil {
		return 0
	}
	return c.last
}

// Thresholds returns the high and low switching points
func (c *Input) Thresholds() (high, low uint8) {
	if c == nil {
		return 0, 0
	}
	return c.high, c.low
}

// Millivolts converts a sample on a 0-5 V scale
func Millivolts(sample uint8) uint16 {
	return uint16(uint32(sample) * 5000 / 255)
}

// FromMillivolts converts a voltage on a 0-5 V scale to the nearest
// sample, clamping out of range values
func FromMillivolts(mv int) uint8 {
	switch {
	case mv <= 0:
		return 0
	case mv >= 5000:
		return 255
	}
	return uint8((mv*255 + 2500) / 5000)
}
