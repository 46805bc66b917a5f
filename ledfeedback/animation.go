package ledfeedback

import "github.com/librescoot/gatekeeper/hal"

// Kind selects how an Animation renders its base color
type Kind uint8

const (
	Static Kind = iota
	Blink       // on/off, toggling every half period
	Glow        // triangle-wave brightness over one period
)

const (
	BlinkPeriodMs = 500
	GlowPeriodMs  = 1000
)

// Animation drives one LED. The zero value is a static, unlit LED.
type Animation struct {
	Kind     Kind
	Color    hal.Color
	PeriodMs uint16

	lastToggle uint32
	off        bool
	running    bool
}

// Set starts an animation of kind with the given period. A zero period
// falls back to the blink period.
func (a *Animation) Set(kind Kind, color hal.Color, periodMs uint16) {
	if periodMs == 0 {
		periodMs = BlinkPeriodMs
	}
	a.Kind = kind
	a.Color = color
	a.PeriodMs = periodMs
	a.off = false
	a.running = false
}

// SetStatic shows color without animation
func (a *Animation) SetStatic(color hal.Color) {
	a.Kind = Static
	a.Color = color
}

// Render advances the animation to now and returns the LED color
func (a *Animation) Render(now uint32) hal.Color {
	switch a.Kind {
	case Blink:
		// A blink starts lit on its first frame
		if !a.running {
			a.running = true
			a.lastToggle = now
		}
		if now-a.lastToggle >= uint32(a.PeriodMs/2) {
			a.lastToggle = now
			a.off = !a.off
		}
		if a.off {
			return hal.Off
		}
		return a.Color

	case Glow:
		if a.PeriodMs == 0 {
			return a.Color
		}
		phase := uint8(now % uint32(a.PeriodMs) * 255 / uint32(a.PeriodMs))
		return a.Color.Scale(triangle(phase))
	}
	return a.Color
}

// triangle maps a 0-255 phase to a brightness ramp up then down
func triangle(phase uint8) uint8 {
	if phase < 128 {
		return phase * 2
	}
	return (255 - phase) * 2
}
