package sim

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
)

// CVMode selects what drives the simulated CV input
type CVMode uint8

const (
	CVManual CVMode = iota
	CVLFO
	CVGate
	CVTrigger
	CVEnvelope
)

var cvModeNames = [...]string{"manual", "lfo", "gate", "trigger", "envelope"}

func (m CVMode) String() string {
	if int(m) < len(cvModeNames) {
		return cvModeNames[m]
	}
	return "unknown"
}

// LFOShape is the waveform of the LFO generator
type LFOShape uint8

const (
	LFOSine LFOShape = iota
	LFOTri
	LFOSaw
	LFOSquare
	LFORandom // sample and hold, one value per cycle
)

var lfoShapeNames = [...]string{"sine", "tri", "saw", "square", "random"}

func (s LFOShape) String() string {
	if int(s) < len(lfoShapeNames) {
		return lfoShapeNames[s]
	}
	return "unknown"
}

// ParseShape resolves a shape name. "triangle", "sawtooth" and "sh" are
// accepted as aliases.
func ParseShape(name string) (LFOShape, error) {
	switch strings.ToLower(name) {
	case "sine":
		return LFOSine, nil
	case "tri", "triangle":
		return LFOTri, nil
	case "saw", "sawtooth":
		return LFOSaw, nil
	case "square":
		return LFOSquare, nil
	case "random", "sh":
		return LFORandom, nil
	}
	return 0, fmt.Errorf("unknown lfo shape %q", name)
}

const (
	// CVTriggerMs is the length of a generated trigger pulse
	CVTriggerMs = 10

	MinLFOHz = 0.01
	MaxLFOHz = 100.0

	cvHigh = 255
)

type envStage uint8

const (
	envIdle envStage = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

// CVSource generates the CV sample fed to the simulated ADC. It is
// advanced by Tick once per simulated millisecond.
type CVSource struct {
	mode  CVMode
	value uint8

	freqHz   float64
	shape    LFOShape
	min, max uint8
	phase    float64
	held     float64
	rng      *rand.Rand

	triggerLeft uint32

	attackMs  uint16
	decayMs   uint16
	sustain   uint8
	releaseMs uint16
	stage     envStage
	level     float64
	envTrig   uint32 // pending auto gate-off for a triggered envelope
}

// NewCVSource returns a source in manual mode at 0 V
func NewCVSource() *CVSource {
	c := &CVSource{}
	c.Reset()
	return c
}

// Reset returns to manual mode at 0 V
func (c *CVSource) Reset() {
	*c = CVSource{
		rng:    rand.New(rand.NewPCG(0x474b, 0x5349)),
		freqHz: 1,
		max:    cvHigh,
	}
}

func (c *CVSource) Mode() CVMode {
	return c.mode
}

// Value returns the current sample
func (c *CVSource) Value() uint8 {
	return c.value
}

// SetManual holds v until changed
func (c *CVSource) SetManual(v uint8) {
	c.mode = CVManual
	c.value = v
}

// Adjust nudges the manual value, clamped to 0..255
func (c *CVSource) Adjust(delta int) {
	v := int(c.value) + delta
	c.SetManual(uint8(max(0, min(cvHigh, v))))
}

// SetLFO starts a free-running LFO between lo and hi. The frequency is
// clamped to MinLFOHz..MaxLFOHz.
func (c *CVSource) SetLFO(freqHz float64, shape LFOShape, lo, hi uint8) {
	c.mode = CVLFO
	c.freqHz = math.Max(MinLFOHz, math.Min(MaxLFOHz, freqHz))
	c.shape = shape
	c.min, c.max = lo, hi
	c.phase = 0
	c.held = c.rng.Float64()
	c.value = c.lfoSample()
}

// SetEnvelope arms an ADSR envelope. GateOn and Trigger start it.
func (c *CVSource) SetEnvelope(attackMs, decayMs uint16, sustain uint8, releaseMs uint16) {
	c.mode = CVEnvelope
	c.attackMs, c.decayMs, c.sustain, c.releaseMs = attackMs, decayMs, sustain, releaseMs
	c.stage = envIdle
	c.level = 0
	c.value = 0
}

// GateOn raises the CV, or starts the attack of an armed envelope
func (c *CVSource) GateOn() {
	if c.mode == CVEnvelope {
		c.stage = envAttack
		c.envTrig = 0
		return
	}
	c.mode = CVGate
	c.value = cvHigh
}

// GateOff drops the CV, or releases an armed envelope
func (c *CVSource) GateOff() {
	if c.mode == CVEnvelope {
		if c.stage != envIdle {
			c.stage = envRelease
		}
		return
	}
	c.mode = CVGate
	c.value = 0
}

// Trigger emits a CVTriggerMs pulse. An armed envelope gets a gate of the
// same length.
func (c *CVSource) Trigger() {
	if c.mode == CVEnvelope {
		c.stage = envAttack
		c.envTrig = CVTriggerMs
		return
	}
	c.mode = CVTrigger
	c.triggerLeft = CVTriggerMs
	c.value = cvHigh
}

// Tick advances the generator by dtMs and returns the new sample
func (c *CVSource) Tick(dtMs uint32) uint8 {
	switch c.mode {
	case CVLFO:
		c.phase += c.freqHz * float64(dtMs) / 1000
		if c.phase >= 1 {
			c.phase -= math.Floor(c.phase)
			c.held = c.rng.Float64()
		}
		c.value = c.lfoSample()

	case CVTrigger:
		if c.triggerLeft > dtMs {
			c.triggerLeft -= dtMs
		} else {
			c.triggerLeft = 0
			c.value = 0
		}

	case CVEnvelope:
		c.tickEnvelope(dtMs)
	}
	return c.value
}

func (c *CVSource) lfoSample() uint8 {
	var norm float64
	p := c.phase
	switch c.shape {
	case LFOSine:
		norm = 0.5 + 0.5*math.Sin(2*math.Pi*p)
	case LFOTri:
		if p < 0.5 {
			norm = 2 * p
		} else {
			norm = 2 - 2*p
		}
	case LFOSaw:
		norm = p
	case LFOSquare:
		if p < 0.5 {
			norm = 1
		}
	case LFORandom:
		norm = c.held
	}
	lo, hi := float64(c.min), float64(c.max)
	return uint8(math.Round(lo + (hi-lo)*norm))
}

func (c *CVSource) tickEnvelope(dtMs uint32) {
	dt := float64(dtMs)
	sustain := float64(c.sustain)

	switch c.stage {
	case envAttack:
		if c.attackMs == 0 {
			c.level = cvHigh
		} else {
			c.level += cvHigh * dt / float64(c.attackMs)
		}
		if c.level >= cvHigh {
			c.level = cvHigh
			c.stage = envDecay
		}

	case envDecay:
		if c.decayMs == 0 {
			c.level = sustain
		} else {
			c.level -= (cvHigh - sustain) * dt / float64(c.decayMs)
		}
		if c.level <= sustain {
			c.level = sustain
			c.stage = envSustain
		}

	case envRelease:
		if c.releaseMs == 0 {
			c.level = 0
		} else {
			c.level -= cvHigh * dt / float64(c.releaseMs)
		}
		if c.level <= 0 {
			c.level = 0
			c.stage = envIdle
		}
	}

	if c.envTrig > 0 {
		if c.envTrig > dtMs {
			c.envTrig -= dtMs
		} else {
			c.envTrig = 0
			c.stage = envRelease
		}
	}

	c.value = uint8(math.Round(c.level))
}
