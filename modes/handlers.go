package modes

import "github.com/librescoot/gatekeeper/settings"

// OutputPulseMs is the pulse length emitted by Divide mode
const OutputPulseMs = 10

type GateState struct {
	Output bool
}

type TriggerState struct {
	Output     bool
	LastInput  bool
	Edge       uint8
	PulseStart uint32
	PulseMs    uint16
}

type ToggleState struct {
	Output    bool
	LastInput bool
	Edge      uint8
}

type DivideState struct {
	Output     bool
	LastInput  bool
	Counter    uint8
	Divisor    uint8
	PulseStart uint32
}

type CycleState struct {
	Output     bool
	Running    bool
	Start      uint32
	LastToggle uint32
	PeriodMs   uint16
	Phase      uint8 // 0-255 position within the period
}

// Context is the scratch state of the active mode. Only the member
// matching Mode is meaningful; Init clears the others.
type Context struct {
	Mode    Mode
	Gate    GateState
	Trigger TriggerState
	Toggle  ToggleState
	Divide  DivideState
	Cycle   CycleState
}

// Init resets ctx for mode m using the per-mode parameters in s.
// A nil s uses defaults.
func Init(ctx *Context, m Mode, s *settings.Settings, now uint32) {
	if ctx == nil {
		return
	}
	if s == nil {
		d := settings.Defaults()
		s = &d
	}

	*ctx = Context{Mode: m % Count}

	switch ctx.Mode {
	case Trigger:
		ctx.Trigger.Edge = s.TriggerEdge
		ctx.Trigger.PulseMs = s.TriggerPulseMs()
	case Toggle:
		ctx.Toggle.Edge = s.ToggleEdge
	case Divide:
		ctx.Divide.Divisor = s.DivideDivisor()
	case Cycle:
		ctx.Cycle.Running = true
		ctx.Cycle.Start = now
		ctx.Cycle.LastToggle = now
		ctx.Cycle.PeriodMs = s.CyclePeriodMs()
	}
}

// Output returns the current output level of the active mode
func (ctx *Context) Output() bool {
	if ctx == nil {
		return false
	}
	switch ctx.Mode {
	case Gate:
		return ctx.Gate.Output
	case Trigger:
		return ctx.Trigger.Output
	case Toggle:
		return ctx.Toggle.Output
	case Divide:
		return ctx.Divide.Output
	case Cycle:
		return ctx.Cycle.Output
	}
	return false
}

func edgeMatches(edge uint8, in, last bool) bool {
	rising := in && !last
	falling := !in && last
	switch edge {
	case settings.EdgeRising:
		return rising
	case settings.EdgeFalling:
		return falling
	case settings.EdgeBoth:
		return rising || falling
	}
	return false
}

// Process feeds the combined input level through the active mode and
// reports the output level and whether it changed on this call.
func Process(ctx *Context, in bool, now uint32) (out, changed bool) {
	if ctx == nil {
		return false, false
	}
	prev := ctx.Output()

	switch ctx.Mode {
	case Gate:
		ctx.Gate.Output = in

	case Trigger:
		t := &ctx.Trigger
		if edgeMatches(t.Edge, in, t.LastInput) {
			t.Output = true
			t.PulseStart = now
		} else if t.Output && now-t.PulseStart >= uint32(t.PulseMs) {
			t.Output = false
		}
		t.LastInput = in

	case Toggle:
		t := &ctx.Toggle
		if edgeMatches(t.Edge, in, t.LastInput) {
			t.Output = !t.Output
		}
		t.LastInput = in

	case Divide:
		d := &ctx.Divide
		if in && !d.LastInput {
			d.Counter++
			if d.Counter >= d.Divisor {
				d.Counter = 0
				d.Output = true
				d.PulseStart = now
			}
		} else if d.Output && now-d.PulseStart >= OutputPulseMs {
			d.Output = false
		}
		d.LastInput = in

	case Cycle:
		c := &ctx.Cycle
		if c.Running && c.PeriodMs > 0 {
			half := uint32(c.PeriodMs) / 2
			if now-c.LastToggle >= half {
				c.Output = !c.Output
				c.LastToggle = now
			}
			c.Phase = uint8((now - c.Start) % uint32(c.PeriodMs) * 255 / uint32(c.PeriodMs))
		}
	}

	out = ctx.Output()
	return out, out != prev
}
