package sim

import (
	"encoding/json"
	"fmt"
	"math"
)

// CommandType identifies a socket command
type CommandType uint8

const (
	CmdUnknown CommandType = iota
	CmdButton
	CmdCVManual
	CmdCVLFO
	CmdCVEnvelope
	CmdCVGate
	CmdCVTrigger
	CmdFaultADC
	CmdFaultEEPROM
	CmdReset
	CmdQuit
)

var commandNames = [...]string{
	"unknown", "button", "cv_manual", "cv_lfo", "cv_envelope", "cv_gate",
	"cv_trigger", "fault_adc", "fault_eeprom", "reset", "quit",
}

func (c CommandType) String() string {
	if int(c) < len(commandNames) {
		return commandNames[c]
	}
	return "invalid"
}

// CommandResult reports what a command did
type CommandResult struct {
	Type    CommandType
	Success bool
	Quit    bool
	Err     error
}

// command is the union of all command fields
type command struct {
	Cmd   string   `json:"cmd"`
	ID    *string  `json:"id"`
	State *bool    `json:"state"`
	Value *float64 `json:"value"`

	FreqHz *float64 `json:"freq_hz"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Shape  *string  `json:"shape"`

	AttackMs  *float64 `json:"attack_ms"`
	DecayMs   *float64 `json:"decay_ms"`
	Sustain   *float64 `json:"sustain"`
	ReleaseMs *float64 `json:"release_ms"`

	Mode *string `json:"mode"`
}

// Execute parses one NDJSON command line and applies it to sim
func Execute(sim *Sim, line []byte) CommandResult {
	var c command
	if err := json.Unmarshal(line, &c); err != nil {
		return fail(CmdUnknown, fmt.Errorf("json parse error: %w", err))
	}
	if c.Cmd == "" {
		return fail(CmdUnknown, fmt.Errorf("missing 'cmd' field"))
	}

	switch c.Cmd {
	case "button":
		if c.ID == nil {
			return fail(CmdButton, fmt.Errorf("missing 'id' field"))
		}
		if c.State == nil {
			return fail(CmdButton, fmt.Errorf("missing 'state' field"))
		}
		switch *c.ID {
		case "a":
			sim.Board().SetButtonA(*c.State)
		case "b":
			sim.Board().SetButtonB(*c.State)
		default:
			return fail(CmdButton, fmt.Errorf("invalid button id: %s", *c.ID))
		}
		return ok(CmdButton)

	case "cv_manual":
		if c.Value == nil {
			return fail(CmdCVManual, fmt.Errorf("missing 'value' field"))
		}
		sim.CV().SetManual(clampByte(*c.Value))
		return ok(CmdCVManual)

	case "cv_lfo":
		shape := LFOSine
		if c.Shape != nil {
			s, err := ParseShape(*c.Shape)
			if err != nil {
				return fail(CmdCVLFO, err)
			}
			shape = s
		}
		sim.CV().SetLFO(orDefault(c.FreqHz, 1), shape,
			clampByte(orDefault(c.Min, 0)), clampByte(orDefault(c.Max, 255)))
		return ok(CmdCVLFO)

	case "cv_envelope":
		sim.CV().SetEnvelope(
			clampMs(orDefault(c.AttackMs, 10)),
			clampMs(orDefault(c.DecayMs, 100)),
			clampByte(orDefault(c.Sustain, 200)),
			clampMs(orDefault(c.ReleaseMs, 200)))
		return ok(CmdCVEnvelope)

	case "cv_gate":
		if c.State == nil {
			return fail(CmdCVGate, fmt.Errorf("missing 'state' field"))
		}
		if *c.State {
			sim.CV().GateOn()
		} else {
			sim.CV().GateOff()
		}
		return ok(CmdCVGate)

	case "cv_trigger":
		sim.CV().Trigger()
		return ok(CmdCVTrigger)

	case "fault_adc":
		mode := "stuck"
		if c.Mode != nil {
			mode = *c.Mode
		}
		switch mode {
		case "normal":
			sim.Board().SetADCFault(false, 0)
		case "stuck":
			sim.Board().SetADCFault(true, clampByte(orDefault(c.Value, 0)))
		default:
			return fail(CmdFaultADC, fmt.Errorf("invalid adc fault mode: %s", mode))
		}
		return ok(CmdFaultADC)

	case "fault_eeprom":
		mode := "write_fail"
		if c.Mode != nil {
			mode = *c.Mode
		}
		switch mode {
		case "normal":
			sim.EEPROM().SetWriteFault(false)
		case "write_fail":
			sim.EEPROM().SetWriteFault(true)
		default:
			return fail(CmdFaultEEPROM, fmt.Errorf("invalid eeprom fault mode: %s", mode))
		}
		return ok(CmdFaultEEPROM)

	case "reset":
		sim.ResetTime()
		return ok(CmdReset)

	case "quit":
		return CommandResult{Type: CmdQuit, Success: true, Quit: true}
	}

	return fail(CmdUnknown, fmt.Errorf("unknown command: %s", c.Cmd))
}

func ok(t CommandType) CommandResult {
	return CommandResult{Type: t, Success: true}
}

func fail(t CommandType, err error) CommandResult {
	return CommandResult{Type: t, Err: err}
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func clampByte(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, v)))
}

func clampMs(v float64) uint16 {
	return uint16(math.Max(0, math.Min(math.MaxUint16, v)))
}
