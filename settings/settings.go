// Package settings holds the persisted device configuration, its option
// tables and the EEPROM image format.
package settings

import (
	"errors"
	"fmt"
)

var (
	ErrBadMagic       = errors.New("settings: bad magic")
	ErrSchemaMismatch = errors.New("settings: schema version mismatch")
	ErrChecksum       = errors.New("settings: checksum mismatch")
	ErrOutOfRange     = errors.New("settings: value out of range")
)

// Settings is the 8-byte persisted record. Field order is the storage order.
type Settings struct {
	Mode             uint8
	TriggerPulseIdx  uint8
	TriggerEdge      uint8
	DivideDivisorIdx uint8
	CycleTempoIdx    uint8
	ToggleEdge       uint8
	GateAMode        uint8
	Reserved         uint8
}

// Size is the encoded length of Settings
const Size = 8

// Field identifies one byte of Settings
type Field uint8

const (
	FieldMode Field = iota
	FieldTriggerPulse
	FieldTriggerEdge
	FieldDivideDivisor
	FieldCycleTempo
	FieldToggleEdge
	FieldGateAMode
	FieldReserved
	fieldCount
)

var fieldNames = [fieldCount]string{
	"mode", "trigger_pulse_idx", "trigger_edge", "divide_divisor_idx",
	"cycle_tempo_idx", "toggle_edge", "gate_a_mode", "reserved",
}

func (f Field) String() string {
	if f < fieldCount {
		return fieldNames[f]
	}
	return fmt.Sprintf("field(%d)", uint8(f))
}

const ModeCount = 5

// Trigger edges
const (
	EdgeRising uint8 = iota
	EdgeFalling
	EdgeBoth
)

// Gate A button modes
const (
	GateAOff uint8 = iota
	GateAManual
)

var (
	TriggerPulseValues  = [...]uint16{10, 50, 100, 1}
	DivideDivisorValues = [...]uint8{2, 4, 8, 24}
	CyclePeriodValues   = [...]uint16{1000, 750, 600, 500, 375}
	CycleBPMValues      = [...]uint8{60, 80, 100, 120, 160}
)

const (
	TriggerEdgeCount = 3
	ToggleEdgeCount  = 2
	GateAModeCount   = 2
)

// limits holds the number of valid values per field; 0 disables the check
var limits = [fieldCount]uint8{
	ModeCount,
	uint8(len(TriggerPulseValues)),
	TriggerEdgeCount,
	uint8(len(DivideDivisorValues)),
	uint8(len(CyclePeriodValues)),
	ToggleEdgeCount,
	GateAModeCount,
	0,
}

// Limit returns the number of valid values for f, or 0 when unchecked
func Limit(f Field) uint8 {
	if f < fieldCount {
		return limits[f]
	}
	return 0
}

// Defaults returns the factory configuration
func Defaults() Settings {
	return Settings{}
}

// Ptr returns the address of the byte backing f, or nil for an unknown field
func (s *Settings) Ptr(f Field) *uint8 {
	if s == nil {
		return nil
	}
	switch f {
	case FieldMode:
		return &s.Mode
	case FieldTriggerPulse:
		return &s.TriggerPulseIdx
	case FieldTriggerEdge:
		return &s.TriggerEdge
	case FieldDivideDivisor:
		return &s.DivideDivisorIdx
	case FieldCycleTempo:
		return &s.CycleTempoIdx
	case FieldToggleEdge:
		return &s.ToggleEdge
	case FieldGateAMode:
		return &s.GateAMode
	case FieldReserved:
		return &s.Reserved
	}
	return nil
}

// Cycle advances f to its next value, wrapping at the field's limit.
// It returns the new value. Unchecked fields are left alone.
func (s *Settings) Cycle(f Field) uint8 {
	p := s.Ptr(f)
	if p == nil {
		return 0
	}
	if n := Limit(f); n > 0 {
		*p = (*p + 1) % n
	}
	return *p
}

// Validate reports the first field outside its range
func (s *Settings) Validate() error {
	for f := FieldMode; f < fieldCount; f++ {
		if n := limits[f]; n > 0 && *s.Ptr(f) >= n {
			return fmt.Errorf("%w: %s=%d (limit %d)", ErrOutOfRange, f, *s.Ptr(f), n)
		}
	}
	return nil
}

// TriggerPulseMs returns the configured trigger pulse length
func (s *Settings) TriggerPulseMs() uint16 {
	return TriggerPulseValues[int(s.TriggerPulseIdx)%len(TriggerPulseValues)]
}

// DivideDivisor returns the configured clock division ratio
func (s *Settings) DivideDivisor() uint8 {
	return DivideDivisorValues[int(s.DivideDivisorIdx)%len(DivideDivisorValues)]
}

// CyclePeriodMs returns the configured full cycle period
func (s *Settings) CyclePeriodMs() uint16 {
	return CyclePeriodValues[int(s.CycleTempoIdx)%len(CyclePeriodValues)]
}

// CycleBPM returns the configured cycle tempo for display
func (s *Settings) CycleBPM() uint8 {
	return CycleBPMValues[int(s.CycleTempoIdx)%len(CycleBPMValues)]
}
