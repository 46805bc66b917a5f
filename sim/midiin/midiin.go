// Package midiin maps a MIDI controller onto the simulator inputs: two
// notes act as buttons A and B, one control change drives the CV.
//
// A driver must be registered by the program, for example with
//
//	import _ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
package midiin

import (
	"fmt"
	"log/slog"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/librescoot/gatekeeper/sim"
)

// Mapping assigns notes and a controller number
type Mapping struct {
	NoteA uint8
	NoteB uint8
	CVCC  uint8
}

type kind uint8

const (
	kindButtonA kind = iota
	kindButtonB
	kindCV
)

type event struct {
	kind  kind
	on    bool
	value uint8
}

// Input is a sim.Source fed by a MIDI port. Messages arrive on the driver
// goroutine and are applied on the next Update.
type Input struct {
	sim     *sim.Sim
	mapping Mapping
	events  chan event
	port    drivers.In
	stop    func()
	logger  *slog.Logger
}

// New returns an input that is not attached to a port
func New(s *sim.Sim, mapping Mapping, logger *slog.Logger) *Input {
	if logger == nil {
		logger = slog.Default()
	}
	return &Input{
		sim:     s,
		mapping: mapping,
		events:  make(chan event, 64),
		logger:  logger.With("component", "midi"),
	}
}

// Open listens on the first input port whose name contains portName
func Open(s *sim.Sim, portName string, mapping Mapping, logger *slog.Logger) (*Input, error) {
	in := New(s, mapping, logger)

	port, err := findPort(portName)
	if err != nil {
		return nil, err
	}

	stop, err := midi.ListenTo(port, in.handle)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", port, err)
	}
	in.port = port
	in.stop = stop

	in.logger.Info("listening", "port", port.String(),
		"note_a", mapping.NoteA, "note_b", mapping.NoteB, "cv_cc", mapping.CVCC)
	return in, nil
}

// Ports lists the available input port names
func Ports() []string {
	var names []string
	for _, p := range midi.GetInPorts() {
		names = append(names, p.String())
	}
	return names
}

func findPort(name string) (drivers.In, error) {
	ins := midi.GetInPorts()
	if len(ins) == 0 {
		return nil, fmt.Errorf("no midi input ports")
	}
	if name == "" {
		return ins[0], nil
	}
	for _, p := range ins {
		if strings.Contains(strings.ToLower(p.String()), strings.ToLower(name)) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no midi input port matching %q", name)
}

func (in *Input) handle(msg midi.Message, timestampms int32) {
	var channel, key, velocity, cc, value uint8

	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		in.button(key, true)
	case msg.GetNoteEnd(&channel, &key):
		// note off, or note on with velocity 0
		in.button(key, false)
	case msg.GetControlChange(&channel, &cc, &value):
		if cc == in.mapping.CVCC {
			in.push(event{kind: kindCV, value: scale(value)})
		}
	}
}

func (in *Input) button(key uint8, on bool) {
	switch key {
	case in.mapping.NoteA:
		in.push(event{kind: kindButtonA, on: on})
	case in.mapping.NoteB:
		in.push(event{kind: kindButtonB, on: on})
	}
}

func (in *Input) push(ev event) {
	select {
	case in.events <- ev:
	default:
		in.logger.Debug("event dropped")
	}
}

// scale maps 0..127 onto the 8-bit ADC range
func scale(v uint8) uint8 {
	if v > 127 {
		v = 127
	}
	return uint8(uint16(v) * 255 / 127)
}

func (in *Input) Update(now uint32) bool {
	for {
		select {
		case ev := <-in.events:
			switch ev.kind {
			case kindButtonA:
				in.sim.Board().SetButtonA(ev.on)
			case kindButtonB:
				in.sim.Board().SetButtonB(ev.on)
			case kindCV:
				in.sim.CV().SetManual(ev.value)
			}
		default:
			return true
		}
	}
}

func (in *Input) Realtime() bool {
	return true
}

func (in *Input) Failed() bool {
	return false
}

func (in *Input) Close() error {
	if in.stop != nil {
		in.stop()
		in.stop = nil
	}
	return nil
}
