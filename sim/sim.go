package sim

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/librescoot/gatekeeper/boot"
	"github.com/librescoot/gatekeeper/coordinator"
	"github.com/librescoot/gatekeeper/cvinput"
	"github.com/librescoot/gatekeeper/hal"
	"github.com/librescoot/gatekeeper/hal/simhal"
	"github.com/librescoot/gatekeeper/ledfeedback"
	"github.com/librescoot/gatekeeper/modes"
	"github.com/librescoot/gatekeeper/settings"
)

// cvLogDelta is the sample change that gets an input event (about 0.5 V)
const cvLogDelta = 25

// Target names something a script can drive or check
type Target uint8

const (
	TargetA Target = iota
	TargetB
	TargetCV
	TargetOutput
)

var targetNames = [...]string{"Button A", "Button B", "CV", "Output"}

func (t Target) String() string {
	if int(t) < len(targetNames) {
		return targetNames[t]
	}
	return "Unknown"
}

// ParseTarget accepts a, button_a, b, button_b, cv, cv_in, output and out
func ParseTarget(s string) (Target, error) {
	switch s {
	case "a", "button_a":
		return TargetA, nil
	case "b", "button_b":
		return TargetB, nil
	case "cv", "cv_in":
		return TargetCV, nil
	case "output", "out":
		return TargetOutput, nil
	}
	return 0, fmt.Errorf("invalid target %q", s)
}

// Config configures a Sim
type Config struct {
	Board  *simhal.Board  // nil creates one
	EEPROM *simhal.EEPROM // nil creates an erased in-memory part

	CVHigh, CVLow uint8 // zero keeps the cvinput defaults

	Logger *slog.Logger

	// Log receives script and scenario messages. Nil discards them.
	Log io.Writer
}

// Sim runs the control core against a simulated board, one millisecond
// per Step
type Sim struct {
	board  *simhal.Board
	eeprom *simhal.EEPROM
	store  *settings.EEPROMStore
	cv     *CVSource
	coord  *coordinator.Coordinator
	leds   *ledfeedback.Controller
	state  *State

	settings settings.Settings
	boot     boot.Result

	lastA, lastB bool
	lastCV       uint8
	lastTop      coordinator.TopState
	lastMode     modes.Mode
	lastPage     coordinator.Page
	lastOut      bool

	logger *slog.Logger
	log    io.Writer
}

// New boots the firmware on the board: factory reset check, settings load,
// mode restore, coordinator start
func New(cfg Config) *Sim {
	if cfg.Board == nil {
		cfg.Board = simhal.NewBoard()
	}
	if cfg.EEPROM == nil {
		cfg.EEPROM = simhal.NewMemEEPROM(simhal.DefaultEEPROMSize)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Log == nil {
		cfg.Log = io.Discard
	}

	s := &Sim{
		board:  cfg.Board,
		eeprom: cfg.EEPROM,
		store:  settings.NewEEPROMStore(cfg.EEPROM),
		cv:     NewCVSource(),
		state:  NewState(),
		logger: cfg.Logger.With("component", "sim"),
		log:    cfg.Log,
	}

	s.settings, s.boot = boot.Run(s.board, s.store, boot.WithLogger(cfg.Logger))
	switch s.boot {
	case boot.ResultFactoryReset:
		s.state.AddEvent(EventInfo, s.board.Millis(), "Factory reset performed")
	case boot.ResultDefaults:
		s.state.AddEvent(EventInfo, s.board.Millis(), "Using default settings")
	}

	opts := []coordinator.Option{
		coordinator.WithStore(s.store),
		coordinator.WithLogger(cfg.Logger),
	}
	if cfg.CVHigh != 0 || cfg.CVLow != 0 {
		opts = append(opts, coordinator.WithCVThresholds(cfg.CVHigh, cfg.CVLow))
	}
	s.coord = coordinator.New(&s.settings, s.board, opts...)
	if m := modes.Mode(s.settings.Mode); m < modes.Count {
		s.coord.SetMode(m)
	}
	s.coord.Start()

	s.leds = ledfeedback.New(s.board)
	s.leds.SetMode(s.coord.Mode())

	s.lastMode = s.coord.Mode()
	s.state.AddEvent(EventInfo, s.board.Millis(), "App initialized, mode=%s", s.coord.Mode())
	s.track()

	return s
}

func (s *Sim) Board() *simhal.Board {
	return s.board
}

func (s *Sim) EEPROM() *simhal.EEPROM {
	return s.eeprom
}

func (s *Sim) CV() *CVSource {
	return s.cv
}

func (s *Sim) Coordinator() *coordinator.Coordinator {
	return s.coord
}

func (s *Sim) State() *State {
	return s.state
}

func (s *Sim) BootResult() boot.Result {
	return s.boot
}

// Now returns the simulated time
func (s *Sim) Now() uint32 {
	return s.board.Millis()
}

// Step runs one main loop iteration and advances time by 1 ms
func (s *Sim) Step() {
	now := s.board.Millis()

	s.board.SetCV(s.cv.Tick(1))
	s.trackInputs(now)

	s.coord.Update()
	s.leds.Update(s.coord.LEDFeedback(), now)
	s.board.SetOutput(s.coord.Output())

	s.track()
	s.board.Advance(1)
}

// Run steps for ms milliseconds
func (s *Sim) Run(ms uint32) {
	for i := uint32(0); i < ms; i++ {
		s.Step()
	}
}

// Press drives an input target. CV is switched between 0 V and 5 V.
func (s *Sim) Press(t Target, on bool) error {
	switch t {
	case TargetA:
		s.board.SetButtonA(on)
	case TargetB:
		s.board.SetButtonB(on)
	case TargetCV:
		if on {
			s.cv.SetManual(cvHigh)
		} else {
			s.cv.SetManual(0)
		}
	default:
		return fmt.Errorf("%s is not an input", t)
	}
	return nil
}

// Level reads a target's logical level. CV reports the hysteresis state.
func (s *Sim) Level(t Target) bool {
	switch t {
	case TargetA:
		return s.board.ButtonA()
	case TargetB:
		return s.board.ButtonB()
	case TargetCV:
		return s.coord.CVState()
	case TargetOutput:
		return s.board.Output()
	}
	return false
}

// ResetTime restarts the clock at zero and returns the CV source to 0 V
func (s *Sim) ResetTime() {
	s.board.ResetTime()
	s.cv.Reset()
	s.state.AddEvent(EventInfo, 0, "Time reset")
}

// Logf writes a timestamped line to the script log
func (s *Sim) Logf(format string, args ...any) {
	fmt.Fprintf(s.log, "[%8d ms] %s\n", s.board.Millis(), fmt.Sprintf(format, args...))
}

func (s *Sim) trackInputs(now uint32) {
	a, b, cv := s.board.ButtonA(), s.board.ButtonB(), s.board.ReadCV()

	if a != s.lastA {
		s.state.AddEvent(EventInput, now, "Button A %s", pressedWord(a))
		s.lastA = a
	}
	if b != s.lastB {
		s.state.AddEvent(EventInput, now, "Button B %s", pressedWord(b))
		s.lastB = b
	}
	if int(cv) > int(s.lastCV)+cvLogDelta || int(cv)+cvLogDelta < int(s.lastCV) {
		mv := cvinput.Millivolts(cv)
		s.state.AddEvent(EventInput, now, "CV -> %d.%dV", mv/1000, (mv%1000)/100)
		s.lastCV = cv
	}
}

// track logs coordinator changes and refreshes the snapshot
func (s *Sim) track() {
	now := s.board.Millis()
	top, mode, page := s.coord.TopState(), s.coord.Mode(), s.coord.Page()
	inMenu, out := s.coord.InMenu(), s.coord.Output()

	if top != s.lastTop {
		s.state.AddEvent(EventStateChange, now, "State -> %s", top)
		s.lastTop = top
	}
	if mode != s.lastMode {
		s.state.AddEvent(EventModeChange, now, "Mode -> %s", mode)
		s.lastMode = mode
	}
	if inMenu && page != s.lastPage {
		s.state.AddEvent(EventPageChange, now, "Page -> %s", page)
		s.lastPage = page
	}
	if out != s.lastOut {
		s.state.AddEvent(EventOutput, now, "Output -> %s", levelWord(out))
		s.lastOut = out
	}

	s.state.SetFSM(top, mode, page, inMenu)
	s.state.SetOutput(out)
	s.state.SetInputs(s.board.ButtonA(), s.board.ButtonB(), s.coord.CVState(), s.board.ReadCV())
	for i := 0; i < hal.LEDCount; i++ {
		s.state.SetLED(i, s.board.LED(i))
	}
	s.state.SetTime(now)
}

func pressedWord(on bool) string {
	if on {
		return "pressed"
	}
	return "released"
}

func levelWord(on bool) string {
	if on {
		return "HIGH"
	}
	return "LOW"
}
