package sim

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrScript marks a malformed script line
var ErrScript = errors.New("script error")

// Action is a script verb
type Action uint8

const (
	ActionPress Action = iota
	ActionRelease
	ActionAssert
	ActionLog
	ActionQuit
)

// ScriptEvent is one parsed script line
type ScriptEvent struct {
	TimeMs  uint32 // absolute
	Action  Action
	Target  Target
	Value   bool // expected level for ActionAssert
	Message string
	Line    int
}

// ParseScript reads the line format
//
//	# comment
//	<delay_ms> <action> [target] [value]
//	@<abs_ms>  <action> [target] [value]
//
// Delays accumulate. Actions are press, release, assert, log and quit
// (or exit).
func ParseScript(r io.Reader) ([]ScriptEvent, error) {
	var (
		out     []ScriptEvent
		current uint32
		lineNum int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNum++
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		stamp := fields[0]
		absolute := strings.HasPrefix(stamp, "@")
		stamp = strings.TrimPrefix(stamp, "@")
		if stamp == "" && len(fields) > 1 {
			stamp, fields = fields[1], fields[1:]
		}
		t, err := strconv.ParseUint(stamp, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w line %d: expected timestamp", ErrScript, lineNum)
		}
		if absolute {
			current = uint32(t)
		} else {
			current += uint32(t)
		}

		if len(fields) < 2 {
			return nil, fmt.Errorf("%w line %d: expected action", ErrScript, lineNum)
		}
		ev := ScriptEvent{TimeMs: current, Line: lineNum}
		args := fields[2:]

		switch strings.ToLower(fields[1]) {
		case "press", "release":
			ev.Action = ActionPress
			if strings.EqualFold(fields[1], "release") {
				ev.Action = ActionRelease
			}
			if ev.Target, err = scriptTarget(args, lineNum); err != nil {
				return nil, err
			}
			if ev.Target == TargetOutput {
				return nil, fmt.Errorf("%w line %d: output is not an input", ErrScript, lineNum)
			}
		case "assert":
			ev.Action = ActionAssert
			if ev.Target, err = scriptTarget(args, lineNum); err != nil {
				return nil, err
			}
			if len(args) < 2 {
				return nil, fmt.Errorf("%w line %d: missing value", ErrScript, lineNum)
			}
			v, ok := parseLevel(args[1])
			if !ok {
				return nil, fmt.Errorf("%w line %d: invalid value %q", ErrScript, lineNum, args[1])
			}
			ev.Value = v
		case "log":
			ev.Action = ActionLog
			ev.Message = strings.Join(args, " ")
		case "quit", "exit":
			ev.Action = ActionQuit
		default:
			return nil, fmt.Errorf("%w line %d: unknown action %q", ErrScript, lineNum, fields[1])
		}

		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scriptTarget(args []string, line int) (Target, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w line %d: missing target", ErrScript, line)
	}
	t, err := ParseTarget(strings.ToLower(args[0]))
	if err != nil {
		return 0, fmt.Errorf("%w line %d: %v", ErrScript, line, err)
	}
	return t, nil
}

func parseLevel(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "high", "1", "true":
		return true, true
	case "low", "0", "false":
		return false, true
	}
	return false, false
}

// Script replays parsed events against a Sim. Event times count from the
// first Update, so boot time is not part of the script. It stops after
// the last event.
type Script struct {
	sim     *Sim
	events  []ScriptEvent
	next    int
	failed  bool
	started bool
	base    uint32
}

// NewScript binds events to sim
func NewScript(sim *Sim, events []ScriptEvent) *Script {
	return &Script{sim: sim, events: events}
}

// OpenScript parses the script file at path
func OpenScript(sim *Sim, path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	events, err := ParseScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewScript(sim, events), nil
}

func (s *Script) Update(now uint32) bool {
	if !s.started {
		s.started = true
		s.base = now
	}
	elapsed := now - s.base

	for s.next < len(s.events) {
		ev := s.events[s.next]
		if ev.TimeMs > elapsed {
			return true
		}
		s.next++

		switch ev.Action {
		case ActionPress, ActionRelease:
			on := ev.Action == ActionPress
			_ = s.sim.Press(ev.Target, on)
			if ev.Target == TargetCV {
				if on {
					s.sim.Logf("Script: CV high (5V)")
				} else {
					s.sim.Logf("Script: CV low (0V)")
				}
			} else {
				s.sim.Logf("Script: %s %s", ev.Target, pressedWord(on))
			}

		case ActionAssert:
			actual := s.sim.Level(ev.Target)
			if actual != ev.Value {
				s.sim.Logf("ASSERT FAILED: %s expected %s, got %s",
					ev.Target, levelWord(ev.Value), levelWord(actual))
				s.failed = true
			} else {
				s.sim.Logf("ASSERT OK: %s is %s", ev.Target, levelWord(actual))
			}

		case ActionLog:
			s.sim.Logf("Script: %s", ev.Message)

		case ActionQuit:
			s.sim.Logf("Script: quit")
			return false
		}
	}

	s.sim.Logf("Script: end of script")
	return false
}

func (s *Script) Realtime() bool {
	return false
}

func (s *Script) Failed() bool {
	return s.failed
}

func (s *Script) Close() error {
	return nil
}
