package sim

import (
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/librescoot/gatekeeper/modes"
)

// Scenario runs a Lua script as a coroutine. wait(ms) yields back to the
// run loop until the simulated time has passed.
//
// Globals: press(target), release(target), tap(target [, ms]), wait(ms),
// cv(sample), lfo(hz [, shape]), expect(target, value), state(), now(),
// log(msg), quit().
type Scenario struct {
	sim  *Sim
	L    *lua.LState
	co   *lua.LState
	fn   *lua.LFunction
	name string

	wakeAt  uint32
	started bool
	done    bool
	failed  bool
}

// LoadScenario compiles the Lua file at path
func LoadScenario(sim *Sim, path string) (*Scenario, error) {
	s := newScenario(sim, path)
	fn, err := s.L.LoadFile(path)
	if err != nil {
		s.L.Close()
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	s.fn = fn
	return s, nil
}

// NewScenario compiles Lua source held in memory
func NewScenario(sim *Sim, name, src string) (*Scenario, error) {
	s := newScenario(sim, name)
	fn, err := s.L.LoadString(src)
	if err != nil {
		s.L.Close()
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	s.fn = fn
	return s, nil
}

func newScenario(sim *Sim, name string) *Scenario {
	s := &Scenario{
		sim:  sim,
		L:    lua.NewState(),
		name: name,
	}
	s.co, _ = s.L.NewThread()

	for name, fn := range map[string]lua.LGFunction{
		"press":   s.luaPress(true),
		"release": s.luaPress(false),
		"wait":    s.luaWait,
		"cv":      s.luaCV,
		"lfo":     s.luaLFO,
		"expect":  s.luaExpect,
		"state":   s.luaState,
		"now":     s.luaNow,
		"log":     s.luaLog,
		"quit":    s.luaQuit,
	} {
		s.L.SetGlobal(name, s.L.NewFunction(fn))
	}
	if err := s.L.DoString(prelude); err != nil {
		panic(fmt.Sprintf("scenario prelude: %v", err))
	}
	return s
}

const prelude = `
function tap(target, ms)
  press(target)
  wait(ms or 50)
  release(target)
end
`

func (s *Scenario) Update(now uint32) bool {
	if s.done {
		return false
	}
	if s.started && int32(now-s.wakeAt) < 0 {
		return true
	}
	s.started = true

	st, err, values := s.L.Resume(s.co, s.fn)
	switch st {
	case lua.ResumeError:
		s.sim.Logf("Scenario %s: %v", s.name, err)
		s.failed = true
		s.done = true
		return false
	case lua.ResumeOK:
		s.sim.Logf("Scenario: end of scenario")
		s.done = true
		return false
	}

	// Yielded from wait or quit
	if len(values) == 0 {
		s.done = true
		return false
	}
	ms, _ := values[0].(lua.LNumber)
	s.wakeAt = now + uint32(ms)
	return true
}

func (s *Scenario) Realtime() bool {
	return false
}

func (s *Scenario) Failed() bool {
	return s.failed
}

func (s *Scenario) Close() error {
	s.L.Close()
	return nil
}

func (s *Scenario) target(L *lua.LState, n int) Target {
	t, err := ParseTarget(strings.ToLower(L.CheckString(n)))
	if err != nil {
		L.ArgError(n, err.Error())
	}
	return t
}

func (s *Scenario) luaPress(on bool) lua.LGFunction {
	return func(L *lua.LState) int {
		t := s.target(L, 1)
		if err := s.sim.Press(t, on); err != nil {
			L.ArgError(1, err.Error())
		}
		return 0
	}
}

func (s *Scenario) luaWait(L *lua.LState) int {
	ms := L.CheckInt(1)
	if ms < 0 {
		L.ArgError(1, "negative wait")
	}
	return L.Yield(lua.LNumber(ms))
}

func (s *Scenario) luaCV(L *lua.LState) int {
	v := L.CheckInt(1)
	if v < 0 || v > 255 {
		L.ArgError(1, "sample must be 0-255")
	}
	s.sim.CV().SetManual(uint8(v))
	return 0
}

func (s *Scenario) luaLFO(L *lua.LState) int {
	hz := float64(L.CheckNumber(1))
	shape, err := ParseShape(L.OptString(2, "sine"))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	s.sim.CV().SetLFO(hz, shape, 0, 255)
	return 0
}

// expect checks a/b/cv/output against a boolean, or mode/top/page
// against a name
func (s *Scenario) luaExpect(L *lua.LState) int {
	what := strings.ToLower(L.CheckString(1))
	c := s.sim.Coordinator()

	var want, got string
	switch what {
	case "mode":
		want, got = strings.ToUpper(L.CheckString(2)), c.Mode().String()
		if _, err := modes.Parse(want); err != nil {
			L.ArgError(2, err.Error())
		}
	case "top":
		want, got = strings.ToUpper(L.CheckString(2)), c.TopState().String()
	case "page":
		want, got = strings.ToUpper(L.CheckString(2)), c.Page().String()
	default:
		t := s.target(L, 1)
		want, got = levelWord(L.ToBool(2)), levelWord(s.sim.Level(t))
		what = t.String()
	}

	if want != got {
		s.sim.Logf("EXPECT FAILED: %s expected %s, got %s", what, want, got)
		s.failed = true
		L.Push(lua.LFalse)
	} else {
		s.sim.Logf("EXPECT OK: %s is %s", what, got)
		L.Push(lua.LTrue)
	}
	return 1
}

func (s *Scenario) luaState(L *lua.LState) int {
	c := s.sim.Coordinator()
	t := L.NewTable()
	t.RawSetString("top", lua.LString(c.TopState().String()))
	t.RawSetString("mode", lua.LString(c.Mode().String()))
	if c.InMenu() {
		t.RawSetString("page", lua.LString(c.Page().String()))
	}
	t.RawSetString("output", lua.LBool(c.Output()))
	t.RawSetString("cv", lua.LBool(c.CVState()))
	t.RawSetString("time", lua.LNumber(s.sim.Now()))
	L.Push(t)
	return 1
}

func (s *Scenario) luaNow(L *lua.LState) int {
	L.Push(lua.LNumber(s.sim.Now()))
	return 1
}

func (s *Scenario) luaLog(L *lua.LState) int {
	s.sim.Logf("Scenario: %s", L.CheckString(1))
	return 0
}

func (s *Scenario) luaQuit(L *lua.LState) int {
	s.sim.Logf("Scenario: quit")
	return L.Yield()
}
