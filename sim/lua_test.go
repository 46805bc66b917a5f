package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScenario(t *testing.T, src string) (bool, string) {
	t.Helper()
	s, log := newSim(t, nil)
	sc, err := NewScenario(s, "test", src)
	require.NoError(t, err)
	defer sc.Close()

	r := &Runner{Sim: s, Source: sc, Logger: discard}
	failed, err := r.Run(context.Background())
	require.NoError(t, err)
	return failed, log.String()
}

func TestScenarioModeAndTrigger(t *testing.T) {
	failed, log := runScenario(t, `
expect("mode", "gate")
press("a")
wait(600)
release("a")
wait(5)
expect("mode", "trigger")

cv(255)
wait(2)
expect("output", true)
local st = state()
if st.top ~= "PERFORM" then error("top is " .. st.top) end
if st.page ~= nil then error("page outside menu") end
log("checked at " .. now())
`)
	assert.False(t, failed, log)
	assert.Contains(t, log, "EXPECT OK: mode is TRIGGER")
	assert.Contains(t, log, "EXPECT OK: Output is HIGH")
	assert.Contains(t, log, "Scenario: checked at")
	assert.Contains(t, log, "Scenario: end of scenario")
}

func TestScenarioTapInMenu(t *testing.T) {
	failed, log := runScenario(t, `
press("a")
wait(600)
press("b")
wait(600)
release("b")
release("a")
wait(5)
expect("top", "menu")
expect("page", "gate_cv")
tap("a")
wait(5)
expect("page", "trigger_behavior")
`)
	assert.False(t, failed, log)
}

func TestScenarioExpectFailure(t *testing.T) {
	failed, log := runScenario(t, `expect("output", true)`)
	assert.True(t, failed)
	assert.Contains(t, log, "EXPECT FAILED: Output expected HIGH, got LOW")
}

func TestScenarioRuntimeError(t *testing.T) {
	failed, log := runScenario(t, `press("pedal")`)
	assert.True(t, failed)
	assert.Contains(t, log, "Scenario test:")
}

func TestScenarioQuit(t *testing.T) {
	failed, log := runScenario(t, `
quit()
error("unreachable")
`)
	assert.False(t, failed)
	assert.Contains(t, log, "Scenario: quit")
}

func TestScenarioLFO(t *testing.T) {
	failed, _ := runScenario(t, `
lfo(4, "square")
wait(10)
expect("cv", true)
`)
	assert.False(t, failed)
}

func TestScenarioSyntaxError(t *testing.T) {
	s, _ := newSim(t, nil)
	_, err := NewScenario(s, "bad", "press(")
	assert.Error(t, err)
}
