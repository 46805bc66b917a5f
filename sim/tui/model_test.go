package tui

import (
	"log/slog"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librescoot/gatekeeper/modes"
	"github.com/librescoot/gatekeeper/sim"
)

var discard = slog.New(slog.DiscardHandler)

func newModel(t *testing.T) (Model, *sim.Sim) {
	t.Helper()
	s := sim.New(sim.Config{Logger: discard})
	return New(s, Options{Logger: discard}), s
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	require.True(t, ok)
	return mm, cmd
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func ticks(t *testing.T, m Model, n int) Model {
	for i := 0; i < n; i++ {
		m, _ = send(t, m, tickMsg{})
	}
	return m
}

func TestTapAutoReleases(t *testing.T) {
	m, s := newModel(t)

	m, _ = send(t, m, keyMsg("a"))
	assert.True(t, s.Board().ButtonA())

	start := s.Now()
	m = ticks(t, m, DefaultTapReleaseMs/StepsPerTick+1)
	assert.False(t, s.Board().ButtonA())
	assert.GreaterOrEqual(t, s.Now()-start, uint32(DefaultTapReleaseMs))
	_ = m
}

func TestHoldThenTapReleases(t *testing.T) {
	m, s := newModel(t)

	m, _ = send(t, m, keyMsg("A"))
	m = ticks(t, m, 60)
	assert.True(t, s.Board().ButtonA(), "hold has no auto release")

	m, _ = send(t, m, keyMsg("a"))
	assert.False(t, s.Board().ButtonA())

	m = ticks(t, m, 1)
	assert.Equal(t, modes.Trigger, s.Coordinator().Mode())
}

func TestCVKeys(t *testing.T) {
	m, s := newModel(t)

	m, _ = send(t, m, keyMsg("c"))
	assert.Equal(t, uint8(255), s.CV().Value())
	m, _ = send(t, m, keyMsg("-"))
	assert.Equal(t, uint8(245), s.CV().Value())
	m, _ = send(t, m, keyMsg("c"))
	assert.Equal(t, uint8(0), s.CV().Value())
	m, _ = send(t, m, keyMsg("+"))
	assert.Equal(t, uint8(10), s.CV().Value())

	m, _ = send(t, m, keyMsg("l"))
	assert.Equal(t, sim.CVLFO, s.CV().Mode())
	for range len(lfoPresets) - 1 {
		m, _ = send(t, m, keyMsg("l"))
	}
	assert.Equal(t, sim.CVManual, s.CV().Mode())
}

func TestResetAndLegend(t *testing.T) {
	m, s := newModel(t)
	m = ticks(t, m, 5)

	m, _ = send(t, m, keyMsg("r"))
	assert.Equal(t, uint32(0), s.Now())

	m, _ = send(t, m, keyMsg("L"))
	assert.True(t, s.State().LegendVisible)
	assert.Contains(t, m.View(), "Mode LED")
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t)
	m, cmd := send(t, m, keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestView(t *testing.T) {
	m, _ := newModel(t)
	m = ticks(t, m, 1)

	v := m.View()
	assert.Contains(t, v, "Gatekeeper Simulator")
	assert.Contains(t, v, "PERFORM")
	assert.Contains(t, v, "GATE")
	assert.Contains(t, v, "App initialized")
}

type countingSource struct {
	sim.Idle
	updates int
	stopAt  int
}

func (c *countingSource) Update(uint32) bool {
	c.updates++
	return c.updates < c.stopAt
}

func TestSourceUpdatedEachStep(t *testing.T) {
	s := sim.New(sim.Config{Logger: discard})
	src := &countingSource{stopAt: 1000}
	m := New(s, Options{Logger: discard, Source: src})

	ticks(t, m, 3)
	assert.Equal(t, 3*StepsPerTick, src.updates)
}

func TestSourceStopQuits(t *testing.T) {
	s := sim.New(sim.Config{Logger: discard})
	src := &countingSource{stopAt: 5}
	m := New(s, Options{Logger: discard, Source: src})

	m, cmd := send(t, m, tickMsg{})
	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
