// Package tui is the interactive terminal front end of the simulator
package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/librescoot/gatekeeper/cvinput"
	"github.com/librescoot/gatekeeper/hal"
	"github.com/librescoot/gatekeeper/modes"
	"github.com/librescoot/gatekeeper/sim"
)

const (
	// TickInterval is the wall time between UI ticks
	TickInterval = 10 * time.Millisecond

	// StepsPerTick keeps simulated time at wall speed
	StepsPerTick = 10

	DefaultTapReleaseMs = 200

	cvStep   = 10
	cvBarLen = 20
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888"))
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fff"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	timeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#0aa"))
	highStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0"))
	barOn      = lipgloss.NewStyle().Background(lipgloss.Color("#0aa"))
	barOff     = lipgloss.NewStyle().Background(lipgloss.Color("#333"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type lfoPreset struct {
	name  string
	hz    float64
	shape sim.LFOShape
}

var lfoPresets = []lfoPreset{
	{name: "off"},
	{"1Hz sine", 1, sim.LFOSine},
	{"2Hz tri", 2, sim.LFOTri},
	{"4Hz square", 4, sim.LFOSquare},
}

// Options configures the model
type Options struct {
	TapReleaseMs uint32
	Server       *sim.Server // optional command socket
	Source       sim.Source  // optional extra input, such as MIDI
	Logger       *slog.Logger
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea model. It owns the Sim: every tick advances it by
// StepsPerTick milliseconds inside the update loop.
type Model struct {
	sim    *sim.Sim
	opts   Options
	keys   keyMap
	help   help.Model
	logger *slog.Logger

	releaseA uint32 // 0 = no pending auto release
	releaseB uint32
	lfo      int

	quitting bool
}

// New returns a model driving s
func New(s *sim.Sim, opts Options) Model {
	if opts.TapReleaseMs == 0 {
		opts.TapReleaseMs = DefaultTapReleaseMs
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return Model{
		sim:    s,
		opts:   opts,
		keys:   newKeyMap(),
		help:   help.New(),
		logger: opts.Logger.With("component", "tui"),
	}
}

// Run starts the program on the alternate screen and blocks until quit
func Run(s *sim.Sim, opts Options) error {
	_, err := tea.NewProgram(New(s, opts), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tickMsg:
		for i := 0; i < StepsPerTick; i++ {
			m.autoRelease()
			if m.opts.Source != nil && !m.opts.Source.Update(m.sim.Now()) {
				m.quitting = true
				return m, tea.Quit
			}
			m.sim.Step()
		}
		if m.drainCommands() {
			m.quitting = true
			return m, tea.Quit
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	board := m.sim.Board()
	now := m.sim.Now()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.TapA):
		m.releaseA = m.tap(board.ButtonA(), board.SetButtonA, now)

	case key.Matches(msg, m.keys.TapB):
		m.releaseB = m.tap(board.ButtonB(), board.SetButtonB, now)

	case key.Matches(msg, m.keys.HoldA):
		board.SetButtonA(true)
		m.releaseA = 0

	case key.Matches(msg, m.keys.HoldB):
		board.SetButtonB(true)
		m.releaseB = 0

	case key.Matches(msg, m.keys.CV):
		cv := m.sim.CV()
		if cv.Value() < 128 {
			cv.SetManual(255)
		} else {
			cv.SetManual(0)
		}

	case key.Matches(msg, m.keys.CVUp):
		m.sim.CV().Adjust(cvStep)

	case key.Matches(msg, m.keys.CVDown):
		m.sim.CV().Adjust(-cvStep)

	case key.Matches(msg, m.keys.LFO):
		m.lfo = (m.lfo + 1) % len(lfoPresets)
		p := lfoPresets[m.lfo]
		if p.hz == 0 {
			m.sim.CV().SetManual(0)
		} else {
			m.sim.CV().SetLFO(p.hz, p.shape, 0, 255)
		}

	case key.Matches(msg, m.keys.Reset):
		m.sim.ResetTime()
		m.releaseA, m.releaseB = 0, 0

	case key.Matches(msg, m.keys.Legend):
		m.sim.State().ToggleLegend()

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// tap presses with an auto release, or releases a held button. It returns
// the new release deadline.
func (m Model) tap(pressed bool, set func(bool), now uint32) uint32 {
	if pressed {
		set(false)
		return 0
	}
	set(true)
	deadline := now + m.opts.TapReleaseMs
	if deadline == 0 {
		deadline = 1
	}
	return deadline
}

func (m *Model) autoRelease() {
	now := m.sim.Now()
	board := m.sim.Board()
	if m.releaseA != 0 && int32(now-m.releaseA) >= 0 {
		board.SetButtonA(false)
		m.releaseA = 0
	}
	if m.releaseB != 0 && int32(now-m.releaseB) >= 0 {
		board.SetButtonB(false)
		m.releaseB = 0
	}
}

func (m Model) drainCommands() bool {
	if m.opts.Server == nil {
		return false
	}
	for {
		select {
		case line := <-m.opts.Server.Commands():
			res := sim.Execute(m.sim, line)
			if res.Quit {
				return true
			}
			if !res.Success {
				m.logger.Warn("socket command failed", "cmd", res.Type, "error", res.Err)
			}
		default:
			return false
		}
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	st := m.sim.State()
	var b strings.Builder

	fmt.Fprintf(&b, "%s   %s\n\n",
		titleStyle.Render("=== Gatekeeper Simulator ==="),
		labelStyle.Render(fmt.Sprintf("Time: %d ms", m.sim.Now())))

	b.WriteString("  " + labelStyle.Render("LEDs: "))
	for _, c := range st.LEDs {
		b.WriteString(swatch(c) + " ")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("(%s / %s)", sim.LEDNames[0], sim.LEDNames[1])) + "\n\n")

	page := "-"
	if p, ok := st.PageName(); ok {
		page = p
	}
	fmt.Fprintf(&b, "  %s %-10s %s %-10s %s %s\n\n",
		labelStyle.Render("State:"), valueStyle.Render(st.Top.String()),
		labelStyle.Render("Mode:"), valueStyle.Render(st.Mode.String()),
		labelStyle.Render("Page:"), valueStyle.Render(page))

	fmt.Fprintf(&b, "  %s %s\n\n", labelStyle.Render("Output:"), level(st.Output))

	fmt.Fprintf(&b, "  %s %s    %s %s\n",
		labelStyle.Render("Button A:"), pressed(st.ButtonA),
		labelStyle.Render("Button B:"), pressed(st.ButtonB))

	mv := cvinput.Millivolts(st.CVVoltage)
	fmt.Fprintf(&b, "  %s %s  %d.%dV %s  %s\n\n",
		labelStyle.Render("CV Input:"), level(st.CVIn),
		mv/1000, (mv%1000)/100, cvBar(st.CVVoltage),
		dimStyle.Render("lfo: "+lfoPresets[m.lfo].name))

	b.WriteString(m.help.View(m.keys) + "\n\n")

	if st.LegendVisible {
		b.WriteString(legend() + "\n\n")
	}

	b.WriteString(titleStyle.Render("Event Log:") + "\n")
	evs := st.Events()
	if len(evs) == 0 {
		b.WriteString("  " + dimStyle.Render("(no events yet)") + "\n")
	}
	for i := len(evs) - 1; i >= 0; i-- {
		ev := evs[i]
		fmt.Fprintf(&b, "  %s  %s\n", timeStyle.Render(fmt.Sprintf("%8d ms", ev.TimeMs)), ev.Message)
	}

	return b.String()
}

func swatch(c hal.Color) string {
	if c == hal.Off {
		return barOff.Render("   ")
	}
	hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("   ")
}

func cvBar(sample uint8) string {
	filled := int(sample) * cvBarLen / 255
	return "[" + barOn.Render(strings.Repeat(" ", filled)) +
		barOff.Render(strings.Repeat(" ", cvBarLen-filled)) + "]"
}

func level(on bool) string {
	if on {
		return highStyle.Render("HIGH")
	}
	return dimStyle.Render("LOW ")
}

func pressed(on bool) string {
	if on {
		return highStyle.Render("[PRESSED]")
	}
	return dimStyle.Render("[       ]")
}

func legend() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Mode LED") + "\n")
	for m := modes.Mode(0); m < modes.Count; m++ {
		fmt.Fprintf(&b, "%s %s\n", swatch(m.Color()), m)
	}
	b.WriteString(titleStyle.Render("Activity LED") + "\n")
	fmt.Fprintf(&b, "%s output active\n", swatch(modes.ActivityColor))
	fmt.Fprintf(&b, "%s output inactive", swatch(hal.Off))
	return boxStyle.Render(b.String())
}
