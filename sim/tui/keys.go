package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	TapA   key.Binding
	TapB   key.Binding
	HoldA  key.Binding
	HoldB  key.Binding
	CV     key.Binding
	CVUp   key.Binding
	CVDown key.Binding
	LFO    key.Binding
	Reset  key.Binding
	Legend key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		TapA:   key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "tap A")),
		TapB:   key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "tap B")),
		HoldA:  key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "hold A")),
		HoldB:  key.NewBinding(key.WithKeys("B"), key.WithHelp("B", "hold B")),
		CV:     key.NewBinding(key.WithKeys("c", "C"), key.WithHelp("c", "toggle CV")),
		CVUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "CV up")),
		CVDown: key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "CV down")),
		LFO:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "cycle LFO")),
		Reset:  key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("r", "reset time")),
		Legend: key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "legend")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Quit:   key.NewBinding(key.WithKeys("q", "Q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.TapA, k.TapB, k.CV, k.Legend, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TapA, k.TapB, k.HoldA, k.HoldB},
		{k.CV, k.CVUp, k.CVDown, k.LFO},
		{k.Reset, k.Legend, k.Help, k.Quit},
	}
}
