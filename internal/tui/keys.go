package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Next       key.Binding
	Prev       key.Binding
	Inc        key.Binding
	Dec        key.Binding
	IncMore    key.Binding
	DecMore    key.Binding
	Toggle     key.Binding
	Species    key.Binding
	GridFocus  key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	ClearError key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next control"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev control"),
		),
		Inc: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("←/→", "change"),
		),
		Dec: key.NewBinding(
			key.WithKeys("left", "h"),
		),
		IncMore: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/↓", "±5 bins"),
		),
		DecMore: key.NewBinding(
			key.WithKeys("down", "j"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "toggle"),
		),
		Species: key.NewBinding(
			key.WithKeys("1", "2", "3"),
			key.WithHelp("1-3", "toggle species"),
		),
		GridFocus: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "grid"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup/pgdn", "scroll"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
		),
		ClearError: key.NewBinding(
			key.WithKeys("esc"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Inc, k.IncMore, k.Toggle, k.Species, k.GridFocus, k.PageUp, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
