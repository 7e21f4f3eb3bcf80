// Package tui is the terminal front end of the dashboard: a bubbletea program
// that turns key presses into session events and draws the latest outputs.
package tui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	Primary = lipgloss.Color("#101F38")
	Accent  = lipgloss.Color("#8BC34A")
	Muted   = lipgloss.Color("#8A93A3")
	Border  = lipgloss.Color("#3A4A63")
	Danger  = lipgloss.Color("#E53935")
)

// Styles holds the styled components of the dashboard.
type Styles struct {
	Header   lipgloss.Style
	Link     lipgloss.Style
	Title    lipgloss.Style
	Panel    lipgloss.Style
	Control  lipgloss.Style
	Focused  lipgloss.Style
	Label    lipgloss.Style
	Body     lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Selected lipgloss.Style

	// Plain disables per-series colors (used for non-terminal output).
	Plain bool
}

// DefaultStyles returns the colored terminal styles.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Background(Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Link: lipgloss.NewStyle().
			Foreground(Accent).
			Underline(true),

		Title: lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1),

		Control: lipgloss.NewStyle().
			Padding(0, 1),

		Focused: lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(Accent).
			Bold(true).
			Underline(true),

		Label: lipgloss.NewStyle().
			Foreground(Muted),

		Body: lipgloss.NewStyle(),

		Bold: lipgloss.NewStyle().Bold(true),

		Muted: lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true),

		Error: lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true),

		Selected: lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true),
	}
}

// PlainStyles renders without colors or borders.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header:   plain,
		Link:     plain,
		Title:    plain,
		Panel:    plain,
		Control:  plain.Padding(0, 1),
		Focused:  plain.Padding(0, 1),
		Label:    plain,
		Body:     plain,
		Bold:     plain,
		Muted:    plain,
		Error:    plain,
		Selected: plain,
		Plain:    true,
	}
}

// series returns the style of one chart series.
func (s Styles) series(color string) lipgloss.Style {
	if s.Plain || color == "" {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
