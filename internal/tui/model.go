package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/spektr-org/pengdash/engine"
	"github.com/spektr-org/pengdash/internal/config"
	"github.com/spektr-org/pengdash/session"
)

// control is one of the four input widgets, in focus order.
type control int

const (
	controlAttribute control = iota
	controlPlotlyBins
	controlSeabornBins
	controlSpecies
	numControls
)

// Views drawn in the scrollable body, top to bottom.
var bodyViews = []session.ViewID{
	session.ViewPlotlyHistogram,
	session.ViewSeabornHistogram,
	session.ViewScatter,
	session.ViewSummary,
	session.ViewTable,
}

// Model is the bubbletea model of the dashboard. It owns no dashboard state
// of its own: every change goes through the session.
type Model struct {
	sess   *session.Session
	ui     config.UIConfig
	styles Styles
	keys   keyMap
	help   help.Model

	body viewport.Model
	grid table.Model

	focus         control
	speciesCursor int
	gridFocused   bool
	width         int
	height        int
	err           error
}

// New creates the dashboard model for sess.
func New(sess *session.Session, ui config.UIConfig) Model {
	rows := ui.TableRows
	if rows <= 0 {
		rows = 10
	}
	m := Model{
		sess:   sess,
		ui:     ui,
		styles: DefaultStyles(),
		keys:   defaultKeyMap(),
		help:   help.New(),
		body:   viewport.New(80, 20),
		grid: table.New(
			table.WithFocused(false),
			table.WithHeight(rows),
		),
		width: 80,
	}
	m.refresh()
	return m
}

// Run starts the full-screen program and blocks until the user quits.
func Run(sess *session.Session, ui config.UIConfig) error {
	p := tea.NewProgram(New(sess, ui), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.MouseMsg:
		m.body, cmd = m.body.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.GridFocus):
			m.gridFocused = !m.gridFocused
			if m.gridFocused {
				m.grid.Focus()
			} else {
				m.grid.Blur()
			}
			return m, nil
		case key.Matches(msg, m.keys.ClearError):
			m.err = nil
			return m, nil
		case key.Matches(msg, m.keys.PageUp, m.keys.PageDown):
			m.body, cmd = m.body.Update(msg)
			return m, cmd
		}

		if m.gridFocused {
			if key.Matches(msg, m.keys.Toggle) {
				m.toggleRow(m.grid.Cursor())
				return m, nil
			}
			m.grid, cmd = m.grid.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Next):
			m.focus = (m.focus + 1) % numControls
		case key.Matches(msg, m.keys.Prev):
			m.focus = (m.focus + numControls - 1) % numControls
		case key.Matches(msg, m.keys.Inc):
			m.adjust(1)
		case key.Matches(msg, m.keys.Dec):
			m.adjust(-1)
		case key.Matches(msg, m.keys.IncMore):
			m.adjust(5)
		case key.Matches(msg, m.keys.DecMore):
			m.adjust(-5)
		case key.Matches(msg, m.keys.Toggle):
			if m.focus == controlSpecies {
				m.toggleSpecies(engine.AllSpecies[m.speciesCursor])
			}
		case key.Matches(msg, m.keys.Species):
			i := int(msg.String()[0] - '1')
			m.toggleSpecies(engine.AllSpecies[i])
		}
	}
	return m, nil
}

// adjust moves the focused control by delta steps.
func (m *Model) adjust(delta int) {
	in := m.sess.Inputs()
	switch m.focus {
	case controlAttribute:
		n := len(engine.AllAttributes)
		idx := 0
		for i, a := range engine.AllAttributes {
			if a == in.SelectedAttribute() {
				idx = i
			}
		}
		m.dispatch(session.SetAttribute(engine.AllAttributes[(idx+sign(delta)+n)%n]))
	case controlPlotlyBins:
		m.dispatch(session.SetPlotlyBins(in.PlotlyBinCount() + delta))
	case controlSeabornBins:
		m.dispatch(session.SetSeabornBins(in.SeabornBinCount() + delta))
	case controlSpecies:
		n := len(engine.AllSpecies)
		m.speciesCursor = (m.speciesCursor + sign(delta) + n) % n
	}
}

func (m *Model) toggleSpecies(sp engine.Species) {
	m.dispatch(session.SetSpeciesSet(m.sess.Inputs().SelectedSpecies().Toggle(sp)))
}

func (m *Model) dispatch(ev session.Event) {
	_, m.err = m.sess.Dispatch(ev)
	m.refresh()
}

// toggleRow flips the selection of one grid row.
func (m *Model) toggleRow(row int) {
	sel := m.sess.Selection()
	next := make([]int, 0, len(sel)+1)
	found := false
	for _, i := range sel {
		if i == row {
			found = true
			continue
		}
		next = append(next, i)
	}
	if !found {
		next = append(next, row)
	}
	_, m.err = m.sess.SelectRows(next)
	m.refresh()
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	m.help.Width = w

	// header, controls, status, grid title, grid (+ header row), footer
	fixed := 6 + m.grid.Height() + 1
	bodyH := h - fixed
	if bodyH < 5 {
		bodyH = 5
	}
	m.body.Width = w
	m.body.Height = bodyH
	m.grid.SetWidth(w)
	m.refresh()
}

// refresh redraws the body and the grid from the session outputs.
func (m *Model) refresh() {
	width := m.width - 2
	if width < 40 {
		width = 40
	}
	m.body.SetContent(RenderSession(m.sess, bodyViews, width, m.ui.ChartRows, m.styles))

	res, err := m.sess.Output(session.ViewGrid)
	if err != nil || res.TableData == nil {
		m.grid.SetRows(nil)
		return
	}
	td := res.TableData
	m.grid.SetColumns(gridColumns(td))
	m.grid.SetRows(gridRows(td))
	if c := m.grid.Cursor(); c >= len(td.Rows) {
		m.grid.SetCursor(max(len(td.Rows)-1, 0))
	}
}

func gridColumns(td *engine.TableData) []table.Column {
	cols := make([]table.Column, 0, len(td.Columns)+1)
	cols = append(cols, table.Column{Title: "✓", Width: 1})
	for i, c := range td.Columns {
		w := lipgloss.Width(c.Label)
		for _, row := range td.Rows {
			if i < len(row) {
				w = max(w, lipgloss.Width(row[i]))
			}
		}
		cols = append(cols, table.Column{Title: c.Label, Width: w})
	}
	return cols
}

func gridRows(td *engine.TableData) []table.Row {
	selected := make(map[int]bool, len(td.Selected))
	for _, i := range td.Selected {
		selected[i] = true
	}
	rows := make([]table.Row, len(td.Rows))
	for i, r := range td.Rows {
		mark := " "
		if selected[i] {
			mark = "✓"
		}
		rows[i] = append(table.Row{mark}, r...)
	}
	return rows
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render(m.ui.Title))
	if m.ui.Link != "" {
		sb.WriteString("  " + m.styles.Link.Render(m.ui.Link))
	}
	sb.WriteString("\n")
	sb.WriteString(m.controlsView())
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(m.styles.Error.Render(m.err.Error()))
	}
	sb.WriteString("\n")

	sb.WriteString(m.body.View())
	sb.WriteString("\n")

	gridTitle := "Palmer Penguins Data Grid"
	if n := len(m.sess.Selection()); n > 0 {
		gridTitle += fmt.Sprintf(" (%d selected)", n)
	}
	if m.gridFocused {
		sb.WriteString(m.styles.Focused.Render(gridTitle))
	} else {
		sb.WriteString(m.styles.Title.Render(gridTitle))
	}
	sb.WriteString("\n")
	if len(m.grid.Rows()) == 0 {
		sb.WriteString(m.styles.Muted.Render(engine.DefaultEmptyMessage))
	} else {
		sb.WriteString(m.grid.View())
	}
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// controlsView renders the four inputs on one line.
func (m Model) controlsView() string {
	in := m.sess.Inputs()
	items := []string{
		fmt.Sprintf("Attribute: %s", in.SelectedAttribute()),
		fmt.Sprintf("Plotly bins: %d", in.PlotlyBinCount()),
		fmt.Sprintf("Seaborn bins: %d", in.SeabornBinCount()),
		"Species: " + m.speciesView(in.SelectedSpecies()),
	}
	parts := make([]string, len(items))
	for i, item := range items {
		style := m.styles.Control
		if control(i) == m.focus && !m.gridFocused {
			style = m.styles.Focused
		}
		parts[i] = style.Render(item)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) speciesView(set engine.SpeciesSet) string {
	parts := make([]string, len(engine.AllSpecies))
	for i, sp := range engine.AllSpecies {
		box := "[ ]"
		if set.Has(sp) {
			box = "[x]"
		}
		label := box + " " + string(sp)
		if m.focus == controlSpecies && i == m.speciesCursor {
			label = ">" + label
		}
		parts[i] = label
	}
	return strings.Join(parts, " ")
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}
