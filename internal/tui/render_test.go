package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/pengdash/engine"
	"github.com/spektr-org/pengdash/session"
)

func TestRenderResult_NotRendered(t *testing.T) {
	assert.Equal(t, "(not rendered)", RenderResult(nil, 80, 0, PlainStyles()))
}

func TestRenderResult_Empty(t *testing.T) {
	out := RenderResult(&engine.Result{Title: "Palmer Penguins", Empty: true, Message: "nothing here"}, 80, 0, PlainStyles())
	assert.Equal(t, "Palmer Penguins\nnothing here", out)
}

func TestRenderResult_Histogram(t *testing.T) {
	s := testSession(t)
	_, err := s.Dispatch(session.SetSpeciesSet(engine.FullSpeciesSet()), session.SetPlotlyBins(2))
	require.NoError(t, err)
	res, err := s.Output(session.ViewPlotlyHistogram)
	require.NoError(t, err)

	out := RenderResult(res, 80, 0, PlainStyles())
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "Penguin Bill Length", lines[0])
	assert.Equal(t, "Count by Bill Length (mm)", lines[1])
	assert.Contains(t, out, "#")
	assert.Contains(t, out, "legend: # Adelie  = Gentoo  + Chinstrap")
}

func TestRenderResult_Scatter(t *testing.T) {
	s := testSession(t)
	_, err := s.Dispatch(session.SetSpeciesSet(engine.FullSpeciesSet()))
	require.NoError(t, err)
	res, err := s.Output(session.ViewScatter)
	require.NoError(t, err)

	out := RenderResult(res, 60, 0, PlainStyles())
	assert.Contains(t, out, "Body Mass (g) vs Flipper Length (mm)")
	assert.Contains(t, out, "4400")
	assert.Contains(t, out, "3500")
	assert.Contains(t, out, "legend: o Adelie  x Gentoo  + Chinstrap")
}

// plotRows counts the scatterplot rows that carry no axis label.
func plotRows(out string) int {
	n := 0
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, strings.Repeat(" ", 9)+"│") {
			n++
		}
	}
	return n
}

func TestRenderResult_ScatterHeight(t *testing.T) {
	s := testSession(t)
	res, err := s.Output(session.ViewScatter)
	require.NoError(t, err)

	tests := []struct {
		name   string
		height int
		want   int
	}{
		{"configured", 5, 3},
		{"default", 0, DefaultChartRows - 2},
		{"minimum", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, plotRows(RenderResult(res, 60, tt.height, PlainStyles())))
		})
	}
}

func TestRenderResult_Table(t *testing.T) {
	td := &engine.TableData{
		Columns: []engine.Column{
			{Key: "species", Label: "Species", Align: "left"},
			{Key: "body_mass_g", Label: "Body Mass (g)", Align: "right"},
		},
		Rows:       [][]string{{"Adelie", "3,750"}, {"Gentoo", "4,400"}},
		Selectable: true,
		Selected:   []int{1},
	}
	out := RenderResult(&engine.Result{TableData: td}, 80, 0, PlainStyles())
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "  Species | Body Mass (g)", lines[0])
	assert.Equal(t, "  Adelie  |         3,750", lines[2])
	assert.Equal(t, "* Gentoo  |         4,400", lines[3])
}

func TestRenderResult_Summary(t *testing.T) {
	data, err := engine.BuildSummary(engine.SummaryInput{
		Attribute:       engine.BodyMass,
		PlotlyBinCount:  20,
		SeabornBinCount: 10,
		Species:         engine.NewSpeciesSet(engine.Adelie, engine.Gentoo),
	})
	require.NoError(t, err)

	out := RenderResult(&engine.Result{Title: "Summary", Summary: data}, 80, 0, PlainStyles())
	assert.Equal(t, strings.Join([]string{
		"Summary",
		"Selected Configuration:",
		"Selected attribute: body_mass_g",
		"Plotly bin count: 20",
		"Seaborn bin count: 10",
		"Species: Adelie, Gentoo",
	}, "\n"), out)
}

func TestScale(t *testing.T) {
	assert.Equal(t, 0, scale(0, 10, 50))
	assert.Equal(t, 1, scale(0.01, 10, 50))
	assert.Equal(t, 50, scale(10, 10, 50))
	assert.Equal(t, 25, scale(5, 10, 50))
}

func TestCellIndex(t *testing.T) {
	assert.Equal(t, 5, cellIndex(3, 3, 3, 10), "degenerate range centers")
	assert.Equal(t, 0, cellIndex(1, 1, 2, 10))
	assert.Equal(t, 9, cellIndex(2, 1, 2, 10))
}
