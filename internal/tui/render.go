package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spektr-org/pengdash/engine"
	"github.com/spektr-org/pengdash/session"
)

// Glyphs that tell series apart when colors are off.
var (
	plainBars   = []string{"#", "=", "+", "*"}
	plainPoints = []string{"o", "x", "+", "*"}
)

// RenderResult draws one view output as text, width columns wide. height is
// the number of plot rows of a scatterplot; zero or less means DefaultChartRows.
func RenderResult(res *engine.Result, width, height int, st Styles) string {
	if res == nil {
		return st.Muted.Render("(not rendered)")
	}

	var sb strings.Builder
	if res.Title != "" {
		sb.WriteString(st.Title.Render(res.Title))
		sb.WriteString("\n")
	}
	if res.Empty {
		sb.WriteString(st.Muted.Render(res.Message))
		return sb.String()
	}

	switch {
	case res.ChartConfig != nil && res.ChartConfig.ChartType == "histogram":
		sb.WriteString(renderHistogram(res.ChartConfig, width, st))
	case res.ChartConfig != nil && res.ChartConfig.ChartType == "scatter":
		sb.WriteString(renderScatter(res.ChartConfig, width, chartRows(height), st))
	case res.TableData != nil:
		sb.WriteString(renderTable(res.TableData, 0, st))
	case res.Summary != nil:
		sb.WriteString(renderSummary(res.Summary, st))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// DefaultChartRows is the scatterplot height used when none is configured.
const DefaultChartRows = 14

func chartRows(height int) int {
	if height <= 0 {
		return DefaultChartRows
	}
	return height
}

// ============================================================================
// HISTOGRAM
// ============================================================================

// renderHistogram draws one horizontal bar per bin, stacking series.
func renderHistogram(c *engine.ChartConfig, width int, st Styles) string {
	if len(c.Bins) == 0 || len(c.Series) == 0 {
		return st.Muted.Render("(no bars)")
	}

	labelW := 0
	for _, p := range c.Series[0].Data {
		if w := lipgloss.Width(p.Label); w > labelW {
			labelW = w
		}
	}

	totals := make([]float64, len(c.Bins))
	maxTotal := 0.0
	for b := range c.Bins {
		for _, s := range c.Series {
			if b < len(s.Data) {
				totals[b] += s.Data[b].Value
			}
		}
		maxTotal = math.Max(maxTotal, totals[b])
	}

	barW := width - labelW - 10
	if barW < 10 {
		barW = 10
	}

	var sb strings.Builder
	sb.WriteString(st.Label.Render(fmt.Sprintf("%s by %s", c.YAxis, c.XAxis)))
	sb.WriteString("\n")
	for b := range c.Bins {
		label := c.Series[0].Data[b].Label
		sb.WriteString(label + strings.Repeat(" ", labelW-lipgloss.Width(label)))
		sb.WriteString(" │")
		for i, s := range c.Series {
			if b >= len(s.Data) {
				continue
			}
			n := scale(s.Data[b].Value, maxTotal, barW)
			if n == 0 {
				continue
			}
			sb.WriteString(st.series(s.Color).Render(strings.Repeat(barGlyph(st, i), n)))
		}
		sb.WriteString(" " + engine.FormatNumber(totals[b]) + "\n")
	}
	if c.ShowLegend {
		sb.WriteString(legend(c.Series, st, barGlyph))
	}
	return sb.String()
}

func barGlyph(st Styles, i int) string {
	if st.Plain {
		return plainBars[i%len(plainBars)]
	}
	return "█"
}

// scale maps v in [0, max] to [0, width] cells; non-zero values get at least one.
func scale(v, max float64, width int) int {
	if v <= 0 || max <= 0 {
		return 0
	}
	n := int(math.Round(v / max * float64(width)))
	if n < 1 {
		n = 1
	}
	return n
}

func legend(series []engine.ChartSeries, st Styles, glyph func(Styles, int) string) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		parts = append(parts, st.series(s.Color).Render(glyph(st, i))+" "+s.Name)
	}
	return st.Label.Render("legend: ") + strings.Join(parts, "  ") + "\n"
}

// ============================================================================
// SCATTER
// ============================================================================

// renderScatter plots every point on a width x height character grid.
// When points share a cell the later series wins.
func renderScatter(c *engine.ChartConfig, width, height int, st Styles) string {
	if c.PointCount() == 0 {
		return st.Muted.Render("(no points)")
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range c.Series {
		for _, p := range s.Data {
			minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
			minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		}
	}

	const gutter = 8
	plotW := width - gutter - 2
	if plotW < 10 {
		plotW = 10
	}
	if height < 3 {
		height = 3
	}

	// -1 marks an empty cell, otherwise the series index.
	grid := make([][]int, height)
	for r := range grid {
		grid[r] = make([]int, plotW)
		for col := range grid[r] {
			grid[r][col] = -1
		}
	}
	for i, s := range c.Series {
		for _, p := range s.Data {
			col := cellIndex(p.X, minX, maxX, plotW)
			row := height - 1 - cellIndex(p.Y, minY, maxY, height)
			grid[row][col] = i
		}
	}

	var sb strings.Builder
	sb.WriteString(st.Label.Render(fmt.Sprintf("%s vs %s", c.YAxis, c.XAxis)))
	sb.WriteString("\n")
	for r, row := range grid {
		axis := ""
		switch r {
		case 0:
			axis = engine.FormatNumber(engine.RoundTo2(maxY))
		case height - 1:
			axis = engine.FormatNumber(engine.RoundTo2(minY))
		}
		sb.WriteString(fmt.Sprintf("%*s │", gutter, axis))
		for _, idx := range row {
			if idx < 0 {
				sb.WriteString(" ")
				continue
			}
			sb.WriteString(st.series(c.Series[idx].Color).Render(pointGlyph(st, idx)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Repeat(" ", gutter) + " └" + strings.Repeat("─", plotW) + "\n")
	lo := engine.FormatNumber(engine.RoundTo2(minX))
	hi := engine.FormatNumber(engine.RoundTo2(maxX))
	pad := plotW - len(lo) - len(hi)
	if pad < 1 {
		pad = 1
	}
	sb.WriteString(strings.Repeat(" ", gutter+2) + lo + strings.Repeat(" ", pad) + hi + "\n")
	if c.ShowLegend {
		sb.WriteString(legend(c.Series, st, pointGlyph))
	}
	return sb.String()
}

func pointGlyph(st Styles, i int) string {
	if st.Plain {
		return plainPoints[i%len(plainPoints)]
	}
	return "●"
}

// cellIndex maps v in [lo, hi] onto [0, n).
func cellIndex(v, lo, hi float64, n int) int {
	if hi <= lo {
		return n / 2
	}
	i := int((v - lo) / (hi - lo) * float64(n-1))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// ============================================================================
// TABLE AND SUMMARY
// ============================================================================

// renderTable draws a static table. maxRows > 0 truncates the body.
func renderTable(td *engine.TableData, maxRows int, st Styles) string {
	headers := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		headers[i] = c.Label
	}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	rows := td.Rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	selected := make(map[int]bool, len(td.Selected))
	for _, i := range td.Selected {
		selected[i] = true
	}

	var sb strings.Builder
	writeRow := func(cells []string, style lipgloss.Style, mark string) {
		if td.Selectable {
			sb.WriteString(mark + " ")
		}
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			padded := cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if td.Columns[i].Align == "right" {
				padded = strings.Repeat(" ", widths[i]-lipgloss.Width(cell)) + cell
			}
			sb.WriteString(style.Render(padded))
			if i < len(cells)-1 {
				sb.WriteString(st.Label.Render(" | "))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(headers, st.Bold, " ")
	total := 0
	for _, w := range widths {
		total += w + 3
	}
	sb.WriteString(st.Label.Render(strings.Repeat("-", total)) + "\n")
	for i, row := range rows {
		if selected[i] {
			writeRow(row, st.Selected, "*")
			continue
		}
		writeRow(row, st.Body, " ")
	}
	if len(rows) < len(td.Rows) {
		sb.WriteString(st.Muted.Render(fmt.Sprintf("… %d more rows", len(td.Rows)-len(rows))) + "\n")
	}
	if td.Summary != nil {
		sb.WriteString(st.Label.Render(td.Summary.Label) + "\n")
	}
	return sb.String()
}

func renderSummary(s *engine.SummaryData, st Styles) string {
	var sb strings.Builder
	sb.WriteString(st.Bold.Render("Selected Configuration:") + "\n")
	for _, line := range s.Lines {
		k, v, ok := strings.Cut(line, ": ")
		if !ok {
			sb.WriteString(line + "\n")
			continue
		}
		sb.WriteString(st.Label.Render(k+":") + " " + v + "\n")
	}
	return sb.String()
}

// RenderSession draws the given views of a session, one after another.
// A view that failed and has no output is drawn as its error.
func RenderSession(sess *session.Session, views []session.ViewID, width, height int, st Styles) string {
	parts := make([]string, 0, len(views))
	for _, id := range views {
		res, err := sess.Output(id)
		if err != nil {
			parts = append(parts, st.Error.Render(err.Error()))
			continue
		}
		parts = append(parts, RenderResult(res, width, height, st))
	}
	return strings.Join(parts, "\n\n") + "\n"
}
