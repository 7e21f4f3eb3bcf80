package engine

import "fmt"

// ============================================================================
// CHART BUILDER — Produces ChartConfig from ViewSpec + RecordView
// ============================================================================
// Histograms bin one attribute; scatterplots plot flipper length against body
// mass. Both split into one series per ColorBy value when it is set.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// Species keep their color whichever subset is selected.
var speciesColors = map[string]string{
	string(Adelie):    "#F97316",
	string(Gentoo):    "#06B6D4",
	string(Chinstrap): "#8B5CF6",
}

// BuildHistogram produces a histogram ChartConfig for spec.Attribute.
// An empty view yields a config with no series and no bins.
func BuildHistogram(spec ViewSpec, view RecordView, cfg *config) *ChartConfig {
	attr := spec.Attribute
	if attr == "" {
		attr = BodyMass
	}
	xLabel := spec.XLabel
	if xLabel == "" {
		xLabel = attr.Label()
	}

	chart := &ChartConfig{
		ChartType:  "histogram",
		Title:      spec.Title,
		XAxis:      xLabel,
		YAxis:      "Count",
		Series:     []ChartSeries{},
		ShowLegend: spec.ColorBy != "",
		ShowGrid:   true,
	}

	h := BinMeasure(view, string(attr), spec.Bins, spec.ColorBy)
	if len(h.Bins) == 0 {
		return chart
	}
	chart.Bins = h.Bins

	labels := make([]string, len(h.Bins))
	for i, b := range h.Bins {
		labels[i] = fmt.Sprintf("%s–%s", FormatNumber(RoundTo2(b.Lo)), FormatNumber(RoundTo2(b.Hi)))
	}

	for i, g := range h.Groups {
		name := g
		if name == "" {
			name = "Count"
		}
		points := make([]ChartPoint, len(h.Bins))
		for b, count := range h.Counts[g] {
			points[b] = ChartPoint{Label: labels[b], Value: float64(count)}
		}
		chart.Series = append(chart.Series, ChartSeries{
			Name:  name,
			Data:  points,
			Color: seriesColor(cfg, g, i),
		})
	}

	chart.Colors = collectColors(chart.Series)
	return chart
}

// BuildScatter produces a flipper length vs body mass scatter. Points carry
// the bill length as marker size and the island as hover label.
func BuildScatter(spec ViewSpec, view RecordView, cfg *config) *ChartConfig {
	chart := &ChartConfig{
		ChartType:  "scatter",
		Title:      spec.Title,
		XAxis:      FlipperLength.Label(),
		YAxis:      BodyMass.Label(),
		Series:     []ChartSeries{},
		ShowLegend: spec.ColorBy != "",
		ShowGrid:   true,
		Labels: map[string]string{
			string(FlipperLength): FlipperLength.Label(),
			string(BodyMass):      BodyMass.Label(),
			string(BillLength):    BillLength.Label(),
			DimSpecies:            LabelForDimension(DimSpecies),
			DimIsland:             LabelForDimension(DimIsland),
		},
	}

	n := view.Len()
	if n == 0 {
		return chart
	}

	groups := []string{""}
	if spec.ColorBy != "" {
		groups = seriesOrder(view, spec.ColorBy)
	}
	index := make(map[string]int, len(groups))
	for i, g := range groups {
		name := g
		if name == "" {
			name = "Penguins"
		}
		index[g] = i
		chart.Series = append(chart.Series, ChartSeries{
			Name:  name,
			Data:  []ChartPoint{},
			Color: seriesColor(cfg, g, i),
		})
	}

	for i := 0; i < n; i++ {
		g := ""
		if spec.ColorBy != "" {
			g = view.Dimension(i, spec.ColorBy)
		}
		si, ok := index[g]
		if !ok {
			si = len(chart.Series)
			index[g] = si
			chart.Series = append(chart.Series, ChartSeries{Name: "Unknown", Color: seriesColor(cfg, g, si)})
		}
		chart.Series[si].Data = append(chart.Series[si].Data, ChartPoint{
			Label: view.Dimension(i, DimSpecies),
			X:     view.Measure(i, string(FlipperLength)),
			Y:     view.Measure(i, string(BodyMass)),
			Size:  view.Measure(i, string(BillLength)),
			Hover: view.Dimension(i, DimIsland),
		})
	}

	chart.Colors = collectColors(chart.Series)
	return chart
}

// PointCount returns the number of points across all series.
func (c *ChartConfig) PointCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, s := range c.Series {
		n += len(s.Data)
	}
	return n
}

// ============================================================================
// COLORS
// ============================================================================

func seriesColor(cfg *config, group string, i int) string {
	if cfg != nil {
		if c, ok := cfg.Palette[group]; ok {
			return c
		}
	}
	if c, ok := speciesColors[group]; ok {
		return c
	}
	return defaultColors[i%len(defaultColors)]
}

func collectColors(series []ChartSeries) []string {
	colors := make([]string, len(series))
	for i, s := range series {
		colors[i] = s.Color
	}
	return colors
}
