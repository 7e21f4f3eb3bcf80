package engine

import (
	"fmt"
	"html/template"
	"strings"
)

// ============================================================================
// TEXT BUILDER — Produces the configuration summary panel
// ============================================================================
// The summary reads no rows. It echoes the current control values as plain
// lines and as an HTML block.
// ============================================================================

// NoSpeciesText is shown when the species selection is empty.
const NoSpeciesText = "(none)"

var summaryTemplate = template.Must(template.New("summary").Parse(
	`<div style="font-size: 65%; line-height: 1;">
    <h4 style="margin-bottom: 0;">Selected Configuration:</h4>
    <p style="margin-top: 0; margin-bottom: 0;"><strong>Selected attribute:</strong> {{.Attribute}}</p>
    <p style="margin-top: 0; margin-bottom: 0;"><strong>Plotly bin count:</strong> {{.PlotlyBinCount}}</p>
    <p style="margin-top: 0; margin-bottom: 0;"><strong>Seaborn bin count:</strong> {{.SeabornBinCount}}</p>
    <p style="margin-top: 0;"><strong>Species:</strong> {{.SpeciesText}}</p>
</div>`))

// BuildSummary renders the summary panel for the given inputs.
func BuildSummary(in SummaryInput) (*SummaryData, error) {
	speciesText := NoSpeciesText
	if !in.Species.IsEmpty() {
		speciesText = in.Species.String()
	}

	data := &SummaryData{
		Attribute:       string(in.Attribute),
		PlotlyBinCount:  in.PlotlyBinCount,
		SeabornBinCount: in.SeabornBinCount,
		SpeciesText:     speciesText,
		Lines: []string{
			fmt.Sprintf("Selected attribute: %s", in.Attribute),
			fmt.Sprintf("Plotly bin count: %d", in.PlotlyBinCount),
			fmt.Sprintf("Seaborn bin count: %d", in.SeabornBinCount),
			fmt.Sprintf("Species: %s", speciesText),
		},
	}

	var sb strings.Builder
	if err := summaryTemplate.Execute(&sb, data); err != nil {
		return nil, fmt.Errorf("render summary html: %w", err)
	}
	data.HTML = sb.String()
	return data, nil
}

// Text joins the summary lines.
func (s *SummaryData) Text() string {
	if s == nil {
		return ""
	}
	return strings.Join(s.Lines, "\n")
}
