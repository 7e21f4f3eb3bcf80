package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// PENGDASH ENGINE TYPES
// ============================================================================
// The engine never loads data and never holds session state. It reads rows
// through RecordView and turns a ViewSpec into a render-ready Result.
// ============================================================================

// ============================================================================
// RECORD — Generic data row
// ============================================================================

// Record is a single data row with string dimensions and numeric measures.
// Typed rows (see dataset.Penguin) reach the engine through a DomainAdapter;
// Record backs ad-hoc tables built with NewSliceView.
type Record struct {
	Dimensions map[string]string  `json:"dimensions"`
	Measures   map[string]float64 `json:"measures"`
}

// Column keys of the penguin table.
const (
	DimSpecies = "species"
	DimIsland  = "island"
	DimSex     = "sex"

	MeasureYear = "year"
)

// ============================================================================
// SPECIES
// ============================================================================

// Species is one of the three penguin species in the dataset.
type Species string

const (
	Adelie    Species = "Adelie"
	Gentoo    Species = "Gentoo"
	Chinstrap Species = "Chinstrap"
)

// AllSpecies lists the species in the order the species control offers them.
var AllSpecies = []Species{Adelie, Gentoo, Chinstrap}

// ParseSpecies resolves a species name, ignoring case and surrounding space.
func ParseSpecies(s string) (Species, error) {
	s = strings.TrimSpace(s)
	for _, sp := range AllSpecies {
		if strings.EqualFold(s, string(sp)) {
			return sp, nil
		}
	}
	return "", fmt.Errorf("unknown species %q", s)
}

func (s Species) bit() uint8 {
	for i, sp := range AllSpecies {
		if sp == s {
			return 1 << uint(i)
		}
	}
	return 0
}

// SpeciesSet is an immutable set of species. The zero value is the empty set.
// Two sets holding the same members compare equal with ==.
type SpeciesSet struct {
	mask uint8
}

// NewSpeciesSet builds a set from the given members. Unknown values are ignored.
func NewSpeciesSet(members ...Species) SpeciesSet {
	var set SpeciesSet
	for _, m := range members {
		set.mask |= m.bit()
	}
	return set
}

// FullSpeciesSet returns the set of every known species.
func FullSpeciesSet() SpeciesSet {
	return NewSpeciesSet(AllSpecies...)
}

// ParseSpeciesSet parses a comma separated list such as "Adelie,Gentoo".
// An empty string yields the empty set.
func ParseSpeciesSet(s string) (SpeciesSet, error) {
	var set SpeciesSet
	if strings.TrimSpace(s) == "" {
		return set, nil
	}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		sp, err := ParseSpecies(part)
		if err != nil {
			return SpeciesSet{}, err
		}
		set.mask |= sp.bit()
	}
	return set, nil
}

// Has reports whether sp is a member.
func (s SpeciesSet) Has(sp Species) bool {
	b := sp.bit()
	return b != 0 && s.mask&b != 0
}

// With returns a copy of the set including sp.
func (s SpeciesSet) With(sp Species) SpeciesSet {
	s.mask |= sp.bit()
	return s
}

// Without returns a copy of the set excluding sp.
func (s SpeciesSet) Without(sp Species) SpeciesSet {
	s.mask &^= sp.bit()
	return s
}

// Toggle flips membership of sp.
func (s SpeciesSet) Toggle(sp Species) SpeciesSet {
	if s.Has(sp) {
		return s.Without(sp)
	}
	return s.With(sp)
}

// Len returns the number of members.
func (s SpeciesSet) Len() int {
	n := 0
	for _, sp := range AllSpecies {
		if s.Has(sp) {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the set has no members.
func (s SpeciesSet) IsEmpty() bool { return s.mask == 0 }

// List returns the members in canonical (control) order.
func (s SpeciesSet) List() []Species {
	out := make([]Species, 0, len(AllSpecies))
	for _, sp := range AllSpecies {
		if s.Has(sp) {
			out = append(out, sp)
		}
	}
	return out
}

// Names returns the member names in canonical order.
func (s SpeciesSet) Names() []string {
	list := s.List()
	names := make([]string, len(list))
	for i, sp := range list {
		names[i] = string(sp)
	}
	return names
}

// String joins the member names, e.g. "Adelie, Gentoo".
func (s SpeciesSet) String() string {
	return strings.Join(s.Names(), ", ")
}

// MarshalText encodes the set as a comma separated list.
func (s SpeciesSet) MarshalText() ([]byte, error) {
	return []byte(strings.Join(s.Names(), ",")), nil
}

// UnmarshalText decodes a comma separated list.
func (s *SpeciesSet) UnmarshalText(b []byte) error {
	set, err := ParseSpeciesSet(string(b))
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// ============================================================================
// ATTRIBUTE — the numeric columns a histogram can be drawn over
// ============================================================================

// Attribute names one of the four numeric morphology columns.
type Attribute string

const (
	BillLength    Attribute = "bill_length_mm"
	BillDepth     Attribute = "bill_depth_mm"
	FlipperLength Attribute = "flipper_length_mm"
	BodyMass      Attribute = "body_mass_g"
)

// AllAttributes lists the attributes in selector order.
var AllAttributes = []Attribute{BillLength, BillDepth, FlipperLength, BodyMass}

// ParseAttribute resolves an attribute key.
func ParseAttribute(s string) (Attribute, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range AllAttributes {
		if s == string(a) {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown attribute %q", s)
}

// Label returns the human readable axis label.
func (a Attribute) Label() string {
	return LabelForDimension(string(a))
}

// ============================================================================
// VIEWSPEC — What a single view should render
// ============================================================================

// View kinds understood by Execute.
const (
	KindTable     = "table"
	KindGrid      = "grid"
	KindHistogram = "histogram"
	KindScatter   = "scatter"
	KindSummary   = "summary"
)

// ViewSpec describes one render. Bindings derive it from the session inputs;
// Execute consumes it.
type ViewSpec struct {
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Attribute Attribute `json:"attribute,omitempty"` // histogram x
	XLabel    string    `json:"xLabel,omitempty"`    // overrides the attribute label
	Bins      int       `json:"bins,omitempty"`      // histogram bin count
	ColorBy   string    `json:"colorBy,omitempty"`   // dimension that splits series
	Selected  []int     `json:"selected,omitempty"`  // grid selection (row indices)

	// Summary inputs (KindSummary only)
	Summary *SummaryInput `json:"summary,omitempty"`
}

// SummaryInput is the configuration echoed by the summary panel.
type SummaryInput struct {
	Attribute       Attribute  `json:"attribute"`
	PlotlyBinCount  int        `json:"plotlyBinCount"`
	SeabornBinCount int        `json:"seabornBinCount"`
	Species         SpeciesSet `json:"species"`
}

// ============================================================================
// RESULT — Render-ready output
// ============================================================================

// Result is the engine's render-ready output for one view.
type Result struct {
	Success bool   `json:"success"`
	Type    string `json:"type"` // "chart", "table", "text"
	Title   string `json:"title"`

	// Empty marks a valid render over zero rows; Message explains it.
	Empty   bool   `json:"empty"`
	Message string `json:"message,omitempty"`

	// Exactly one of these is populated based on Type:
	ChartConfig *ChartConfig `json:"chartConfig,omitempty"`
	TableData   *TableData   `json:"tableData,omitempty"`
	Summary     *SummaryData `json:"summary,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string            `json:"chartType"` // "histogram", "scatter"
	Title      string            `json:"title"`
	XAxis      string            `json:"xAxis,omitempty"`
	YAxis      string            `json:"yAxis,omitempty"`
	Series     []ChartSeries     `json:"series"`
	Colors     []string          `json:"colors,omitempty"`
	Bins       []BinRange        `json:"bins,omitempty"`
	Labels     map[string]string `json:"labels,omitempty"`
	ShowLegend bool              `json:"showLegend"`
	ShowGrid   bool              `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint is a histogram bar (Label/Value) or a scatter point (X/Y).
type ChartPoint struct {
	Label string  `json:"label,omitempty"`
	Value float64 `json:"value"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size,omitempty"`
	Hover string  `json:"hover,omitempty"`
}

// BinRange is a half-open histogram bin [Lo, Hi). The last bin is closed.
type BinRange struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table or grid.
type TableData struct {
	Title      string     `json:"title"`
	Columns    []Column   `json:"columns"`
	Rows       [][]string `json:"rows"`
	Summary    *Summary   `json:"summary,omitempty"`
	Selectable bool       `json:"selectable"`
	Selected   []int      `json:"selected,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "right"
}

// Summary is the footer line of a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// TEXT TYPES
// ============================================================================

// SummaryData is the configuration echo rendered by the summary panel.
type SummaryData struct {
	Attribute       string   `json:"attribute"`
	PlotlyBinCount  int      `json:"plotlyBinCount"`
	SeabornBinCount int      `json:"seabornBinCount"`
	SpeciesText     string   `json:"speciesText"`
	Lines           []string `json:"lines"`
	HTML            string   `json:"html"`
}
