package session

import (
	"fmt"
	"strings"

	"github.com/spektr-org/pengdash/engine"
)

// ViewID names one output view.
type ViewID string

const (
	ViewTable            ViewID = "table"
	ViewGrid             ViewID = "grid"
	ViewPlotlyHistogram  ViewID = "plotly_histogram"
	ViewSeabornHistogram ViewID = "seaborn_histogram"
	ViewScatter          ViewID = "scatter"
	ViewSummary          ViewID = "summary"
)

// Source is the table a binding renders from.
type Source int

const (
	// SourceFiltered is the species-filtered table.
	SourceFiltered Source = iota
	// SourceBase is the unfiltered table.
	SourceBase
	// SourceNone marks views computed from inputs alone.
	SourceNone
)

// ParseSource accepts "filtered" or "base".
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "filtered":
		return SourceFiltered, nil
	case "base":
		return SourceBase, nil
	}
	return 0, fmt.Errorf("unknown view source %q (want filtered or base)", s)
}

func (s Source) String() string {
	switch s {
	case SourceFiltered:
		return "filtered"
	case SourceBase:
		return "base"
	}
	return "none"
}

// Snapshot is what a binding sees when it builds its ViewSpec.
type Snapshot struct {
	Inputs    InputState
	Selection []int
}

// Binding declares one view: the fields it reads, the table it renders from
// and how to turn the current inputs into a ViewSpec. Deps is static; a
// binding re-renders only when a field in Deps changed.
type Binding struct {
	ID     ViewID
	Deps   FieldSet
	Source Source

	// UsesSelection re-renders the view when grid rows are selected.
	UsesSelection bool

	Spec func(Snapshot) engine.ViewSpec

	// Render overrides engine.Execute. Nil uses the engine.
	Render func(engine.ViewSpec, engine.RecordView) (*engine.Result, error)
}

// BindingOptions tune DefaultBindings.
type BindingOptions struct {
	// SeabornSource is the table the single-series histogram bins.
	// SourceBase ignores the species filter.
	SeabornSource Source
}

// DefaultBindings returns the dashboard's six views in render order.
func DefaultBindings(opts BindingOptions) []Binding {
	seabornDeps := Fields(FieldSelectedAttribute, FieldSeabornBinCount)
	seabornSource := SourceBase
	if opts.SeabornSource != SourceBase {
		seabornSource = SourceFiltered
		seabornDeps = seabornDeps.Add(FieldSelectedSpecies)
	}

	return []Binding{
		{
			ID:     ViewTable,
			Deps:   Fields(FieldSelectedSpecies),
			Source: SourceFiltered,
			Spec: func(Snapshot) engine.ViewSpec {
				return engine.ViewSpec{Kind: engine.KindTable, Title: "Palmer Penguins Data Table"}
			},
		},
		{
			ID:            ViewGrid,
			Deps:          Fields(FieldSelectedSpecies),
			Source:        SourceFiltered,
			UsesSelection: true,
			Spec: func(s Snapshot) engine.ViewSpec {
				return engine.ViewSpec{
					Kind:     engine.KindGrid,
					Title:    "Palmer Penguins Data Grid",
					Selected: s.Selection,
				}
			},
		},
		{
			ID:     ViewPlotlyHistogram,
			Deps:   Fields(FieldSelectedAttribute, FieldPlotlyBinCount, FieldSelectedSpecies),
			Source: SourceFiltered,
			Spec: func(s Snapshot) engine.ViewSpec {
				attr := s.Inputs.SelectedAttribute()
				return engine.ViewSpec{
					Kind:      engine.KindHistogram,
					Title:     "Penguin " + measureTitle(attr),
					Attribute: attr,
					Bins:      s.Inputs.PlotlyBinCount(),
					ColorBy:   engine.DimSpecies,
				}
			},
		},
		{
			ID:     ViewSeabornHistogram,
			Deps:   seabornDeps,
			Source: seabornSource,
			Spec: func(s Snapshot) engine.ViewSpec {
				attr := s.Inputs.SelectedAttribute()
				return engine.ViewSpec{
					Kind:      engine.KindHistogram,
					Title:     "Palmer Penguins",
					Attribute: attr,
					XLabel:    string(attr),
					Bins:      s.Inputs.SeabornBinCount(),
				}
			},
		},
		{
			ID:     ViewScatter,
			Deps:   Fields(FieldSelectedSpecies),
			Source: SourceFiltered,
			Spec: func(Snapshot) engine.ViewSpec {
				return engine.ViewSpec{
					Kind:    engine.KindScatter,
					Title:   "Penguin Species Measurements",
					ColorBy: engine.DimSpecies,
				}
			},
		},
		{
			ID:     ViewSummary,
			Deps:   AllFieldSet(),
			Source: SourceNone,
			Spec: func(s Snapshot) engine.ViewSpec {
				return engine.ViewSpec{
					Kind:  engine.KindSummary,
					Title: "Summary",
					Summary: &engine.SummaryInput{
						Attribute:       s.Inputs.SelectedAttribute(),
						PlotlyBinCount:  s.Inputs.PlotlyBinCount(),
						SeabornBinCount: s.Inputs.SeabornBinCount(),
						Species:         s.Inputs.SelectedSpecies(),
					},
				}
			},
		},
	}
}

// measureTitle turns "body_mass_g" into "Mass", "bill_length_mm" into
// "Bill Length".
func measureTitle(a engine.Attribute) string {
	switch a {
	case engine.BodyMass:
		return "Mass"
	case engine.BillLength:
		return "Bill Length"
	case engine.BillDepth:
		return "Bill Depth"
	case engine.FlipperLength:
		return "Flipper Length"
	}
	return a.Label()
}
