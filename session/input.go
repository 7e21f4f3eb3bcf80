package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spektr-org/pengdash/engine"
)

// ErrInvalidInput is returned to the input layer for a control value outside
// its domain. The event is dropped; session state is untouched.
var ErrInvalidInput = errors.New("invalid input")

// Field identifies one user-adjustable control.
type Field uint8

const (
	FieldSelectedAttribute Field = iota
	FieldPlotlyBinCount
	FieldSeabornBinCount
	FieldSelectedSpecies

	numFields
)

// Bounds of the two bin count controls.
const (
	PlotlyBinMin  = 1
	PlotlyBinMax  = 100
	SeabornBinMin = 1
	SeabornBinMax = 50
)

var fieldIDs = [numFields]string{
	FieldSelectedAttribute: "selected_attribute",
	FieldPlotlyBinCount:    "plotly_bin_count",
	FieldSeabornBinCount:   "seaborn_bin_count",
	FieldSelectedSpecies:   "selected_species",
}

// AllFields lists every control in declaration order.
var AllFields = []Field{
	FieldSelectedAttribute,
	FieldPlotlyBinCount,
	FieldSeabornBinCount,
	FieldSelectedSpecies,
}

// String returns the control id, e.g. "plotly_bin_count".
func (f Field) String() string {
	if f < numFields {
		return fieldIDs[f]
	}
	return fmt.Sprintf("field(%d)", uint8(f))
}

// ParseField resolves a control id. "selected_species_list" is accepted as
// an alias for selected_species.
func ParseField(id string) (Field, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "selected_species_list" {
		return FieldSelectedSpecies, nil
	}
	for f, name := range fieldIDs {
		if name == id {
			return Field(f), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown control %q", ErrInvalidInput, id)
}

// ============================================================================
// FIELD SET
// ============================================================================

// FieldSet is a set of controls, used both for dirty tracking and for the
// static dependency declaration of each view.
type FieldSet uint8

// Fields builds a FieldSet.
func Fields(fields ...Field) FieldSet {
	var s FieldSet
	for _, f := range fields {
		s = s.Add(f)
	}
	return s
}

// AllFieldSet contains every control.
func AllFieldSet() FieldSet { return Fields(AllFields...) }

// Add returns s with f included.
func (s FieldSet) Add(f Field) FieldSet { return s | 1<<f }

// Has reports whether f is in s.
func (s FieldSet) Has(f Field) bool { return s&(1<<f) != 0 }

// Intersects reports whether s and o share a field.
func (s FieldSet) Intersects(o FieldSet) bool { return s&o != 0 }

// IsEmpty reports whether s has no fields.
func (s FieldSet) IsEmpty() bool { return s == 0 }

// List returns the fields in declaration order.
func (s FieldSet) List() []Field {
	var out []Field
	for _, f := range AllFields {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s FieldSet) String() string {
	names := make([]string, 0, len(AllFields))
	for _, f := range s.List() {
		names = append(names, f.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// ============================================================================
// INPUT STATE
// ============================================================================

// InputState holds the current value of every control. It is a value type:
// the session replaces it field by field, views receive copies.
type InputState struct {
	attribute   engine.Attribute
	plotlyBins  int
	seabornBins int
	species     engine.SpeciesSet
}

// DefaultInputs returns the state a new session starts with.
func DefaultInputs() InputState {
	return InputState{
		attribute:   engine.BillLength,
		plotlyBins:  20,
		seabornBins: 10,
		species:     engine.NewSpeciesSet(engine.Adelie),
	}
}

// NewInputs builds a state from raw values, clamping and validating them the
// same way events are. Used for configured defaults.
func NewInputs(attribute string, plotlyBins, seabornBins int, species []string) (InputState, error) {
	in := DefaultInputs()
	values := []Event{
		{Field: FieldSelectedAttribute, Value: attribute},
		{Field: FieldPlotlyBinCount, Value: plotlyBins},
		{Field: FieldSeabornBinCount, Value: seabornBins},
		{Field: FieldSelectedSpecies, Value: species},
	}
	for _, ev := range values {
		v, err := normalize(ev)
		if err != nil {
			return InputState{}, err
		}
		in = in.with(ev.Field, v)
	}
	return in, nil
}

// normalized runs every field of s through the event validation again.
func (s InputState) normalized() (InputState, error) {
	return NewInputs(string(s.attribute), s.plotlyBins, s.seabornBins, s.species.Names())
}

// SelectedAttribute is the numeric column the histograms bin.
func (s InputState) SelectedAttribute() engine.Attribute { return s.attribute }

// PlotlyBinCount is the bin count of the species-colored histogram.
func (s InputState) PlotlyBinCount() int { return s.plotlyBins }

// SeabornBinCount is the bin count of the alternate histogram.
func (s InputState) SeabornBinCount() int { return s.seabornBins }

// SelectedSpecies is the species filter.
func (s InputState) SelectedSpecies() engine.SpeciesSet { return s.species }

// Value returns the value of a control by id.
func (s InputState) Value(f Field) any {
	switch f {
	case FieldSelectedAttribute:
		return s.attribute
	case FieldPlotlyBinCount:
		return s.plotlyBins
	case FieldSeabornBinCount:
		return s.seabornBins
	case FieldSelectedSpecies:
		return s.species
	}
	return nil
}

// with returns a copy with one normalized value replaced.
func (s InputState) with(f Field, v any) InputState {
	switch f {
	case FieldSelectedAttribute:
		s.attribute = v.(engine.Attribute)
	case FieldPlotlyBinCount:
		s.plotlyBins = v.(int)
	case FieldSeabornBinCount:
		s.seabornBins = v.(int)
	case FieldSelectedSpecies:
		s.species = v.(engine.SpeciesSet)
	}
	return s
}

// ============================================================================
// EVENTS
// ============================================================================

// Event is a user action carrying a control id and its new value.
// Accepted value types per field:
//   - selected_attribute: engine.Attribute or string
//   - bin counts: int, int64, float64 or a decimal string (clamped to bounds)
//   - selected_species: engine.SpeciesSet, []engine.Species, []string or
//     a comma separated string
type Event struct {
	Field Field
	Value any
}

// SetAttribute selects the histogram attribute.
func SetAttribute(a engine.Attribute) Event {
	return Event{Field: FieldSelectedAttribute, Value: a}
}

// SetPlotlyBins sets the species-colored histogram bin count.
func SetPlotlyBins(n int) Event { return Event{Field: FieldPlotlyBinCount, Value: n} }

// SetSeabornBins sets the alternate histogram bin count.
func SetSeabornBins(n int) Event { return Event{Field: FieldSeabornBinCount, Value: n} }

// SetSpecies replaces the species selection.
func SetSpecies(members ...engine.Species) Event {
	return Event{Field: FieldSelectedSpecies, Value: engine.NewSpeciesSet(members...)}
}

// SetSpeciesSet replaces the species selection.
func SetSpeciesSet(set engine.SpeciesSet) Event {
	return Event{Field: FieldSelectedSpecies, Value: set}
}

// ParseEvent parses "control_id=value", the form used on the command line.
func ParseEvent(s string) (Event, error) {
	id, raw, ok := strings.Cut(s, "=")
	if !ok {
		return Event{}, fmt.Errorf("%w: expected control=value, got %q", ErrInvalidInput, s)
	}
	f, err := ParseField(id)
	if err != nil {
		return Event{}, err
	}
	return Event{Field: f, Value: strings.TrimSpace(raw)}, nil
}

// normalize validates an event value and converts it to the canonical type
// of its field. Bin counts outside their bounds are clamped; anything that
// cannot be interpreted is rejected with ErrInvalidInput.
func normalize(ev Event) (any, error) {
	switch ev.Field {
	case FieldSelectedAttribute:
		var raw string
		switch v := ev.Value.(type) {
		case engine.Attribute:
			raw = string(v)
		case string:
			raw = v
		default:
			return nil, invalid(ev, "want attribute name")
		}
		a, err := engine.ParseAttribute(raw)
		if err != nil {
			return nil, invalid(ev, err.Error())
		}
		return a, nil

	case FieldPlotlyBinCount:
		n, err := toInt(ev.Value)
		if err != nil {
			return nil, invalid(ev, err.Error())
		}
		return clamp(n, PlotlyBinMin, PlotlyBinMax), nil

	case FieldSeabornBinCount:
		n, err := toInt(ev.Value)
		if err != nil {
			return nil, invalid(ev, err.Error())
		}
		return clamp(n, SeabornBinMin, SeabornBinMax), nil

	case FieldSelectedSpecies:
		set, err := toSpeciesSet(ev.Value)
		if err != nil {
			return nil, invalid(ev, err.Error())
		}
		return set, nil
	}
	return nil, fmt.Errorf("%w: unknown control %s", ErrInvalidInput, ev.Field)
}

func invalid(ev Event, reason string) error {
	return fmt.Errorf("%w: %s=%v: %s", ErrInvalidInput, ev.Field, ev.Value, reason)
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", n)
		}
		return i, nil
	}
	return 0, fmt.Errorf("want integer, got %T", v)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func toSpeciesSet(v any) (engine.SpeciesSet, error) {
	switch s := v.(type) {
	case engine.SpeciesSet:
		return s, nil
	case []engine.Species:
		for _, sp := range s {
			if _, err := engine.ParseSpecies(string(sp)); err != nil {
				return engine.SpeciesSet{}, err
			}
		}
		return engine.NewSpeciesSet(s...), nil
	case []string:
		return engine.ParseSpeciesSet(strings.Join(s, ","))
	case string:
		return engine.ParseSpeciesSet(s)
	case nil:
		return engine.SpeciesSet{}, nil
	}
	return engine.SpeciesSet{}, fmt.Errorf("want species list, got %T", v)
}
