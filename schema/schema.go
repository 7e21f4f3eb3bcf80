package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// SCHEMA — The fixed shape of the penguin dataset
// ============================================================================
// The loader checks CSV headers against this schema before reading rows.
// The engine and the UI use it for column order and display names.
// ============================================================================

// ErrSchemaMismatch is returned when required columns are missing.
var ErrSchemaMismatch = errors.New("schema mismatch")

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions" yaml:"dimensions"`
	Measures   []MeasureMeta   `json:"measures" yaml:"measures"`
}

// DimensionMeta describes a categorical column.
type DimensionMeta struct {
	Key          string   `json:"key" yaml:"key"`
	DisplayName  string   `json:"displayName" yaml:"displayName"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	SampleValues []string `json:"sampleValues,omitempty" yaml:"sampleValues,omitempty"`
	Filterable   bool     `json:"filterable" yaml:"filterable"`
	Required     bool     `json:"required" yaml:"required"`
}

// MeasureMeta describes a numeric column.
type MeasureMeta struct {
	Key         string `json:"key" yaml:"key"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Unit        string `json:"unit,omitempty" yaml:"unit,omitempty"` // "mm", "g", "year"
	Required    bool   `json:"required" yaml:"required"`
}

// Penguins returns the schema of the Palmer Penguins dataset.
// species, island and the four morphology measures are required;
// sex and year are read when present.
func Penguins() Config {
	return Config{
		Name:        "Palmer Penguins",
		Version:     "1.0",
		Description: "Morphological measurements of penguins near Palmer Station, Antarctica",
		Dimensions: []DimensionMeta{
			{Key: "species", DisplayName: "Species", SampleValues: []string{"Adelie", "Gentoo", "Chinstrap"}, Filterable: true, Required: true},
			{Key: "island", DisplayName: "Island", SampleValues: []string{"Torgersen", "Biscoe", "Dream"}, Required: true},
			{Key: "sex", DisplayName: "Sex", SampleValues: []string{"male", "female"}},
		},
		Measures: []MeasureMeta{
			{Key: "bill_length_mm", DisplayName: "Bill Length (mm)", Unit: "mm", Required: true},
			{Key: "bill_depth_mm", DisplayName: "Bill Depth (mm)", Unit: "mm", Required: true},
			{Key: "flipper_length_mm", DisplayName: "Flipper Length (mm)", Unit: "mm", Required: true},
			{Key: "body_mass_g", DisplayName: "Body Mass (g)", Unit: "g", Required: true},
			{Key: "year", DisplayName: "Year", Unit: "year"},
		},
	}
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// RequiredColumns returns the keys that must appear in the source header.
func (c Config) RequiredColumns() []string {
	var keys []string
	for _, d := range c.Dimensions {
		if d.Required {
			keys = append(keys, d.Key)
		}
	}
	for _, m := range c.Measures {
		if m.Required {
			keys = append(keys, m.Key)
		}
	}
	return keys
}

// DisplayName returns the display name for key, or key itself.
func (c Config) DisplayName(key string) string {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d.DisplayName
		}
	}
	for _, m := range c.Measures {
		if m.Key == key {
			return m.DisplayName
		}
	}
	return key
}

// Index maps each normalized header to its column position.
// Later duplicates do not override earlier columns.
func Index(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		key := ToSnakeCase(h)
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

// Validate checks that every required column is present in headers.
func (c Config) Validate(headers []string) error {
	idx := Index(headers)
	var missing []string
	for _, key := range c.RequiredColumns() {
		if _, ok := idx[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return nil
}

// ToSnakeCase converts "Column Name" → "column_name".
func ToSnakeCase(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
