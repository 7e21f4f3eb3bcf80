package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPenguins(t *testing.T) {
	sch := Penguins()

	assert.Equal(t, []string{"species", "island", "sex"}, sch.DimensionKeys())
	assert.Equal(t, []string{"bill_length_mm", "bill_depth_mm", "flipper_length_mm", "body_mass_g", "year"}, sch.MeasureKeys())
	assert.Equal(t, []string{"species", "island", "bill_length_mm", "bill_depth_mm", "flipper_length_mm", "body_mass_g"}, sch.RequiredColumns())
	assert.Equal(t, "Body Mass (g)", sch.DisplayName("body_mass_g"))
	assert.Equal(t, "unknown", sch.DisplayName("unknown"))
}

func TestValidate(t *testing.T) {
	sch := Penguins()

	require.NoError(t, sch.Validate([]string{
		"species", "island", "bill_length_mm", "bill_depth_mm", "flipper_length_mm", "body_mass_g", "sex", "year",
	}))

	// header normalization
	require.NoError(t, sch.Validate([]string{
		"\ufeffSpecies", " Island ", "Bill Length MM", "bill-depth-mm", "FLIPPER_LENGTH_MM", "body mass g",
	}))

	err := sch.Validate([]string{"species", "island", "bill_length_mm"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "bill_depth_mm, flipper_length_mm, body_mass_g")
}

func TestIndex_FirstColumnWins(t *testing.T) {
	idx := Index([]string{"species", "Species", "island"})
	assert.Equal(t, map[string]int{"species": 0, "island": 2}, idx)
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Column Name":    "column_name",
		"\ufeffspecies": "species",
		"  body-mass-g ": "body_mass_g",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToSnakeCase(in), in)
	}
}
