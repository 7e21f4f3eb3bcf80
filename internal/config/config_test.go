package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spektr-org/pengdash/dataset"
	"github.com/spektr-org/pengdash/engine"
	"github.com/spektr-org/pengdash/session"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "bill_length_mm", cfg.Defaults.Attribute)
	assert.Equal(t, 20, cfg.Defaults.PlotlyBinCount)
	assert.Equal(t, 10, cfg.Defaults.SeabornBinCount)
	assert.Equal(t, []string{"Adelie"}, cfg.Defaults.Species)
	assert.Equal(t, "filtered", cfg.Views.SeabornSource)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "Hello Penguins!", cfg.UI.Title)
	require.NoError(t, cfg.Validate())

	in, err := cfg.InitialInputs()
	require.NoError(t, err)
	assert.Equal(t, session.DefaultInputs(), in)
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pengdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset:
  path: /data/penguins.csv
defaults:
  attribute: body_mass_g
  plotly_bin_count: 35
  species: [Gentoo, Chinstrap]
views:
  seaborn_source: base
logging:
  level: debug
  format: json
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/data/penguins.csv", cfg.Dataset.Path)
	assert.Equal(t, "body_mass_g", cfg.Defaults.Attribute)
	assert.Equal(t, 35, cfg.Defaults.PlotlyBinCount)
	assert.Equal(t, 10, cfg.Defaults.SeabornBinCount, "unset keys keep their default")
	assert.Equal(t, []string{"Gentoo", "Chinstrap"}, cfg.Defaults.Species)
	assert.Equal(t, session.SourceBase, cfg.BindingOptions().SeabornSource)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "Hello Penguins!", cfg.UI.Title)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaults: [unclosed"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PENGDASH_DATA", "/tmp/other.csv")
	t.Setenv("PENGDASH_LOG_LEVEL", "WARN")
	t.Setenv("PENGDASH_SEABORN_SOURCE", "Base")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.csv", cfg.Dataset.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "base", cfg.Views.SeabornSource)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"attribute", func(c *Config) { c.Defaults.Attribute = "beak_color" }, "invalid defaults"},
		{"species", func(c *Config) { c.Defaults.Species = []string{"Emperor"} }, "invalid defaults"},
		{"source", func(c *Config) { c.Views.SeabornSource = "sideways" }, "seaborn_source"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
		{"palette", func(c *Config) { c.Views.Palette = map[string]string{"Emperor": "#000"} }, "invalid views.palette"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestValidate_ClampsBinCounts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Defaults.PlotlyBinCount = 0
	cfg.Defaults.SeabornBinCount = 500
	require.NoError(t, cfg.Validate())

	in, err := cfg.InitialInputs()
	require.NoError(t, err)
	assert.Equal(t, session.PlotlyBinMin, in.PlotlyBinCount())
	assert.Equal(t, session.SeabornBinMax, in.SeabornBinCount())
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "pengdash.yaml")
	cfg := DefaultConfig()
	cfg.Defaults.Species = []string{"Adelie", "Gentoo"}
	cfg.Views.Palette = map[string]string{"Gentoo": "#123456"}

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSessionOptions(t *testing.T) {
	ds, err := dataset.Load(context.Background(), dataset.Source{}, zap.NewNop())
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Defaults.Species = []string{"Gentoo"}
	cfg.Views.SeabornSource = "base"
	cfg.Views.EmptyMessage = "nothing selected"
	cfg.Views.Palette = map[string]string{"Gentoo": "#000000"}
	require.NoError(t, cfg.Validate())

	s := session.New(ds.Base(), cfg.SessionOptions()...)
	defer s.Close()

	assert.Equal(t, engine.NewSpeciesSet(engine.Gentoo), s.Inputs().SelectedSpecies())

	plotly, err := s.Output(session.ViewPlotlyHistogram)
	require.NoError(t, err)
	require.Len(t, plotly.ChartConfig.Series, 1)
	assert.Equal(t, "#000000", plotly.ChartConfig.Series[0].Color)

	// base-sourced seaborn histogram keeps every row
	seaborn, err := s.Output(session.ViewSeabornHistogram)
	require.NoError(t, err)
	total := 0.0
	for _, p := range seaborn.ChartConfig.Series[0].Data {
		total += p.Value
	}
	assert.Equal(t, float64(ds.Len()), total)

	_, err = s.Dispatch(session.SetSpecies())
	require.NoError(t, err)
	table, err := s.Output(session.ViewTable)
	require.NoError(t, err)
	assert.True(t, table.Empty)
	assert.Equal(t, "nothing selected", table.Message)
}
