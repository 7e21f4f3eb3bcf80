package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/pengdash/engine"
	"github.com/spektr-org/pengdash/session"
)

// DefaultPath is where the CLI looks for a config file when --config is not set.
const DefaultPath = "pengdash.yaml"

// Config holds all pengdash configuration.
type Config struct {
	// Dataset location
	Dataset DatasetConfig `yaml:"dataset"`

	// Initial control values of every new session
	Defaults DefaultsConfig `yaml:"defaults"`

	// View behaviour
	Views ViewsConfig `yaml:"views"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`
}

// DatasetConfig selects the CSV to load.
type DatasetConfig struct {
	Path string `yaml:"path"` // empty = embedded sample
}

// DefaultsConfig holds the initial control values.
type DefaultsConfig struct {
	Attribute       string   `yaml:"attribute"`
	PlotlyBinCount  int      `yaml:"plotly_bin_count"`
	SeabornBinCount int      `yaml:"seaborn_bin_count"`
	Species         []string `yaml:"species"`
}

// ViewsConfig tunes the views.
type ViewsConfig struct {
	SeabornSource string            `yaml:"seaborn_source"` // filtered, base
	EmptyMessage  string            `yaml:"empty_message"`
	Palette       map[string]string `yaml:"palette,omitempty"` // species → color
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`   // empty = stderr
}

// UIConfig configures the terminal dashboard.
type UIConfig struct {
	Title     string `yaml:"title"`
	Link      string `yaml:"link"`
	ChartRows int    `yaml:"chart_rows"` // plot rows of the scatterplot panel
	TableRows int    `yaml:"table_rows"` // visible rows of the data grid
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{},
		Defaults: DefaultsConfig{
			Attribute:       string(engine.BillLength),
			PlotlyBinCount:  20,
			SeabornBinCount: 10,
			Species:         []string{string(engine.Adelie)},
		},
		Views: ViewsConfig{
			SeabornSource: "filtered",
			EmptyMessage:  engine.DefaultEmptyMessage,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		UI: UIConfig{
			Title:     "Hello Penguins!",
			Link:      "https://github.com/allisonhorst/palmerpenguins",
			ChartRows: 14,
			TableRows: 12,
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("PENGDASH_DATA"); path != "" {
		c.Dataset.Path = path
	}
	if level := os.Getenv("PENGDASH_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if src := os.Getenv("PENGDASH_SEABORN_SOURCE"); src != "" {
		c.Views.SeabornSource = strings.ToLower(src)
	}
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if _, err := c.InitialInputs(); err != nil {
		return fmt.Errorf("invalid defaults: %w", err)
	}
	if _, err := session.ParseSource(c.Views.SeabornSource); err != nil {
		return fmt.Errorf("invalid views.seaborn_source: %w", err)
	}

	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Logging.Format)
	}

	for sp := range c.Views.Palette {
		if _, err := engine.ParseSpecies(sp); err != nil {
			return fmt.Errorf("invalid views.palette: %w", err)
		}
	}
	return nil
}

// InitialInputs converts the defaults section into session inputs. Bin counts
// are clamped like user input.
func (c *Config) InitialInputs() (session.InputState, error) {
	d := c.Defaults
	return session.NewInputs(d.Attribute, d.PlotlyBinCount, d.SeabornBinCount, d.Species)
}

// BindingOptions returns the view options for new sessions.
func (c *Config) BindingOptions() session.BindingOptions {
	src, err := session.ParseSource(c.Views.SeabornSource)
	if err != nil {
		src = session.SourceFiltered
	}
	return session.BindingOptions{SeabornSource: src}
}

// SessionOptions bundles everything a session needs from the config.
// Call Validate first; invalid defaults fall back to the built-in ones.
func (c *Config) SessionOptions() []session.Option {
	in, err := c.InitialInputs()
	if err != nil {
		in = session.DefaultInputs()
	}
	engineOpts := []engine.Option{engine.WithEmptyMessage(c.Views.EmptyMessage)}
	if len(c.Views.Palette) > 0 {
		engineOpts = append(engineOpts, engine.WithPalette(c.Views.Palette))
	}
	return []session.Option{
		session.WithInputs(in),
		session.WithBindings(session.DefaultBindings(c.BindingOptions())),
		session.WithEngineOptions(engineOpts...),
	}
}
