package engine

import "go.uber.org/zap"

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger       *zap.Logger
	Palette      map[string]string // series key → color, overrides the defaults
	EmptyMessage string            // shown on views rendered over zero rows
}

// DefaultEmptyMessage is the explicit "no data" state of row-backed views.
const DefaultEmptyMessage = "No data for the current species selection."

// WithLogger routes engine logs to l.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithPalette overrides series colors, keyed by series value (e.g. "Adelie").
func WithPalette(palette map[string]string) Option {
	return func(c *config) {
		c.Palette = palette
	}
}

// WithEmptyMessage sets the message carried by empty results.
func WithEmptyMessage(msg string) Option {
	return func(c *config) {
		if msg != "" {
			c.EmptyMessage = msg
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger:       zap.NewNop(),
		EmptyMessage: DefaultEmptyMessage,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
