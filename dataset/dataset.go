// Package dataset loads the penguin table once at startup and exposes it as
// an immutable engine.RecordView shared by every session.
//
// With no path configured the embedded sample (the first rows of each
// species from the Palmer Penguins data) is used. Point Source.Path at the
// full penguins.csv to explore all 344 rows.
package dataset

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/spektr-org/pengdash/engine"
	"github.com/spektr-org/pengdash/helpers"
	"github.com/spektr-org/pengdash/schema"
)

//go:embed penguins.csv
var embeddedCSV []byte

// EmbeddedOrigin names the compiled-in sample in logs and stats.
const EmbeddedOrigin = "embedded:penguins.csv"

// ErrDataUnavailable is returned when the dataset cannot be read or does not
// match the schema. The dashboard cannot start without data.
var ErrDataUnavailable = errors.New("dataset unavailable")

// Penguin is one typed row of the dataset.
type Penguin = helpers.Penguin

// Source selects where the dataset comes from.
type Source struct {
	Path string // empty = embedded sample
}

// Dataset is the loaded, read-only base table.
type Dataset struct {
	origin   string
	schema   schema.Config
	penguins []Penguin
	base     engine.RecordView
	stats    helpers.ParseStats
}

// adapter maps Penguin fields onto engine dimension/measure keys, in schema order.
var adapter = engine.NewDomainAdapter[Penguin]().
	Dimension(engine.DimSpecies, func(p Penguin) string { return p.Species }).
	Dimension(engine.DimIsland, func(p Penguin) string { return p.Island }).
	Dimension(engine.DimSex, func(p Penguin) string { return p.Sex }).
	Measure(string(engine.BillLength), func(p Penguin) float64 { return p.BillLengthMM }).
	Measure(string(engine.BillDepth), func(p Penguin) float64 { return p.BillDepthMM }).
	Measure(string(engine.FlipperLength), func(p Penguin) float64 { return p.FlipperLengthMM }).
	Measure(string(engine.BodyMass), func(p Penguin) float64 { return p.BodyMassG }).
	Measure(engine.MeasureYear, func(p Penguin) float64 { return float64(p.Year) })

// Bind exposes typed rows as a RecordView without copying them.
func Bind(penguins []Penguin) engine.RecordView {
	return adapter.Bind(penguins)
}

// Load reads the dataset from src. It is called once at startup; any error
// wraps ErrDataUnavailable.
func Load(ctx context.Context, src Source, logger *zap.Logger) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	if src.Path == "" {
		return LoadReader(bytes.NewReader(embeddedCSV), EmbeddedOrigin, logger)
	}

	f, err := os.Open(src.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	defer f.Close()

	return LoadReader(f, src.Path, logger)
}

// LoadReader parses CSV from r. origin is only used for logging.
func LoadReader(r io.Reader, origin string, logger *zap.Logger) (*Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sch := schema.Penguins()

	penguins, stats, err := helpers.ParsePenguins(r, sch)
	if err != nil {
		logger.Error("dataset load failed", zap.String("origin", origin), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrDataUnavailable, origin, err)
	}
	if len(penguins) == 0 {
		logger.Error("dataset has no usable rows", zap.String("origin", origin))
		return nil, fmt.Errorf("%w: %s: no usable rows", ErrDataUnavailable, origin)
	}

	logger.Info("dataset loaded",
		zap.String("origin", origin),
		zap.Int("rows", stats.Rows),
		zap.Int("skipped", stats.Skipped),
		zap.Int("filled", stats.Filled))

	return &Dataset{
		origin:   origin,
		schema:   sch,
		penguins: penguins,
		base:     Bind(penguins),
		stats:    stats,
	}, nil
}

// Base returns the immutable base table.
func (d *Dataset) Base() engine.RecordView { return d.base }

// Schema returns the schema the dataset was validated against.
func (d *Dataset) Schema() schema.Config { return d.schema }

// Origin describes where the data was read from.
func (d *Dataset) Origin() string { return d.origin }

// Stats reports parse statistics.
func (d *Dataset) Stats() helpers.ParseStats { return d.stats }

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.penguins) }

// Penguin returns a copy of row i.
func (d *Dataset) Penguin(i int) Penguin { return d.penguins[i] }
