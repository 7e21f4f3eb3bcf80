package helpers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/spektr-org/pengdash/engine"
	"github.com/spektr-org/pengdash/schema"
)

// ============================================================================
// CSV HELPER — Parses penguin CSV data into typed rows
// ============================================================================
// The caller reads the CSV from wherever it lives (file, embed, stdin).
// Headers are checked against the schema before any row is read.
// ============================================================================

// Penguin is one typed row of the dataset.
type Penguin struct {
	Species         string  `json:"species"`
	Island          string  `json:"island"`
	Sex             string  `json:"sex"`
	BillLengthMM    float64 `json:"bill_length_mm"`
	BillDepthMM     float64 `json:"bill_depth_mm"`
	FlipperLengthMM float64 `json:"flipper_length_mm"`
	BodyMassG       float64 `json:"body_mass_g"`
	Year            int     `json:"year"`
}

// ParseStats reports what the parser did with the input.
type ParseStats struct {
	Rows    int // rows kept
	Skipped int // malformed rows dropped
	Filled  int // missing numeric cells replaced by 0
}

// ParsePenguins parses CSV from r into typed rows using sch for the header
// check. Missing numeric values ("", "NA", "nan") are filled with 0, the same
// cleaning step the dashboard applies at load. Rows with a non-numeric or
// infinite value in a numeric column, or without a species, are skipped.
// Known species names are stored in their canonical spelling.
func ParsePenguins(r io.Reader, sch schema.Config) ([]Penguin, ParseStats, error) {
	var stats ParseStats
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if err := sch.Validate(headers); err != nil {
		return nil, stats, err
	}
	idx := schema.Index(headers)

	cell := func(row []string, key string) (string, bool) {
		i, ok := idx[key]
		if !ok || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	var penguins []Penguin
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.Skipped++
				continue // skip malformed rows
			}
			return nil, stats, fmt.Errorf("failed to read CSV row: %w", err)
		}

		species, _ := cell(row, "species")
		if isMissing(species) {
			stats.Skipped++
			continue
		}

		if sp, err := engine.ParseSpecies(species); err == nil {
			species = string(sp)
		}
		p := Penguin{Species: species}
		p.Island, _ = cell(row, "island")
		p.Sex, _ = cell(row, "sex")
		if isMissing(p.Sex) {
			p.Sex = ""
		}

		ok := true
		for _, m := range []struct {
			key string
			dst *float64
		}{
			{"bill_length_mm", &p.BillLengthMM},
			{"bill_depth_mm", &p.BillDepthMM},
			{"flipper_length_mm", &p.FlipperLengthMM},
			{"body_mass_g", &p.BodyMassG},
		} {
			raw, _ := cell(row, m.key)
			v, filled, err := parseMeasure(raw)
			if err != nil {
				ok = false
				break
			}
			if filled {
				stats.Filled++
			}
			*m.dst = v
		}
		if !ok {
			stats.Skipped++
			continue
		}

		if raw, present := cell(row, "year"); present && !isMissing(raw) {
			if y, err := strconv.Atoi(raw); err == nil {
				p.Year = y
			}
		}

		penguins = append(penguins, p)
	}

	stats.Rows = len(penguins)
	return penguins, stats, nil
}

// parseMeasure parses a numeric cell. Missing values become 0 with filled set;
// non-finite values are an error.
func parseMeasure(raw string) (v float64, filled bool, err error) {
	if isMissing(raw) {
		return 0, true, nil
	}
	v, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false, fmt.Errorf("non-finite value %q", raw)
	}
	return v, false, nil
}

func isMissing(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "na", "nan", "null", "n/a":
		return true
	}
	return false
}
