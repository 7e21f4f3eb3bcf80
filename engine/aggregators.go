package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ============================================================================
// AGGREGATORS — Range, Binning and Formatting via RecordView
// ============================================================================
// All functions operate on RecordView — zero-copy access to any data source.
// The only statistics computed here are the ones needed to draw a histogram.
// ============================================================================

// measureRange returns the smallest and largest finite value of a measure.
// ok is false when the view holds no finite value.
func measureRange(view RecordView, measure string) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for i := 0; i < view.Len(); i++ {
		v := view.Measure(i, measure)
		if !finite(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
		ok = true
	}
	return lo, hi, ok
}

func finite(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }

// ============================================================================
// BINNING
// ============================================================================

// Histogram is a binned count of one measure, optionally split by a dimension.
type Histogram struct {
	Bins   []BinRange
	Groups []string         // series keys; a single "" group when unsplit
	Counts map[string][]int // group → count per bin
	Total  int
}

// BinMeasure counts the values of measure into equal-width bins spanning
// [min, max] of the view. The last bin is closed so max is counted.
// When every value is equal a single bin centred on that value is used.
// Non-finite values are not counted. An empty view, or one without a finite
// value, yields a Histogram with no bins.
func BinMeasure(view RecordView, measure string, bins int, splitBy string) Histogram {
	h := Histogram{Counts: make(map[string][]int)}
	n := view.Len()
	if n == 0 {
		return h
	}
	if bins < 1 {
		bins = 1
	}

	lo, hi, ok := measureRange(view, measure)
	if !ok {
		return h
	}
	if lo == hi {
		bins = 1
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)

	h.Bins = make([]BinRange, bins)
	for b := 0; b < bins; b++ {
		h.Bins[b] = BinRange{Lo: lo + float64(b)*width, Hi: lo + float64(b+1)*width}
	}
	h.Bins[bins-1].Hi = hi

	if splitBy == "" {
		h.Groups = []string{""}
	} else {
		h.Groups = seriesOrder(view, splitBy)
	}
	for _, g := range h.Groups {
		h.Counts[g] = make([]int, bins)
	}

	for i := 0; i < n; i++ {
		v := view.Measure(i, measure)
		if !finite(v) {
			continue
		}
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		g := ""
		if splitBy != "" {
			g = view.Dimension(i, splitBy)
		}
		counts, ok := h.Counts[g]
		if !ok {
			counts = make([]int, bins)
			h.Counts[g] = counts
			h.Groups = append(h.Groups, g)
		}
		counts[idx]++
		h.Total++
	}
	return h
}

// seriesOrder returns the distinct values of a dimension. Species follow the
// control order so colors stay stable while the filter changes.
func seriesOrder(view RecordView, dimension string) []string {
	values := UniqueValues(view, dimension)
	if dimension != DimSpecies {
		return values
	}
	rank := func(s string) int {
		for i, sp := range AllSpecies {
			if string(sp) == s {
				return i
			}
		}
		return len(AllSpecies)
	}
	sort.SliceStable(values, func(i, j int) bool { return rank(values[i]) < rank(values[j]) })
	return values
}

// ============================================================================
// FORMATTING UTILITIES
// ============================================================================

// FormatNumber prints whole numbers without decimals and others with two.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

// UniqueValues returns distinct values for a dimension across a view,
// in first-seen order. Empty values are skipped.
func UniqueValues(view RecordView, dimension string) []string {
	seen := make(map[string]bool)
	var result []string
	for i := 0; i < view.Len(); i++ {
		val := view.Dimension(i, dimension)
		if val != "" && !seen[val] {
			seen[val] = true
			result = append(result, val)
		}
	}
	return result
}

var columnLabels = map[string]string{
	DimSpecies:            "Species",
	DimIsland:             "Island",
	DimSex:                "Sex",
	MeasureYear:           "Year",
	string(BillLength):    "Bill Length (mm)",
	string(BillDepth):     "Bill Depth (mm)",
	string(FlipperLength): "Flipper Length (mm)",
	string(BodyMass):      "Body Mass (g)",
}

// LabelForDimension returns the display label for a column key.
// Unknown keys are capitalized.
func LabelForDimension(dimension string) string {
	if label, ok := columnLabels[dimension]; ok {
		return label
	}
	if len(dimension) == 0 {
		return ""
	}
	return strings.ToUpper(dimension[:1]) + dimension[1:]
}
