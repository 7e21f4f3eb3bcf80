package engine

// ============================================================================
// FILTERS — Dimension-Based Filtering via RecordView
// ============================================================================
// Single-pass filter: checks ALL dimension constraints per record in one loop.
// Returns a SubView (index list into parent) — zero data copy, base order kept.
// ============================================================================

// Filters define which records to include.
// Keys are dimension names. Values are allowed values.
// OR within a dimension, AND across dimensions.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// ApplyFilters returns a view of records matching all dimension filters.
// Dimensions are AND-combined; values within a dimension are OR-combined.
// Values match exactly, case included.
// A dimension present with an empty allow-list matches nothing.
// Empty filter (no dimensions) = no restriction (returns original view).
func ApplyFilters(view RecordView, filters Filters) RecordView {
	if len(filters.Dimensions) == 0 {
		return view
	}

	sets := make(map[string]map[string]bool, len(filters.Dimensions))
	for dim, allowed := range filters.Dimensions {
		sets[dim] = toSet(allowed)
	}

	// Single pass — record passes if it matches ALL dimension filters
	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			if !set[view.Dimension(i, dim)] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return newSubView(view, indices)
}

// SelectSpecies returns the rows of base whose species is in selection,
// in base order. An empty selection yields an empty view, not an error.
// The function is pure: the same base and selection give the same rows.
func SelectSpecies(base RecordView, selection SpeciesSet) RecordView {
	return ApplyFilters(base, Filters{
		Dimensions: map[string][]string{DimSpecies: selection.Names()},
	})
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
