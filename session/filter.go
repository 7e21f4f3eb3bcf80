package session

import (
	"github.com/spektr-org/pengdash/engine"
)

// filterMemo caches the filtered table against the species selection it was
// computed for. The filter reads selected_species only, so nothing else can
// invalidate it.
type filterMemo struct {
	valid      bool
	selection  engine.SpeciesSet
	view       engine.RecordView
	recomputes int
}

// update recomputes the filtered table when selection differs from the cached
// one. It reports whether a recomputation happened.
func (m *filterMemo) update(base engine.RecordView, selection engine.SpeciesSet) bool {
	if m.valid && m.selection == selection {
		return false
	}
	m.view = engine.SelectSpecies(base, selection)
	m.selection = selection
	m.valid = true
	m.recomputes++
	return true
}
