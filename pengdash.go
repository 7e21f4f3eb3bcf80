// Package pengdash is an interactive dashboard over the Palmer Penguins
// dataset.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/pengdash/dataset"
//	    "github.com/spektr-org/pengdash/session"
//	)
//
//	ds, err := dataset.Load(ctx, dataset.Source{}, logger)
//	sess := session.New(ds.Base(), session.WithLogger(logger))
//	report, err := sess.Dispatch(session.SetSpecies(engine.Adelie, engine.Gentoo))
//	table, err := sess.Output(session.ViewTable)
//
// The dataset is loaded once and shared read-only. Each session holds its own
// control values and re-renders only the views whose inputs changed. The
// engine package turns a ViewSpec and a RecordView into render-ready output
// (chart config, table data or summary text); cmd/pengdash draws it in the
// terminal.
package pengdash
