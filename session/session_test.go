package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spektr-org/pengdash/dataset"
	"github.com/spektr-org/pengdash/engine"
)

func newSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s := New(threeRowBase(), append([]Option{WithLogger(zap.NewNop())}, opts...)...)
	t.Cleanup(s.Close)
	return s
}

func renders(t *testing.T, s *Session) map[ViewID]int {
	t.Helper()
	out := make(map[ViewID]int)
	for _, id := range s.Views() {
		st, err := s.Stats(id)
		require.NoError(t, err)
		out[id] = st.Renders
	}
	return out
}

// ============================================================================
// STARTUP
// ============================================================================

func TestNew_RendersEveryViewOnce(t *testing.T) {
	s := newSession(t)

	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 1, s.Passes())
	assert.Equal(t, 1, s.FilterRecomputes())
	assert.Equal(t, DefaultInputs(), s.Inputs())
	assert.Equal(t, ids(ViewTable, ViewGrid, ViewPlotlyHistogram, ViewSeabornHistogram, ViewScatter, ViewSummary), s.Views())

	for id, n := range renders(t, s) {
		assert.Equal(t, 1, n, "view %s", id)
	}
	assert.Len(t, s.Outputs(), 6)
	assert.Equal(t, 1, s.Filtered().Len(), "default selection is Adelie only")
}

func TestNew_WithInputs(t *testing.T) {
	in, err := NewInputs("body_mass_g", 5, 5, []string{"Gentoo"})
	require.NoError(t, err)
	s := newSession(t, WithInputs(in), WithID("fixed"))

	assert.Equal(t, "fixed", s.ID())
	res, err := s.Output(ViewPlotlyHistogram)
	require.NoError(t, err)
	assert.Equal(t, "Penguin Mass", res.Title)
	assert.Equal(t, "Body Mass (g)", res.ChartConfig.XAxis)
}

func TestNew_WithInputsIsValidated(t *testing.T) {
	s := newSession(t, WithInputs(InputState{}))
	assert.Equal(t, DefaultInputs(), s.Inputs(), "zero state has no attribute")

	raw := InputState{attribute: engine.BodyMass, plotlyBins: 0, seabornBins: 900, species: engine.FullSpeciesSet()}
	s = newSession(t, WithInputs(raw))
	in := s.Inputs()
	assert.Equal(t, engine.BodyMass, in.SelectedAttribute())
	assert.Equal(t, PlotlyBinMin, in.PlotlyBinCount())
	assert.Equal(t, SeabornBinMax, in.SeabornBinCount())
	assert.Equal(t, engine.FullSpeciesSet(), in.SelectedSpecies())

	summary, err := s.Output(ViewSummary)
	require.NoError(t, err)
	assert.Equal(t, PlotlyBinMin, summary.Summary.PlotlyBinCount)
}

// ============================================================================
// SCENARIOS
// ============================================================================

func TestDispatch_AdelieGentoo(t *testing.T) {
	s := newSession(t)

	report, err := s.Dispatch(SetSpecies(engine.Adelie, engine.Gentoo))
	require.NoError(t, err)
	assert.True(t, report.FilterRecomputed)

	filtered := s.Filtered()
	require.Equal(t, 2, filtered.Len())
	assert.Equal(t, "Adelie", filtered.Dimension(0, engine.DimSpecies))
	assert.Equal(t, "Gentoo", filtered.Dimension(1, engine.DimSpecies))

	scatter, err := s.Output(ViewScatter)
	require.NoError(t, err)
	assert.Equal(t, 2, scatter.ChartConfig.PointCount())

	summary, err := s.Output(ViewSummary)
	require.NoError(t, err)
	assert.Equal(t, "Adelie, Gentoo", summary.Summary.SpeciesText)

	table, err := s.Output(ViewTable)
	require.NoError(t, err)
	assert.Len(t, table.TableData.Rows, 2)
}

func TestDispatch_RoundTrip(t *testing.T) {
	s := newSession(t)
	original := engine.Rows(s.Filtered())
	originalSet := s.Inputs().SelectedSpecies()

	_, err := s.Dispatch(SetSpeciesSet(engine.FullSpeciesSet()))
	require.NoError(t, err)
	assert.Equal(t, 3, s.Filtered().Len())

	_, err = s.Dispatch(SetSpeciesSet(originalSet))
	require.NoError(t, err)
	if diff := cmp.Diff(original, engine.Rows(s.Filtered())); diff != "" {
		t.Errorf("filtered table changed after round trip (-before +after):\n%s", diff)
	}
}

func TestDispatch_EmptySelection(t *testing.T) {
	s := newSession(t)

	report, err := s.Dispatch(SetSpecies())
	require.NoError(t, err)
	assert.Empty(t, report.Failed)
	assert.Len(t, report.Rendered, 6)
	assert.Equal(t, 0, s.Filtered().Len())

	for _, id := range []ViewID{ViewTable, ViewGrid, ViewPlotlyHistogram, ViewSeabornHistogram, ViewScatter} {
		res, err := s.Output(id)
		require.NoError(t, err, "view %s", id)
		assert.True(t, res.Empty, "view %s should show the no-data state", id)
		assert.Equal(t, engine.DefaultEmptyMessage, res.Message)
	}
	summary, err := s.Output(ViewSummary)
	require.NoError(t, err)
	assert.Equal(t, engine.NoSpeciesText, summary.Summary.SpeciesText)
}

// ============================================================================
// DEPENDENCY TRACKING
// ============================================================================

func TestDispatch_RendersOnlyDependents(t *testing.T) {
	tests := []struct {
		name     string
		ev       Event
		want     []ViewID
		filtered bool
	}{
		{"plotly bins", SetPlotlyBins(5), ids(ViewPlotlyHistogram, ViewSummary), false},
		{"seaborn bins", SetSeabornBins(3), ids(ViewSeabornHistogram, ViewSummary), false},
		{"attribute", SetAttribute(engine.FlipperLength), ids(ViewPlotlyHistogram, ViewSeabornHistogram, ViewSummary), false},
		{"species", SetSpecies(engine.Gentoo), ids(ViewTable, ViewGrid, ViewPlotlyHistogram, ViewSeabornHistogram, ViewScatter, ViewSummary), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t)
			before := renders(t, s)
			filterBefore := s.FilterRecomputes()

			report, err := s.Dispatch(tt.ev)
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Rendered)
			assert.Equal(t, tt.filtered, report.FilterRecomputed)

			after := renders(t, s)
			for _, id := range s.Views() {
				delta := after[id] - before[id]
				if contains(tt.want, id) {
					assert.Equal(t, 1, delta, "view %s should re-render", id)
				} else {
					assert.Equal(t, 0, delta, "view %s must not re-render", id)
				}
			}

			wantFilter := filterBefore
			if tt.filtered {
				wantFilter++
			}
			assert.Equal(t, wantFilter, s.FilterRecomputes())
		})
	}
}

func TestDispatch_SeabornOnBaseIgnoresSpecies(t *testing.T) {
	s := newSession(t, WithBindings(DefaultBindings(BindingOptions{SeabornSource: SourceBase})))

	report, err := s.Dispatch(SetSpecies(engine.Gentoo))
	require.NoError(t, err)
	assert.NotContains(t, report.Rendered, ViewSeabornHistogram)

	res, err := s.Output(ViewSeabornHistogram)
	require.NoError(t, err)
	total := 0.0
	for _, p := range res.ChartConfig.Series[0].Data {
		total += p.Value
	}
	assert.Equal(t, 3.0, total, "base-sourced histogram counts every row")
}

func TestDispatch_NoOpChange(t *testing.T) {
	s := newSession(t)
	passes := s.Passes()

	report, err := s.Dispatch(SetPlotlyBins(20), SetSpecies(engine.Adelie))
	require.NoError(t, err)
	assert.False(t, report.Ran())
	assert.Equal(t, passes, s.Passes())
	assert.Equal(t, Idle, s.State())
}

func TestDispatch_ChangeAndRevertIsNoOp(t *testing.T) {
	s := newSession(t)
	passes := s.Passes()

	report, err := s.Dispatch(SetPlotlyBins(40), SetPlotlyBins(20))
	require.NoError(t, err)
	assert.False(t, report.Ran())
	assert.Equal(t, passes, s.Passes())
}

func TestSubmit_InvalidLeavesStateUntouched(t *testing.T) {
	s := newSession(t)
	before := s.Inputs()

	err := s.Submit(SetPlotlyBins(50), Event{Field: FieldSelectedAttribute, Value: "beak_color"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, before, s.Inputs())
	assert.Equal(t, Idle, s.State())
}

func TestSubmit_ClampsAndMarksDirty(t *testing.T) {
	s := newSession(t)

	require.NoError(t, s.Submit(SetPlotlyBins(1000)))
	assert.Equal(t, Dirty, s.State())
	assert.Equal(t, PlotlyBinMax, s.Inputs().PlotlyBinCount())

	report := s.Flush()
	assert.True(t, report.Ran())
	assert.Equal(t, Fields(FieldPlotlyBinCount), report.Dirty)
	assert.Equal(t, Idle, s.State())

	res, err := s.Output(ViewPlotlyHistogram)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.ChartConfig.Bins), PlotlyBinMax)
}

// ============================================================================
// BATCHING
// ============================================================================

func TestBatch_OnePass(t *testing.T) {
	s := newSession(t)
	passes := s.Passes()
	var seen []PassReport
	s.OnPass(func(r PassReport) { seen = append(seen, r) })

	report, err := s.Batch(func() error {
		if _, err := s.Dispatch(SetPlotlyBins(30)); err != nil {
			return err
		}
		return s.Submit(SetSpecies(engine.Gentoo, engine.Chinstrap))
	})
	require.NoError(t, err)

	assert.Equal(t, passes+1, s.Passes())
	assert.Equal(t, Fields(FieldPlotlyBinCount, FieldSelectedSpecies), report.Dirty)
	require.Len(t, seen, 1)
	assert.Equal(t, report.Pass, seen[0].Pass)

	st, err := s.Stats(ViewPlotlyHistogram)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Renders, "initial pass + one batched pass")
}

func TestBatch_ErrorStillFlushesAccepted(t *testing.T) {
	s := newSession(t)
	boom := errors.New("boom")

	report, err := s.Batch(func() error {
		if err := s.Submit(SetSeabornBins(4)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, report.Ran())
	assert.Equal(t, 4, s.Inputs().SeabornBinCount())
	assert.Equal(t, Idle, s.State())
}

// ============================================================================
// FAILURE ISOLATION
// ============================================================================

func TestFailingViewKeepsPreviousOutput(t *testing.T) {
	const flaky ViewID = "flaky"
	bindings := append(DefaultBindings(BindingOptions{}),
		Binding{
			ID:     flaky,
			Deps:   Fields(FieldPlotlyBinCount),
			Source: SourceFiltered,
			Spec: func(s Snapshot) engine.ViewSpec {
				return engine.ViewSpec{Kind: engine.KindHistogram, Bins: s.Inputs.PlotlyBinCount()}
			},
			Render: func(spec engine.ViewSpec, view engine.RecordView) (*engine.Result, error) {
				if spec.Bins == 7 {
					return nil, fmt.Errorf("seven is unlucky")
				}
				return engine.Execute(spec, view)
			},
		},
		Binding{
			ID:   "panicky",
			Deps: Fields(FieldPlotlyBinCount),
			Spec: func(s Snapshot) engine.ViewSpec {
				if s.Inputs.PlotlyBinCount() == 7 {
					panic("spec exploded")
				}
				return engine.ViewSpec{Kind: engine.KindTable}
			},
		},
	)
	s := newSession(t, WithBindings(bindings))
	previous, err := s.Output(flaky)
	require.NoError(t, err)

	report, err := s.Dispatch(SetPlotlyBins(7))
	require.NoError(t, err)

	require.Len(t, report.Failed, 2)
	assert.ErrorContains(t, report.Failed[flaky], "seven is unlucky")
	assert.ErrorContains(t, report.Failed["panicky"], "spec exploded")
	assert.Equal(t, ids(ViewPlotlyHistogram, ViewSummary), report.Rendered)

	current, err := s.Output(flaky)
	require.NoError(t, err)
	assert.Same(t, previous, current)

	st, err := s.Stats(flaky)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Failures)
	assert.Equal(t, 1, st.Renders)
	assert.Error(t, st.LastError)
	assert.Equal(t, Idle, s.State())

	// recovers on the next change
	_, err = s.Dispatch(SetPlotlyBins(8))
	require.NoError(t, err)
	st, err = s.Stats(flaky)
	require.NoError(t, err)
	assert.NoError(t, st.LastError)
	assert.Equal(t, 2, st.Renders)
}

// ============================================================================
// GRID SELECTION
// ============================================================================

func TestSelectRows(t *testing.T) {
	s := newSession(t)
	_, err := s.Dispatch(SetSpeciesSet(engine.FullSpeciesSet()))
	require.NoError(t, err)

	report, err := s.SelectRows([]int{2, 0, 2, 99, -1})
	require.NoError(t, err)
	assert.Equal(t, ids(ViewGrid), report.Rendered)
	assert.False(t, report.FilterRecomputed)
	assert.Equal(t, []int{0, 2}, s.Selection())

	grid, err := s.Output(ViewGrid)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, grid.TableData.Selected)

	again, err := s.SelectRows([]int{0, 2})
	require.NoError(t, err)
	assert.False(t, again.Ran(), "same selection is a no-op")

	_, err = s.Dispatch(SetSpecies(engine.Gentoo))
	require.NoError(t, err)
	assert.Empty(t, s.Selection(), "filter recompute clears the selection")
	grid, err = s.Output(ViewGrid)
	require.NoError(t, err)
	assert.Empty(t, grid.TableData.Selected)
}

// ============================================================================
// LIFECYCLE
// ============================================================================

func TestOutput_UnknownView(t *testing.T) {
	s := newSession(t)
	_, err := s.Output("pie_chart")
	assert.True(t, errors.Is(err, ErrUnknownView))
	_, err = s.Stats("pie_chart")
	assert.True(t, errors.Is(err, ErrUnknownView))
}

func TestClose(t *testing.T) {
	s := newSession(t)
	s.Close()

	_, err := s.Dispatch(SetPlotlyBins(3))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.SelectRows([]int{0})
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Batch(func() error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
	assert.False(t, s.Flush().Ran())
}

func TestSession_EmbeddedDataset(t *testing.T) {
	ds, err := dataset.LoadReader(
		stringsReader("species,island,bill_length_mm,bill_depth_mm,flipper_length_mm,body_mass_g\n"+
			"Adelie,Dream,40,18,190,3700\nGentoo,Biscoe,48,15,220,5200\n"),
		"test", zap.NewNop())
	require.NoError(t, err)

	s := New(ds.Base())
	defer s.Close()
	_, err = s.Dispatch(SetSpeciesSet(engine.FullSpeciesSet()), SetAttribute(engine.BodyMass))
	require.NoError(t, err)

	res, err := s.Output(ViewPlotlyHistogram)
	require.NoError(t, err)
	assert.Len(t, res.ChartConfig.Series, 2)
}

func contains(list []ViewID, id ViewID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
