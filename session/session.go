// Package session holds one user's dashboard state: the control values, the
// memoised species filter and the latest output of every view. Events mark
// controls dirty; a flush re-renders exactly the views whose declared
// dependencies changed.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spektr-org/pengdash/engine"
)

var (
	// ErrUnknownView is returned when asking for a view no binding declares.
	ErrUnknownView = errors.New("unknown view")
	// ErrClosed is returned by a session after Close.
	ErrClosed = errors.New("session closed")
)

// State is the scheduler state of a session.
type State int

const (
	Idle State = iota
	Dirty
	Recomputing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dirty:
		return "dirty"
	case Recomputing:
		return "recomputing"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// RenderStats counts what happened to one view over the session lifetime.
type RenderStats struct {
	Renders   int   // successful renders
	Failures  int   // failed renders; the previous output was kept
	LastPass  int   // pass number of the latest attempt
	LastError error // error of the latest attempt, nil on success
}

// PassReport describes one recomputation pass.
type PassReport struct {
	Pass             int
	Dirty            FieldSet
	FilterRecomputed bool
	Rendered         []ViewID
	Failed           map[ViewID]error
	Duration         time.Duration
}

// Ran reports whether the pass did anything.
func (r PassReport) Ran() bool { return r.Pass > 0 }

// Listener is notified after every pass, outside the session lock.
type Listener func(PassReport)

// Option configures a Session.
type Option func(*Session)

// WithID sets the session id. By default a random uuid is used.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithLogger routes session logs to l.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithInputs sets the initial control values. They are validated like events:
// bin counts are clamped and an invalid state falls back to DefaultInputs.
func WithInputs(in InputState) Option {
	return func(s *Session) { s.inputs = in }
}

// WithBindings replaces the default views.
func WithBindings(bindings []Binding) Option {
	return func(s *Session) { s.bindings = bindings }
}

// WithEngineOptions passes options to every engine.Execute call.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Session) { s.engineOpts = append(s.engineOpts, opts...) }
}

// Session is the per-user state. All methods are safe for concurrent use;
// events are applied one at a time and a pass runs to completion before the
// next event is applied.
type Session struct {
	id         string
	logger     *zap.Logger
	base       engine.RecordView
	bindings   []Binding
	engineOpts []engine.Option

	mu             sync.Mutex
	inputs         InputState
	rendered       InputState // inputs as of the last pass
	primed         bool       // first pass done
	selection      []int
	selectionDirty bool
	state          State
	batchDepth     int
	filter         filterMemo
	outputs        map[ViewID]*engine.Result
	stats          map[ViewID]*RenderStats
	passes         int
	listeners      []Listener
	closed         bool
}

// New creates a session over the shared base table and renders every view
// once with the initial inputs.
func New(base engine.RecordView, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		logger:   zap.NewNop(),
		base:     base,
		bindings: DefaultBindings(BindingOptions{}),
		inputs:   DefaultInputs(),
		outputs:  make(map[ViewID]*engine.Result),
		stats:    make(map[ViewID]*RenderStats),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session", s.id))
	if in, err := s.inputs.normalized(); err != nil {
		s.logger.Warn("initial inputs rejected, using defaults", zap.Error(err))
		s.inputs = DefaultInputs()
	} else {
		s.inputs = in
	}
	for _, b := range s.bindings {
		s.stats[b.ID] = &RenderStats{}
	}

	s.mu.Lock()
	s.state = Dirty
	s.flushLocked()
	s.mu.Unlock()
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// ============================================================================
// EVENT INTAKE
// ============================================================================

// Submit validates and applies events without rendering. An invalid event
// rejects the whole call and leaves the state untouched. Values equal to the
// current ones do not mark anything dirty.
func (s *Session) Submit(events ...Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	next := s.inputs
	for _, ev := range events {
		v, err := normalize(ev)
		if err != nil {
			s.logger.Debug("input rejected", zap.Error(err))
			return err
		}
		next = next.with(ev.Field, v)
	}
	s.inputs = next
	if !s.pendingLocked().IsEmpty() {
		s.state = Dirty
	}
	return nil
}

// Flush runs one recomputation pass if anything is dirty. Inside Batch the
// pass is deferred until the batch ends.
func (s *Session) Flush() PassReport {
	s.mu.Lock()
	report, ran := s.flushLocked()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if ran {
		for _, l := range listeners {
			l(report)
		}
	}
	return report
}

// Dispatch submits events and flushes.
func (s *Session) Dispatch(events ...Event) (PassReport, error) {
	if err := s.Submit(events...); err != nil {
		return PassReport{}, err
	}
	return s.Flush(), nil
}

// Batch runs fn and folds every change it submits into a single pass.
// The pass runs even when fn fails, for the events that were accepted.
func (s *Session) Batch(fn func() error) (PassReport, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return PassReport{}, ErrClosed
	}
	s.batchDepth++
	s.mu.Unlock()

	err := func() error {
		defer func() {
			s.mu.Lock()
			s.batchDepth--
			s.mu.Unlock()
		}()
		return fn()
	}()
	return s.Flush(), err
}

// SelectRows sets the grid selection, as row indices into the filtered
// table. Out-of-range indices are dropped. Only views that use the selection
// re-render; a later filter recomputation clears it.
func (s *Session) SelectRows(indices []int) (PassReport, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return PassReport{}, ErrClosed
	}
	n := 0
	if s.filter.view != nil {
		n = s.filter.view.Len()
	}
	sel := normalizeRows(indices, n)
	if !equalRows(sel, s.selection) {
		s.selection = sel
		s.selectionDirty = true
		s.state = Dirty
	}
	s.mu.Unlock()
	return s.Flush(), nil
}

// OnPass registers a listener called after every pass.
func (s *Session) OnPass(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Close releases the session. Further events return ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.listeners = nil
	s.logger.Debug("session closed", zap.Int("passes", s.passes))
}

// ============================================================================
// RECOMPUTATION PASS
// ============================================================================

// pendingLocked returns the fields whose value differs from the last pass.
// Before the first pass every field is pending.
func (s *Session) pendingLocked() FieldSet {
	if !s.primed {
		return AllFieldSet()
	}
	var dirty FieldSet
	for _, f := range AllFields {
		if s.inputs.Value(f) != s.rendered.Value(f) {
			dirty = dirty.Add(f)
		}
	}
	return dirty
}

func (s *Session) flushLocked() (PassReport, bool) {
	if s.closed || s.batchDepth > 0 {
		return PassReport{}, false
	}
	dirty := s.pendingLocked()
	selDirty := s.selectionDirty
	if dirty.IsEmpty() && !selDirty {
		s.state = Idle
		return PassReport{}, false
	}

	start := time.Now()
	s.state = Recomputing
	s.passes++
	report := PassReport{Pass: s.passes, Dirty: dirty}

	if dirty.Has(FieldSelectedSpecies) || !s.filter.valid {
		if s.filter.update(s.base, s.inputs.SelectedSpecies()) {
			report.FilterRecomputed = true
			if len(s.selection) > 0 {
				s.selection = nil
				selDirty = true
			}
		}
	}

	snap := Snapshot{Inputs: s.inputs, Selection: append([]int(nil), s.selection...)}
	staged := make(map[ViewID]*engine.Result, len(s.bindings))
	for _, b := range s.bindings {
		if !b.Deps.Intersects(dirty) && !(selDirty && b.UsesSelection) {
			continue
		}
		st := s.stats[b.ID]
		st.LastPass = s.passes

		res, err := s.render(b, snap)
		if err != nil {
			st.Failures++
			st.LastError = err
			if report.Failed == nil {
				report.Failed = make(map[ViewID]error)
			}
			report.Failed[b.ID] = err
			s.logger.Warn("view render failed, keeping previous output",
				zap.String("view", string(b.ID)),
				zap.Error(err))
			continue
		}
		st.Renders++
		st.LastError = nil
		staged[b.ID] = res
		report.Rendered = append(report.Rendered, b.ID)
	}
	for id, res := range staged {
		s.outputs[id] = res
	}

	s.rendered = s.inputs
	s.primed = true
	s.selectionDirty = false
	s.state = Idle
	report.Duration = time.Since(start)

	s.logger.Debug("pass complete",
		zap.Int("pass", report.Pass),
		zap.Stringer("dirty", report.Dirty),
		zap.Bool("filter_recomputed", report.FilterRecomputed),
		zap.Int("rendered", len(report.Rendered)),
		zap.Int("failed", len(report.Failed)),
		zap.Duration("took", report.Duration))
	return report, true
}

// render builds one view. A panic in the binding is turned into an error so
// the remaining views of the pass still render.
func (s *Session) render(b Binding, snap Snapshot) (res *engine.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("view %s: panic: %v", b.ID, r)
		}
	}()

	spec := b.Spec(snap)
	var view engine.RecordView
	switch b.Source {
	case SourceFiltered:
		view = s.filter.view
	case SourceBase:
		view = s.base
	}

	if b.Render != nil {
		res, err = b.Render(spec, view)
	} else {
		res, err = engine.Execute(spec, view, s.engineOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", b.ID, err)
	}
	if res == nil {
		return nil, fmt.Errorf("view %s: no result", b.ID)
	}
	return res, nil
}

// ============================================================================
// READ ACCESS
// ============================================================================

// Inputs returns the current control values.
func (s *Session) Inputs() InputState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inputs
}

// State returns the scheduler state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Views lists the view ids in render order.
func (s *Session) Views() []ViewID {
	ids := make([]ViewID, len(s.bindings))
	for i, b := range s.bindings {
		ids[i] = b.ID
	}
	return ids
}

// Output returns the latest output of a view. Results are shared and must
// not be modified.
func (s *Session) Output(id ViewID) (*engine.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, id)
	}
	res := s.outputs[id]
	if res == nil {
		return nil, fmt.Errorf("view %s has no output: %w", id, st.LastError)
	}
	return res, nil
}

// Outputs returns the latest output of every rendered view.
func (s *Session) Outputs() map[ViewID]*engine.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[ViewID]*engine.Result, len(s.outputs))
	for id, res := range s.outputs {
		out[id] = res
	}
	return out
}

// Stats returns the render counters of a view.
func (s *Session) Stats(id ViewID) (RenderStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[id]
	if !ok {
		return RenderStats{}, fmt.Errorf("%w: %s", ErrUnknownView, id)
	}
	return *st, nil
}

// Passes returns how many recomputation passes have run.
func (s *Session) Passes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

// FilterRecomputes returns how many times the species filter was evaluated.
func (s *Session) FilterRecomputes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.recomputes
}

// Filtered returns the current filtered table.
func (s *Session) Filtered() engine.RecordView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.view
}

// Selection returns the selected grid rows.
func (s *Session) Selection() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.selection...)
}

func normalizeRows(indices []int, n int) []int {
	seen := make(map[int]bool, len(indices))
	var out []int
	for _, i := range indices {
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func equalRows(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
