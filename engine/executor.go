package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ============================================================================
// EXECUTOR — Dispatcher
// ============================================================================
// Entry point: Execute(spec, view, opts...)
//
// Pipeline:
//   1. Validate the spec kind
//   2. Dispatch to builder (table / grid / histogram / scatter / summary)
//   3. Mark results over zero rows as Empty with an explicit message
//   4. Recover builder panics into errors so one view cannot take down a pass
//
// Execute never filters. The caller passes the view it wants rendered.
// ============================================================================

// ErrUnknownKind is returned for a ViewSpec.Kind Execute does not handle.
var ErrUnknownKind = errors.New("unknown view kind")

// ErrNilView is returned when a row-backed view kind gets no view.
var ErrNilView = errors.New("nil record view")

// Execute renders one ViewSpec against a RecordView and returns a Result.
//
// Options:
//   - WithLogger(l) — structured logs for each render
//   - WithPalette(m) — series color overrides
//   - WithEmptyMessage(s) — text for the explicit "no data" state
func Execute(spec ViewSpec, view RecordView, opts ...Option) (result *Result, err error) {
	cfg := applyOptions(opts)

	defer func() {
		if r := recover(); r != nil {
			cfg.Logger.Error("view render panicked",
				zap.String("kind", spec.Kind),
				zap.Any("panic", r))
			result = nil
			err = fmt.Errorf("render %s: %v", spec.Kind, r)
		}
	}()

	if spec.Kind == KindSummary {
		return executeSummary(spec)
	}

	if view == nil {
		return nil, fmt.Errorf("render %s: %w", spec.Kind, ErrNilView)
	}

	result = &Result{
		Success: true,
		Title:   spec.Title,
	}

	switch spec.Kind {
	case KindTable:
		result.Type = "table"
		result.TableData = BuildTable(spec, view)

	case KindGrid:
		result.Type = "table"
		result.TableData = BuildGrid(spec, view)

	case KindHistogram:
		result.Type = "chart"
		result.ChartConfig = BuildHistogram(spec, view, cfg)

	case KindScatter:
		result.Type = "chart"
		result.ChartConfig = BuildScatter(spec, view, cfg)

	default:
		return nil, fmt.Errorf("render %q: %w", spec.Kind, ErrUnknownKind)
	}

	if view.Len() == 0 {
		result.Empty = true
		result.Message = cfg.EmptyMessage
	}

	cfg.Logger.Debug("view rendered",
		zap.String("kind", spec.Kind),
		zap.String("title", spec.Title),
		zap.Int("rows", view.Len()),
		zap.Bool("empty", result.Empty))

	return result, nil
}

func executeSummary(spec ViewSpec) (*Result, error) {
	if spec.Summary == nil {
		return nil, fmt.Errorf("render summary: missing summary input")
	}
	data, err := BuildSummary(*spec.Summary)
	if err != nil {
		return nil, err
	}
	return &Result{
		Success: true,
		Type:    "text",
		Title:   spec.Title,
		Summary: data,
	}, nil
}
