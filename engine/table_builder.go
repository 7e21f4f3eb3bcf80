package engine

import (
	"fmt"
	"sort"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from ViewSpec + RecordView
// ============================================================================
// Column discovery uses view.DimensionKeys() and view.MeasureKeys(), so the
// table follows whatever column order the bound view declares.
// ============================================================================

// BuildTable produces a TableData listing every column and every row.
func BuildTable(spec ViewSpec, view RecordView) *TableData {
	dimKeys := view.DimensionKeys()
	mesKeys := view.MeasureKeys()

	columns := make([]Column, 0, len(dimKeys)+len(mesKeys))
	for _, key := range dimKeys {
		columns = append(columns, Column{
			Key:   key,
			Label: LabelForDimension(key),
			Type:  "text",
			Align: "left",
		})
	}
	for _, key := range mesKeys {
		columns = append(columns, Column{
			Key:   key,
			Label: LabelForDimension(key),
			Type:  "number",
			Align: "right",
		})
	}

	n := view.Len()
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		row := make([]string, 0, len(columns))
		for _, key := range dimKeys {
			row = append(row, view.Dimension(i, key))
		}
		for _, key := range mesKeys {
			row = append(row, FormatNumber(view.Measure(i, key)))
		}
		rows = append(rows, row)
	}

	return &TableData{
		Title:   spec.Title,
		Columns: columns,
		Rows:    rows,
		Summary: &Summary{
			Label:  fmt.Sprintf("%s rows", FormatInt(n)),
			Values: map[string]string{"rows": fmt.Sprintf("%d", n)},
		},
	}
}

// BuildGrid produces a selectable TableData. Selected indices outside the
// view are dropped; the rest are sorted and de-duplicated.
func BuildGrid(spec ViewSpec, view RecordView) *TableData {
	table := BuildTable(spec, view)
	table.Selectable = true
	table.Selected = normalizeSelection(spec.Selected, view.Len())
	if len(table.Selected) > 0 {
		table.Summary.Values["selected"] = fmt.Sprintf("%d", len(table.Selected))
	}
	return table
}

func normalizeSelection(selected []int, n int) []int {
	if len(selected) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(selected))
	out := make([]int, 0, len(selected))
	for _, idx := range selected {
		if idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	sort.Ints(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
