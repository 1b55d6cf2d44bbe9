package model

import "sort"

// WideRow is one (participant, time) row of a pivoted table.
type WideRow struct {
	Moniker string
	Time    TimeKey
	Cells   map[string]Value
}

// Cell returns the row's value for a column; absent cells are Null.
func (r WideRow) Cell(column string) Value {
	if v, ok := r.Cells[column]; ok {
		return v
	}
	return NullValue()
}

// WideTable is the analysis-ready wide form of a block: one row per
// (participant, time), one column per canonical variable. Tables are
// derived views; consumers recompute rather than mutate.
type WideTable struct {
	Name    string
	Columns []string
	Rows    []WideRow
}

// Monikers returns the distinct participant IDs, sorted.
func (t *WideTable) Monikers() []string {
	seen := make(map[string]struct{}, len(t.Rows))
	var out []string
	for _, row := range t.Rows {
		if _, ok := seen[row.Moniker]; !ok {
			seen[row.Moniker] = struct{}{}
			out = append(out, row.Moniker)
		}
	}
	sort.Strings(out)
	return out
}

// ParticipantRows returns the rows for one participant sorted
// chronologically by the numeric (day, timepoint) pair.
func (t *WideTable) ParticipantRows(moniker string) []WideRow {
	var rows []WideRow
	for _, row := range t.Rows {
		if row.Moniker == moniker {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Time.Before(rows[j].Time) })
	return rows
}

// GroupRecord is one participant's entry from the group-covariate file.
type GroupRecord struct {
	Moniker    string
	Group      string
	Completion float64
}
