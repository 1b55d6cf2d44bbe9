// Package reshape pivots long cleaned observations into wide tables keyed by
// (participant, time). Key uniqueness is the primary correctness gate for the
// upstream filters: a duplicate key halts the pivot rather than silently
// picking a value.
package reshape

import (
	"context"
	"sort"

	"github.com/okian/esmtidy/internal/domain/keyset"
	"github.com/okian/esmtidy/internal/domain/model"
	"github.com/okian/esmtidy/pkg/logger"
	"github.com/okian/esmtidy/pkg/metrics"
)

// Pivot reshapes observations into one row per (participant, time) and one
// column per canonical variable. A non-unique (participant, time, variable)
// key fails the whole block with a DuplicateKeyError.
func Pivot(ctx context.Context, name string, obs []model.CleanedObservation) (*model.WideTable, error) {
	tracker := keyset.NewInMemoryTracker(keyset.WithCapacityHint(len(obs)))

	type rowKey struct {
		moniker string
		time    model.TimeKey
	}

	columns := make(map[string]struct{})
	rows := make(map[rowKey]map[string]model.Value)

	for _, o := range obs {
		if tracker.SeenAndRecord(ctx, o.Key()) {
			metrics.RecordDuplicateKey()
			return nil, &DuplicateKeyError{
				Table:    name,
				Moniker:  o.Moniker,
				Time:     o.Time.Composite(),
				Variable: o.Variable,
				Count:    occurrences(obs, o.Key()),
			}
		}

		columns[o.Variable] = struct{}{}
		rk := rowKey{moniker: o.Moniker, time: o.Time}
		if rows[rk] == nil {
			rows[rk] = make(map[string]model.Value)
		}
		rows[rk][o.Variable] = o.Answer
	}

	table := &model.WideTable{
		Name:    name,
		Columns: make([]string, 0, len(columns)),
		Rows:    make([]model.WideRow, 0, len(rows)),
	}
	for col := range columns {
		table.Columns = append(table.Columns, col)
	}
	sort.Strings(table.Columns)

	for rk, cells := range rows {
		table.Rows = append(table.Rows, model.WideRow{Moniker: rk.moniker, Time: rk.time, Cells: cells})
	}
	sort.Slice(table.Rows, func(i, j int) bool {
		a, b := table.Rows[i], table.Rows[j]
		if a.Moniker != b.Moniker {
			return a.Moniker < b.Moniker
		}
		return a.Time.Before(b.Time)
	})

	logger.Named("reshape").Info(ctx, "pivoted block",
		logger.String("table", name),
		logger.Int("rows", len(table.Rows)),
		logger.Int("columns", len(table.Columns)),
	)
	return table, nil
}

// occurrences counts how many observations share a key, so the duplicate
// error names the full count.
func occurrences(obs []model.CleanedObservation, key string) int {
	count := 0
	for _, o := range obs {
		if o.Key() == key {
			count++
		}
	}
	return count
}

// Melt inverts a pivot: one observation per non-null cell, rows in table
// order, columns in column order. Used to verify pivot round-trips.
func Melt(table *model.WideTable) []model.CleanedObservation {
	var out []model.CleanedObservation
	seq := 0
	for _, row := range table.Rows {
		for _, col := range table.Columns {
			v, ok := row.Cells[col]
			if !ok || v.IsNull() {
				continue
			}
			out = append(out, model.CleanedObservation{
				Moniker:  row.Moniker,
				Variable: col,
				Answer:   v,
				Time:     row.Time,
				Seq:      seq,
			})
			seq++
		}
	}
	return out
}
