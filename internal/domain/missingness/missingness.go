// Package missingness quantifies null cells in wide tables and compares
// completion rates across clinical groups.
//
// Branching-logic missingness is handled upstream by the branching filter;
// what remains here is true missingness plus whatever the caller chooses to
// keep (the defective sleep/wake clock variables are excludable by option,
// not hardcoded).
package missingness

import (
	"sort"
	"strings"

	"github.com/okian/esmtidy/internal/domain/model"
	"github.com/okian/esmtidy/pkg/metrics"
)

// RowMissingness is the null fraction for one (participant, time) row.
type RowMissingness struct {
	Moniker  string
	Time     string
	Fraction float64
}

// Pattern is one distinct combination of jointly-null columns.
type Pattern struct {
	Columns      []string
	Count        int
	ContainsGate bool
}

// Report summarizes null cells for one wide table.
type Report struct {
	Table    string
	Columns  []string
	Excluded []string

	ByColumn map[string]float64
	ByRow    []RowMissingness
	Patterns []Pattern

	TotalCells   int
	MissingCells int
}

// Profile computes per-column and per-row null fractions and enumerates
// distinct missingness patterns sorted by frequency descending.
func Profile(table *model.WideTable, opts ...Option) *Report {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}

	excluded := make(map[string]struct{}, len(cfg.excludedColumns))
	for _, c := range cfg.excludedColumns {
		excluded[c] = struct{}{}
	}

	report := &Report{
		Table:    table.Name,
		ByColumn: make(map[string]float64),
	}
	for _, col := range table.Columns {
		if _, out := excluded[col]; out {
			report.Excluded = append(report.Excluded, col)
			continue
		}
		report.Columns = append(report.Columns, col)
	}
	report.Columns = orderColumns(report.Columns, cfg.gateColumn)

	nullsByColumn := make(map[string]int, len(report.Columns))
	patternCounts := make(map[string]int)

	for _, row := range table.Rows {
		rowNulls := 0
		var nullCols []string
		for _, col := range report.Columns {
			if row.Cell(col).IsNull() {
				rowNulls++
				nullsByColumn[col]++
				nullCols = append(nullCols, col)
			}
		}
		report.TotalCells += len(report.Columns)
		report.MissingCells += rowNulls
		report.ByRow = append(report.ByRow, RowMissingness{
			Moniker:  row.Moniker,
			Time:     row.Time.Composite(),
			Fraction: fraction(rowNulls, len(report.Columns)),
		})
		if len(nullCols) > 0 {
			patternCounts[strings.Join(nullCols, "|")]++
		}
	}

	for _, col := range report.Columns {
		report.ByColumn[col] = fraction(nullsByColumn[col], len(table.Rows))
	}

	for key, count := range patternCounts {
		cols := strings.Split(key, "|")
		report.Patterns = append(report.Patterns, Pattern{
			Columns:      cols,
			Count:        count,
			ContainsGate: cfg.gateColumn != "" && contains(cols, cfg.gateColumn),
		})
	}
	sort.Slice(report.Patterns, func(i, j int) bool {
		a, b := report.Patterns[i], report.Patterns[j]
		// Gate-involving patterns group last so branch-adjacent missingness
		// separates visibly from true missingness.
		if a.ContainsGate != b.ContainsGate {
			return !a.ContainsGate
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return strings.Join(a.Columns, "|") < strings.Join(b.Columns, "|")
	})

	metrics.RecordMissingCells(report.MissingCells)
	return report
}

// orderColumns keeps the caller's column order but floats the gate column to
// the front when one is designated.
func orderColumns(columns []string, gate string) []string {
	if gate == "" {
		return columns
	}
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c == gate {
			out = append(out, c)
		}
	}
	for _, c := range columns {
		if c != gate {
			out = append(out, c)
		}
	}
	return out
}

func contains(cols []string, target string) bool {
	for _, c := range cols {
		if c == target {
			return true
		}
	}
	return false
}

func fraction(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
