package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/okian/esmtidy/internal/domain/instability"
	"github.com/okian/esmtidy/internal/domain/model"
	"github.com/okian/esmtidy/pkg/logger"
)

// WriteLong exports cleaned long-format observations.
func WriteLong(ctx context.Context, path string, obs []model.CleanedObservation) error {
	rows := make([][]string, 0, len(obs)+1)
	rows = append(rows, []string{"moniker", "block", "variable", "answer", "timepoint", "testingday", "timekey"})
	for _, o := range obs {
		rows = append(rows, []string{
			o.Moniker,
			strconv.Itoa(o.Block),
			o.Variable,
			o.Answer.String(),
			strconv.Itoa(o.Time.Point),
			strconv.Itoa(o.Time.Day),
			o.Time.Composite(),
		})
	}
	return writeAll(ctx, path, rows)
}

// WriteWide exports a wide table, one column per canonical variable.
func WriteWide(ctx context.Context, path string, table *model.WideTable) error {
	header := append([]string{"moniker", "timekey"}, table.Columns...)
	rows := make([][]string, 0, len(table.Rows)+1)
	rows = append(rows, header)
	for _, row := range table.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, row.Moniker, row.Time.Composite())
		for _, col := range table.Columns {
			rec = append(rec, row.Cell(col).String())
		}
		rows = append(rows, rec)
	}
	return writeAll(ctx, path, rows)
}

// WriteInstability exports MSSD records. Undefined values export as the
// empty-string null sentinel, never as zero.
func WriteInstability(ctx context.Context, path string, records []instability.Record) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{"moniker", "polarity", "mssd", "group"})
	for _, r := range records {
		mssd := ""
		if r.Defined {
			mssd = strconv.FormatFloat(r.MSSD, 'f', -1, 64)
		}
		rows = append(rows, []string{r.Moniker, string(r.Polarity), mssd, r.Group})
	}
	return writeAll(ctx, path, rows)
}

// writeAll writes a whole CSV file; any failure is fatal for the export.
func writeAll(ctx context.Context, path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	writer := csv.NewWriter(f)
	if err := writer.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrWrite, path, err)
	}

	logger.Named("csvfile").Info(ctx, "wrote table",
		logger.String("path", path),
		logger.Int("rows", len(rows)-1),
	)
	return nil
}
