// Package csvfile reads and writes the pipeline's delimited-text interfaces:
// the raw survey export, the variable-key codebook, the group-covariate file,
// and the cleaned/derived output tables. The empty string is the null
// sentinel in both directions.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/okian/esmtidy/internal/domain/model"
	"github.com/okian/esmtidy/internal/domain/remap"
	"github.com/okian/esmtidy/pkg/logger"
	"github.com/okian/esmtidy/pkg/metrics"
)

// ReadStats counts rows handled by a reader.
type ReadStats struct {
	Rows    int
	Skipped int
}

// ReadSurvey parses the raw long-format survey file. A failure to open or
// read the file is fatal for the invocation (partial reads are not
// accepted); individually malformed rows are skipped and counted.
func ReadSurvey(ctx context.Context, path string) ([]model.RawObservation, ReadStats, error) {
	var stats ReadStats

	records, header, err := readAll(path)
	if err != nil {
		return nil, stats, err
	}

	cols, err := columnIndex(header, "moniker", "block", "item", "answer", "timepoint", "testingday")
	if err != nil {
		return nil, stats, fmt.Errorf("%w: %s: %v", ErrHeader, path, err)
	}

	out := make([]model.RawObservation, 0, len(records))
	for _, rec := range records {
		if len(rec) <= maxIndex(cols) {
			stats.Skipped++
			continue
		}
		out = append(out, model.RawObservation{
			Moniker:    rec[cols["moniker"]],
			Block:      rec[cols["block"]],
			ItemCode:   rec[cols["item"]],
			Answer:     rec[cols["answer"]],
			Timepoint:  rec[cols["timepoint"]],
			TestingDay: rec[cols["testingday"]],
		})
	}
	stats.Rows = len(out)

	metrics.RecordRowsRead(stats.Rows)
	logger.Named("csvfile").Info(ctx, "read survey file",
		logger.String("path", path),
		logger.Int("rows", stats.Rows),
		logger.Int("skipped", stats.Skipped),
	)
	return out, stats, nil
}

// ReadKeyTable parses the variable-key codebook into an immutable lookup.
func ReadKeyTable(ctx context.Context, path string) (*remap.KeyTable, error) {
	records, header, err := readAll(path)
	if err != nil {
		return nil, err
	}

	cols, err := columnIndex(header, "block", "item", "variable")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrHeader, path, err)
	}

	entries := make([]remap.Entry, 0, len(records))
	for _, rec := range records {
		if len(rec) <= maxIndex(cols) {
			continue
		}
		block, err := strconv.Atoi(strings.TrimSpace(rec[cols["block"]]))
		if err != nil {
			continue
		}
		entries = append(entries, remap.Entry{
			Block:    block,
			Item:     strings.TrimSpace(rec[cols["item"]]),
			Variable: strings.TrimSpace(rec[cols["variable"]]),
		})
	}

	table, err := remap.BuildKeyTable(entries)
	if err != nil {
		return nil, err
	}
	logger.Named("csvfile").Info(ctx, "read variable key table",
		logger.String("path", path),
		logger.Int("keys", table.Size()),
	)
	return table, nil
}

// ReadGroups parses the group-covariate file keyed by moniker.
func ReadGroups(ctx context.Context, path string) (map[string]model.GroupRecord, error) {
	records, header, err := readAll(path)
	if err != nil {
		return nil, err
	}

	cols, err := columnIndex(header, "moniker", "group", "completion")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrHeader, path, err)
	}

	out := make(map[string]model.GroupRecord, len(records))
	skipped := 0
	for _, rec := range records {
		if len(rec) <= maxIndex(cols) {
			skipped++
			continue
		}
		completion, err := strconv.ParseFloat(strings.TrimSpace(rec[cols["completion"]]), 64)
		if err != nil {
			skipped++
			continue
		}
		moniker := rec[cols["moniker"]]
		out[moniker] = model.GroupRecord{
			Moniker:    moniker,
			Group:      rec[cols["group"]],
			Completion: completion,
		}
	}

	logger.Named("csvfile").Info(ctx, "read group covariates",
		logger.String("path", path),
		logger.Int("participants", len(out)),
		logger.Int("skipped", skipped),
	)
	return out, nil
}

// readAll reads a whole CSV file, returning data records and the header row.
// All-or-nothing: any read error is fatal.
func readAll(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrRead, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s: %v", ErrRead, path, err)
		}
		records = append(records, rec)
	}
	return records, header, nil
}

// columnIndex resolves required header names to positions,
// case-insensitively.
func columnIndex(header []string, required ...string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	out := make(map[string]int, len(required))
	for _, name := range required {
		pos, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		out[name] = pos
	}
	return out, nil
}

// maxIndex returns the largest resolved column position. Columns are
// resolved by name, so a row is complete only when it reaches past every
// required position, wherever the header put them.
func maxIndex(cols map[string]int) int {
	max := 0
	for _, pos := range cols {
		if pos > max {
			max = pos
		}
	}
	return max
}
