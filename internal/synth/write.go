package synth

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/okian/esmtidy/pkg/logger"
)

// File names written by WriteFiles, matching the pipeline's default inputs.
const (
	SurveyFile   = "survey.csv"
	KeyTableFile = "variable_key.csv"
	GroupsFile   = "groups.csv"
)

// WriteFiles writes the dataset as the three CSV inputs the pipeline reads.
func (d *Dataset) WriteFiles(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	survey := [][]string{{"moniker", "block", "item", "answer", "timepoint", "testingday"}}
	for _, row := range d.Survey {
		survey = append(survey, []string{
			row.Moniker, row.Block, row.ItemCode, row.Answer, row.Timepoint, row.TestingDay,
		})
	}
	if err := writeCSV(filepath.Join(dir, SurveyFile), survey); err != nil {
		return err
	}

	keys := [][]string{{"block", "item", "variable"}}
	for _, entry := range d.KeyTable {
		keys = append(keys, []string{strconv.Itoa(entry.Block), entry.Item, entry.Variable})
	}
	if err := writeCSV(filepath.Join(dir, KeyTableFile), keys); err != nil {
		return err
	}

	groups := [][]string{{"moniker", "group", "completion"}}
	for _, rec := range d.Groups {
		groups = append(groups, []string{
			rec.Moniker, rec.Group, strconv.FormatFloat(rec.Completion, 'f', 2, 64),
		})
	}
	if err := writeCSV(filepath.Join(dir, GroupsFile), groups); err != nil {
		return err
	}

	logger.Named("synth").Info(ctx, "wrote dataset files",
		logger.String("dir", dir),
		logger.Int("survey_rows", len(d.Survey)),
	)
	return nil
}

func writeCSV(path string, rows [][]string) error {
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
	return nil
}
