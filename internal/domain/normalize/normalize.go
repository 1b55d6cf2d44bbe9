// Package normalize turns raw survey rows into typed observations, dropping
// structurally invalid rows along the way. Invalid rows are never fatal.
package normalize

import (
	"context"
	"strconv"
	"strings"

	"github.com/okian/esmtidy/internal/domain/model"
	"github.com/okian/esmtidy/pkg/logger"
	"github.com/okian/esmtidy/pkg/metrics"
)

// defaultDaySentinel marks erroneous session starts in the testing-day field.
const defaultDaySentinel = "0"

// answerPrefixes collapses anchored Likert label text to endpoint values and
// yes/no to binary. First matching prefix wins; matching is case-sensitive
// to mirror the survey software's anchor text.
var answerPrefixes = []struct {
	prefix string
	value  float64
}{
	{"1", 1},
	{"7", 7},
	{"no", 0},
	{"yes", 1},
}

// DropStats counts rows removed during normalization, by reason.
type DropStats struct {
	SentinelDay int
	Excluded    int
	NullItem    int
	Structural  int
}

// Total returns the number of dropped rows across all reasons.
func (d DropStats) Total() int {
	return d.SentinelDay + d.Excluded + d.NullItem + d.Structural
}

// Normalizer applies the loading and answer-coding rules.
type Normalizer struct {
	daySentinel string
	excluded    map[string]struct{}
	logger      logger.Logger
}

// New constructs a Normalizer with default configuration.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		daySentinel: defaultDaySentinel,
		excluded:    map[string]struct{}{},
		logger:      logger.Get().Named("normalize"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize converts raw rows to typed observations. Rows are dropped for a
// sentinel testing day, an excluded moniker, a null item code (instructional
// screens), or a structural parse failure. Exclusion removal is total: no row
// for an excluded moniker survives.
func (n *Normalizer) Normalize(ctx context.Context, rows []model.RawObservation) ([]model.Observation, DropStats) {
	out := make([]model.Observation, 0, len(rows))
	var stats DropStats

	for i, row := range rows {
		if row.TestingDay == n.daySentinel {
			stats.SentinelDay++
			continue
		}
		if _, ok := n.excluded[row.Moniker]; ok {
			stats.Excluded++
			continue
		}
		if strings.TrimSpace(row.ItemCode) == "" {
			// Instructional screens carry no item code; they are not
			// unanswered questions and must not count as missing data.
			stats.NullItem++
			continue
		}

		block, err := strconv.Atoi(strings.TrimSpace(row.Block))
		if err != nil {
			stats.Structural++
			continue
		}
		day, err := strconv.Atoi(strings.TrimSpace(row.TestingDay))
		if err != nil {
			stats.Structural++
			continue
		}
		point, err := strconv.Atoi(strings.TrimSpace(row.Timepoint))
		if err != nil {
			stats.Structural++
			continue
		}

		out = append(out, model.Observation{
			Moniker: row.Moniker,
			Block:   block,
			Item:    strings.TrimSpace(row.ItemCode),
			Answer:  CodeAnswer(row.Answer),
			Time:    model.TimeKey{Day: day, Point: point},
			Seq:     i,
		})
	}

	metrics.RecordRowsDropped(metrics.ReasonSentinelDay, stats.SentinelDay)
	metrics.RecordRowsDropped(metrics.ReasonExcludedID, stats.Excluded)
	metrics.RecordRowsDropped(metrics.ReasonNullItem, stats.NullItem)
	metrics.RecordRowsDropped(metrics.ReasonStructural, stats.Structural)

	n.logger.Info(ctx, "normalized rows",
		logger.Int("in", len(rows)),
		logger.Int("out", len(out)),
		logger.Int("sentinelDay", stats.SentinelDay),
		logger.Int("excluded", stats.Excluded),
		logger.Int("nullItem", stats.NullItem),
		logger.Int("structural", stats.Structural),
	)
	return out, stats
}

// CodeAnswer maps raw answer text to a typed value. Prefix rules apply first
// (anchored scale endpoints and yes/no), then a plain numeric parse; anything
// else is free text, and empty is null.
func CodeAnswer(raw string) model.Value {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return model.NullValue()
	}
	for _, rule := range answerPrefixes {
		if strings.HasPrefix(trimmed, rule.prefix) {
			return model.NumberValue(rule.value)
		}
	}
	if num, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return model.NumberValue(num)
	}
	return model.TextValue(trimmed)
}
