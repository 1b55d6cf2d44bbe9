// Package instability computes per-participant mean squared successive
// difference (MSSD) for positive and negative affect composites.
package instability

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/okian/esmtidy/internal/adapters/workers"
	"github.com/okian/esmtidy/internal/domain/model"
	"github.com/okian/esmtidy/pkg/logger"
	"github.com/okian/esmtidy/pkg/metrics"
)

// Polarity labels an affect composite.
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

// Default composite column sets from the study codebook.
// "pleased" appears in BOTH composites; that mirrors the codebook as
// delivered and is suspected to be a labeling error.
// TODO: confirm the negative-composite column list with the study owners.
var (
	defaultPositive = []string{"enthusiastic", "happy", "pleased", "relaxed"}
	defaultNegative = []string{"angry", "pleased", "nervous", "sad", "stressed"}
)

// Record is the terminal derived artifact: one participant, one polarity.
// Defined is false when fewer than two valid consecutive timepoints exist;
// the record is still emitted so the missing value propagates downstream.
type Record struct {
	Moniker  string
	Polarity Polarity
	MSSD     float64
	Defined  bool
	Group    string
}

// Calculator computes MSSD over a wide high-frequency table.
type Calculator struct {
	positive []string
	negative []string
	pool     *workers.Pool
	logger   logger.Logger
}

// New constructs a Calculator with default composites.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		positive: defaultPositive,
		negative: defaultNegative,
		logger:   logger.Get().Named("instability"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pool == nil {
		c.pool = workers.NewPool()
	}
	return c
}

// Compute produces one Record per participant per polarity, with the group
// label merged in when known. Participants fan out across the worker pool;
// the merge sorts by (moniker, polarity) so output never depends on
// scheduling order.
func (c *Calculator) Compute(ctx context.Context, table *model.WideTable, groups map[string]model.GroupRecord) ([]Record, error) {
	monikers := table.Monikers()

	var mu sync.Mutex
	byMoniker := make(map[string][]Record, len(monikers))

	jobs := make([]workers.Job, 0, len(monikers))
	for _, moniker := range monikers {
		moniker := moniker
		jobs = append(jobs, func(ctx context.Context) error {
			records := c.participantRecords(table, moniker, groups)
			mu.Lock()
			byMoniker[moniker] = records
			mu.Unlock()
			return nil
		})
	}
	if err := c.pool.Run(ctx, jobs); err != nil {
		return nil, err
	}

	out := make([]Record, 0, 2*len(monikers))
	for _, moniker := range monikers {
		out = append(out, byMoniker[moniker]...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Moniker != out[j].Moniker {
			return out[i].Moniker < out[j].Moniker
		}
		return out[i].Polarity < out[j].Polarity
	})

	defined := 0
	for _, r := range out {
		if r.Defined {
			defined++
			metrics.RecordInstabilityScore()
		} else {
			metrics.RecordUndefinedInstability()
		}
	}
	c.logger.Info(ctx, "computed instability records",
		logger.Int("participants", len(monikers)),
		logger.Int("records", len(out)),
		logger.Int("undefined", len(out)-defined),
	)
	return out, nil
}

func (c *Calculator) participantRecords(table *model.WideTable, moniker string, groups map[string]model.GroupRecord) []Record {
	// ParticipantRows already resorts by the numeric (day, timepoint) pair;
	// sequential indices 1..K follow that order, never the composite string
	// sort.
	rows := table.ParticipantRows(moniker)

	group := ""
	if g, ok := groups[moniker]; ok {
		group = g.Group
	}

	records := make([]Record, 0, 2)
	for _, polarity := range []Polarity{Positive, Negative} {
		columns := c.positive
		if polarity == Negative {
			columns = c.negative
		}
		mssd, defined := MSSD(compositeSeries(rows, columns))
		records = append(records, Record{
			Moniker:  moniker,
			Polarity: polarity,
			MSSD:     mssd,
			Defined:  defined,
			Group:    group,
		})
	}
	return records
}

// compositeSeries maps each row to the mean of its composite columns.
// A row with any component missing yields NaN: the composite is undefined
// there and the adjacent differences are skipped.
func compositeSeries(rows []model.WideRow, columns []string) []float64 {
	series := make([]float64, len(rows))
	for i, row := range rows {
		var sum float64
		ok := true
		for _, col := range columns {
			v := row.Cell(col)
			if v.IsNull() || v.Kind != model.Number {
				ok = false
				break
			}
			sum += v.Num
		}
		if !ok {
			series[i] = math.NaN()
			continue
		}
		series[i] = sum / float64(len(columns))
	}
	return series
}

// MSSD computes sqrt(mean((x_t - x_{t-1})^2)) over all valid consecutive
// pairs. The first timepoint has no difference and is dropped, not
// zero-filled. With no valid pair the result is undefined (false), never
// zero and never an error.
func MSSD(series []float64) (float64, bool) {
	var sum float64
	pairs := 0
	for t := 1; t < len(series); t++ {
		if math.IsNaN(series[t]) || math.IsNaN(series[t-1]) {
			continue
		}
		diff := series[t] - series[t-1]
		sum += diff * diff
		pairs++
	}
	if pairs == 0 {
		return 0, false
	}
	return math.Sqrt(sum / float64(pairs)), true
}
