// Package blocks partitions cleaned observations into timescale-consistent
// blocks and applies the mind-wandering branching-logic filter.
package blocks

import (
	"context"
	"sort"

	"github.com/okian/esmtidy/internal/domain/model"
	"github.com/okian/esmtidy/pkg/logger"
	"github.com/okian/esmtidy/pkg/metrics"
)

// dailyBlockID is the block carrying the daily-cadence items (mood, sleep,
// regulation strategies).
const dailyBlockID = 2

// SplitSpec names the two Block 1 variable groups. Both share the
// high-frequency timescale.
type SplitSpec struct {
	Emotion       []string
	MindWandering []string
}

// Split partitions cleaned observations into the high-frequency block
// (union of the emotion and mind-wandering variable groups) and the daily
// block. The union introduces no duplicate (participant, time, variable)
// triples because each row lands in at most one partition.
func Split(ctx context.Context, cleaned []model.CleanedObservation, spec SplitSpec) (block1, block2 []model.CleanedObservation) {
	members := make(map[string]struct{}, len(spec.Emotion)+len(spec.MindWandering))
	for _, v := range spec.Emotion {
		members[v] = struct{}{}
	}
	for _, v := range spec.MindWandering {
		members[v] = struct{}{}
	}

	for _, obs := range cleaned {
		if obs.Block == dailyBlockID {
			block2 = append(block2, obs)
			continue
		}
		if _, ok := members[obs.Variable]; ok {
			block1 = append(block1, obs)
		}
	}

	logger.Named("blocks").Info(ctx, "split blocks",
		logger.Int("in", len(cleaned)),
		logger.Int("block1", len(block1)),
		logger.Int("block2", len(block2)),
	)
	return block1, block2
}

// FilterBranching removes mind-wandering follow-up rows that are absent by
// skip logic rather than by data loss. Within each (participant, time) group,
// ordered by original file position, the first gate answer of 0 immediately
// followed by a null answer truncates the group: the gate row itself is kept,
// everything after it is dropped. Groups without that pattern are kept whole;
// this is a benign branch-skip detector, never an error.
func FilterBranching(ctx context.Context, obs []model.CleanedObservation, gateVariable string) ([]model.CleanedObservation, int) {
	type groupKey struct {
		moniker string
		time    string
	}

	groups := make(map[groupKey][]int)
	for i, o := range obs {
		k := groupKey{moniker: o.Moniker, time: o.Time.Composite()}
		groups[k] = append(groups[k], i)
	}

	dropped := make(map[int]struct{})
	for _, indices := range groups {
		// Stable resort by recorded order; map iteration must never decide
		// what gets truncated.
		sort.Slice(indices, func(a, b int) bool { return obs[indices[a]].Seq < obs[indices[b]].Seq })

		cut := -1
		for pos := 0; pos < len(indices)-1; pos++ {
			row := obs[indices[pos]]
			next := obs[indices[pos+1]]
			if row.Variable == gateVariable &&
				row.Answer.Kind == model.Number && row.Answer.Num == 0 &&
				next.Answer.IsNull() {
				cut = pos
				break
			}
		}
		if cut < 0 {
			continue
		}
		for _, idx := range indices[cut+1:] {
			dropped[idx] = struct{}{}
		}
	}

	out := make([]model.CleanedObservation, 0, len(obs)-len(dropped))
	for i, o := range obs {
		if _, gone := dropped[i]; !gone {
			out = append(out, o)
		}
	}

	metrics.RecordRowsDropped(metrics.ReasonBranchSkipped, len(dropped))
	logger.Named("blocks").Info(ctx, "applied branching filter",
		logger.Int("in", len(obs)),
		logger.Int("out", len(out)),
		logger.Int("branchSkipped", len(dropped)),
	)
	return out, len(dropped)
}
