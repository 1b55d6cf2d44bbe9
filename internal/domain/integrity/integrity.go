// Package integrity checks observation counts against the expected
// cardinality and supports drill-down into under-represented time keys.
// Verification is diagnostic: discrepancies are reported, never fatal, since
// incomplete collection is expected and exclusion policy belongs downstream.
package integrity

import (
	"context"
	"sort"

	"github.com/okian/esmtidy/internal/domain/model"
	"github.com/okian/esmtidy/pkg/logger"
)

// TimeKeyCount summarizes one composite time key.
type TimeKeyCount struct {
	Time         string
	Rows         int
	Participants int
}

// Report is the structured discrepancy report for one block.
type Report struct {
	Expected int
	Observed int

	// TimeKeys holds per-time-key totals sorted by participant presence
	// ascending, so the most suspect keys come first.
	TimeKeys []TimeKeyCount

	roster   []string
	presence map[string]map[string]int
}

// Deficit returns expected minus observed rows.
func (r *Report) Deficit() int { return r.Expected - r.Observed }

// Complete reports whether observed counts match expectations exactly.
func (r *Report) Complete() bool { return r.Deficit() == 0 }

// Roster returns the sorted distinct monikers observed in the block.
func (r *Report) Roster() []string { return r.roster }

// UnderRepresented returns the time keys missing at least one participant.
func (r *Report) UnderRepresented() []TimeKeyCount {
	var out []TimeKeyCount
	for _, tk := range r.TimeKeys {
		if tk.Participants < len(r.roster) {
			out = append(out, tk)
		}
	}
	return out
}

// MissingMonikers identifies exactly which participants have no rows at the
// given composite time key.
func (r *Report) MissingMonikers(timeKey string) []string {
	present := r.presence[timeKey]
	var missing []string
	for _, m := range r.roster {
		if present[m] == 0 {
			missing = append(missing, m)
		}
	}
	return missing
}

// PresenceCount returns the number of rows a participant holds at a time key.
func (r *Report) PresenceCount(timeKey, moniker string) int {
	return r.presence[timeKey][moniker]
}

// Verify compares observed row counts against participants x perParticipant
// and builds the drill-down structures. It never fails on a deficit.
func Verify(ctx context.Context, obs []model.CleanedObservation, participants, perParticipant int) *Report {
	r := &Report{
		Expected: participants * perParticipant,
		Observed: len(obs),
		presence: make(map[string]map[string]int),
	}

	monikers := make(map[string]struct{})
	for _, o := range obs {
		monikers[o.Moniker] = struct{}{}
		tk := o.Time.Composite()
		if r.presence[tk] == nil {
			r.presence[tk] = make(map[string]int)
		}
		r.presence[tk][o.Moniker]++
	}

	r.roster = make([]string, 0, len(monikers))
	for m := range monikers {
		r.roster = append(r.roster, m)
	}
	sort.Strings(r.roster)

	r.TimeKeys = make([]TimeKeyCount, 0, len(r.presence))
	for tk, byMoniker := range r.presence {
		rows := 0
		for _, n := range byMoniker {
			rows += n
		}
		r.TimeKeys = append(r.TimeKeys, TimeKeyCount{Time: tk, Rows: rows, Participants: len(byMoniker)})
	}
	sort.Slice(r.TimeKeys, func(i, j int) bool {
		a, b := r.TimeKeys[i], r.TimeKeys[j]
		if a.Participants != b.Participants {
			return a.Participants < b.Participants
		}
		return a.Time < b.Time
	})

	// The deficit gauge is recorded by the pipeline, which sums both blocks;
	// writing it per Verify call would leave whichever block ran last.
	log := logger.Named("integrity")
	if r.Complete() {
		log.Info(ctx, "observation counts match expectations",
			logger.Int("observed", r.Observed))
	} else {
		log.Warn(ctx, "observation count mismatch",
			logger.Int("expected", r.Expected),
			logger.Int("observed", r.Observed),
			logger.Int("deficit", r.Deficit()),
			logger.Int("suspectTimeKeys", len(r.UnderRepresented())),
		)
	}
	return r
}
