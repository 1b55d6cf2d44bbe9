// Package synth generates synthetic experience-sampling datasets with the
// same shape and the same defects as a real export: label-prefixed answers,
// session-start sentinel rows, structural prompt rows, branch-skipped
// follow-ups, and randomly missing answers. The output files feed the
// cleaning pipeline end to end without any real participant data.
package synth

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"

	"github.com/okian/esmtidy/internal/adapters/workers"
	"github.com/okian/esmtidy/internal/domain/model"
	"github.com/okian/esmtidy/internal/domain/remap"
	"github.com/okian/esmtidy/pkg/logger"
)

// Scale answer labels, mirroring the survey platform's export format where
// the anchor points carry their text labels.
const (
	labelLow  = "1 - Not at all"
	labelHigh = "7 - Very much"
)

const (
	highFrequencyBlock = 1
	dailyBlock         = 2
)

var groupLabels = []string{"control", "depression", "anxiety", "comorbid"}

// Config controls the generated dataset's shape and defect rates.
type Config struct {
	Participants int
	Days         int
	PointsPerDay int

	// MissingRate is the probability an answer is blank for reasons other
	// than branching logic. SkipRate is the probability a beep reports no
	// mind wandering, which blanks the whole follow-up chain.
	MissingRate float64
	SkipRate    float64

	// SentinelRate is the probability a beep is preceded by an erroneous
	// session-start row carrying testing day zero.
	SentinelRate float64

	// Pilots inserts this many extra pilot participants whose monikers the
	// cleaning run is expected to exclude.
	Pilots int

	Seed    int64
	Workers int
}

// Stats counts what the generator produced.
type Stats struct {
	Rows           int
	SentinelRows   int
	StructuralRows int
	BranchSkips    int
	MissingBlanks  int
}

// Dataset is a complete synthetic study: the raw survey rows, the variable
// codebook behind them, and the per-participant covariates.
type Dataset struct {
	Survey   []model.RawObservation
	KeyTable []remap.Entry
	Groups   []model.GroupRecord
}

type variable struct {
	item string
	name string
}

// Schemas follow the study codebook: eight emotion items and a gated
// mind-wandering chain on the beep-level block, sleep items on the daily
// block. The gate must precede its follow-ups in item order.
var (
	emotionVars = []variable{
		{"11", "angry"}, {"12", "enthusiastic"}, {"13", "happy"},
		{"14", "nervous"}, {"15", "pleased"}, {"16", "relaxed"},
		{"17", "sad"}, {"18", "stressed"},
	}
	mindWanderingVars = []variable{
		{"21", "MWoccur"}, {"22", "MWvalence"}, {"23", "MWsubject"},
		{"24", "MWtime"}, {"25", "MWimmersion"}, {"26", "MWcontrol"},
		{"27", "MWspecificity"},
	}
	dailyVars = []variable{
		{"31", "sleepquality"}, {"32", "sleeptime"}, {"33", "waketime"},
	}
	// Suffixed response-time codes exported alongside a handful of items.
	responseTimeVars = []variable{
		{"13t", "happy_rt"}, {"21t", "MWoccur_rt"},
	}
)

// Generate builds a synthetic dataset. Participants are generated
// concurrently and assembled in moniker order, so the same seed always
// yields the same file contents.
func Generate(ctx context.Context, cfg Config) (*Dataset, *Stats, error) {
	if cfg.Participants <= 0 || cfg.Days <= 0 || cfg.PointsPerDay <= 0 {
		return nil, nil, fmt.Errorf("%w: participants, days, and points must be positive", ErrInvalidConfig)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	log := logger.Named("synth")
	log.Info(ctx, "generating synthetic dataset",
		logger.Int("participants", cfg.Participants),
		logger.Int("days", cfg.Days),
		logger.Int("points_per_day", cfg.PointsPerDay),
	)

	monikers := make([]string, 0, cfg.Participants+cfg.Pilots)
	for i := 0; i < cfg.Participants; i++ {
		monikers = append(monikers, fmt.Sprintf("p%03d", i+1))
	}
	for i := 0; i < cfg.Pilots; i++ {
		monikers = append(monikers, fmt.Sprintf("pilot%d", i+1))
	}

	perParticipant := make([][]model.RawObservation, len(monikers))
	perStats := make([]Stats, len(monikers))
	var mu sync.Mutex

	jobs := make([]workers.Job, 0, len(monikers))
	for i, moniker := range monikers {
		i, moniker := i, moniker
		jobs = append(jobs, func(ctx context.Context) error {
			// Each participant gets an independent deterministic stream so
			// the worker schedule cannot change the output.
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			rows, stats := generateParticipant(rng, cfg, moniker)
			mu.Lock()
			perParticipant[i] = rows
			perStats[i] = stats
			mu.Unlock()
			return nil
		})
	}

	pool := workers.NewPool(workers.WithSize(cfg.Workers), workers.WithLogger(log))
	if err := pool.Run(ctx, jobs); err != nil {
		return nil, nil, err
	}

	ds := &Dataset{
		KeyTable: keyTable(),
	}
	var total Stats
	for i := range perParticipant {
		ds.Survey = append(ds.Survey, perParticipant[i]...)
		total.add(perStats[i])
	}

	// Covariates cover real participants only: pilots never reach the
	// analysis stage.
	rng := rand.New(rand.NewSource(cfg.Seed))
	for i := 0; i < cfg.Participants; i++ {
		ds.Groups = append(ds.Groups, model.GroupRecord{
			Moniker:    monikers[i],
			Group:      groupLabels[i%len(groupLabels)],
			Completion: 60 + rng.Float64()*40,
		})
	}

	log.Info(ctx, "synthetic dataset ready",
		logger.Int("rows", total.Rows),
		logger.Int("branch_skips", total.BranchSkips),
		logger.Int("missing_blanks", total.MissingBlanks),
	)
	return ds, &total, nil
}

func (s *Stats) add(other Stats) {
	s.Rows += other.Rows
	s.SentinelRows += other.SentinelRows
	s.StructuralRows += other.StructuralRows
	s.BranchSkips += other.BranchSkips
	s.MissingBlanks += other.MissingBlanks
}

func generateParticipant(rng *rand.Rand, cfg Config, moniker string) ([]model.RawObservation, Stats) {
	var out []model.RawObservation
	var stats Stats

	emit := func(block int, item, answer string, day, point int) {
		out = append(out, model.RawObservation{
			Moniker:    moniker,
			Block:      strconv.Itoa(block),
			ItemCode:   item,
			Answer:     answer,
			Timepoint:  strconv.Itoa(point),
			TestingDay: strconv.Itoa(day),
		})
		stats.Rows++
	}

	for day := 1; day <= cfg.Days; day++ {
		for point := 1; point <= cfg.PointsPerDay; point++ {
			if rng.Float64() < cfg.SentinelRate {
				// Erroneous session-start row: the platform logs these
				// with testing day zero.
				out = append(out, model.RawObservation{
					Moniker:    moniker,
					Block:      strconv.Itoa(highFrequencyBlock),
					ItemCode:   emotionVars[0].item,
					Answer:     scaleAnswer(rng),
					Timepoint:  strconv.Itoa(point),
					TestingDay: "0",
				})
				stats.Rows++
				stats.SentinelRows++
			}

			for _, v := range emotionVars {
				emit(highFrequencyBlock, v.item, maybeBlank(rng, cfg, scaleAnswer(rng), &stats), day, point)
			}

			skipped := rng.Float64() < cfg.SkipRate
			for idx, v := range mindWanderingVars {
				switch {
				case idx == 0 && skipped:
					emit(highFrequencyBlock, v.item, "no", day, point)
				case idx == 0:
					emit(highFrequencyBlock, v.item, "yes", day, point)
				case skipped:
					emit(highFrequencyBlock, v.item, "", day, point)
					stats.BranchSkips++
				default:
					emit(highFrequencyBlock, v.item, maybeBlank(rng, cfg, scaleAnswer(rng), &stats), day, point)
				}
			}

			for _, v := range responseTimeVars {
				emit(highFrequencyBlock, v.item, strconv.Itoa(200+rng.Intn(4000)), day, point)
			}

			// Structural prompt row closing the beep.
			out = append(out, model.RawObservation{
				Moniker:    moniker,
				Block:      strconv.Itoa(highFrequencyBlock),
				ItemCode:   "",
				Answer:     "press any key to continue",
				Timepoint:  strconv.Itoa(point),
				TestingDay: strconv.Itoa(day),
			})
			stats.Rows++
			stats.StructuralRows++
		}

		// One daily questionnaire per testing day, pinned to timepoint 1.
		for _, v := range dailyVars {
			emit(dailyBlock, v.item, maybeBlank(rng, cfg, strconv.Itoa(1+rng.Intn(7)), &stats), day, 1)
		}
	}
	return out, stats
}

// scaleAnswer draws a 1-7 answer; the anchors export with their labels.
func scaleAnswer(rng *rand.Rand) string {
	value := 1 + rng.Intn(7)
	switch value {
	case 1:
		return labelLow
	case 7:
		return labelHigh
	default:
		return strconv.Itoa(value)
	}
}

func maybeBlank(rng *rand.Rand, cfg Config, answer string, stats *Stats) string {
	if rng.Float64() < cfg.MissingRate {
		stats.MissingBlanks++
		return ""
	}
	return answer
}

func keyTable() []remap.Entry {
	var entries []remap.Entry
	appendVars := func(block int, vars []variable) {
		for _, v := range vars {
			entries = append(entries, remap.Entry{Block: block, Item: v.item, Variable: v.name})
		}
	}
	appendVars(highFrequencyBlock, emotionVars)
	appendVars(highFrequencyBlock, mindWanderingVars)
	appendVars(highFrequencyBlock, responseTimeVars)
	appendVars(dailyBlock, dailyVars)
	return entries
}
