// Command esmgen writes a synthetic experience-sampling dataset that the
// cleaning pipeline can consume end to end. Useful for demos, benchmarks,
// and reproducing defect handling without real participant data.
package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/esmtidy/internal/synth"
	"github.com/okian/esmtidy/pkg/logger"
)

// Default dataset shape, sized to the original study protocol: roughly a
// hundred participants beeped eight times a day for two weeks.
const (
	defaultParticipants = 109
	defaultDays         = 14
	defaultPoints       = 8
	defaultMissingRate  = 0.08
	defaultSkipRate     = 0.55
	defaultSentinelRate = 0.01
	defaultPilots       = 2
	generateTimeout     = 5 * time.Minute
)

func main() {
	var (
		participants = flag.Int("participants", defaultParticipants, "Number of real participants")
		days         = flag.Int("days", defaultDays, "Number of testing days")
		points       = flag.Int("points", defaultPoints, "Beeps per testing day")
		missingRate  = flag.Float64("missing-rate", defaultMissingRate, "Probability an answer is blank")
		skipRate     = flag.Float64("skip-rate", defaultSkipRate, "Probability a beep reports no mind wandering")
		sentinelRate = flag.Float64("sentinel-rate", defaultSentinelRate, "Probability of an erroneous session-start row")
		pilots       = flag.Int("pilots", defaultPilots, "Number of pilot participants to mix in")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "Random seed (same seed, same dataset)")
		workers      = flag.Int("workers", runtime.NumCPU(), "Number of generator workers")
		outDir       = flag.String("out", "data", "Output directory for the dataset files")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	ds, stats, err := synth.Generate(ctx, synth.Config{
		Participants: *participants,
		Days:         *days,
		PointsPerDay: *points,
		MissingRate:  *missingRate,
		SkipRate:     *skipRate,
		SentinelRate: *sentinelRate,
		Pilots:       *pilots,
		Seed:         *seed,
		Workers:      *workers,
	})
	if err != nil {
		log.Error(ctx, "generation failed", logger.Error(err))
		os.Exit(1)
	}

	if err := ds.WriteFiles(ctx, *outDir); err != nil {
		log.Error(ctx, "writing dataset failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info(ctx, "dataset written",
		logger.String("dir", *outDir),
		logger.Int("rows", stats.Rows),
		logger.Int("sentinel_rows", stats.SentinelRows),
		logger.Int("structural_rows", stats.StructuralRows),
		logger.Int("branch_skips", stats.BranchSkips),
		logger.Int("missing_blanks", stats.MissingBlanks),
	)
}
