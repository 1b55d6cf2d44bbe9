// Package pipeline wires the cleaning stages into a single batch run:
// load, normalize, remap, split, branching filter, integrity check,
// reshape, missingness profiling, and instability scoring.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/okian/esmtidy/internal/adapters/csvfile"
	"github.com/okian/esmtidy/internal/adapters/repository"
	"github.com/okian/esmtidy/internal/adapters/workers"
	"github.com/okian/esmtidy/internal/config"
	"github.com/okian/esmtidy/internal/domain/blocks"
	"github.com/okian/esmtidy/internal/domain/instability"
	"github.com/okian/esmtidy/internal/domain/integrity"
	"github.com/okian/esmtidy/internal/domain/missingness"
	"github.com/okian/esmtidy/internal/domain/model"
	"github.com/okian/esmtidy/internal/domain/normalize"
	"github.com/okian/esmtidy/internal/domain/remap"
	"github.com/okian/esmtidy/internal/domain/reshape"
	"github.com/okian/esmtidy/pkg/logger"
	"github.com/okian/esmtidy/pkg/metrics"
)

// Artifacts holds every table and report a run produces. Each field is also
// registered in the artifact store under a run-scoped name.
type Artifacts struct {
	RunID string

	CleanedLong []model.CleanedObservation

	WideBlock1 *model.WideTable
	WideBlock2 *model.WideTable

	IntegrityBlock1 *integrity.Report
	IntegrityBlock2 *integrity.Report

	MissingnessBlock1 *missingness.Report
	MissingnessBlock2 *missingness.Report
	GroupComparison   *missingness.GroupComparison

	Instability []instability.Record

	Groups map[string]model.GroupRecord
}

// Pipeline executes the full cleaning run against the configured inputs.
type Pipeline struct {
	cfg    *config.Config
	store  repository.Store
	logger logger.Logger
}

// New constructs a Pipeline. Without options it runs with default
// configuration and a fresh in-memory artifact store.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{}

	for _, opt := range opts {
		opt(p)
	}

	if p.cfg == nil {
		p.cfg = config.New(context.Background())
	}
	if p.store == nil {
		p.store = repository.NewInMemoryStore()
	}
	if p.logger == nil {
		p.logger = logger.Named("pipeline")
	}
	return p
}

// Store returns the artifact store the pipeline registers outputs in.
func (p *Pipeline) Store() repository.Store {
	return p.store
}

// Run executes every stage in order and returns the produced artifacts.
// Any stage error aborts the run: partial outputs are never registered
// past the failing stage.
func (p *Pipeline) Run(ctx context.Context) (*Artifacts, error) {
	runID := uuid.NewString()
	arts := &Artifacts{RunID: runID}

	p.logger.Info(ctx, "starting cleaning run",
		logger.String("run_id", runID),
		logger.String("survey", p.cfg.SurveyPath),
	)
	runStart := time.Now()

	// Load.
	raw, keyTable, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := csvfile.ReadGroups(ctx, p.cfg.GroupPath)
	if err != nil {
		return nil, fmt.Errorf("loading groups: %w", err)
	}
	arts.Groups = groups

	// Normalize.
	normalized, drops := p.stageNormalize(ctx, raw)

	// Remap.
	cleaned := p.stageRemap(ctx, normalized, keyTable)

	// Split into blocks.
	start := time.Now()
	block1, block2 := blocks.Split(ctx, cleaned, blocks.SplitSpec{
		Emotion:       p.cfg.EmotionVariables,
		MindWandering: p.cfg.MindWanderingVariables,
	})
	metrics.RecordStageDuration("split", time.Since(start).Seconds())
	metrics.RecordStageRows("block1", len(block1))
	metrics.RecordStageRows("block2", len(block2))

	// Branching filter applies to the high-frequency block only; the
	// daily block has no gated follow-up chain.
	start = time.Now()
	block1, skipped := blocks.FilterBranching(ctx, block1, p.cfg.GateVariable)
	metrics.RecordStageDuration("branching", time.Since(start).Seconds())
	p.logger.Info(ctx, "branching filter applied",
		logger.String("gate", p.cfg.GateVariable),
		logger.Int("rows_removed", skipped),
		logger.Int("drops_upstream", drops.Total()),
	)

	arts.CleanedLong = append(append([]model.CleanedObservation{}, block1...), block2...)

	// Integrity.
	start = time.Now()
	arts.IntegrityBlock1 = integrity.Verify(ctx, block1, p.cfg.ExpectedParticipants, p.cfg.Block1PerParticipant)
	arts.IntegrityBlock2 = integrity.Verify(ctx, block2, p.cfg.ExpectedParticipants, p.cfg.Block2PerParticipant)
	metrics.RecordStageDuration("integrity", time.Since(start).Seconds())
	metrics.RecordParticipants(len(arts.IntegrityBlock1.Roster()))
	metrics.RecordDeficit(arts.IntegrityBlock1.Deficit() + arts.IntegrityBlock2.Deficit())

	// Reshape. A duplicate composite key is a correctness failure, not a
	// row to drop, so Pivot aborts the run.
	start = time.Now()
	arts.WideBlock1, err = reshape.Pivot(ctx, "block1_wide", block1)
	if err != nil {
		return nil, fmt.Errorf("reshaping block 1: %w", err)
	}
	arts.WideBlock2, err = reshape.Pivot(ctx, "block2_wide", block2)
	if err != nil {
		return nil, fmt.Errorf("reshaping block 2: %w", err)
	}
	metrics.RecordStageDuration("reshape", time.Since(start).Seconds())

	// Missingness.
	start = time.Now()
	arts.MissingnessBlock1 = missingness.Profile(arts.WideBlock1,
		missingness.WithGateColumn(p.cfg.GateVariable),
	)
	var block2Opts []missingness.Option
	if p.cfg.ExcludeClockVars {
		block2Opts = append(block2Opts, missingness.WithExcludedColumns(p.cfg.ClockVariables...))
	}
	arts.MissingnessBlock2 = missingness.Profile(arts.WideBlock2, block2Opts...)
	arts.GroupComparison = missingness.CompareCompletion(groupRecords(groups))
	metrics.RecordStageDuration("missingness", time.Since(start).Seconds())

	// Instability.
	start = time.Now()
	calc := instability.New(
		instability.WithWorkerPool(workers.NewPool(workers.WithSize(p.cfg.WorkerCount))),
		instability.WithLogger(p.logger.Named("instability")),
	)
	arts.Instability, err = calc.Compute(ctx, arts.WideBlock1, groups)
	if err != nil {
		return nil, fmt.Errorf("computing instability: %w", err)
	}
	metrics.RecordStageDuration("instability", time.Since(start).Seconds())

	if err := p.register(ctx, arts); err != nil {
		return nil, err
	}

	p.logger.Info(ctx, "cleaning run finished",
		logger.String("run_id", runID),
		logger.Int("cleaned_rows", len(arts.CleanedLong)),
		logger.Int("participants", len(arts.IntegrityBlock1.Roster())),
		logger.Float64("seconds", time.Since(runStart).Seconds()),
	)
	return arts, nil
}

func (p *Pipeline) load(ctx context.Context) ([]model.RawObservation, *remap.KeyTable, error) {
	start := time.Now()

	raw, _, err := csvfile.ReadSurvey(ctx, p.cfg.SurveyPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading survey: %w", err)
	}

	keyTable, err := csvfile.ReadKeyTable(ctx, p.cfg.KeyTablePath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading key table: %w", err)
	}

	metrics.RecordStageDuration("load", time.Since(start).Seconds())
	return raw, keyTable, nil
}

func (p *Pipeline) stageNormalize(ctx context.Context, raw []model.RawObservation) ([]model.Observation, normalize.DropStats) {
	start := time.Now()

	normalizer := normalize.New(
		normalize.WithDaySentinel(p.cfg.DaySentinel),
		normalize.WithExclusions(p.cfg.ExcludedMonikers),
		normalize.WithLogger(p.logger.Named("normalize")),
	)
	normalized, drops := normalizer.Normalize(ctx, raw)

	metrics.RecordStageDuration("normalize", time.Since(start).Seconds())
	metrics.RecordStageRows("normalize", len(normalized))
	return normalized, drops
}

func (p *Pipeline) stageRemap(ctx context.Context, obs []model.Observation, table *remap.KeyTable) []model.CleanedObservation {
	start := time.Now()

	cleaned, dropped := remap.Remap(ctx, obs, table)
	if dropped > 0 {
		p.logger.Warn(ctx, "dropped unmatched item codes",
			logger.Int("rows", dropped),
		)
	}

	metrics.RecordStageDuration("remap", time.Since(start).Seconds())
	metrics.RecordStageRows("remap", len(cleaned))
	return cleaned
}

// register snapshots every artifact under a run-scoped name.
func (p *Pipeline) register(ctx context.Context, arts *Artifacts) error {
	entries := []repository.Artifact{
		{Name: arts.RunID + "/cleaned_long", Kind: repository.KindLongTable, Value: arts.CleanedLong},
		{Name: arts.RunID + "/block1_wide", Kind: repository.KindWideTable, Value: arts.WideBlock1},
		{Name: arts.RunID + "/block2_wide", Kind: repository.KindWideTable, Value: arts.WideBlock2},
		{Name: arts.RunID + "/block1_integrity", Kind: repository.KindReport, Value: arts.IntegrityBlock1},
		{Name: arts.RunID + "/block2_integrity", Kind: repository.KindReport, Value: arts.IntegrityBlock2},
		{Name: arts.RunID + "/block1_missingness", Kind: repository.KindReport, Value: arts.MissingnessBlock1},
		{Name: arts.RunID + "/block2_missingness", Kind: repository.KindReport, Value: arts.MissingnessBlock2},
		{Name: arts.RunID + "/group_comparison", Kind: repository.KindReport, Value: arts.GroupComparison},
		{Name: arts.RunID + "/instability", Kind: repository.KindInstability, Value: arts.Instability},
	}
	for _, entry := range entries {
		if err := p.store.Put(ctx, entry); err != nil {
			return fmt.Errorf("registering %s: %w", entry.Name, err)
		}
	}
	return nil
}

// groupRecords flattens the covariate map into a stable, sorted slice.
func groupRecords(groups map[string]model.GroupRecord) []model.GroupRecord {
	out := make([]model.GroupRecord, 0, len(groups))
	for _, rec := range groups {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Moniker < out[j].Moniker })
	return out
}
