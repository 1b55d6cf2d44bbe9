package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/okian/esmtidy/internal/adapters/csvfile"
	pipeline "github.com/okian/esmtidy/internal/app"
	"github.com/okian/esmtidy/internal/config"
	"github.com/okian/esmtidy/pkg/logger"
	"github.com/okian/esmtidy/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Drop the default Go runtime collectors; a batch run only reports
	// its own pipeline instruments.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		// Logger isn't available yet, write directly.
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Init()

	p := pipeline.New(
		pipeline.WithConfig(cfg),
		pipeline.WithLogger(log),
	)

	arts, err := p.Run(ctx)
	if err != nil {
		log.Error(ctx, "cleaning run failed", logger.Error(err))
		return 1
	}

	if err := export(ctx, cfg.OutputDir, arts); err != nil {
		log.Error(ctx, "export failed", logger.Error(err))
		return 1
	}

	reportFindings(ctx, log, arts)

	if lines, err := metrics.Summary(); err == nil {
		for _, line := range lines {
			log.Debug(ctx, line)
		}
	}
	return 0
}

// export writes the cleaned and derived tables under the output directory.
func export(ctx context.Context, dir string, arts *pipeline.Artifacts) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}

	if err := csvfile.WriteLong(ctx, filepath.Join(dir, "cleaned_long.csv"), arts.CleanedLong); err != nil {
		return err
	}
	if err := csvfile.WriteWide(ctx, filepath.Join(dir, "block1_wide.csv"), arts.WideBlock1); err != nil {
		return err
	}
	if err := csvfile.WriteWide(ctx, filepath.Join(dir, "block2_wide.csv"), arts.WideBlock2); err != nil {
		return err
	}
	return csvfile.WriteInstability(ctx, filepath.Join(dir, "instability.csv"), arts.Instability)
}

// reportFindings logs the run's data-quality results: integrity deficits
// with their drill-down, missingness totals, and the group comparison.
func reportFindings(ctx context.Context, log logger.Logger, arts *pipeline.Artifacts) {
	for _, check := range []struct {
		block  string
		report interface {
			Complete() bool
			Deficit() int
		}
	}{
		{"block1", arts.IntegrityBlock1},
		{"block2", arts.IntegrityBlock2},
	} {
		if check.report.Complete() {
			log.Info(ctx, "integrity check passed", logger.String("block", check.block))
			continue
		}
		log.Warn(ctx, "integrity deficit",
			logger.String("block", check.block),
			logger.Int("missing_rows", check.report.Deficit()),
		)
	}
	for _, tk := range arts.IntegrityBlock1.UnderRepresented() {
		log.Warn(ctx, "under-represented time key",
			logger.String("timekey", tk.Time),
			logger.Int("participants", tk.Participants),
			logger.Any("missing_monikers", arts.IntegrityBlock1.MissingMonikers(tk.Time)),
		)
	}

	log.Info(ctx, "missingness profiled",
		logger.String("table", arts.MissingnessBlock1.Table),
		logger.Int("missing_cells", arts.MissingnessBlock1.MissingCells),
		logger.Int("total_cells", arts.MissingnessBlock1.TotalCells),
	)
	log.Info(ctx, "missingness profiled",
		logger.String("table", arts.MissingnessBlock2.Table),
		logger.Int("missing_cells", arts.MissingnessBlock2.MissingCells),
		logger.Int("total_cells", arts.MissingnessBlock2.TotalCells),
	)

	cmp := arts.GroupComparison
	log.Info(ctx, "group completion compared",
		logger.Int("groups", len(cmp.Groups)),
		logger.Float64("skewness", cmp.Skewness),
		logger.Any("parametric", cmp.Parametric),
		logger.Float64("h", cmp.H),
		logger.Float64("p_value", cmp.PValue),
	)
}
