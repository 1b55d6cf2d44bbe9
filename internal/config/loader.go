package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if ESM_CONFIG is set
//  3. env (prefix ESM_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv("ESM_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: ESM_SURVEY_PATH, ESM_WORKER_COUNT, ...
	// Map env keys like ESM_SURVEY_PATH -> survey_path (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("ESM_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "esm_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SurveyPath == "" {
		return fmt.Errorf("%w: survey_path must not be empty", ErrInvalidConfig)
	}
	if c.KeyTablePath == "" {
		return fmt.Errorf("%w: key_table_path must not be empty", ErrInvalidConfig)
	}
	if c.DaySentinel == "" {
		return fmt.Errorf("%w: day_sentinel must not be empty", ErrInvalidConfig)
	}
	if c.GateVariable == "" {
		return fmt.Errorf("%w: gate_variable must not be empty", ErrInvalidConfig)
	}
	if c.Block1PerParticipant <= 0 || c.Block2PerParticipant <= 0 {
		return fmt.Errorf("%w: per-participant expected counts must be positive", ErrInvalidConfig)
	}
	if c.ExpectedParticipants <= 0 {
		return fmt.Errorf("%w: expected_participants must be positive", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	return nil
}
