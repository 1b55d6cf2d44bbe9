// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// SurveyPath locates the raw long-format survey CSV.
	SurveyPath string `koanf:"survey_path"`

	// KeyTablePath locates the variable-key lookup CSV.
	KeyTablePath string `koanf:"key_table_path"`

	// GroupPath locates the group-covariate CSV (moniker, group, completion).
	GroupPath string `koanf:"group_path"`

	// OutputDir receives the exported cleaned and derived tables.
	OutputDir string `koanf:"output_dir"`

	// ExcludedMonikers lists pilot/test/dropout participant IDs to remove.
	ExcludedMonikers []string `koanf:"excluded_monikers"`

	// DaySentinel marks erroneous session-start rows in the testing-day field.
	DaySentinel string `koanf:"day_sentinel"`

	// GateVariable names the mind-wandering occurrence question that gates
	// the follow-up chain.
	GateVariable string `koanf:"gate_variable"`

	// EmotionVariables and MindWanderingVariables define the two Block 1
	// variable groups. Both groups share the high-frequency timescale.
	EmotionVariables       []string `koanf:"emotion_variables"`
	MindWanderingVariables []string `koanf:"mind_wandering_variables"`

	// Block1PerParticipant and Block2PerParticipant are the schema-derived
	// expected observation counts per participant used by the verifier.
	Block1PerParticipant int `koanf:"block1_per_participant"`
	Block2PerParticipant int `koanf:"block2_per_participant"`

	// ExpectedParticipants is the enrolled cohort size after exclusions.
	ExpectedParticipants int `koanf:"expected_participants"`

	// WorkerCount sets the number of instability workers.
	WorkerCount int `koanf:"worker_count"`

	// ExcludeClockVars removes the defective sleep/wake clock variables from
	// missingness summary statistics when true.
	ExcludeClockVars bool `koanf:"exclude_clock_vars"`

	// ClockVariables names the sleep/wake time-of-day variables.
	ClockVariables []string `koanf:"clock_variables"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:     "info",
		SurveyPath:   "data/survey.csv",
		KeyTablePath: "data/variable_key.csv",
		GroupPath:    "data/groups.csv",
		OutputDir:    "out",
		DaySentinel:  "0",
		GateVariable: "MWoccur",
		EmotionVariables: []string{
			"angry", "enthusiastic", "happy", "nervous",
			"pleased", "relaxed", "sad", "stressed",
		},
		MindWanderingVariables: []string{
			"MWoccur", "MWvalence", "MWsubject", "MWtime",
			"MWimmersion", "MWcontrol", "MWspecificity",
		},
		Block1PerParticipant: 1876,
		Block2PerParticipant: 154,
		ExpectedParticipants: 109,
		WorkerCount:          runtime.NumCPU(),
		ExcludeClockVars:     false,
		ClockVariables:       []string{"sleeptime", "waketime"},
	}
}
