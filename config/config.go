// Package config loads and validates the pipeline's configuration record:
// web-enrichment toggles, statistical thresholds, and logging level. Values
// come from an hjson file merged over Default(), then validated with
// go-playground/validator. A malformed or missing config file is never
// fatal: Load falls back to Default() and logs why, matching the source's
// ConfigError taxonomy entry ("unrecognised or malformed configuration ...
// defaults are used").
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/spf13/afero"

	"github.com/activecm/tunnelhunter/logger"
	"github.com/activecm/tunnelhunter/util"
)

// DefaultConfigPath is the conventional config file location. Nothing reads
// it implicitly: without --config the CLI passes an empty path to Load,
// which returns Default().
const DefaultConfigPath = "./config.hjson"

// Config is the full, validated configuration record consumed by the
// pipeline orchestrator.
type Config struct {
	Pipeline               Pipeline              `json:"pipeline" validate:"required"`
	StatisticalThresholds  StatisticalThresholds `json:"statistical_thresholds" validate:"required"`
	Logging                Logging               `json:"logging" validate:"required"`
}

// Pipeline controls the orchestrator's web-enrichment behavior.
type Pipeline struct {
	EnableWebChecks        bool `json:"enable_web_checks"`
	MaxDomainsForWebChecks int  `json:"max_domains_for_web_checks" validate:"gte=0"`
}

// StatisticalThresholds mirrors the tunable cutoffs the statistical filter
// reads. MinAnalysisWindowMinutes is carried for configuration
// compatibility only: no indicator in this pipeline consults it (see
// DESIGN.md, open question (c)).
type StatisticalThresholds struct {
	FrequencyPerMinute       float64 `json:"frequency_per_minute" validate:"gt=0"`
	MaxSubdomainLength       int     `json:"max_subdomain_length" validate:"gt=0"`
	HighEntropyThreshold     float64 `json:"high_entropy_threshold" validate:"gt=0"`
	MinAnalysisWindowMinutes int     `json:"min_analysis_window_minutes" validate:"gte=0"`
	MaxEditDistance          int     `json:"max_edit_distance" validate:"gte=0"`
}

// Logging controls the shared zerolog logger's verbosity.
type Logging struct {
	Level string `json:"level" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// Default returns the configuration with every default listed in spec §6.
func Default() Config {
	return Config{
		Pipeline: Pipeline{
			EnableWebChecks:        false,
			MaxDomainsForWebChecks: 25,
		},
		StatisticalThresholds: StatisticalThresholds{
			FrequencyPerMinute:       10,
			MaxSubdomainLength:       20,
			HighEntropyThreshold:     4.0,
			MinAnalysisWindowMinutes: 5,
			MaxEditDistance:          2,
		},
		Logging: Logging{
			Level: "INFO",
		},
	}
}

// Load reads and validates the hjson config file at path, merging it over
// Default(). A missing, unreadable, or invalid file logs a warning and
// returns Default() unchanged rather than failing the caller.
func Load(afs afero.Fs, path string) Config {
	zlog := logger.GetLogger()
	cfg := Default()

	if path == "" {
		return cfg
	}

	if err := util.ValidateFile(afs, path); err != nil {
		zlog.Warn().Err(err).Str("path", path).Msg("config file not usable, using defaults")
		return cfg
	}

	contents, err := afero.ReadFile(afs, path)
	if err != nil {
		zlog.Warn().Err(err).Str("path", path).Msg("unable to read config file, using defaults")
		return cfg
	}

	if err := hjson.Unmarshal(contents, &cfg); err != nil {
		zlog.Warn().Err(err).Str("path", path).Msg("unable to parse config file, using defaults")
		return Default()
	}

	if err := Validate(cfg); err != nil {
		zlog.Warn().Err(err).Str("path", path).Msg("config file failed validation, using defaults")
		return Default()
	}

	return cfg
}

// Validate checks cfg's values against their validate tags.
func Validate(cfg Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
