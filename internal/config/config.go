// Package config loads and validates the resolved configuration every
// pipeline component reads from: scoring weights, risk band thresholds,
// warning thresholds, include/exclude file globs, and reporting filters.
// Field tags use mapstructure for Viper unmarshalling.
package config

import (
	"errors"
	"fmt"

	"github.com/Stephen-Collins-tech/hotspots/internal/globset"
)

// Config is the top-level, user-facing configuration shape, as loaded
// from YAML/env before glob compilation.
type Config struct {
	Include           []string          `mapstructure:"include"`
	Exclude           []string          `mapstructure:"exclude"`
	Thresholds        Thresholds        `mapstructure:"thresholds"`
	Weights           Weights           `mapstructure:"weights"`
	WarningThresholds WarningThresholds `mapstructure:"warning_thresholds"`
	MinLRS            float64           `mapstructure:"min_lrs"`
	TopN              int               `mapstructure:"top"`
	DriverPercentile  float64           `mapstructure:"driver_percentile"`
	CoChange          CoChange          `mapstructure:"co_change"`
	Pipeline          PipelineConfig    `mapstructure:"pipeline"`
}

// Thresholds holds the LRS band cut points.
type Thresholds struct {
	Moderate float64 `mapstructure:"moderate"`
	High     float64 `mapstructure:"high"`
	Critical float64 `mapstructure:"critical"`
}

// Weights holds the per-dimension LRS weights.
type Weights struct {
	CC float64 `mapstructure:"cc"`
	ND float64 `mapstructure:"nd"`
	FO float64 `mapstructure:"fo"`
	NS float64 `mapstructure:"ns"`
}

// WarningThresholds holds the proactive-alert band edges.
type WarningThresholds struct {
	WatchMin           float64 `mapstructure:"watch_min"`
	WatchMax           float64 `mapstructure:"watch_max"`
	AttentionMin       float64 `mapstructure:"attention_min"`
	AttentionMax       float64 `mapstructure:"attention_max"`
	RapidGrowthPercent float64 `mapstructure:"rapid_growth_percent"`
}

// CoChange holds the windowing parameters for co-change detection.
type CoChange struct {
	WindowDays int `mapstructure:"window_days"`
	Minimum    int `mapstructure:"minimum"`
}

// PipelineConfig holds worker-pool resource knobs.
type PipelineConfig struct {
	Workers int `mapstructure:"workers"`
}

// maxWeight is the upper bound every LRS weight must satisfy.
const maxWeight = 10.0

// Sentinel validation errors.
var (
	ErrThresholdNotPositive  = errors.New("thresholds must be positive")
	ErrThresholdsUnordered   = errors.New("thresholds must satisfy moderate < high < critical")
	ErrWeightOutOfRange      = errors.New("weight must be within [0, 10]")
	ErrWarningNotPositive    = errors.New("warning_thresholds must be positive")
	ErrWarningRangeUnordered = errors.New("warning_thresholds min must be less than max")
	ErrMinLRSNegative        = errors.New("min_lrs must be non-negative")
	ErrTopNNegative          = errors.New("top must be non-negative")
	ErrInvalidGlob           = errors.New("invalid glob pattern")
	ErrInvalidWorkers        = errors.New("pipeline.workers must be non-negative")
	ErrCoChangeWindowInvalid = errors.New("co_change.window_days must be non-negative")
	ErrCoChangeMinimumInvalid = errors.New("co_change.minimum must be non-negative")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if err := c.validateThresholds(); err != nil {
		return err
	}

	if err := c.validateWeights(); err != nil {
		return err
	}

	if err := c.validateWarningThresholds(); err != nil {
		return err
	}

	if c.MinLRS < 0 {
		return ErrMinLRSNegative
	}

	if c.TopN < 0 {
		return ErrTopNNegative
	}

	if c.Pipeline.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.CoChange.WindowDays < 0 {
		return ErrCoChangeWindowInvalid
	}

	if c.CoChange.Minimum < 0 {
		return ErrCoChangeMinimumInvalid
	}

	if _, err := globset.NewSet(c.Include); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGlob, err)
	}

	if _, err := globset.NewSet(c.Exclude); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidGlob, err)
	}

	return nil
}

func (c *Config) validateThresholds() error {
	t := c.Thresholds

	if t.Moderate <= 0 || t.High <= 0 || t.Critical <= 0 {
		return ErrThresholdNotPositive
	}

	if !(t.Moderate < t.High && t.High < t.Critical) {
		return ErrThresholdsUnordered
	}

	return nil
}

func (c *Config) validateWeights() error {
	for _, w := range []float64{c.Weights.CC, c.Weights.ND, c.Weights.FO, c.Weights.NS} {
		if w < 0 || w > maxWeight {
			return ErrWeightOutOfRange
		}
	}

	return nil
}

func (c *Config) validateWarningThresholds() error {
	wt := c.WarningThresholds

	for _, v := range []float64{wt.WatchMin, wt.WatchMax, wt.AttentionMin, wt.AttentionMax, wt.RapidGrowthPercent} {
		if v <= 0 {
			return ErrWarningNotPositive
		}
	}

	if wt.WatchMin >= wt.WatchMax {
		return ErrWarningRangeUnordered
	}

	if wt.AttentionMin >= wt.AttentionMax {
		return ErrWarningRangeUnordered
	}

	return nil
}

// Resolved is Config compiled into the form the rest of the pipeline
// consumes: glob sets instead of pattern strings.
type Resolved struct {
	Include           *globset.Set
	Exclude           *globset.Set
	Thresholds        Thresholds
	Weights           Weights
	WarningThresholds WarningThresholds
	MinLRS            float64
	TopN              int
	DriverPercentile  float64
	CoChange          CoChange
	Pipeline          PipelineConfig
	ConfigPath        string
}

// Resolve validates c and compiles its glob patterns into a Resolved.
func (c *Config) Resolve() (*Resolved, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	include, err := globset.NewSet(c.Include)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGlob, err)
	}

	exclude, err := globset.NewSet(c.Exclude)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidGlob, err)
	}

	return &Resolved{
		Include:           include,
		Exclude:           exclude,
		Thresholds:        c.Thresholds,
		Weights:           c.Weights,
		WarningThresholds: c.WarningThresholds,
		MinLRS:            c.MinLRS,
		TopN:              c.TopN,
		DriverPercentile:  c.DriverPercentile,
		CoChange:          c.CoChange,
		Pipeline:          c.Pipeline,
	}, nil
}

// ShouldInclude reports whether relPath should be analyzed given the
// compiled include/exclude sets: exclude wins, then an empty include set
// means "include everything", otherwise relPath must match an include
// pattern.
func (r *Resolved) ShouldInclude(relPath string) bool {
	if r.Exclude.Match(relPath) {
		return false
	}

	if r.Include.Len() == 0 {
		return true
	}

	return r.Include.Match(relPath)
}
