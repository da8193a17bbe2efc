package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".hotspots"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for hotspots settings.
const envPrefix = "HOTSPOTS"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Load loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func Load(configPath string) (*Resolved, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	if len(cfg.Exclude) == 0 {
		cfg.Exclude = DefaultExcludes
	}

	resolved, resolveErr := cfg.Resolve()
	if resolveErr != nil {
		return nil, fmt.Errorf("resolve config: %w", resolveErr)
	}

	resolved.ConfigPath = viperCfg.ConfigFileUsed()

	return resolved, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("include", []string{})
	viperCfg.SetDefault("exclude", []string{})

	viperCfg.SetDefault("thresholds.moderate", DefaultModerateThreshold)
	viperCfg.SetDefault("thresholds.high", DefaultHighThreshold)
	viperCfg.SetDefault("thresholds.critical", DefaultCriticalThreshold)

	viperCfg.SetDefault("weights.cc", DefaultWeightCC)
	viperCfg.SetDefault("weights.nd", DefaultWeightND)
	viperCfg.SetDefault("weights.fo", DefaultWeightFO)
	viperCfg.SetDefault("weights.ns", DefaultWeightNS)

	viperCfg.SetDefault("warning_thresholds.watch_min", DefaultWatchMin)
	viperCfg.SetDefault("warning_thresholds.watch_max", DefaultWatchMax)
	viperCfg.SetDefault("warning_thresholds.attention_min", DefaultAttentionMin)
	viperCfg.SetDefault("warning_thresholds.attention_max", DefaultAttentionMax)
	viperCfg.SetDefault("warning_thresholds.rapid_growth_percent", DefaultRapidGrowthPercent)

	viperCfg.SetDefault("min_lrs", DefaultMinLRS)
	viperCfg.SetDefault("top", DefaultTopN)
	viperCfg.SetDefault("driver_percentile", DefaultDriverPercentile)

	viperCfg.SetDefault("co_change.window_days", DefaultCoChangeWindowDays)
	viperCfg.SetDefault("co_change.minimum", DefaultCoChangeMinimum)

	viperCfg.SetDefault("pipeline.workers", DefaultPipelineWorkers)
}
