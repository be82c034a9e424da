// Package config reads process-level settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable name, e.g. ROCAGG_LOG_LEVEL.
const EnvPrefix = "rocagg"

// Config holds the settings that are not part of an aggregation document.
// Command line flags override these values.
type Config struct {
	// LogLevel is a zerolog level name such as "debug" or "warn".
	LogLevel string `split_words:"true" default:"info"`

	// LogFile, when set, receives JSON logs in addition to the console.
	// The file is rotated by size.
	LogFile string `split_words:"true"`

	// LogFileMaxSizeMB is the size at which LogFile is rotated.
	LogFileMaxSizeMB int `split_words:"true" default:"50"`

	// LogFileMaxBackups is the number of rotated files kept on disk.
	LogFileMaxBackups int `split_words:"true" default:"3"`

	// DevMode switches the console writer to trace level.
	DevMode bool `split_words:"true"`

	// EnableTracing writes OpenTelemetry spans to stderr.
	EnableTracing bool `split_words:"true"`

	// Concurrency bounds the number of units executed at the same time.
	Concurrency int `default:"4"`

	// OutputFormat selects the report encoding: json, yaml or msgpack.
	OutputFormat string `split_words:"true" default:"json"`

	// MetricsFile, when set, receives the Prometheus text exposition of
	// the run's metrics.
	MetricsFile string `split_words:"true"`
}

// Parse loads envFile into the environment when it exists and then reads
// Config from ROCAGG_* variables. Variables already set in the
// environment win over the file. A missing envFile is not an error.
func Parse(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("failed to parse configuration: concurrency must be at least 1, got %d", cfg.Concurrency)
	}

	return &cfg, nil
}
