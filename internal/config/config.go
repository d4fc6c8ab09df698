// Package config defines service configuration and its loading hooks.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/combatlog/internal/domain/selection"
	"github.com/okian/combatlog/internal/domain/smoothing"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of smoothing workers.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the smoothing job queue.
	QueueSize int `koanf:"queue_size"`
	// DedupeSize bounds the upload digest cache.
	DedupeSize int `koanf:"dedupe_size"`

	StoreDriver string `koanf:"store_driver"`
	SQLitePath  string `koanf:"sqlite_path"`

	// MaxUploadBytes caps POST /datasets bodies.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// You is the listener identity used when an upload does not name one.
	You string `koanf:"you"`

	SmoothingMode    string `koanf:"smoothing_mode"`
	SmoothingWidth   int    `koanf:"smoothing_width"`
	LabelTotalDamage bool   `koanf:"label_total_damage"`

	// Metric names are <namespace>_<subsystem>_<name>. Read at startup only.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	// MetricsLatencyBuckets overrides the latency histogram buckets (ms).
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`
}

// New returns a Config filled with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		WorkerCount:    runtime.NumCPU(),
		QueueSize:      4_096,
		DedupeSize:     10_000,
		StoreDriver:    StoreMemory,
		SQLitePath:     "combatlog.db",
		MaxUploadBytes: 32 << 20,
		You:            selection.DefaultYou,
		SmoothingMode:  string(smoothing.DefaultMode),
		SmoothingWidth: smoothing.DefaultWidth,

		MetricsNamespace: "combatlog",
		MetricsSubsystem: "analyzer",
	}
}

// Window returns the configured default smoothing window.
func (c *Config) Window() (smoothing.Window, error) {
	mode, err := smoothing.ParseMode(c.SmoothingMode)
	if err != nil {
		return smoothing.Window{}, err
	}
	w := smoothing.Window{Mode: mode, Width: c.SmoothingWidth}
	return w, w.Validate()
}

// Validate checks every field and reports the first problem.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.You == "":
		return fmt.Errorf("%w: you must not be empty", ErrInvalidConfig)
	case c.MetricsNamespace == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	}
	for i := 1; i < len(c.MetricsLatencyBuckets); i++ {
		if c.MetricsLatencyBuckets[i] <= c.MetricsLatencyBuckets[i-1] {
			return fmt.Errorf("%w: metrics_latency_buckets must increase", ErrInvalidConfig)
		}
	}
	switch c.StoreDriver {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path is required for the sqlite store", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	}
	if _, err := c.Window(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
