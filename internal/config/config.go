// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load layers file and env on top.
// - Validation errors wrap ErrInvalidConfig, loading errors wrap ErrLoadConfig.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DefaultWindowHours is used when a request names no window.
	DefaultWindowHours int `koanf:"default_window_hours"`

	// MaxWindowHours caps the trailing window a request may ask for.
	MaxWindowHours int `koanf:"max_window_hours"`

	// CollectorTimeoutMS bounds each collector invocation.
	CollectorTimeoutMS int `koanf:"collector_timeout_ms"`

	// CollectorConcurrency caps concurrently running collectors; 0 means no cap.
	CollectorConcurrency int `koanf:"collector_concurrency"`

	// CacheSize is the number of feeds kept in the LRU cache; 0 disables it.
	CacheSize int `koanf:"cache_size"`

	// RefreshWorkers rebuilds invalidated feeds in the background while
	// serving; 0 disables background refresh.
	RefreshWorkers int `koanf:"refresh_workers"`

	// StateDBPath is the SQLite file for user state. Empty keeps state in memory.
	StateDBPath string `koanf:"state_db_path"`

	// FixturesPath is the YAML document with domain records.
	FixturesPath string `koanf:"fixtures_path"`

	// OTelEndpoint is the OTLP/HTTP collector URL. Empty disables tracing.
	OTelEndpoint string `koanf:"otel_endpoint"`

	// ServiceName is reported to the tracing backend.
	ServiceName string `koanf:"service_name"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		DefaultWindowHours:   24,
		MaxWindowHours:       24 * 14,
		CollectorTimeoutMS:   5000,
		CollectorConcurrency: runtime.NumCPU(),
		CacheSize:            1024,
		RefreshWorkers:       2,
		FixturesPath:         "fixtures.yaml",
		ServiceName:          "tesseract",
	}
}

// CollectorTimeout returns CollectorTimeoutMS as a duration.
func (c *Config) CollectorTimeout() time.Duration {
	return time.Duration(c.CollectorTimeoutMS) * time.Millisecond
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxWindowHours < 1:
		return fmt.Errorf("%w: max_window_hours must be at least 1", ErrInvalidConfig)
	case c.DefaultWindowHours < 1 || c.DefaultWindowHours > c.MaxWindowHours:
		return fmt.Errorf("%w: default_window_hours must be within [1, %d]", ErrInvalidConfig, c.MaxWindowHours)
	case c.CollectorTimeoutMS <= 0:
		return fmt.Errorf("%w: collector_timeout_ms must be positive", ErrInvalidConfig)
	case c.CollectorConcurrency < 0:
		return fmt.Errorf("%w: collector_concurrency must not be negative", ErrInvalidConfig)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: cache_size must not be negative", ErrInvalidConfig)
	case c.RefreshWorkers < 0:
		return fmt.Errorf("%w: refresh_workers must not be negative", ErrInvalidConfig)
	}
	return nil
}
