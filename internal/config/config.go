// Package config loads rotbake settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/roach88/rotbake/internal/engine"
)

// DefaultFile is read from the working directory when no file is given.
const DefaultFile = "rotbake.yaml"

// EnvPrefix prefixes every environment override, e.g. ROTBAKE_WORKERS.
const EnvPrefix = "ROTBAKE_"

// Config holds the settings shared by every command.
type Config struct {
	// Rotation is the placement rotation in degrees about Z.
	Rotation float64 `koanf:"rotation"`

	// Workers bounds concurrent frame sampling during a bake.
	Workers int `koanf:"workers"`

	// Database is the SQLite archive path.
	Database string `koanf:"database"`

	// MaxFrames rejects bakes over this many frames.
	MaxFrames int `koanf:"max_frames"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsFile, when set, receives metrics in Prometheus text format
	// after a rebake.
	MetricsFile string `koanf:"metrics_file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Rotation:  engine.DefaultRotation,
		Workers:   1,
		Database:  "rotbake.db",
		MaxFrames: engine.DefaultMaxFrames,
		LogLevel:  "info",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error
	if math.IsNaN(c.Rotation) || math.IsInf(c.Rotation, 0) {
		errs = append(errs, fmt.Errorf("rotation must be finite, got %v", c.Rotation))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}
	if c.MaxFrames < 1 {
		errs = append(errs, fmt.Errorf("max_frames must be >= 1, got %d", c.MaxFrames))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SlogLevel returns the log level as a slog.Level. Unknown levels map to
// Info; Validate reports them.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", s)
}
