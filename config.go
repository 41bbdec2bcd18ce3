package linewise

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/linewise/metrics"
)

// config holds Processor configuration.
type config struct {
	// Workers defines the number of concurrent transform workers.
	// Default: runtime.NumCPU().
	Workers int

	// LowWater and HighWater throttle the input reader. The reader fills the input buffer
	// up to HighWater lines and refills only after workers drained it below LowWater.
	// Default: 100 and 300.
	LowWater  int
	HighWater int

	// SoftCap is the number of pending out-of-order results that triggers a flush pass
	// while workers are still running.
	// Default: 100.
	SoftCap int

	// ReorderTimeout bounds how long the reorderer waits for a missing line once all
	// workers have finished. Exceeding it fails the run with ErrReorderStalled.
	// Default: 10s.
	ReorderTimeout time.Duration

	// PollTimeout is how long an idle worker waits for input before re-checking
	// whether the reader still has lines to deliver.
	// Default: 5s.
	PollTimeout time.Duration

	// ProgressEvery defines the progress logging cadence in processed lines.
	// Default: 10000.
	ProgressEvery uint64

	Logger  *slog.Logger
	Metrics metrics.Provider
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		Workers:        runtime.NumCPU(),
		LowWater:       100,
		HighWater:      300,
		SoftCap:        100,
		ReorderTimeout: 10 * time.Second,
		PollTimeout:    5 * time.Second,
		ProgressEvery:  10000,
		Logger:         slog.New(slog.DiscardHandler),
		Metrics:        metrics.NewNoopProvider(),
	}
}

// validateConfig checks cross-field invariants that single options cannot see.
func validateConfig(cfg *config) error {
	switch {
	case cfg.Workers <= 0:
		return errorc.With(ErrInvalidConfig, errorc.String("", "workers must be > 0"))
	case cfg.LowWater <= 0 || cfg.HighWater < cfg.LowWater:
		return errorc.With(ErrInvalidConfig, errorc.String("", "water marks require 0 < low <= high"))
	case cfg.SoftCap <= 0:
		return errorc.With(ErrInvalidConfig, errorc.String("", "soft cap must be > 0"))
	case cfg.ReorderTimeout <= 0 || cfg.PollTimeout <= 0:
		return errorc.With(ErrInvalidConfig, errorc.String("", "timeouts must be > 0"))
	case cfg.ProgressEvery == 0:
		return errorc.With(ErrInvalidConfig, errorc.String("", "progress cadence must be > 0"))
	case cfg.Logger == nil || cfg.Metrics == nil:
		return errorc.With(ErrInvalidConfig, errorc.String("", "logger and metrics must be non-nil"))
	}
	return nil
}

// Option configures a Processor. Use New(factory, opts...) to construct one.
type Option func(*config) error

// WithWorkers sets the worker pool size (must be > 0).
func WithWorkers(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithWorkers requires n > 0"))
		}
		cfg.Workers = n
		return nil
	}
}

// WithWaterMarks sets the input buffer low and high water marks (0 < low <= high).
func WithWaterMarks(low, high int) Option {
	return func(cfg *config) error {
		if low <= 0 || high < low {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithWaterMarks requires 0 < low <= high"))
		}
		cfg.LowWater, cfg.HighWater = low, high
		return nil
	}
}

// WithSoftCap sets the pending results count that triggers an opportunistic flush (default 100).
func WithSoftCap(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithSoftCap requires n > 0"))
		}
		cfg.SoftCap = n
		return nil
	}
}

// WithReorderTimeout sets the fatal reorder timeout (default 10s).
func WithReorderTimeout(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithReorderTimeout requires d > 0"))
		}
		cfg.ReorderTimeout = d
		return nil
	}
}

// WithPollTimeout sets the worker input poll timeout (default 5s).
func WithPollTimeout(d time.Duration) Option {
	return func(cfg *config) error {
		if d <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithPollTimeout requires d > 0"))
		}
		cfg.PollTimeout = d
		return nil
	}
}

// WithProgressEvery sets the progress logging cadence in lines (default 10000).
func WithProgressEvery(n uint64) Option {
	return func(cfg *config) error {
		if n == 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithProgressEvery requires n > 0"))
		}
		cfg.ProgressEvery = n
		return nil
	}
}

// WithLogger sets the structured logger. By default all records are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider. By default metrics are discarded.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}
