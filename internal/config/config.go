// Package config loads linewise settings from a YAML file and turns them into
// processor options and command settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ygrebnov/linewise"
	"github.com/ygrebnov/linewise/transforms"
)

var ErrInvalid = errors.New("config: invalid value")

// Config mirrors the YAML file layout.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Transform TransformConfig `yaml:"transform"`
	Log       LogConfig       `yaml:"log"`
}

type EngineConfig struct {
	Workers        int    `yaml:"workers"`
	LowWater       int    `yaml:"low_water"`
	HighWater      int    `yaml:"high_water"`
	SoftCap        int    `yaml:"soft_cap"`
	ReorderTimeout string `yaml:"reorder_timeout"`
	PollTimeout    string `yaml:"poll_timeout"`
	ProgressEvery  uint64 `yaml:"progress_every"`
}

type TransformConfig struct {
	Name       string `yaml:"name"`
	Lowercase  bool   `yaml:"lowercase"`
	Dictionary string `yaml:"dictionary"`
	CacheSize  int    `yaml:"cache_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers:        runtime.NumCPU(),
			LowWater:       100,
			HighWater:      300,
			SoftCap:        100,
			ReorderTimeout: "10s",
			PollTimeout:    "5s",
			ProgressEvery:  10000,
		},
		Transform: TransformConfig{
			Name:      "clean",
			CacheSize: 4096,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults; keys missing from the file keep their default value.
// An empty path returns the defaults. The result is not validated so that callers can apply
// overrides first; call Validate before use.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values the engine options do not check themselves.
func (c *Config) Validate() error {
	if _, err := c.durations(); err != nil {
		return err
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q (want text or json)", ErrInvalid, c.Log.Format)
	}
	if c.Transform.CacheSize < 0 {
		return fmt.Errorf("%w: transform.cache_size must be >= 0", ErrInvalid)
	}
	return nil
}

type durations struct {
	reorder time.Duration
	poll    time.Duration
}

func (c *Config) durations() (durations, error) {
	var d durations
	var err error
	if d.reorder, err = time.ParseDuration(c.Engine.ReorderTimeout); err != nil {
		return d, fmt.Errorf("%w: engine.reorder_timeout: %w", ErrInvalid, err)
	}
	if d.poll, err = time.ParseDuration(c.Engine.PollTimeout); err != nil {
		return d, fmt.Errorf("%w: engine.poll_timeout: %w", ErrInvalid, err)
	}
	return d, nil
}

// Options converts the engine section into processor options. Range checks are left to
// the options themselves so both paths report the same linewise.ErrInvalidConfig.
func (c *Config) Options() ([]linewise.Option, error) {
	d, err := c.durations()
	if err != nil {
		return nil, err
	}
	return []linewise.Option{
		linewise.WithWorkers(c.Engine.Workers),
		linewise.WithWaterMarks(c.Engine.LowWater, c.Engine.HighWater),
		linewise.WithSoftCap(c.Engine.SoftCap),
		linewise.WithReorderTimeout(d.reorder),
		linewise.WithPollTimeout(d.poll),
		linewise.WithProgressEvery(c.Engine.ProgressEvery),
	}, nil
}

// TransformSettings converts the transform section for transforms.Lookup.
func (c *Config) TransformSettings() transforms.Settings {
	return transforms.Settings{
		Lowercase:      c.Transform.Lowercase,
		DictionaryPath: c.Transform.Dictionary,
		CacheSize:      c.Transform.CacheSize,
	}
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: log.level %q", ErrInvalid, s)
	}
	return l, nil
}
