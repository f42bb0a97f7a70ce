// Package config provides configuration types and defaults for haul.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/haul/internal/engine"
	"github.com/zjrosen/haul/internal/executor"
	"github.com/zjrosen/haul/internal/flags"
	"github.com/zjrosen/haul/internal/input"
	"github.com/zjrosen/haul/internal/keys"
	"github.com/zjrosen/haul/internal/log"
	"github.com/zjrosen/haul/internal/pool"
	"github.com/zjrosen/haul/internal/tracing"
)

// DefaultPath is where `haul config init` writes, relative to the working directory.
const DefaultPath = ".haul/config.yaml"

// Config holds all configuration options for haul.
type Config struct {
	Workers          int             `mapstructure:"workers"`
	TickInterval     time.Duration   `mapstructure:"tick_interval"`
	QuitKeys         []string        `mapstructure:"quit_keys"`
	ErrorPolicy      string          `mapstructure:"error_policy"`      // "leave-idle" (default) or "refeed"
	CoalesceProgress bool            `mapstructure:"coalesce_progress"` // skip redraws on progress-only events
	Manifest         string          `mapstructure:"manifest"`          // empty runs the built-in package list
	Plain            bool            `mapstructure:"plain"`
	Download         DownloadConfig  `mapstructure:"download"`
	Simulate         SimulateConfig  `mapstructure:"simulate"`
	History          HistoryConfig   `mapstructure:"history"`
	Install          InstallConfig   `mapstructure:"install"`
	Tracing          tracing.Config  `mapstructure:"tracing"`
	Flags            map[string]bool `mapstructure:"flags"`
}

// DownloadConfig configures the HTTP executor used for tasks with a URL.
type DownloadConfig struct {
	// Dir receives downloaded artifacts.
	// Default: ~/.haul/downloads
	Dir     string        `mapstructure:"dir"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SimulateConfig paces the simulated executor.
type SimulateConfig struct {
	ChunkUnits uint          `mapstructure:"chunk_units"`
	UnitDelay  time.Duration `mapstructure:"unit_delay"`
}

// HistoryConfig locates the run history database.
type HistoryConfig struct {
	// Path is the SQLite file. Default: ~/.haul/history.db
	Path string `mapstructure:"path"`
}

// InstallConfig controls the post-run install step.
type InstallConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Command string `mapstructure:"command"` // artifact paths are appended
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Workers:          pool.DefaultSize,
		TickInterval:     input.DefaultTick,
		QuitKeys:         append([]string(nil), keys.DefaultQuitKeys...),
		ErrorPolicy:      engine.ErrorPolicyLeaveIdle.String(),
		CoalesceProgress: true,
		Download: DownloadConfig{
			Dir:     filepath.Join(DefaultDataDir(), "downloads"),
			Timeout: executor.DefaultDownloadTimeout,
		},
		Simulate: SimulateConfig{
			ChunkUnits: executor.DefaultChunkUnits,
			UnitDelay:  executor.DefaultUnitDelay,
		},
		History: HistoryConfig{
			Path: filepath.Join(DefaultDataDir(), "history.db"),
		},
		Install: InstallConfig{
			Enabled: false,
			Command: "sudo apt-get install -y",
		},
		Tracing: tracing.DefaultConfig(),
		Flags: map[string]bool{
			flags.FlagRunHistory: true,
			flags.FlagTraceTasks: false,
		},
	}
}

// DefaultDataDir is where haul keeps history, downloads and traces.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".haul"
	}
	return filepath.Join(home, ".haul")
}

// DefaultTracePath is the file exporter's output when none is configured.
func DefaultTracePath() string {
	return filepath.Join(DefaultDataDir(), "traces", "traces.jsonl")
}

// Policy returns the parsed error policy.
func (c Config) Policy() engine.ErrorPolicy {
	p, err := engine.ParseErrorPolicy(c.ErrorPolicy)
	if err != nil {
		return engine.ErrorPolicyLeaveIdle
	}
	return p
}

// Validate checks the whole configuration.
func Validate(c Config) error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if len(c.QuitKeys) == 0 {
		return errors.New("quit_keys must name at least one key")
	}
	for i, k := range c.QuitKeys {
		if k == "" {
			return fmt.Errorf("quit_keys[%d] is empty", i)
		}
	}
	if _, err := engine.ParseErrorPolicy(c.ErrorPolicy); err != nil {
		return fmt.Errorf("error_policy: %w", err)
	}
	if c.Download.Timeout < 0 {
		return fmt.Errorf("download.timeout must not be negative, got %s", c.Download.Timeout)
	}
	if c.Simulate.UnitDelay < 0 {
		return fmt.Errorf("simulate.unit_delay must not be negative, got %s", c.Simulate.UnitDelay)
	}
	if c.Install.Enabled && c.Install.Command == "" {
		return errors.New("install.command is required when install.enabled is true")
	}
	return ValidateTracing(c.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0 || t.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled && t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# haul configuration

# Number of concurrent workers
workers: 2

# How often the screen refreshes while nothing else happens
tick_interval: 200ms

# Keys that stop the run
quit_keys:
  - q
  - ctrl+c

# What a worker does after its task fails:
#   leave-idle  the worker takes no more work (default)
#   refeed      the worker takes the next pending task
error_policy: leave-idle

# Skip redraws for progress-only updates; the next tick catches up
coalesce_progress: true

# Package manifest (YAML). Empty installs the built-in package list.
# manifest: packages.yaml
#
# Manifest format:
#   tasks:
#     - name: git
#       size: 150
#     - name: ripgrep
#       url: https://example.com/ripgrep.deb
#       installable: true

# Print one line per event instead of the live view
plain: false

# Downloads for manifest tasks with a url
download:
  # dir: ~/.haul/downloads
  timeout: 10m

# Pacing for tasks without a url
simulate:
  chunk_units: 10
  unit_delay: 15ms

# Run history (see 'haul history')
# history:
#   path: ~/.haul/history.db

# Run a command over installable downloads once every task succeeded
install:
  enabled: false
  command: sudo apt-get install -y

# Task lifecycle tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: ~/.haul/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0

flags:
  run-history: true
  trace-tasks: false
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
