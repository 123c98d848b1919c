// Package config provides configuration types and defaults for folio.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/folio/internal/log"
)

// SessionConfig holds tab session behavior options.
type SessionConfig struct {
	// HistoryLimit caps the navigation history length.
	// Default: 50
	HistoryLimit int `mapstructure:"history_limit"`

	// ChangeNotifyMs is the quiet period before content-changed
	// listeners fire, in milliseconds. Default: 200
	ChangeNotifyMs int `mapstructure:"change_notify_ms"`

	// DiffRecomputeMs is the quiet period before the line diff against
	// head is recomputed, in milliseconds. Default: 150
	DiffRecomputeMs int `mapstructure:"diff_recompute_ms"`
}

// AnalysisConfig holds document analysis options.
type AnalysisConfig struct {
	// OutlineRetries is the number of attempts for outline requests.
	// Default: 3
	OutlineRetries int `mapstructure:"outline_retries"`

	// OutlineBackoffMs is the delay between outline attempts, in
	// milliseconds. Default: 500
	OutlineBackoffMs int `mapstructure:"outline_backoff_ms"`

	// OutlineLanguages lists language identifiers that support outline
	// extraction. Empty uses the built-in set.
	OutlineLanguages []string `mapstructure:"outline_languages"`

	// HeadCacheTTLSeconds is how long fetched head content stays
	// cached. Default: 300
	HeadCacheTTLSeconds int `mapstructure:"head_cache_ttl_seconds"`
}

// WatcherConfig holds external file change detection options.
type WatcherConfig struct {
	// Enabled controls whether open documents are watched for
	// external modification. Default: true
	Enabled bool `mapstructure:"enabled"`

	// DebounceMs is the quiet period before a changed file is
	// reloaded, in milliseconds. Default: 500
	DebounceMs int `mapstructure:"debounce_ms"`
}

// StorageConfig holds snapshot persistence options.
type StorageConfig struct {
	// DBPath is the sqlite database file for session snapshots.
	// Default: ~/.folio/folio.db
	DBPath string `mapstructure:"db_path"`

	// PersistDelayMs is the quiet period before a changed session is
	// snapshotted, in milliseconds. Default: 500
	PersistDelayMs int `mapstructure:"persist_delay_ms"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for "file" exporter.
	// Default: ~/.config/folio/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Config holds all configuration options for folio.
type Config struct {
	Project  string         `mapstructure:"project"`
	Session  SessionConfig  `mapstructure:"session"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// DefaultDBPath returns the default snapshot database location.
// Returns ~/.folio/folio.db or empty string if home dir unavailable.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".folio", "folio.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/folio/traces/traces.jsonl or empty string if home
// dir unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "folio", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Session: SessionConfig{
			HistoryLimit:    50,
			ChangeNotifyMs:  200,
			DiffRecomputeMs: 150,
		},
		Analysis: AnalysisConfig{
			OutlineRetries:      3,
			OutlineBackoffMs:    500,
			OutlineLanguages:    nil, // built-in set
			HeadCacheTTLSeconds: 300,
		},
		Watcher: WatcherConfig{
			Enabled:    true,
			DebounceMs: 500,
		},
		Storage: StorageConfig{
			DBPath:         DefaultDBPath(),
			PersistDelayMs: 500,
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			FilePath:     "", // Derived from config dir at runtime
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks the configuration for errors. Zero values fall back
// to defaults and are always valid.
func Validate(cfg Config) error {
	if cfg.Session.HistoryLimit < 0 {
		return fmt.Errorf("session.history_limit must be non-negative, got %d", cfg.Session.HistoryLimit)
	}
	if cfg.Session.ChangeNotifyMs < 0 {
		return fmt.Errorf("session.change_notify_ms must be non-negative, got %d", cfg.Session.ChangeNotifyMs)
	}
	if cfg.Session.DiffRecomputeMs < 0 {
		return fmt.Errorf("session.diff_recompute_ms must be non-negative, got %d", cfg.Session.DiffRecomputeMs)
	}
	if cfg.Analysis.OutlineRetries < 0 {
		return fmt.Errorf("analysis.outline_retries must be non-negative, got %d", cfg.Analysis.OutlineRetries)
	}
	if cfg.Storage.DBPath != "" && !filepath.IsAbs(cfg.Storage.DBPath) {
		return fmt.Errorf("storage.db_path must be an absolute path, got %q", cfg.Storage.DBPath)
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Folio Configuration

# Project identifier used to key session snapshots
# (default: current working directory)
# project: my-project

# Tab session behavior
session:
  history_limit: 50        # Navigation history cap
  change_notify_ms: 200    # Quiet period before content listeners fire
  diff_recompute_ms: 150   # Quiet period before the gutter diff refreshes

# Document analysis
analysis:
  outline_retries: 3         # Attempts before giving up on an outline
  outline_backoff_ms: 500    # Delay between outline attempts
  head_cache_ttl_seconds: 300
  # outline_languages:       # Override the built-in language set
  #   - go
  #   - typescript

# External file change detection
watcher:
  enabled: true
  debounce_ms: 500

# Session snapshot storage
storage:
  # db_path: ~/.folio/folio.db
  persist_delay_ms: 500

# Distributed tracing configuration
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp
#   file_path: ~/.config/folio/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0
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
