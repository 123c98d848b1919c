package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/folio/internal/log"
)

func TestMain(m *testing.M) {
	log.InitWithWriter(&bytes.Buffer{})
	m.Run()
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 50, cfg.Session.HistoryLimit)
	assert.Equal(t, 200, cfg.Session.ChangeNotifyMs)
	assert.Equal(t, 150, cfg.Session.DiffRecomputeMs)
	assert.Equal(t, 3, cfg.Analysis.OutlineRetries)
	assert.Equal(t, 500, cfg.Analysis.OutlineBackoffMs)
	assert.Equal(t, 300, cfg.Analysis.HeadCacheTTLSeconds)
	assert.True(t, cfg.Watcher.Enabled)
	assert.Equal(t, 500, cfg.Watcher.DebounceMs)
	assert.Equal(t, 500, cfg.Storage.PersistDelayMs)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "file", cfg.Tracing.Exporter)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRate)

	require.NoError(t, Validate(cfg))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "negative history limit",
			mutate:  func(c *Config) { c.Session.HistoryLimit = -1 },
			wantErr: "history_limit",
		},
		{
			name:    "negative change notify",
			mutate:  func(c *Config) { c.Session.ChangeNotifyMs = -5 },
			wantErr: "change_notify_ms",
		},
		{
			name:    "negative diff recompute",
			mutate:  func(c *Config) { c.Session.DiffRecomputeMs = -1 },
			wantErr: "diff_recompute_ms",
		},
		{
			name:    "negative outline retries",
			mutate:  func(c *Config) { c.Analysis.OutlineRetries = -1 },
			wantErr: "outline_retries",
		},
		{
			name:    "relative db path",
			mutate:  func(c *Config) { c.Storage.DBPath = "some/relative.db" },
			wantErr: "db_path",
		},
		{
			name:   "empty db path is allowed",
			mutate: func(c *Config) { c.Storage.DBPath = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateTracing(t *testing.T) {
	tests := []struct {
		name    string
		tracing TracingConfig
		wantErr bool
	}{
		{name: "zero value", tracing: TracingConfig{}},
		{name: "sample rate bounds", tracing: TracingConfig{SampleRate: 1.0}},
		{name: "sample rate too high", tracing: TracingConfig{SampleRate: 1.5}, wantErr: true},
		{name: "sample rate negative", tracing: TracingConfig{SampleRate: -0.1}, wantErr: true},
		{name: "valid exporter", tracing: TracingConfig{Exporter: "stdout"}},
		{name: "unknown exporter", tracing: TracingConfig{Exporter: "jaeger"}, wantErr: true},
		{
			name:    "enabled file exporter requires path",
			tracing: TracingConfig{Enabled: true, Exporter: "file"},
			wantErr: true,
		},
		{
			name:    "enabled otlp requires endpoint",
			tracing: TracingConfig{Enabled: true, Exporter: "otlp"},
			wantErr: true,
		},
		{
			name:    "disabled file exporter tolerates missing path",
			tracing: TracingConfig{Enabled: false, Exporter: "file"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTracing(tt.tracing)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfigTemplate_ParsesAndMatchesDefaults(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(DefaultConfigTemplate())))

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	defaults := Defaults()
	assert.Equal(t, defaults.Session, cfg.Session)
	assert.Equal(t, defaults.Watcher, cfg.Watcher)
	assert.Equal(t, defaults.Analysis.OutlineRetries, cfg.Analysis.OutlineRetries)
	assert.Equal(t, defaults.Analysis.OutlineBackoffMs, cfg.Analysis.OutlineBackoffMs)
	assert.Equal(t, defaults.Storage.PersistDelayMs, cfg.Storage.PersistDelayMs)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfigTemplate(), string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestDefaultPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".folio", "folio.db"), DefaultDBPath())
	assert.Equal(t, filepath.Join(home, ".config", "folio", "traces", "traces.jsonl"), DefaultTracesFilePath())
}
