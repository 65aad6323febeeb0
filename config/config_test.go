package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/duplo/config"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// Load with no config files should use defaults
	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, ":5708", cfg.Server.Addr)
	assert.Equal(t, 32*1024, cfg.Server.ChunkSize)
	assert.Equal(t, "./transient", cfg.Storage.Transient.Path)
	assert.Equal(t, "./permanent", cfg.Storage.Permanent.Path)
	assert.Equal(t, uint64(1000), cfg.Storage.Transient.MaxFiles)
	assert.Equal(t, uint64(10_000_000_000), cfg.Storage.Permanent.MaxBytes)
	assert.True(t, cfg.Cleanup.Enabled)
	assert.Equal(t, "00:00:00", cfg.Cleanup.TimeUTC)
	assert.Equal(t, 24*time.Hour, cfg.Cleanup.MaxAge())
	assert.Equal(t, time.Minute, cfg.Cleanup.Interval)
	assert.Equal(t, "none", cfg.Journal.Type)
	assert.False(t, cfg.Journal.Enabled())
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfig(t, "duplo.yaml", `
server:
  addr: 127.0.0.1:8080
  chunk_size: 4096
storage:
  transient:
    path: /srv/transient
    max_files: 50
    max_bytes: 1048576
  permanent:
    path: /srv/permanent
cleanup:
  time_utc: "03:30:00"
  max_hours: 6
  interval: 30s
journal:
  type: sqlite
  dsn: /var/lib/duplo/journal.db
  table: custom_events
metrics:
  enabled: true
  path: /internal/metrics
log:
  level: debug
  env: production
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, 4096, cfg.Server.ChunkSize)
	assert.Equal(t, "/srv/transient", cfg.Storage.Transient.Path)
	assert.Equal(t, uint64(50), cfg.Storage.Transient.MaxFiles)
	assert.Equal(t, uint64(1048576), cfg.Storage.Transient.MaxBytes)
	assert.Equal(t, "/srv/permanent", cfg.Storage.Permanent.Path)
	assert.Equal(t, uint64(1000), cfg.Storage.Permanent.MaxFiles)
	assert.Equal(t, "03:30:00", cfg.Cleanup.TimeUTC)
	assert.Equal(t, 6*time.Hour, cfg.Cleanup.MaxAge())
	assert.Equal(t, 30*time.Second, cfg.Cleanup.Interval)
	assert.True(t, cfg.Journal.Enabled())
	assert.Equal(t, "custom_events", cfg.Journal.Database().Tables.Events)
	assert.Equal(t, "/var/lib/duplo/journal.db", cfg.Journal.Database().DSN)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/internal/metrics", cfg.Metrics.Path)
	assert.Equal(t, "production", cfg.Log.Env)
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	basePath := writeConfig(t, "base.yaml", `
server:
  addr: :5708
storage:
  transient:
    path: ./t
    max_files: 10
log:
  level: info
`)
	overridePath := writeConfig(t, "override.yaml", `
storage:
  transient:
    max_files: 20
log:
  level: warn
`)

	cfg, err := config.Load([]string{basePath, overridePath}, nil)
	require.NoError(t, err)

	// Overridden values
	assert.Equal(t, uint64(20), cfg.Storage.Transient.MaxFiles)
	assert.Equal(t, "warn", cfg.Log.Level)

	// Preserved values from base
	assert.Equal(t, "./t", cfg.Storage.Transient.Path)
	assert.Equal(t, ":5708", cfg.Server.Addr)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name:    "bad time of day",
			content: "cleanup:\n  time_utc: \"24:00:00\"\n",
			field:   "TimeUTC",
		},
		{
			name:    "zero max files",
			content: "storage:\n  permanent:\n    max_files: 0\n",
			field:   "MaxFiles",
		},
		{
			name:    "unknown journal type",
			content: "journal:\n  type: mysql\n",
			field:   "Type",
		},
		{
			name:    "journal without dsn",
			content: "journal:\n  type: postgres\n  dsn: \"\"\n",
			field:   "DSN",
		},
		{
			name:    "metrics path without slash",
			content: "metrics:\n  path: metrics\n",
			field:   "Path",
		},
		{
			name:    "invalid log level",
			content: "log:\n  level: verbose\n",
			field:   "Level",
		},
		{
			name:    "tiny chunk size",
			content: "server:\n  chunk_size: 10\n",
			field:   "ChunkSize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "duplo.yaml", tt.content)

			_, err := config.Load([]string{path}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad_InvalidJournalTable(t *testing.T) {
	path := writeConfig(t, "duplo.yaml", "journal:\n  type: sqlite\n  table: Bad-Table\n")

	_, err := config.Load([]string{path}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid events table name")
}

func TestLoad_WithCORS(t *testing.T) {
	path := writeConfig(t, "duplo.yaml", `
cors:
  enabled: true
  allowed_origins:
    - https://example.com
  allowed_methods:
    - GET
    - POST
  allowed_headers:
    - Content-Type
  max_age: 600
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"https://example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"GET", "POST"}, cfg.CORS.AllowedMethods)
	assert.Equal(t, []string{"Content-Type"}, cfg.CORS.AllowedHeaders)
	assert.Equal(t, 600, cfg.CORS.MaxAge)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("DUPLO_SERVER_ADDR", ":9090")
	t.Setenv("DUPLO_STORAGE_TRANSIENT_MAX_BYTES", "2048")
	t.Setenv("DUPLO_CLEANUP_INTERVAL", "5m")
	t.Setenv("DUPLO_JOURNAL_TYPE", "sqlite")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, uint64(2048), cfg.Storage.Transient.MaxBytes)
	assert.Equal(t, 5*time.Minute, cfg.Cleanup.Interval)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
}

func TestLoad_Flags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("listen", ":5708", "")
	flags.StringP("transient-dir", "t", "", "")
	flags.StringP("permanent-dir", "p", "", "")
	flags.Uint64("max-files", 1000, "")
	flags.Uint64("max-bytes", 0, "")
	flags.String("cleanup-time-utc", "", "")
	flags.Int("cleanup-maxhours", 24, "")

	require.NoError(t, flags.Parse([]string{
		"--listen", "0.0.0.0:7000",
		"-t", "/data/t",
		"--max-files", "7",
		"--cleanup-time-utc", "12:00:00",
		"--cleanup-maxhours", "2",
	}))

	// Flags beat environment
	t.Setenv("DUPLO_SERVER_ADDR", ":9999")

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:7000", cfg.Server.Addr)
	assert.Equal(t, "/data/t", cfg.Storage.Transient.Path)
	assert.Equal(t, "./permanent", cfg.Storage.Permanent.Path, "unset flags keep defaults")
	assert.Equal(t, uint64(7), cfg.Storage.Transient.MaxFiles)
	assert.Equal(t, uint64(7), cfg.Storage.Permanent.MaxFiles)
	assert.Equal(t, uint64(10_000_000_000), cfg.Storage.Permanent.MaxBytes)
	assert.Equal(t, "12:00:00", cfg.Cleanup.TimeUTC)
	assert.Equal(t, 2*time.Hour, cfg.Cleanup.MaxAge())
}

func TestFromContext_Missing(t *testing.T) {
	_, err := config.FromContext(context.Background())
	assert.Error(t, err)
}
