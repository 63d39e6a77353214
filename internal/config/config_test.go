package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harborwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5*time.Second, cfg.Snapshot.Interval)
	assert.Zero(t, cfg.Load.StorageOpsPerSecond)
	assert.Zero(t, cfg.Load.StressWorkers)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  format: console
database:
  driver: postgres
  host: db.internal
  port: 6543
  name: metrics
  user: loader
  password: secret
  sslmode: require
load:
  storage_ops_per_second: 250
  stress_workers: 3
snapshot:
  interval: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "metrics", cfg.Database.Database)
	assert.Equal(t, "loader", cfg.Database.User)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, 250.0, cfg.Load.StorageOpsPerSecond)
	assert.Equal(t, 3, cfg.Load.StressWorkers)
	assert.Equal(t, 2*time.Second, cfg.Snapshot.Interval)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  host: from-file\n")
	t.Setenv("HARBORWATCH_DB_HOST", "from-env")
	t.Setenv("HARBORWATCH_DB_PORT", "7000")
	t.Setenv("HARBORWATCH_STRESS_WORKERS", "6")
	t.Setenv("HARBORWATCH_SNAPSHOT_INTERVAL", "750ms")
	t.Setenv("HARBORWATCH_STORAGE_OPS_PER_SECOND", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Host)
	assert.Equal(t, 7000, cfg.Database.Port)
	assert.Equal(t, 6, cfg.Load.StressWorkers)
	assert.Equal(t, 750*time.Millisecond, cfg.Snapshot.Interval)
	assert.Zero(t, cfg.Load.StorageOpsPerSecond, "unparsable values are ignored")
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "log: [unterminated"))
		assert.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Load(writeConfig(t, "database:\n  driver: sqlite\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sqlite")
	})

	t.Run("bad interval and level", func(t *testing.T) {
		_, err := Load(writeConfig(t, "log:\n  level: loud\nsnapshot:\n  interval: 0s\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "level")
		assert.Contains(t, err.Error(), "interval")
	})
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("HARBORWATCH_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnvOrDefault("HARBORWATCH_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnvOrDefault("HARBORWATCH_TEST_UNSET", "fallback"))
}
