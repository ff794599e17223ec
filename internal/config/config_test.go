package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithEnvURL(t *testing.T) {
	t.Setenv("IDESK_DATABASE__URL", "postgres://localhost:5432/idesk")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/idesk", cfg.Database.URL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.Server.MetricsPort)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Database.MigrateOnStart)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvKeyTransform(t *testing.T) {
	t.Setenv("IDESK_DATABASE__URL", "postgres://localhost:5432/idesk")
	// Double underscores separate nesting levels; single underscores stay
	// part of the field name.
	t.Setenv("IDESK_DATABASE__MIGRATE_ON_START", "false")
	t.Setenv("IDESK_SERVER__METRICS_PORT", "9999")
	t.Setenv("IDESK_LOG__FORMAT", "text")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.False(t, cfg.Database.MigrateOnStart)
	assert.Equal(t, 9999, cfg.Server.MetricsPort)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	_, err := Load("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url is required")
}

func TestLoad_FileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 3000
database:
  url: postgres://file-host:5432/idesk
  connect_timeout: 5s
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("IDESK_SERVER__PORT", "4000")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, "postgres://file-host:5432/idesk", cfg.Database.URL)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config file")
}
