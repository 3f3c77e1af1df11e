package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, "data/database.json", cfg.Store.DataFile)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/2")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "redis://cache:6379/2", cfg.Store.RedisURL)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "env: production\nstore:\n  backend: memory\nsmtp:\n  host: smtp.example.com\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
}

func TestValidate(t *testing.T) {
	cfg := Config{WorkspaceSecret: "s", Store: StoreConfig{Backend: "sqlite"}}
	assert.ErrorContains(t, cfg.Validate(), "unknown store backend")

	cfg.Store.Backend = BackendPostgres
	assert.ErrorContains(t, cfg.Validate(), "DATABASE_URL")

	cfg.Store.DatabaseURL = "postgres://localhost/echohub"
	assert.NoError(t, cfg.Validate())

	cfg.WorkspaceSecret = ""
	assert.Error(t, cfg.Validate())
}
