package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "in-memory")
	t.Setenv("APP_ENV", "local")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, 24*14, cfg.SessionTTL)
}

func TestLoad_PostgresNeedsURL(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_UnknownStorage(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "datastore")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProdNeedsSecret(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "in-memory")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/dir.db")
	t.Setenv("SESSION_TTL_HOURS", "3")
	t.Setenv("SSL", "true")
	t.Setenv("CORS_ORIGINS", "http://a.example,http://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/dir.db", cfg.SQLitePath)
	assert.Equal(t, 3, cfg.SessionTTL)
	assert.True(t, cfg.SSL)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOrigins)
}
