package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, int64(100*1024*1024), cfg.Storage.MaxUploadSize)
	assert.Equal(t, time.Duration(0), cfg.Storage.HTTPTimeout)
	assert.False(t, cfg.Cases.PurgeAttachmentsOnDelete)
	assert.Equal(t, []string{"openid", "email", "profile"}, cfg.Identity.Scopes)
}

func TestNewConfig_Environment(t *testing.T) {
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("STORAGE_HTTP_TIMEOUT", "30s")
	t.Setenv("CASES_PURGE_ATTACHMENTS_ON_DELETE", "true")
	t.Setenv("IDENTITY_SCOPES", "openid, email")
	t.Setenv("STORE_REDIS_DB", "not-a-number")

	cfg := NewConfig()

	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, 30*time.Second, cfg.Storage.HTTPTimeout)
	assert.True(t, cfg.Cases.PurgeAttachmentsOnDelete)
	assert.Equal(t, []string{"openid", "email"}, cfg.Identity.Scopes)
	assert.Equal(t, 0, cfg.Store.RedisDB)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "casetrack.yaml")
	err := os.WriteFile(path, []byte(`
server:
  port: "8080"
storage:
  type: b2
  b2:
    bucket_name: knoscases
session:
  expiration: 2h
`), 0o600)
	require.NoError(t, err)

	t.Setenv("CASETRACK_CONFIG", path)
	t.Setenv("SERVER_HOST", "0.0.0.0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "b2", cfg.Storage.Type)
	assert.Equal(t, "knoscases", cfg.Storage.B2.BucketName)
	assert.Equal(t, 2*time.Hour, cfg.Session.Expiration)
	// untouched keys keep their environment defaults
	assert.Equal(t, "sqlite", cfg.Store.Backend)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CASETRACK_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
