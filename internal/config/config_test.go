package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/tendril/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tendril.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, config.BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, time.Second, cfg.Script.Timeout)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	key := strings.Repeat("ab", 32)
	cfg, err := config.Load(writeConfig(t, `
definitions: ./components
log:
  level: debug
storage:
  backend: redis
  redis:
    prefix: "app:"
    ttl: 90m
  encryption_key: `+key+`
  mask: ["(?i)password"]
script:
  timeout: 250ms
`))
	require.NoError(t, err)

	assert.Equal(t, "./components", cfg.Definitions)
	assert.Equal(t, config.FormatFiles, cfg.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset fields keep their default")
	assert.Equal(t, "localhost:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "app:", cfg.Storage.Redis.Prefix)
	assert.Equal(t, 90*time.Minute, cfg.Storage.Redis.TTL)
	assert.Equal(t, 250*time.Millisecond, cfg.Script.Timeout)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	active, fallback, err := cfg.Storage.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Empty(t, fallback)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := config.Load(writeConfig(t, "storage: ["))
		require.Error(t, err)
	})

	tests := []struct {
		name    string
		content string
		message string
	}{
		{"unknown backend", "storage: {backend: s3}", `unknown storage backend "s3"`},
		{"unknown format", "format: toml", `unknown definition format "toml"`},
		{"bolt without path", "storage: {backend: bolt}", "storage.path is required"},
		{"redis without addr", "storage: {backend: redis, redis: {addr: ''}}", "storage.redis.addr is required"},
		{"short key", "storage: {encryption_key: abcd}", "must be 32 bytes, got 2"},
		{"non-hex key", "storage: {encryption_key: zz}", "is not hex"},
		{"fallback without key", "storage: {fallback_keys: [abcd]}", "fallback_keys without encryption_key"},
		{"bad mask", "storage: {mask: ['(']}", "storage.mask"},
		{"negative timeout", "script: {timeout: -1s}", "script.timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			require.ErrorIs(t, err, config.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}
