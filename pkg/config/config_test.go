package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("mast_token: abc\n"))
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.MastToken)
	assert.Equal(t, "https://mast.stsci.edu", cfg.Mast.BaseURL)
	assert.Equal(t, "https://auth.mast.stsci.edu", cfg.Mast.AuthURL)
	assert.Equal(t, time.Duration(0), cfg.Mast.Timeout)
	assert.Equal(t, 50000, cfg.Mast.PageSize)
	assert.False(t, cfg.Cache.Enabled, "cache must be opt-in")
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Mast.Breaker.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestParseOverridesDefaults(t *testing.T) {
	doc := `
mast_token: abc
mast:
  base_url: http://localhost:9000
  timeout: 5s
cache:
  enabled: true
  ttl: 1h
  services: [Mast.JwstEdb.Mnemonics]
log:
  level: debug
  format: json
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.Mast.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Mast.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, []string{"Mast.JwstEdb.Mnemonics"}, cfg.Cache.Services)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestParseRequiresToken(t *testing.T) {
	_, err := Parse([]byte("environment: test\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MastToken")
}

func TestParseRejectsBadValues(t *testing.T) {
	_, err := Parse([]byte("mast_token: x\nlog:\n  level: loud\n"))
	require.Error(t, err)

	_, err = Parse([]byte("mast_token: x\ncache:\n  redis:\n    enabled: true\n"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg, err := Parse([]byte("mast_token: file-token\n"))
	require.NoError(t, err)

	env := map[string]string{
		"MAST_API_TOKEN":    "env-token",
		"EDB_PAGE_SIZE":     "100",
		"EDB_CACHE_ENABLED": "true",
		"EDB_REDIS_ADDR":    "redis.local:6380",
	}
	cfg.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "env-token", cfg.MastToken)
	assert.Equal(t, 100, cfg.Mast.PageSize)
	assert.True(t, cfg.Cache.Enabled)
	assert.True(t, cfg.Cache.Redis.Enabled)
	assert.Equal(t, "redis.local", cfg.Cache.Redis.Host)
	assert.Equal(t, 6380, cfg.Cache.Redis.Port)
	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnvTokenFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: test\n"), 0o600))
	t.Setenv("MAST_API_TOKEN", "from-env")

	cfg, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.MastToken)
}
