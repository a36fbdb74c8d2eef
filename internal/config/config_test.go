package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
env: development
server:
  host: 127.0.0.1
  port: 9090
database:
  host: db.local
  port: 5433
  user: app
  password: pw
  dbname: recipes
  sslmode: require
redis:
  addr: cache.local:6379
  db: 2
jwt:
  secret: s3cret
  expiry_days: 14
log:
  level: warn
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "cache.local:6379", cfg.Redis.Addr)
	require.Equal(t, 2, cfg.Redis.DB)
	require.Equal(t, "s3cret", cfg.JWT.Secret)
	require.Equal(t, 14, cfg.JWT.ExpiryDays)
	require.Equal(t, "warn", cfg.Log.Level)
	require.True(t, cfg.IsDevelopment())
	require.Equal(t,
		"host=db.local port=5433 user=app password=pw dbname=recipes sslmode=require",
		cfg.Database.DSN())
}

func TestLoad_DefaultExpiry(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
jwt:
  secret: s3cret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.JWT.ExpiryDays)
}

func TestLoad_RateLimitDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
jwt:
  secret: s3cret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(5), cfg.RateLimit.AuthMax)
	require.Equal(t, 15*time.Minute, cfg.RateLimit.AuthWindow())
	require.Equal(t, int64(100), cfg.RateLimit.APIMax)
	require.Equal(t, 15*time.Minute, cfg.RateLimit.APIWindow())
}

func TestLoad_RateLimitOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
jwt:
  secret: s3cret
rate_limit:
  auth_max: 10
  auth_window_minutes: 5
  api_max: 200
  api_window_minutes: 1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, int64(10), cfg.RateLimit.AuthMax)
	require.Equal(t, 5*time.Minute, cfg.RateLimit.AuthWindow())
	require.Equal(t, int64(200), cfg.RateLimit.APIMax)
	require.Equal(t, time.Minute, cfg.RateLimit.APIWindow())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "server: [not: a: mapping")
	_, err := Load(path)
	require.Error(t, err)
}

func TestIsDevelopment(t *testing.T) {
	t.Parallel()

	cfg := &Config{Env: "production"}
	require.False(t, cfg.IsDevelopment())
}
