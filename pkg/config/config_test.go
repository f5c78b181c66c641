package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.foursquare.com/v2", cfg.Foursquare.V2BaseURL)
	assert.Equal(t, "https://places-api.foursquare.com", cfg.Foursquare.PlacesBaseURL)
	assert.Equal(t, "20250617", cfg.Foursquare.APIVersion)
	assert.Equal(t, "2025-06-17", cfg.Foursquare.PlacesAPIVersion)
	assert.Equal(t, "http://localhost:8888/callback", cfg.Foursquare.RedirectURI)

	assert.Equal(t, 200, cfg.Sync.PageSize)
	assert.Equal(t, 30*time.Second, cfg.Sync.RequestTimeout)
	assert.Equal(t, time.Second, cfg.RateLimit.RequestDelay)
	assert.Equal(t, 3, cfg.RateLimit.MaxRetries)
	assert.Equal(t, 1.5, cfg.RateLimit.BackoffMultiplier)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CLIENT_ID", "env-client-id")
	t.Setenv("CLIENT_SECRET", "env-client-secret")
	t.Setenv("FOURSQUARE_API_KEY", "env-service-key")
	t.Setenv("FSQPULL_DB_PATH", "/tmp/env.db")
	t.Setenv("FSQPULL_PAGE_SIZE", "50")
	t.Setenv("FSQPULL_REQUEST_DELAY", "2s")
	t.Setenv("FSQPULL_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-client-id", cfg.Foursquare.ClientID)
	assert.Equal(t, "env-client-secret", cfg.Foursquare.ClientSecret)
	assert.Equal(t, "env-service-key", cfg.Foursquare.ServiceKey)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, 50, cfg.Sync.PageSize)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.RequestDelay)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("FSQPULL_PAGE_SIZE", "not-a-number")
	t.Setenv("FSQPULL_REQUEST_DELAY", "garbage")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 200, cfg.Sync.PageSize)
	assert.Equal(t, time.Second, cfg.RateLimit.RequestDelay)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
foursquare:
  service_key: file-service-key
sync:
  page_size: 25
database:
  path: /tmp/file.db
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "file-service-key", cfg.Foursquare.ServiceKey)
	assert.Equal(t, 25, cfg.Sync.PageSize)
	assert.Equal(t, "/tmp/file.db", cfg.Database.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Unset fields keep their defaults.
	assert.Equal(t, "https://api.foursquare.com/v2", cfg.Foursquare.V2BaseURL)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"db-path":     "/tmp/flag.db",
		"service-key": "flag-key",
		"page-size":   10,
		"log-level":   "error",
	})

	assert.Equal(t, "/tmp/flag.db", cfg.Database.Path)
	assert.Equal(t, "flag-key", cfg.Foursquare.ServiceKey)
	assert.Equal(t, 10, cfg.Sync.PageSize)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("FSQPULL_DB_PATH", "/tmp/env.db")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	cfg.MergeCommandLineFlags(map[string]interface{}{"db-path": "/tmp/flag.db"})

	assert.Equal(t, "/tmp/flag.db", cfg.Database.Path)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty v2 base URL", func(c *Config) { c.Foursquare.V2BaseURL = "" }},
		{"empty places base URL", func(c *Config) { c.Foursquare.PlacesBaseURL = "" }},
		{"negative request delay", func(c *Config) { c.RateLimit.RequestDelay = -time.Second }},
		{"zero max retries", func(c *Config) { c.RateLimit.MaxRetries = 0 }},
		{"backoff multiplier of 1", func(c *Config) { c.RateLimit.BackoffMultiplier = 1 }},
		{"zero page size", func(c *Config) { c.Sync.PageSize = 0 }},
		{"zero request timeout", func(c *Config) { c.Sync.RequestTimeout = 0 }},
		{"empty database path", func(c *Config) { c.Database.Path = "" }},
		{"bogus log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")

	cfg := DefaultConfig()
	cfg.Database.Path = "/tmp/saved.db"
	cfg.Sync.PageSize = 42
	require.NoError(t, cfg.Save(path))

	reloaded := DefaultConfig()
	require.NoError(t, reloaded.LoadFromFile(path))

	assert.Equal(t, "/tmp/saved.db", reloaded.Database.Path)
	assert.Equal(t, 42, reloaded.Sync.PageSize)
}
