package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProductionConfig() *Config {
	return &Config{
		DatabaseURL:     "postgres://localhost/test?sslmode=require",
		AppEnv:          "production",
		AuthJWTSecret:   "jwt-secret",
		CronSecret:      "cron-secret",
		ProviderAPIKey:  "provider-key",
		AllowedOrigins:  "https://app.easemail.io",
		APIPort:         8080,
		ProviderTimeout: 30 * time.Second,
		CacheBackend:    CacheBackendMemory,
		FolderCountsTTL: time.Minute,
	}
}

func TestLoad_RequiredDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	for _, key := range []string{"API_PORT", "LOG_LEVEL", "APP_ENV", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_BURST",
		"PROVIDER_API_URL", "PROVIDER_TIMEOUT_SECONDS", "CACHE_BACKEND", "FOLDER_COUNTS_TTL_SECONDS"} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.APIPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 10.0, cfg.RateLimitRequests)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, "https://api.us.nylas.com", cfg.ProviderAPIURL)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, CacheBackendMemory, cfg.CacheBackend)
	assert.Equal(t, time.Minute, cfg.FolderCountsTTL)
}

func TestLoad_ReadsOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("API_PORT", "9090")
	t.Setenv("PROVIDER_API_URL", "https://api.eu.nylas.com/")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "5")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FOLDER_COUNTS_TTL_SECONDS", "120")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.APIPort)
	assert.Equal(t, "https://api.eu.nylas.com", cfg.ProviderAPIURL)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, CacheBackendRedis, cfg.CacheBackend)
	assert.Equal(t, 2*time.Minute, cfg.FolderCountsTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("API_PORT", "not-a-port")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API_PORT")
}

func TestLoad_InvalidProviderTimeout(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("API_PORT", "")
	t.Setenv("PROVIDER_TIMEOUT_SECONDS", "soon")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "PROVIDER_TIMEOUT_SECONDS")
}

func TestValidate_RedisBackendRequiresURL(t *testing.T) {
	cfg := validProductionConfig()
	cfg.CacheBackend = CacheBackendRedis

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestValidate_UnknownCacheBackend(t *testing.T) {
	cfg := validProductionConfig()
	cfg.CacheBackend = "memcached"

	assert.Error(t, cfg.Validate())
}

func TestValidateProduction_RequiresSecrets(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"jwt secret", func(c *Config) { c.AuthJWTSecret = "" }, "AUTH_JWT_SECRET is required"},
		{"cron secret", func(c *Config) { c.CronSecret = "" }, "CRON_SECRET is required"},
		{"provider key", func(c *Config) { c.ProviderAPIKey = "" }, "PROVIDER_API_KEY is required"},
		{"origins", func(c *Config) { c.AllowedOrigins = "" }, "ALLOWED_ORIGINS is required"},
		{"wildcard origin", func(c *Config) { c.AllowedOrigins = "*" }, "wildcard"},
		{"ssl disabled", func(c *Config) { c.DatabaseURL = "postgres://localhost/test?sslmode=disable" }, "sslmode=disable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validProductionConfig()
			tt.mutate(cfg)

			err := cfg.ValidateProduction()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateProduction_ValidConfig(t *testing.T) {
	assert.NoError(t, validProductionConfig().ValidateProduction())
}

func TestLoadWithValidation_ProductionFailsFast(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := LoadWithValidation()
	assert.Error(t, err)
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "DEBUG"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "warn"}).SlogLevel())
	assert.Equal(t, slog.LevelError, (&Config{LogLevel: "error"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "verbose"}).SlogLevel())
}
