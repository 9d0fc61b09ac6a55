package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	APIPort int

	// Logging
	LogLevel string

	// Security
	AuthJWTSecret  string
	CronSecret     string
	AllowedOrigins string
	AppEnv         string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int

	// Email provider
	ProviderAPIURL      string
	ProviderAPIKey      string
	ProviderClientID    string
	ProviderRedirectURI string
	ProviderTimeout     time.Duration

	// Cache
	CacheBackend    string
	RedisURL        string
	FolderCountsTTL time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	// API_PORT (default: 8080)
	apiPort := os.Getenv("API_PORT")
	if apiPort == "" {
		cfg.APIPort = 8080
	} else {
		port, err := strconv.Atoi(apiPort)
		if err != nil {
			return nil, fmt.Errorf("API_PORT must be a valid integer: %w", err)
		}
		cfg.APIPort = port
	}

	// LOG_LEVEL (default: info)
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// Security configuration
	cfg.AuthJWTSecret = os.Getenv("AUTH_JWT_SECRET")
	cfg.CronSecret = os.Getenv("CRON_SECRET")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = os.Getenv("APP_ENV")
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	// Rate limiting configuration
	if rps := os.Getenv("RATE_LIMIT_REQUESTS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			cfg.RateLimitRequests = v
		}
	} else {
		cfg.RateLimitRequests = 10.0
	}

	if burst := os.Getenv("RATE_LIMIT_BURST"); burst != "" {
		if v, err := strconv.Atoi(burst); err == nil {
			cfg.RateLimitBurst = v
		}
	} else {
		cfg.RateLimitBurst = 20
	}

	// Email provider
	cfg.ProviderAPIURL = strings.TrimRight(os.Getenv("PROVIDER_API_URL"), "/")
	if cfg.ProviderAPIURL == "" {
		cfg.ProviderAPIURL = "https://api.us.nylas.com"
	}
	cfg.ProviderAPIKey = os.Getenv("PROVIDER_API_KEY")
	cfg.ProviderClientID = os.Getenv("PROVIDER_CLIENT_ID")
	cfg.ProviderRedirectURI = os.Getenv("PROVIDER_REDIRECT_URI")

	timeout, err := secondsFromEnv("PROVIDER_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.ProviderTimeout = timeout

	// Cache
	cfg.CacheBackend = strings.ToLower(os.Getenv("CACHE_BACKEND"))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = CacheBackendMemory
	}
	cfg.RedisURL = os.Getenv("REDIS_URL")

	ttl, err := secondsFromEnv("FOLDER_COUNTS_TTL_SECONDS", 60)
	if err != nil {
		return nil, err
	}
	cfg.FolderCountsTTL = ttl

	return cfg, nil
}

func secondsFromEnv(key string, def int) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(def) * time.Second, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return time.Duration(n) * time.Second, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Production-specific validation
	if cfg.IsProduction() {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECONDS must be positive")
	}
	if c.FolderCountsTTL <= 0 {
		return fmt.Errorf("FOLDER_COUNTS_TTL_SECONDS must be positive")
	}
	switch c.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be %q or %q", CacheBackendMemory, CacheBackendRedis)
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.AuthJWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required in production")
	}

	if c.CronSecret == "" {
		return fmt.Errorf("CRON_SECRET is required in production")
	}

	if c.ProviderAPIKey == "" {
		return fmt.Errorf("PROVIDER_API_KEY is required in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	// Check for sslmode=disable in database URL
	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("jwt_secret_set", c.AuthJWTSecret != ""),
		slog.Bool("cron_secret_set", c.CronSecret != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
		slog.String("provider_api_url", c.ProviderAPIURL),
		slog.Bool("provider_api_key_set", c.ProviderAPIKey != ""),
		slog.Duration("provider_timeout", c.ProviderTimeout),
		slog.String("cache_backend", c.CacheBackend),
		slog.Duration("folder_counts_ttl", c.FolderCountsTTL),
	)
}
