package ratelimit

import (
	"os"
	"strconv"
	"time"
)

// EndpointConfig is the budget for one endpoint. Path supports prefix
// matching when it ends with "/".
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int
	Window time.Duration
	Burst  int
}

// Config holds limiter configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Endpoints       []EndpointConfig
}

func defaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    300,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Endpoints:       DefaultEndpointConfigs(),
	}
}

// LoadConfig reads limiter settings from the environment.
func LoadConfig() *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}
	cfg := defaultConfig()
	cfg.DefaultLimit = getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	return cfg
}

// DefaultEndpointConfigs returns per-endpoint budgets. Every entry in the
// first tier triggers at least one model call per request.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/v1/logs", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/v1/resume/parse", Method: "POST", Limit: 5, Window: time.Hour, Burst: 2},
		{Path: "/v1/resume/generate", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},
		{Path: "/v1/github/import", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		{Path: "/v1/voice/transcribe", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},

		{Path: "/v1/auth/register", Method: "POST", Limit: 10, Window: time.Minute, Burst: 3},
		{Path: "/v1/auth/login", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
