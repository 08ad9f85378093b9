// Package config provides configuration loading and validation for the server
// and CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds process-wide configuration resolved from environment variables.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// DatabaseURL is the PostgreSQL connection URL. Required.
	DatabaseURL string

	// GeminiAPIKey authenticates calls to the language model. Required for serve.
	GeminiAPIKey string

	// ElevenLabsAPIKey authenticates speech-to-text calls. Optional; voice
	// transcription is disabled without it.
	ElevenLabsAPIKey string

	// GitHubClientID / GitHubClientSecret configure the GitHub OAuth exchange.
	// Optional; the connect flow is disabled without them.
	GitHubClientID     string
	GitHubClientSecret string

	// ResumeBucket is the object-storage bucket holding uploaded resume PDFs.
	ResumeBucket string

	// AppBaseURL is the externally visible base URL, used for OAuth redirects.
	AppBaseURL string

	// FetchWithBrowser enables the headless-browser fallback when fetching
	// job postings from script-rendered pages.
	FetchWithBrowser bool
}

// FromEnv builds a Config from environment variables.
// DATABASE_URL and GEMINI_API_KEY are required; everything else has a default
// or degrades a single optional feature.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:               8080,
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		ElevenLabsAPIKey:   os.Getenv("ELEVENLABS_API_KEY"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		ResumeBucket:       os.Getenv("RESUME_BUCKET"),
		AppBaseURL:         os.Getenv("APP_BASE_URL"),
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %v", err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("FETCH_WITH_BROWSER"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FETCH_WITH_BROWSER: %v", err)
		}
		cfg.FetchWithBrowser = enabled
	}

	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalize validates the configuration.
func (c *Config) normalize() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required but not set")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required but not set")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	return nil
}
