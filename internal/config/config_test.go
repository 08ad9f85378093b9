package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/journal_test")
	t.Setenv("GEMINI_API_KEY", "test-key")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("APP_BASE_URL", "")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:8080", cfg.AppBaseURL)
	assert.False(t, cfg.FetchWithBrowser)
}

func TestFromEnvMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GEMINI_API_KEY", "test-key")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestFromEnvMissingAPIKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/journal_test")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestFromEnvInvalidPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "not-a-number")

	_, err := FromEnv()
	require.Error(t, err)

	t.Setenv("PORT", "70000")
	_, err = FromEnv()
	require.Error(t, err)
}

func TestFromEnvBrowserFlag(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("FETCH_WITH_BROWSER", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.FetchWithBrowser)
}

func TestNewJWTConfig(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("JWT_EXPIRATION_HOURS", "")

	cfg, err := NewJWTConfig()
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.ExpirationHours)

	t.Setenv("JWT_EXPIRATION_HOURS", "0")
	_, err = NewJWTConfig()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "")
	_, err = NewJWTConfig()
	require.Error(t, err)
}

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Setenv("BCRYPT_COST", "10")

	cfg, err := NewPasswordConfig()
	require.NoError(t, err)

	hash, err := cfg.HashPassword("hunter22")
	require.NoError(t, err)
	assert.True(t, cfg.VerifyPassword("hunter22", hash))
	assert.False(t, cfg.VerifyPassword("wrong", hash))
}

func TestPasswordConfigCostBounds(t *testing.T) {
	t.Setenv("BCRYPT_COST", "9")
	_, err := NewPasswordConfig()
	require.Error(t, err)

	t.Setenv("BCRYPT_COST", "15")
	_, err = NewPasswordConfig()
	require.Error(t, err)
}
