package ratelimit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(endpoints ...EndpointConfig) *Config {
	return &Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Endpoints:     endpoints,
	}
}

func TestLimiterEnforcesBurst(t *testing.T) {
	l := NewLimiter(testConfig(EndpointConfig{
		Path: "/v1/resume/generate", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2,
	}))
	defer l.Stop()

	allowed, _ := l.Allow("1.2.3.4", "/v1/resume/generate", "POST")
	assert.True(t, allowed)
	allowed, _ = l.Allow("1.2.3.4", "/v1/resume/generate", "POST")
	assert.True(t, allowed)

	allowed, info := l.Allow("1.2.3.4", "/v1/resume/generate", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 10, info.Limit)
	assert.Greater(t, info.RetryAfter, time.Duration(0))
}

func TestLimiterIsolatesClients(t *testing.T) {
	l := NewLimiter(testConfig(EndpointConfig{
		Path: "/v1/resume/parse", Method: "POST", Limit: 5, Window: time.Hour, Burst: 1,
	}))
	defer l.Stop()

	allowed, _ := l.Allow("1.1.1.1", "/v1/resume/parse", "POST")
	assert.True(t, allowed)
	allowed, _ = l.Allow("1.1.1.1", "/v1/resume/parse", "POST")
	assert.False(t, allowed)

	allowed, _ = l.Allow("2.2.2.2", "/v1/resume/parse", "POST")
	assert.True(t, allowed, "a second client has its own bucket")
}

func TestLimiterDisabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false})
	defer l.Stop()

	for i := 0; i < 1000; i++ {
		allowed, _ := l.Allow("1.2.3.4", "/v1/logs", "POST")
		require.True(t, allowed)
	}
}

func TestLimiterDefaultBudget(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()

	for i := 0; i < 100; i++ {
		allowed, _ := l.Allow("1.2.3.4", "/v1/experiences", "GET")
		require.True(t, allowed, fmt.Sprintf("request %d", i))
	}
	allowed, _ := l.Allow("1.2.3.4", "/v1/experiences", "GET")
	assert.False(t, allowed)
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/v1/logs", Method: "POST", Limit: 30},
		{Path: "/v1/github/", Method: "POST", Limit: 10},
	}

	match := MatchEndpoint("/v1/logs", "POST", configs)
	require.NotNil(t, match)
	assert.Equal(t, 30, match.Limit)

	match = MatchEndpoint("/v1/github/import", "POST", configs)
	require.NotNil(t, match)
	assert.Equal(t, 10, match.Limit)

	assert.Nil(t, MatchEndpoint("/v1/logs", "GET", configs))

	health := MatchEndpoint("/health", "GET", configs)
	require.NotNil(t, health)
	assert.Zero(t, health.Limit)
}
