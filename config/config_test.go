package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.kitbase.dev", cfg.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 60*time.Second, cfg.PollInterval)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.False(t, cfg.Streaming)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("KITBASE_API_KEY", "env-key")
	t.Setenv("KITBASE_BASE_URL", "https://flags.internal.example.com")
	t.Setenv("KITBASE_POLL_INTERVAL", "15s")
	t.Setenv("KITBASE_STREAMING", "true")
	t.Setenv("KITBASE_CACHE_TTL", "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "https://flags.internal.example.com", cfg.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.True(t, cfg.Streaming)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("KITBASE_POLL_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParsingConfig)
}
