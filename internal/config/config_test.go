package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-jwt-secret")
	t.Setenv("ENCRYPTION_KEY", strings.Repeat("k", 32))
}

func TestLoad_AppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "./data/mailaggregator.db", cfg.DatabasePath)
	assert.Equal(t, 300, cfg.PollIntervalSeconds)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
}

func TestLoad_RejectsWrongEncryptionKeyLength(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-jwt-secret")
	t.Setenv("ENCRYPTION_KEY", "too-short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsTooSmallPollInterval(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POLL_INTERVAL_SECONDS", "1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", strings.Repeat("k", 32))

	_, err := Load()
	assert.Error(t, err)
}
