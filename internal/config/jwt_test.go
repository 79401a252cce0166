package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTConfig(t *testing.T) {
	cfg, err := NewJWTConfig("test-secret-key", 24)
	require.NoError(t, err)
	assert.Equal(t, "test-secret-key", cfg.Secret)
	assert.Equal(t, 24, cfg.ExpirationHours)
}

func TestNewJWTConfig_Invalid(t *testing.T) {
	_, err := NewJWTConfig("", 24)
	assert.Error(t, err, "empty secret should be rejected")

	_, err = NewJWTConfig("secret", 0)
	assert.Error(t, err, "expiration below one hour should be rejected")
}
