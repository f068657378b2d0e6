package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.URI)
	assert.Equal(t, "moderate", cfg.Rebalance.DefaultConstraintsPreset)
	assert.Equal(t, 1000, cfg.Rebalance.DefaultScenarios)
	assert.InDelta(t, 0.95, cfg.Rebalance.DefaultConfidenceLevel, 1e-9)
}

func TestLoadRespectsEnvOverride(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	cfg := Load()
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestValidateRequiresDatabaseURI(t *testing.T) {
	cfg := Load()
	cfg.Database.URI = ""
	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidatePassesWithDefaults(t *testing.T) {
	cfg := Load()
	err := cfg.Validate()
	assert.NoError(t, err)
}
