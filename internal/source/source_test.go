package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigs(t *testing.T) {
	configs := DefaultConfigs()
	require.Len(t, configs, 4)

	assert.Equal(t, 1, configs[NameCambridge].Tier)
	assert.Equal(t, 3, configs[NameWiktionary].Tier)

	for name, cfg := range configs {
		assert.GreaterOrEqual(t, cfg.Tier, 1, name)
		assert.LessOrEqual(t, cfg.Tier, 4, name)
		assert.Greater(t, cfg.BaseReliability, 0.0, name)
		assert.LessOrEqual(t, cfg.BaseReliability, 1.0, name)
		assert.Greater(t, cfg.MinInterval.Nanoseconds(), int64(0), name)
	}

	// Wordnik is the only source that needs an API key.
	assert.True(t, configs[NameWordnik].RequiresCredential)
	assert.False(t, configs[NameCambridge].RequiresCredential)
}

func TestPriorityOrder(t *testing.T) {
	order := PriorityOrder()
	assert.Equal(t, []string{NameCambridge, NameFreeDict, NameWordnik, NameWiktionary}, order)

	// Every listed source has a config, best tiers first.
	configs := DefaultConfigs()
	lastTier := 0
	for _, name := range order {
		cfg, ok := configs[name]
		require.True(t, ok, name)
		assert.GreaterOrEqual(t, cfg.Tier, lastTier, name)
		lastTier = cfg.Tier
	}
}
