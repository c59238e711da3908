package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.TrendRecentGames)
	assert.Equal(t, WindowAll, cfg.TrendBaseline)
	assert.Equal(t, 50, cfg.ExcludeTopN)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative dead band", func(c *Config) { c.Trend.DeadBand = -0.01 }},
		{"nan hot threshold", func(c *Config) { c.Trend.HotThreshold = math.NaN() }},
		{"zero recent games", func(c *Config) { c.TrendRecentGames = 0 }},
		{"zero baseline window", func(c *Config) { c.TrendBaseline = 0 }},
		{"zero min games", func(c *Config) { c.MinConsistencyGames = 0 }},
		{"negative consistency window", func(c *Config) { c.ConsistencyWindow = -3 }},
		{"zero max recommendations", func(c *Config) { c.Ranker.MaxRecommendations = 0 }},
		{"infinite ranking weight", func(c *Config) { c.Ranker.Weights.Matchup = math.Inf(1) }},
		{"zero opponent games", func(c *Config) { c.Matchup.OpponentGames = 0 }},
		{"negative exclude", func(c *Config) { c.ExcludeTopN = -1 }},
		{"negative trade band", func(c *Config) { c.TradeBand = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.True(t, IsValidationError(cfg.Validate()))
		})
	}
}
