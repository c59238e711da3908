package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateMatchup_GracefulDegradation(t *testing.T) {
	tests := []struct {
		name     string
		opponent []float64
		league   []float64
	}{
		{"both empty", nil, nil},
		{"opponent empty", nil, []float64{110, 114}},
		{"league empty", []float64{120, 118}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := EvaluateMatchup("BOS", tt.opponent, tt.league, DefaultMatchupConfig())
			require.NoError(t, err)
			assert.Equal(t, 1.0, m.Favorability)
			assert.Equal(t, DefaultLeagueAverage, m.OpponentRating)
			assert.Equal(t, DefaultLeagueAverage, m.LeagueRating)
			assert.True(t, m.Neutral)
			assert.Equal(t, "BOS", m.Opponent)
		})
	}
}

func TestEvaluateMatchup_Ratio(t *testing.T) {
	m, err := EvaluateMatchup("WAS", []float64{121, 119}, []float64{110, 110, 110, 110}, DefaultMatchupConfig())
	require.NoError(t, err)
	assert.InDelta(t, 120.0, m.OpponentRating, 1e-12)
	assert.InDelta(t, 110.0, m.LeagueRating, 1e-12)
	assert.InDelta(t, 120.0/110.0, m.Favorability, 1e-12)
	assert.Equal(t, 2, m.OpponentGames)
	assert.False(t, m.Neutral)
}

func TestEvaluateMatchup_TrailingWindows(t *testing.T) {
	cfg := MatchupConfig{OpponentGames: 2, LeagueGames: 3, LeagueAverage: 112}

	// Only the two newest opponent games and three newest league games count.
	m, err := EvaluateMatchup("MIA", []float64{100, 102, 200}, []float64{100, 100, 100, 400}, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 101.0, m.OpponentRating, 1e-12)
	assert.InDelta(t, 100.0, m.LeagueRating, 1e-12)
	assert.InDelta(t, 1.01, m.Favorability, 1e-12)
	assert.Equal(t, 2, m.OpponentGames)
}

func TestLeagueBaseline_SharedAcrossOpponents(t *testing.T) {
	baseline, err := NewLeagueBaseline([]float64{100, 120}, DefaultMatchupConfig())
	require.NoError(t, err)
	assert.Equal(t, 110.0, baseline.Rating)
	assert.Equal(t, 2, baseline.Samples)

	weak, err := baseline.Evaluate("SAS", []float64{121})
	require.NoError(t, err)
	tough, err := baseline.Evaluate("CLE", []float64{99})
	require.NoError(t, err)

	assert.Greater(t, weak.Favorability, 1.0)
	assert.Less(t, tough.Favorability, 1.0)
	assert.Equal(t, 110.0, baseline.Rating, "evaluation must not mutate the baseline")
}

func TestLeagueBaseline_ZeroValueRejected(t *testing.T) {
	var baseline LeagueBaseline
	_, err := baseline.Evaluate("NYK", []float64{115})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	// the neutral fallback uses the configured league average
	cfg := DefaultMatchupConfig()
	cfg.LeagueAverage = 109
	built, err := NewLeagueBaseline(nil, cfg)
	require.NoError(t, err)
	m, err := built.Evaluate("NYK", []float64{115})
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Favorability)
	assert.True(t, m.Neutral)
	assert.Equal(t, 109.0, m.LeagueRating)
}

func TestMatchupConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultMatchupConfig().Validate())
	assert.True(t, IsValidationError(MatchupConfig{OpponentGames: 0, LeagueGames: 1, LeagueAverage: 1}.Validate()))
	assert.True(t, IsValidationError(MatchupConfig{OpponentGames: 1, LeagueGames: 0, LeagueAverage: 1}.Validate()))
	assert.True(t, IsValidationError(MatchupConfig{OpponentGames: 1, LeagueGames: 1, LeagueAverage: 0}.Validate()))

	_, err := EvaluateMatchup("X", nil, nil, MatchupConfig{})
	assert.True(t, IsValidationError(err))
}
