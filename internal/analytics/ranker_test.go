package analytics

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommendationScore(t *testing.T) {
	c := Candidate{
		ProjectedPoints:     30,
		HotFactor:           0.2,
		MinutesTrend:        0.1,
		MatchupFavorability: 1.05,
	}
	// 0.4*30 + 0.3*20 + 0.2*10 + 0.1*10.5
	assert.InDelta(t, 21.05, RecommendationScore(c, DefaultRankerConfig()), 1e-9)
}

func TestRank_OrdersByScore(t *testing.T) {
	candidates := []Candidate{
		{PlayerID: 1, ProjectedPoints: 20, MatchupFavorability: 1},
		{PlayerID: 2, ProjectedPoints: 35, MatchupFavorability: 1},
		{PlayerID: 3, ProjectedPoints: 25, HotFactor: 0.3, MatchupFavorability: 1},
	}

	recs, err := Rank(candidates, DefaultRankerConfig())
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, uint(3), recs[0].PlayerID)
	assert.Equal(t, uint(2), recs[1].PlayerID)
	assert.Equal(t, uint(1), recs[2].PlayerID)
	for i, r := range recs {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestRank_TieBreaks(t *testing.T) {
	cfg := DefaultRankerConfig()
	cfg.Weights = RankingWeights{HotFactor: 1}

	// Every candidate scores 10; projection then id decide.
	candidates := []Candidate{
		{PlayerID: 9, ProjectedPoints: 10, HotFactor: 0.1},
		{PlayerID: 4, ProjectedPoints: 12, HotFactor: 0.1},
		{PlayerID: 7, ProjectedPoints: 10, HotFactor: 0.1},
		{PlayerID: 2, ProjectedPoints: 10, HotFactor: 0.1},
	}

	recs, err := Rank(candidates, cfg)
	require.NoError(t, err)

	ids := make([]uint, len(recs))
	for i, r := range recs {
		ids[i] = r.PlayerID
	}
	assert.Equal(t, []uint{4, 2, 7, 9}, ids)
}

func TestRank_ShuffledInputSameOutput(t *testing.T) {
	var candidates []Candidate
	for i := 1; i <= 25; i++ {
		candidates = append(candidates, Candidate{
			PlayerID:            uint(i),
			ProjectedPoints:     float64(i % 6 * 5),
			HotFactor:           float64(i%3) * 0.1,
			MinutesTrend:        float64(i%4) * 0.05,
			MatchupFavorability: 1,
		})
	}

	first, err := Rank(candidates, DefaultRankerConfig())
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 5; n++ {
		shuffled := append([]Candidate(nil), candidates...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		again, err := Rank(shuffled, DefaultRankerConfig())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRank_TruncatesAfterRanking(t *testing.T) {
	cfg := DefaultRankerConfig()
	cfg.MaxRecommendations = 3

	var candidates []Candidate
	for i := 1; i <= 8; i++ {
		candidates = append(candidates, Candidate{PlayerID: uint(i), ProjectedPoints: float64(i)})
	}

	recs, err := Rank(candidates, cfg)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, uint(8), recs[0].PlayerID)
	assert.Equal(t, uint(6), recs[2].PlayerID)
	assert.Equal(t, 3, recs[2].Rank)
}

func TestRank_UnnormalizedWeightsAccepted(t *testing.T) {
	cfg := DefaultRankerConfig()
	cfg.Weights = RankingWeights{Projection: 2, HotFactor: 2, Minutes: 0, Matchup: 0}

	recs, err := Rank([]Candidate{{PlayerID: 1, ProjectedPoints: 10}}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 20.0, recs[0].Score)
	assert.Equal(t, 4.0, cfg.Weights.Sum())
}

func TestRank_Validation(t *testing.T) {
	cfg := DefaultRankerConfig()
	cfg.MaxRecommendations = 0
	_, err := Rank(nil, cfg)
	assert.True(t, IsValidationError(err))

	_, err = Rank([]Candidate{{PlayerID: 1, ProjectedPoints: math.NaN()}}, DefaultRankerConfig())
	assert.True(t, IsValidationError(err))
}

func TestRank_Empty(t *testing.T) {
	recs, err := Rank(nil, DefaultRankerConfig())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestBuildReasons(t *testing.T) {
	tests := []struct {
		name      string
		candidate Candidate
		expected  []string
	}{
		{
			name:      "fallback",
			candidate: Candidate{MatchupFavorability: 1},
			expected:  []string{FallbackReason},
		},
		{
			name: "all clauses in order",
			candidate: Candidate{
				HotFactor:           0.25,
				MinutesTrend:        0.2,
				MatchupFavorability: 1.2,
				Opponent:            "WAS",
				InjuryStatus:        InjuryQuestionable,
			},
			expected: []string{
				"on a hot streak",
				"major increase in minutes",
				"good matchup vs WAS",
				"injury risk (questionable)",
			},
		},
		{
			name:      "milder clauses",
			candidate: Candidate{HotFactor: 0.15, MinutesTrend: 0.1, MatchupFavorability: 0.8, Opponent: "BOS"},
			expected:  []string{"heating up", "minutes trending up", "tough matchup vs BOS"},
		},
		{
			name:      "doubtful",
			candidate: Candidate{MatchupFavorability: 1, InjuryStatus: InjuryDoubtful},
			expected:  []string{"injury risk (doubtful)"},
		},
		{
			name:      "boundaries are exclusive",
			candidate: Candidate{HotFactor: 0.1, MinutesTrend: 0.05, MatchupFavorability: 1.1},
			expected:  []string{FallbackReason},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildReasons(tt.candidate))
		})
	}
}

func TestRank_ReasoningNeverEmpty(t *testing.T) {
	recs, err := Rank([]Candidate{
		{PlayerID: 1},
		{PlayerID: 2, HotFactor: 0.5, MinutesTrend: 0.3, MatchupFavorability: 1.3, Opponent: "DET"},
	}, DefaultRankerConfig())
	require.NoError(t, err)

	for _, r := range recs {
		assert.NotEmpty(t, r.Reasoning)
	}
	assert.Equal(t, strings.Join(recs[0].Reasons, ReasonSeparator), recs[0].Reasoning)
	assert.Equal(t, "on a hot streak; major increase in minutes; good matchup vs DET", recs[0].Reasoning)
}

func TestProjectPoints(t *testing.T) {
	assert.Equal(t, 0.0, ProjectPoints(RollingAverages{}))
	assert.InDelta(t, 30.0, ProjectPoints(RollingAverages{Season: ptr(30)}), 1e-12)
	assert.InDelta(t, 0.5*40+0.3*30+0.2*20, ProjectPoints(RollingAverages{
		Last7: ptr(40), Last14: ptr(30), Season: ptr(20),
	}), 1e-12)
	// Missing last-14 renormalizes over the remaining 0.7 of weight.
	assert.InDelta(t, (0.5*40+0.2*20)/0.7, ProjectPoints(RollingAverages{Last7: ptr(40), Season: ptr(20)}), 1e-12)
}
