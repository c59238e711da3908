package analytics

import (
	"fmt"
	"sort"
	"strings"
)

// Ranking defaults
const (
	DefaultMaxRecommendations = 10
	DefaultMinutesTrendScale  = 100.0
	ReasonSeparator           = "; "
	FallbackReason            = "steady production at a replacement-level price"
)

// RankingWeights blends the four recommendation signals. The defaults sum
// to 1.0; caller overrides are used as given.
type RankingWeights struct {
	Projection float64 `json:"projection"`
	HotFactor  float64 `json:"hot_factor"`
	Minutes    float64 `json:"minutes"`
	Matchup    float64 `json:"matchup"`
}

// DefaultRankingWeights returns (0.4, 0.3, 0.2, 0.1).
func DefaultRankingWeights() RankingWeights {
	return RankingWeights{Projection: 0.4, HotFactor: 0.3, Minutes: 0.2, Matchup: 0.1}
}

// Sum returns the total weight.
func (w RankingWeights) Sum() float64 {
	return w.Projection + w.HotFactor + w.Minutes + w.Matchup
}

// RankerConfig controls scoring and truncation of recommendations
type RankerConfig struct {
	Weights            RankingWeights `json:"weights"`
	MinutesTrendScale  float64        `json:"minutes_trend_scale"`
	MaxRecommendations int            `json:"max_recommendations"`
}

// DefaultRankerConfig returns the default weights, K=100 and 10 results.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		Weights:            DefaultRankingWeights(),
		MinutesTrendScale:  DefaultMinutesTrendScale,
		MaxRecommendations: DefaultMaxRecommendations,
	}
}

// Validate checks that every knob is finite and the result size is positive.
func (c RankerConfig) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"weights.projection", c.Weights.Projection},
		{"weights.hot_factor", c.Weights.HotFactor},
		{"weights.minutes", c.Weights.Minutes},
		{"weights.matchup", c.Weights.Matchup},
		{"minutes_trend_scale", c.MinutesTrendScale},
	}
	for _, f := range fields {
		if err := checkFinite(f.name, f.value); err != nil {
			return err
		}
	}
	if c.MaxRecommendations < 1 {
		return newValidationError("max_recommendations", "must be at least 1, got %d", c.MaxRecommendations)
	}
	return nil
}

// Candidate is one waiver-eligible player with its precomputed signals
type Candidate struct {
	PlayerID            uint         `json:"player_id"`
	Name                string       `json:"name"`
	Team                string       `json:"team"`
	Opponent            string       `json:"opponent"`
	ProjectedPoints     float64      `json:"projected_points"`
	HotFactor           float64      `json:"hot_factor"`
	MinutesTrend        float64      `json:"minutes_trend"`
	MatchupFavorability float64      `json:"matchup_favorability"`
	InjuryStatus        InjuryStatus `json:"injury_status"`
}

func (c Candidate) validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"projected_points", c.ProjectedPoints},
		{"hot_factor", c.HotFactor},
		{"minutes_trend", c.MinutesTrend},
		{"matchup_favorability", c.MatchupFavorability},
	}
	for _, f := range fields {
		if err := checkFinite(fmt.Sprintf("candidate %d %s", c.PlayerID, f.name), f.value); err != nil {
			return err
		}
	}
	return nil
}

// Recommendation is a ranked candidate with its score and reasoning
type Recommendation struct {
	Rank                int          `json:"rank"`
	PlayerID            uint         `json:"player_id"`
	Name                string       `json:"name"`
	Team                string       `json:"team"`
	Opponent            string       `json:"opponent"`
	Score               float64      `json:"score"`
	ProjectedPoints     float64      `json:"projected_points"`
	HotFactor           float64      `json:"hot_factor"`
	MinutesTrend        float64      `json:"minutes_trend"`
	MatchupFavorability float64      `json:"matchup_favorability"`
	InjuryStatus        InjuryStatus `json:"injury_status"`
	Reasons             []string     `json:"reasons"`
	Reasoning           string       `json:"reasoning"`
}

// RecommendationScore blends the four signals of one candidate.
func RecommendationScore(c Candidate, cfg RankerConfig) float64 {
	w := cfg.Weights
	return w.Projection*c.ProjectedPoints +
		w.HotFactor*(c.HotFactor*100) +
		w.Minutes*(c.MinutesTrend*cfg.MinutesTrendScale) +
		w.Matchup*(c.MatchupFavorability*10)
}

// Rank scores every candidate, orders them deterministically and keeps the
// top MaxRecommendations. Ranks are assigned over the full pool first.
// Excluding OUT players is the caller's job.
func Rank(candidates []Candidate, cfg RankerConfig) ([]Recommendation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	scored := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		if err := c.validate(); err != nil {
			return nil, err
		}
		reasons := BuildReasons(c)
		scored = append(scored, Recommendation{
			PlayerID:            c.PlayerID,
			Name:                c.Name,
			Team:                c.Team,
			Opponent:            c.Opponent,
			Score:               RecommendationScore(c, cfg),
			ProjectedPoints:     c.ProjectedPoints,
			HotFactor:           c.HotFactor,
			MinutesTrend:        c.MinutesTrend,
			MatchupFavorability: c.MatchupFavorability,
			InjuryStatus:        c.InjuryStatus,
			Reasons:             reasons,
			Reasoning:           strings.Join(reasons, ReasonSeparator),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.ProjectedPoints != b.ProjectedPoints {
			return a.ProjectedPoints > b.ProjectedPoints
		}
		return a.PlayerID < b.PlayerID
	})

	for i := range scored {
		scored[i].Rank = i + 1
	}

	if len(scored) > cfg.MaxRecommendations {
		scored = scored[:cfg.MaxRecommendations]
	}
	return scored, nil
}

// BuildReasons lists the threshold crossings that justify a candidate, in a
// fixed order. It never returns an empty list.
func BuildReasons(c Candidate) []string {
	var reasons []string

	switch {
	case c.HotFactor > 0.2:
		reasons = append(reasons, "on a hot streak")
	case c.HotFactor > 0.1:
		reasons = append(reasons, "heating up")
	}

	switch {
	case c.MinutesTrend > 0.15:
		reasons = append(reasons, "major increase in minutes")
	case c.MinutesTrend > 0.05:
		reasons = append(reasons, "minutes trending up")
	}

	opponent := c.Opponent
	if opponent == "" {
		opponent = "opponent"
	}
	switch {
	case c.MatchupFavorability > 1.1:
		reasons = append(reasons, "good matchup vs "+opponent)
	case c.MatchupFavorability > 0 && c.MatchupFavorability < 0.9:
		reasons = append(reasons, "tough matchup vs "+opponent)
	}

	switch c.InjuryStatus {
	case InjuryQuestionable:
		reasons = append(reasons, "injury risk (questionable)")
	case InjuryDoubtful:
		reasons = append(reasons, "injury risk (doubtful)")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, FallbackReason)
	}
	return reasons
}

// ProjectPoints blends the last-7 (0.5), last-14 (0.3) and season (0.2)
// averages, renormalizing over the windows that exist. No data projects 0.
func ProjectPoints(avgs RollingAverages) float64 {
	parts := []struct {
		value  *float64
		weight float64
	}{
		{avgs.Last7, 0.5},
		{avgs.Last14, 0.3},
		{avgs.Season, 0.2},
	}
	var total, weight float64
	for _, p := range parts {
		if p.value == nil {
			continue
		}
		total += *p.value * p.weight
		weight += p.weight
	}
	if weight == 0 {
		return 0
	}
	return total / weight
}
