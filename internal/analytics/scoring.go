package analytics

import (
	"github.com/shopspring/decimal"
)

// Configured weight bounds
const (
	MaxCategoryWeight = 10.0
	MinTurnoverWeight = -10.0
)

// ScoringWeights is a resolved set of per-category multipliers
type ScoringWeights struct {
	ID                uint    `json:"id,omitempty"`
	Name              string  `json:"name"`
	Points            float64 `json:"points"`
	Rebounds          float64 `json:"rebounds"`
	Assists           float64 `json:"assists"`
	Steals            float64 `json:"steals"`
	Blocks            float64 `json:"blocks"`
	ThreePointersMade float64 `json:"three_pointers_made"`
	Turnovers         float64 `json:"turnovers"`
	IsDefault         bool    `json:"is_default"`
}

// DefaultScoringWeights returns the built-in points-league weight set.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		Name:              "standard",
		Points:            1.0,
		Rebounds:          1.2,
		Assists:           1.5,
		Steals:            3.0,
		Blocks:            3.0,
		ThreePointersMade: 0.5,
		Turnovers:         -1.0,
		IsDefault:         true,
	}
}

func (w ScoringWeights) positive() []struct {
	field string
	value float64
} {
	return []struct {
		field string
		value float64
	}{
		{"points", w.Points},
		{"rebounds", w.Rebounds},
		{"assists", w.Assists},
		{"steals", w.Steals},
		{"blocks", w.Blocks},
		{"three_pointers_made", w.ThreePointersMade},
	}
}

// Validate checks the configured bounds: positive categories in [0,10] and
// turnovers in [-10,0]. Score does not call it; the owner of the weight set does.
func (w ScoringWeights) Validate() error {
	for _, c := range w.positive() {
		if err := checkFinite(c.field, c.value); err != nil {
			return err
		}
		if c.value < 0 || c.value > MaxCategoryWeight {
			return newValidationError(c.field, "weight must be between 0 and %.0f, got %v", MaxCategoryWeight, c.value)
		}
	}
	if err := checkFinite("turnovers", w.Turnovers); err != nil {
		return err
	}
	if w.Turnovers < MinTurnoverWeight || w.Turnovers > 0 {
		return newValidationError("turnovers", "weight must be between %.0f and 0, got %v", MinTurnoverWeight, w.Turnovers)
	}
	return nil
}

// Validate rejects box scores no real game could produce.
func (s StatLine) Validate() error {
	if err := checkFinite("minutes", s.Minutes); err != nil {
		return err
	}
	if s.Minutes < 0 {
		return newValidationError("minutes", "must not be negative, got %v", s.Minutes)
	}
	counts := []struct {
		field string
		value int
	}{
		{"points", s.Points},
		{"rebounds", s.Rebounds},
		{"assists", s.Assists},
		{"steals", s.Steals},
		{"blocks", s.Blocks},
		{"turnovers", s.Turnovers},
		{"fouls", s.Fouls},
		{"field_goals_made", s.FieldGoalsMade},
		{"field_goals_attempted", s.FieldGoalsAttempted},
		{"three_pointers_made", s.ThreePointersMade},
		{"three_pointers_attempted", s.ThreePointersAttempted},
		{"free_throws_made", s.FreeThrowsMade},
		{"free_throws_attempted", s.FreeThrowsAttempted},
	}
	for _, c := range counts {
		if c.value < 0 {
			return newValidationError(c.field, "must not be negative, got %d", c.value)
		}
	}
	return nil
}

// Score converts one box score into a fantasy score at full precision.
func Score(line StatLine, weights ScoringWeights) (float64, error) {
	if err := line.Validate(); err != nil {
		return 0, err
	}
	for _, c := range weights.positive() {
		if err := checkFinite(c.field, c.value); err != nil {
			return 0, err
		}
	}
	if err := checkFinite("turnovers", weights.Turnovers); err != nil {
		return 0, err
	}

	score := float64(line.Points)*weights.Points +
		float64(line.Rebounds)*weights.Rebounds +
		float64(line.Assists)*weights.Assists +
		float64(line.Steals)*weights.Steals +
		float64(line.Blocks)*weights.Blocks +
		float64(line.ThreePointersMade)*weights.ThreePointersMade +
		float64(line.Turnovers)*weights.Turnovers

	return score, nil
}

// ScoreHistory scores every game of a newest-first history, preserving order.
func ScoreHistory(games []StatLine, weights ScoringWeights) ([]GameScore, error) {
	scores := make([]GameScore, 0, len(games))
	for _, g := range games {
		s, err := Score(g, weights)
		if err != nil {
			return nil, err
		}
		scores = append(scores, GameScore{GameID: g.GameID, GameDate: g.GameDate, Score: s})
	}
	return scores, nil
}

// RoundScore rounds a score to 2 decimal places for display.
func RoundScore(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func scoreValues(scores []GameScore) []float64 {
	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = s.Score
	}
	return values
}

func minutesValues(games []StatLine) []float64 {
	values := make([]float64, len(games))
	for i, g := range games {
		values[i] = g.Minutes
	}
	return values
}
