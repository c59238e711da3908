package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultMinConsistencyGames is the smallest sample a grade is produced for.
const DefaultMinConsistencyGames = 5

// Grade is a discrete consistency grade, best first
type Grade string

const (
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeAMinus Grade = "A-"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B-"
	GradeCPlus  Grade = "C+"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C-"
	GradeD      Grade = "D"
	GradeF      Grade = "F"
)

// gradeBounds is scanned in ascending order; a CV equal to a bound gets the better grade.
var gradeBounds = []struct {
	maxCV float64
	grade Grade
}{
	{0.10, GradeAPlus},
	{0.15, GradeA},
	{0.20, GradeAMinus},
	{0.25, GradeBPlus},
	{0.30, GradeB},
	{0.35, GradeBMinus},
	{0.40, GradeCPlus},
	{0.45, GradeC},
	{0.50, GradeCMinus},
	{0.60, GradeD},
}

// GradeForCV maps a coefficient of variation to its consistency grade.
func GradeForCV(cv float64) Grade {
	for _, b := range gradeBounds {
		if cv <= b.maxCV {
			return b.grade
		}
	}
	return GradeF
}

// ConsistencyMetric describes how variable a player's output is over a window
type ConsistencyMetric struct {
	Mean                   float64 `json:"mean"`
	StandardDeviation      float64 `json:"standard_deviation"`
	CoefficientOfVariation float64 `json:"coefficient_of_variation"`
	Grade                  Grade   `json:"grade"`
	GamesUsed              int     `json:"games_used"`
}

// Consistency computes the population standard deviation and coefficient of
// variation of a window. It returns nil when the window holds fewer than
// minGames samples.
func Consistency(values []float64, minGames int) (*ConsistencyMetric, error) {
	if minGames < 1 {
		return nil, newValidationError("min_games", "must be at least 1, got %d", minGames)
	}
	if err := checkAllFinite("values", values); err != nil {
		return nil, err
	}
	if len(values) < minGames {
		return nil, nil
	}

	mean, sigma := stat.PopMeanStdDev(values, nil)

	// A constant-zero series is maximally consistent.
	cv := 0.0
	if mean != 0 {
		cv = sigma / math.Abs(mean)
	}

	return &ConsistencyMetric{
		Mean:                   mean,
		StandardDeviation:      sigma,
		CoefficientOfVariation: cv,
		Grade:                  GradeForCV(cv),
		GamesUsed:              len(values),
	}, nil
}

// ConsistencyOver applies Consistency to the newest-first prefix covered by window.
func ConsistencyOver(values []float64, window Window, minGames int) (*ConsistencyMetric, error) {
	windowed, err := TakeWindow(values, window)
	if err != nil {
		return nil, err
	}
	return Consistency(windowed, minGames)
}
