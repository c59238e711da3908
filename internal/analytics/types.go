package analytics

import (
	"strings"
	"time"
)

// StatLine is one player's box score for one completed game
type StatLine struct {
	PlayerID uint      `json:"player_id"`
	GameID   uint      `json:"game_id"`
	GameDate time.Time `json:"game_date"`
	Opponent string    `json:"opponent,omitempty"`
	Minutes  float64   `json:"minutes"`

	Points    int `json:"points"`
	Rebounds  int `json:"rebounds"`
	Assists   int `json:"assists"`
	Steals    int `json:"steals"`
	Blocks    int `json:"blocks"`
	Turnovers int `json:"turnovers"`
	Fouls     int `json:"fouls"`

	FieldGoalsMade         int `json:"field_goals_made"`
	FieldGoalsAttempted    int `json:"field_goals_attempted"`
	ThreePointersMade      int `json:"three_pointers_made"`
	ThreePointersAttempted int `json:"three_pointers_attempted"`
	FreeThrowsMade         int `json:"free_throws_made"`
	FreeThrowsAttempted    int `json:"free_throws_attempted"`

	PlusMinus int `json:"plus_minus"`
}

// InjuryStatus is the reported availability tier of a player
type InjuryStatus string

const (
	InjuryHealthy      InjuryStatus = "HEALTHY"
	InjuryProbable     InjuryStatus = "PROBABLE"
	InjuryQuestionable InjuryStatus = "QUESTIONABLE"
	InjuryDoubtful     InjuryStatus = "DOUBTFUL"
	InjuryOut          InjuryStatus = "OUT"
)

// ParseInjuryStatus normalizes a provider status string. Unknown or empty values are HEALTHY.
func ParseInjuryStatus(s string) InjuryStatus {
	switch InjuryStatus(normalizeStatus(s)) {
	case InjuryProbable:
		return InjuryProbable
	case InjuryQuestionable:
		return InjuryQuestionable
	case InjuryDoubtful:
		return InjuryDoubtful
	case InjuryOut:
		return InjuryOut
	default:
		return InjuryHealthy
	}
}

func normalizeStatus(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// PlayerHistory is the input of a per-player computation: every final
// stat line of the season, newest first.
type PlayerHistory struct {
	PlayerID     uint         `json:"player_id"`
	Name         string       `json:"name"`
	Team         string       `json:"team"`
	InjuryStatus InjuryStatus `json:"injury_status"`
	Games        []StatLine   `json:"games"`
}

// GameScore is a fantasy score for one game under one weight set.
type GameScore struct {
	GameID   uint      `json:"game_id"`
	GameDate time.Time `json:"game_date"`
	Score    float64   `json:"score"`
}

// PlayerAnalytics holds every derived signal for one player under one weight set.
type PlayerAnalytics struct {
	PlayerID        uint               `json:"player_id"`
	Name            string             `json:"name"`
	Team            string             `json:"team"`
	InjuryStatus    InjuryStatus       `json:"injury_status"`
	GamesPlayed     int                `json:"games_played"`
	Scores          []GameScore        `json:"scores"`
	Averages        RollingAverages    `json:"averages"`
	MinutesAverages RollingAverages    `json:"minutes_averages"`
	Consistency     *ConsistencyMetric `json:"consistency,omitempty"`
	ScoreTrend      *TrendSignal       `json:"score_trend,omitempty"`
	MinutesTrend    *TrendSignal       `json:"minutes_trend,omitempty"`
	ProjectedPoints float64            `json:"projected_points"`
}

// HotFactor returns the fantasy-score hot factor, zero when no trend is available.
func (p PlayerAnalytics) HotFactor() float64 {
	if p.ScoreTrend == nil {
		return 0
	}
	return p.ScoreTrend.HotFactor
}

// MinutesTrendValue returns the signed minutes trend, zero when no trend is available.
func (p PlayerAnalytics) MinutesTrendValue() float64 {
	if p.MinutesTrend == nil {
		return 0
	}
	return p.MinutesTrend.Value
}
