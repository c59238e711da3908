package models

import (
	"time"
)

// FantasyScore is one player's score for one game under one weight set.
type FantasyScore struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PlayerID    uint      `gorm:"not null;uniqueIndex:idx_fantasy_score_key" json:"player_id"`
	GameID      uint      `gorm:"not null;uniqueIndex:idx_fantasy_score_key" json:"game_id"`
	WeightSetID uint      `gorm:"not null;uniqueIndex:idx_fantasy_score_key" json:"weight_set_id"`
	GameDate    time.Time `gorm:"index" json:"game_date"`
	Score       float64   `json:"score"`
	ComputedAt  time.Time `json:"computed_at"`
}

func (FantasyScore) TableName() string {
	return "fantasy_scores"
}

// RollingAverage stores one window of one metric. Value is NULL when the
// player has no games.
type RollingAverage struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PlayerID    uint      `gorm:"not null;uniqueIndex:idx_rolling_average_key" json:"player_id"`
	WeightSetID uint      `gorm:"not null;uniqueIndex:idx_rolling_average_key" json:"weight_set_id"`
	Metric      string    `gorm:"not null;uniqueIndex:idx_rolling_average_key" json:"metric"`
	Lookback    string    `gorm:"not null;uniqueIndex:idx_rolling_average_key" json:"lookback"`
	Value       *float64  `json:"value"`
	Games       int       `json:"games"`
	ComputedAt  time.Time `json:"computed_at"`
}

func (RollingAverage) TableName() string {
	return "rolling_averages"
}

type ConsistencyMetric struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	PlayerID               uint      `gorm:"not null;uniqueIndex:idx_consistency_key" json:"player_id"`
	WeightSetID            uint      `gorm:"not null;uniqueIndex:idx_consistency_key" json:"weight_set_id"`
	Lookback               string    `gorm:"not null;uniqueIndex:idx_consistency_key" json:"lookback"`
	Mean                   float64   `json:"mean"`
	StandardDeviation      float64   `json:"standard_deviation"`
	CoefficientOfVariation float64   `json:"coefficient_of_variation"`
	Grade                  string    `json:"grade"`
	GamesUsed              int       `json:"games_used"`
	ComputedAt             time.Time `json:"computed_at"`
}

func (ConsistencyMetric) TableName() string {
	return "consistency_metrics"
}

type TrendSignal struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PlayerID      uint      `gorm:"not null;uniqueIndex:idx_trend_signal_key" json:"player_id"`
	WeightSetID   uint      `gorm:"not null;uniqueIndex:idx_trend_signal_key" json:"weight_set_id"`
	Metric        string    `gorm:"not null;uniqueIndex:idx_trend_signal_key" json:"metric"`
	Direction     string    `json:"direction"`
	Value         float64   `json:"value"`
	RecentAvg     float64   `json:"recent_avg"`
	BaselineAvg   float64   `json:"baseline_avg"`
	RecentGames   int       `json:"recent_games"`
	BaselineGames int       `json:"baseline_games"`
	HotFactor     float64   `json:"hot_factor"`
	IsHot         bool      `json:"is_hot"`
	ComputedAt    time.Time `json:"computed_at"`
}

func (TrendSignal) TableName() string {
	return "trend_signals"
}
