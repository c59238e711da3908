package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jstittsworth/hoops-analytics/internal/analytics"
	"gorm.io/datatypes"
)

// Recommendation rows for a date are replaced wholesale on every generation.
type Recommendation struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	Date                time.Time      `gorm:"column:slate_date;not null;index:idx_recommendation_date_weights" json:"date"`
	WeightSetID         uint           `gorm:"not null;index:idx_recommendation_date_weights" json:"weight_set_id"`
	BatchID             string         `gorm:"index" json:"batch_id"`
	Rank                int            `gorm:"not null" json:"rank"`
	PlayerID            uint           `gorm:"not null" json:"player_id"`
	PlayerName          string         `json:"player_name"`
	Team                string         `json:"team"`
	Opponent            string         `json:"opponent"`
	Score               float64        `json:"score"`
	ProjectedPoints     float64        `json:"projected_points"`
	HotFactor           float64        `json:"hot_factor"`
	MinutesTrend        float64        `json:"minutes_trend"`
	MatchupFavorability float64        `json:"matchup_favorability"`
	InjuryStatus        string         `json:"injury_status"`
	Reasons             datatypes.JSON `json:"reasons"`
	Reasoning           string         `json:"reasoning"`
	CreatedAt           time.Time      `json:"created_at"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}

// NewRecommendation builds a row from a ranked recommendation.
func NewRecommendation(date time.Time, weightSetID uint, batchID string, r analytics.Recommendation) (Recommendation, error) {
	reasons, err := json.Marshal(r.Reasons)
	if err != nil {
		return Recommendation{}, fmt.Errorf("failed to marshal reasons: %w", err)
	}
	return Recommendation{
		Date:                date,
		WeightSetID:         weightSetID,
		BatchID:             batchID,
		Rank:                r.Rank,
		PlayerID:            r.PlayerID,
		PlayerName:          r.Name,
		Team:                r.Team,
		Opponent:            r.Opponent,
		Score:               r.Score,
		ProjectedPoints:     r.ProjectedPoints,
		HotFactor:           r.HotFactor,
		MinutesTrend:        r.MinutesTrend,
		MatchupFavorability: r.MatchupFavorability,
		InjuryStatus:        string(r.InjuryStatus),
		Reasons:             datatypes.JSON(reasons),
		Reasoning:           r.Reasoning,
	}, nil
}

// ToAnalytics converts a stored row back into the ranked form.
func (r Recommendation) ToAnalytics() (analytics.Recommendation, error) {
	var reasons []string
	if len(r.Reasons) > 0 {
		if err := json.Unmarshal(r.Reasons, &reasons); err != nil {
			return analytics.Recommendation{}, fmt.Errorf("failed to unmarshal reasons: %w", err)
		}
	}
	return analytics.Recommendation{
		Rank:                r.Rank,
		PlayerID:            r.PlayerID,
		Name:                r.PlayerName,
		Team:                r.Team,
		Opponent:            r.Opponent,
		Score:               r.Score,
		ProjectedPoints:     r.ProjectedPoints,
		HotFactor:           r.HotFactor,
		MinutesTrend:        r.MinutesTrend,
		MatchupFavorability: r.MatchupFavorability,
		InjuryStatus:        analytics.InjuryStatus(r.InjuryStatus),
		Reasons:             reasons,
		Reasoning:           r.Reasoning,
	}, nil
}

// TradeEvaluation is an audit record of an evaluated trade.
type TradeEvaluation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	OwnerID   string         `gorm:"index" json:"owner_id"`
	Give      datatypes.JSON `json:"give"`
	Receive   datatypes.JSON `json:"receive"`
	NetValue  float64        `json:"net_value"`
	Label     string         `json:"label"`
	CreatedAt time.Time      `json:"created_at"`
}

func (TradeEvaluation) TableName() string {
	return "trade_evaluations"
}

// AllModels lists every table in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&Player{},
		&Game{},
		&StatLine{},
		&ScoringWeightSet{},
		&FantasyScore{},
		&RollingAverage{},
		&ConsistencyMetric{},
		&TrendSignal{},
		&Recommendation{},
		&TradeEvaluation{},
	}
}
