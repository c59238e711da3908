package models

import (
	"time"

	"github.com/jstittsworth/hoops-analytics/internal/analytics"
)

// SystemOwner owns the shared default weight set.
const SystemOwner = "system"

// ScoringWeightSet is a named set of per-category multipliers. At most one
// set per owner is the default.
type ScoringWeightSet struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	OwnerID           string    `gorm:"not null;index" json:"owner_id"`
	Name              string    `gorm:"not null" json:"name"`
	Points            float64   `json:"points"`
	Rebounds          float64   `json:"rebounds"`
	Assists           float64   `json:"assists"`
	Steals            float64   `json:"steals"`
	Blocks            float64   `json:"blocks"`
	ThreePointersMade float64   `json:"three_pointers_made"`
	Turnovers         float64   `json:"turnovers"`
	IsDefault         bool      `gorm:"default:false;index" json:"is_default"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (ScoringWeightSet) TableName() string {
	return "scoring_weight_sets"
}

func (w ScoringWeightSet) ToAnalytics() analytics.ScoringWeights {
	return analytics.ScoringWeights{
		ID:                w.ID,
		Name:              w.Name,
		Points:            w.Points,
		Rebounds:          w.Rebounds,
		Assists:           w.Assists,
		Steals:            w.Steals,
		Blocks:            w.Blocks,
		ThreePointersMade: w.ThreePointersMade,
		Turnovers:         w.Turnovers,
		IsDefault:         w.IsDefault,
	}
}

// NewScoringWeightSet builds a row for owner from computation weights.
func NewScoringWeightSet(ownerID string, w analytics.ScoringWeights) ScoringWeightSet {
	return ScoringWeightSet{
		ID:                w.ID,
		OwnerID:           ownerID,
		Name:              w.Name,
		Points:            w.Points,
		Rebounds:          w.Rebounds,
		Assists:           w.Assists,
		Steals:            w.Steals,
		Blocks:            w.Blocks,
		ThreePointersMade: w.ThreePointersMade,
		Turnovers:         w.Turnovers,
		IsDefault:         w.IsDefault,
	}
}
