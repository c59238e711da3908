package models

import (
	"time"

	"github.com/jstittsworth/hoops-analytics/internal/analytics"
)

type Player struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ExternalID   string    `gorm:"index" json:"external_id"`
	Name         string    `gorm:"not null" json:"name"`
	Team         string    `gorm:"not null;index" json:"team"`
	Position     string    `json:"position"` // "PG", "SG", "SF", "PF", "C"
	InjuryStatus string    `gorm:"default:HEALTHY" json:"injury_status"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Player) TableName() string {
	return "players"
}

// Status returns the normalized injury tier.
func (p Player) Status() analytics.InjuryStatus {
	return analytics.ParseInjuryStatus(p.InjuryStatus)
}

type Game struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID string    `gorm:"index" json:"external_id"`
	Season     string    `gorm:"index" json:"season"` // "2024-25"
	GameDate   time.Time `gorm:"not null;index" json:"game_date"`
	HomeTeam   string    `gorm:"not null" json:"home_team"`
	AwayTeam   string    `gorm:"not null" json:"away_team"`
	HomeScore  int       `json:"home_score"`
	AwayScore  int       `json:"away_score"`
	IsFinal    bool      `gorm:"default:false;index" json:"is_final"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Game) TableName() string {
	return "games"
}

// Opponent returns the other side of the game for team, or "" if team did not play.
func (g Game) Opponent(team string) string {
	switch team {
	case g.HomeTeam:
		return g.AwayTeam
	case g.AwayTeam:
		return g.HomeTeam
	default:
		return ""
	}
}

// StatLine is immutable once its game is final.
type StatLine struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	PlayerID uint    `gorm:"not null;uniqueIndex:idx_stat_line_player_game" json:"player_id"`
	GameID   uint    `gorm:"not null;uniqueIndex:idx_stat_line_player_game" json:"game_id"`
	Team     string  `json:"team"`
	Opponent string  `json:"opponent"`
	Minutes  float64 `json:"minutes"`

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

	PlusMinus int       `json:"plus_minus"`
	CreatedAt time.Time `json:"created_at"`

	Player *Player `gorm:"foreignKey:PlayerID" json:"player,omitempty"`
	Game   *Game   `gorm:"foreignKey:GameID" json:"game,omitempty"`
}

func (StatLine) TableName() string {
	return "stat_lines"
}

// ToAnalytics converts the row into the computation input. gameDate comes
// from the joined game.
func (s StatLine) ToAnalytics(gameDate time.Time) analytics.StatLine {
	return analytics.StatLine{
		PlayerID:               s.PlayerID,
		GameID:                 s.GameID,
		GameDate:               gameDate,
		Opponent:               s.Opponent,
		Minutes:                s.Minutes,
		Points:                 s.Points,
		Rebounds:               s.Rebounds,
		Assists:                s.Assists,
		Steals:                 s.Steals,
		Blocks:                 s.Blocks,
		Turnovers:              s.Turnovers,
		Fouls:                  s.Fouls,
		FieldGoalsMade:         s.FieldGoalsMade,
		FieldGoalsAttempted:    s.FieldGoalsAttempted,
		ThreePointersMade:      s.ThreePointersMade,
		ThreePointersAttempted: s.ThreePointersAttempted,
		FreeThrowsMade:         s.FreeThrowsMade,
		FreeThrowsAttempted:    s.FreeThrowsAttempted,
		PlusMinus:              s.PlusMinus,
	}
}
