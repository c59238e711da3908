package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jstittsworth/hoops-analytics/internal/analytics"
	"github.com/jstittsworth/hoops-analytics/internal/models"
	"github.com/jstittsworth/hoops-analytics/pkg/database"
	"github.com/jstittsworth/hoops-analytics/pkg/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const upsertBatchSize = 500

// Store is the relational side of the pipeline: batched history reads and
// idempotent writes of derived analytics.
type Store struct {
	db *database.DB
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates every table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// DropAll removes every table in reverse migration order.
func (s *Store) DropAll() error {
	all := models.AllModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := s.db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("failed to drop table: %w", err)
		}
	}
	return nil
}

// SeedDefaults inserts the system default weight set when it is missing.
func (s *Store) SeedDefaults(ctx context.Context) (*models.ScoringWeightSet, error) {
	var existing models.ScoringWeightSet
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND is_default = ?", models.SystemOwner, true).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up system weights: %w", err)
	}

	row := models.NewScoringWeightSet(models.SystemOwner, analytics.DefaultScoringWeights())
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to seed system weights: %w", err)
	}
	return &row, nil
}

// historyRow is a stat line joined with its game date.
type historyRow struct {
	models.StatLine
	GameDate time.Time
}

// LoadHistories returns one newest-first history per active player for
// final games in [seasonStart, before). An empty playerIDs loads everyone.
// Players without games are returned with an empty history.
func (s *Store) LoadHistories(ctx context.Context, seasonStart, before time.Time, playerIDs []uint) ([]analytics.PlayerHistory, error) {
	db := s.db.WithContext(ctx)

	var players []models.Player
	q := db.Where("is_active = ?", true)
	if len(playerIDs) > 0 {
		q = q.Where("id IN ?", playerIDs)
	}
	if err := q.Order("id").Find(&players).Error; err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	if len(players) == 0 {
		return []analytics.PlayerHistory{}, nil
	}

	ids := make([]uint, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}

	var rows []historyRow
	err := db.Table("stat_lines").
		Select("stat_lines.*, games.game_date AS game_date").
		Joins("JOIN games ON games.id = stat_lines.game_id").
		Where("games.is_final = ?", true).
		Where("games.game_date >= ? AND games.game_date < ?", seasonStart.UTC(), before.UTC()).
		Where("stat_lines.player_id IN ?", ids).
		Order("stat_lines.player_id, games.game_date DESC, stat_lines.game_id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load stat lines: %w", err)
	}

	byPlayer := make(map[uint][]analytics.StatLine, len(players))
	for _, r := range rows {
		byPlayer[r.PlayerID] = append(byPlayer[r.PlayerID], r.StatLine.ToAnalytics(r.GameDate.UTC()))
	}

	histories := make([]analytics.PlayerHistory, 0, len(players))
	for _, p := range players {
		games := byPlayer[p.ID]
		if games == nil {
			games = []analytics.StatLine{}
		}
		histories = append(histories, analytics.PlayerHistory{
			PlayerID:     p.ID,
			Name:         p.Name,
			Team:         p.Team,
			InjuryStatus: p.Status(),
			Games:        games,
		})
	}
	return histories, nil
}

// GetPlayer loads one player or wraps utils.ErrNotFound.
func (s *Store) GetPlayer(ctx context.Context, id uint) (*models.Player, error) {
	var p models.Player
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("player %d: %w", id, utils.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	return &p, nil
}

// ResolveWeights picks, in order: the explicit weight set, the owner's
// default, the system default, the built-in default.
func (s *Store) ResolveWeights(ctx context.Context, ownerID string, weightSetID uint) (analytics.ScoringWeights, error) {
	db := s.db.WithContext(ctx)

	if weightSetID != 0 {
		var row models.ScoringWeightSet
		if err := db.First(&row, weightSetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return analytics.ScoringWeights{}, fmt.Errorf("weight set %d: %w", weightSetID, utils.ErrNotFound)
			}
			return analytics.ScoringWeights{}, fmt.Errorf("failed to load weight set: %w", err)
		}
		return row.ToAnalytics(), nil
	}

	owners := []string{models.SystemOwner}
	if ownerID != "" && ownerID != models.SystemOwner {
		owners = []string{ownerID, models.SystemOwner}
	}
	for _, owner := range owners {
		var row models.ScoringWeightSet
		err := db.Where("owner_id = ? AND is_default = ?", owner, true).First(&row).Error
		if err == nil {
			return row.ToAnalytics(), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return analytics.ScoringWeights{}, fmt.Errorf("failed to resolve default weights: %w", err)
		}
	}

	return analytics.DefaultScoringWeights(), nil
}

// ListWeights returns the weight sets of one owner.
func (s *Store) ListWeights(ctx context.Context, ownerID string) ([]models.ScoringWeightSet, error) {
	var rows []models.ScoringWeightSet
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list weight sets: %w", err)
	}
	return rows, nil
}

// CreateWeights stores a new, validated weight set for owner. A set created
// as default demotes the owner's previous default.
func (s *Store) CreateWeights(ctx context.Context, ownerID string, w analytics.ScoringWeights) (*models.ScoringWeightSet, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	w.ID = 0
	row := models.NewScoringWeightSet(ownerID, w)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if row.IsDefault {
			if err := tx.Model(&models.ScoringWeightSet{}).
				Where("owner_id = ? AND is_default = ?", ownerID, true).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weight set: %w", err)
	}
	return &row, nil
}

// SetDefaultWeights marks one of owner's weight sets as the default and
// clears the flag on the others in the same transaction.
func (s *Store) SetDefaultWeights(ctx context.Context, ownerID string, weightSetID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.ScoringWeightSet
		err := tx.Where("id = ? AND owner_id = ?", weightSetID, ownerID).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("weight set %d for owner %s: %w", weightSetID, ownerID, utils.ErrNotFound)
			}
			return fmt.Errorf("failed to load weight set: %w", err)
		}

		if err := tx.Model(&models.ScoringWeightSet{}).
			Where("owner_id = ? AND id <> ?", ownerID, weightSetID).
			Update("is_default", false).Error; err != nil {
			return fmt.Errorf("failed to clear default: %w", err)
		}
		if err := tx.Model(&row).Update("is_default", true).Error; err != nil {
			return fmt.Errorf("failed to set default: %w", err)
		}
		return nil
	})
}

// DefenseHistory holds points allowed per team-game, newest first.
type DefenseHistory struct {
	League []float64
	ByTeam map[string][]float64
}

// LoadDefenseHistory reads points allowed from final games in
// [seasonStart, before).
func (s *Store) LoadDefenseHistory(ctx context.Context, seasonStart, before time.Time) (*DefenseHistory, error) {
	var games []models.Game
	err := s.db.WithContext(ctx).
		Where("is_final = ? AND game_date >= ? AND game_date < ?", true, seasonStart.UTC(), before.UTC()).
		Order("game_date DESC, id DESC").
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}

	history := &DefenseHistory{
		League: make([]float64, 0, 2*len(games)),
		ByTeam: make(map[string][]float64),
	}
	for _, g := range games {
		// the home side allowed the away score and vice versa
		history.League = append(history.League, float64(g.AwayScore), float64(g.HomeScore))
		history.ByTeam[g.HomeTeam] = append(history.ByTeam[g.HomeTeam], float64(g.AwayScore))
		history.ByTeam[g.AwayTeam] = append(history.ByTeam[g.AwayTeam], float64(g.HomeScore))
	}
	return history, nil
}

// LoadOpponents maps every team playing on date to its opponent.
func (s *Store) LoadOpponents(ctx context.Context, date time.Time) (map[string]string, error) {
	day := truncateDay(date)
	var games []models.Game
	err := s.db.WithContext(ctx).
		Where("game_date >= ? AND game_date < ?", day, day.AddDate(0, 0, 1)).
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load schedule: %w", err)
	}

	opponents := make(map[string]string, 2*len(games))
	for _, g := range games {
		for _, team := range []string{g.HomeTeam, g.AwayTeam} {
			opponents[team] = g.Opponent(team)
		}
	}
	return opponents, nil
}

// SaveAnalytics upserts every derived artifact of a batch. Re-running a
// batch on unchanged input rewrites the same rows. A player whose
// consistency or trend became absent has the stale row removed.
func (s *Store) SaveAnalytics(ctx context.Context, weightSetID uint, consistencyWindow analytics.Window, players []analytics.PlayerAnalytics) error {
	now := time.Now().UTC()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			scores   []models.FantasyScore
			averages []models.RollingAverage
			metrics  []models.ConsistencyMetric
			trends   []models.TrendSignal
		)

		for _, p := range players {
			for _, gs := range p.Scores {
				scores = append(scores, models.FantasyScore{
					PlayerID:    p.PlayerID,
					GameID:      gs.GameID,
					WeightSetID: weightSetID,
					GameDate:    gs.GameDate,
					Score:       gs.Score,
					ComputedAt:  now,
				})
			}

			averages = append(averages, rollingRows(p.PlayerID, weightSetID, analytics.MetricFantasyScore, p.Averages, now)...)
			averages = append(averages, rollingRows(p.PlayerID, weightSetID, analytics.MetricMinutes, p.MinutesAverages, now)...)

			if p.Consistency != nil {
				metrics = append(metrics, models.ConsistencyMetric{
					PlayerID:               p.PlayerID,
					WeightSetID:            weightSetID,
					Lookback:               consistencyWindow.String(),
					Mean:                   p.Consistency.Mean,
					StandardDeviation:      p.Consistency.StandardDeviation,
					CoefficientOfVariation: p.Consistency.CoefficientOfVariation,
					Grade:                  string(p.Consistency.Grade),
					GamesUsed:              p.Consistency.GamesUsed,
					ComputedAt:             now,
				})
			} else if err := tx.Where("player_id = ? AND weight_set_id = ? AND lookback = ?",
				p.PlayerID, weightSetID, consistencyWindow.String()).
				Delete(&models.ConsistencyMetric{}).Error; err != nil {
				return fmt.Errorf("failed to clear consistency for player %d: %w", p.PlayerID, err)
			}

			for _, pair := range []struct {
				kind   analytics.MetricKind
				signal *analytics.TrendSignal
			}{
				{analytics.MetricFantasyScore, p.ScoreTrend},
				{analytics.MetricMinutes, p.MinutesTrend},
			} {
				if pair.signal == nil {
					if err := tx.Where("player_id = ? AND weight_set_id = ? AND metric = ?",
						p.PlayerID, weightSetID, string(pair.kind)).
						Delete(&models.TrendSignal{}).Error; err != nil {
						return fmt.Errorf("failed to clear trend for player %d: %w", p.PlayerID, err)
					}
					continue
				}
				trends = append(trends, trendRow(p.PlayerID, weightSetID, pair.signal, now))
			}
		}

		if len(scores) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "player_id"}, {Name: "game_id"}, {Name: "weight_set_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"game_date", "score", "computed_at"}),
			}).CreateInBatches(&scores, upsertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to upsert fantasy scores: %w", err)
			}
		}
		if len(averages) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "player_id"}, {Name: "weight_set_id"}, {Name: "metric"}, {Name: "lookback"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "games", "computed_at"}),
			}).CreateInBatches(&averages, upsertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to upsert rolling averages: %w", err)
			}
		}
		if len(metrics) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "player_id"}, {Name: "weight_set_id"}, {Name: "lookback"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"mean", "standard_deviation", "coefficient_of_variation", "grade", "games_used", "computed_at",
				}),
			}).CreateInBatches(&metrics, upsertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to upsert consistency metrics: %w", err)
			}
		}
		if len(trends) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "player_id"}, {Name: "weight_set_id"}, {Name: "metric"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"direction", "value", "recent_avg", "baseline_avg", "recent_games",
					"baseline_games", "hot_factor", "is_hot", "computed_at",
				}),
			}).CreateInBatches(&trends, upsertBatchSize).Error; err != nil {
				return fmt.Errorf("failed to upsert trend signals: %w", err)
			}
		}
		return nil
	})
}

func rollingRows(playerID, weightSetID uint, kind analytics.MetricKind, avgs analytics.RollingAverages, now time.Time) []models.RollingAverage {
	windows := []analytics.Window{analytics.WindowAll, analytics.WindowLast7, analytics.WindowLast14, analytics.WindowLast30}
	rows := make([]models.RollingAverage, 0, len(windows))
	for _, w := range windows {
		rows = append(rows, models.RollingAverage{
			PlayerID:    playerID,
			WeightSetID: weightSetID,
			Metric:      string(kind),
			Lookback:    w.String(),
			Value:       avgs.Get(w),
			Games:       avgs.Games,
			ComputedAt:  now,
		})
	}
	return rows
}

func trendRow(playerID, weightSetID uint, t *analytics.TrendSignal, now time.Time) models.TrendSignal {
	return models.TrendSignal{
		PlayerID:      playerID,
		WeightSetID:   weightSetID,
		Metric:        string(t.Metric),
		Direction:     string(t.Direction),
		Value:         t.Value,
		RecentAvg:     t.RecentAvg,
		BaselineAvg:   t.BaselineAvg,
		RecentGames:   t.RecentGames,
		BaselineGames: t.BaselineGames,
		HotFactor:     t.HotFactor,
		IsHot:         t.IsHot,
		ComputedAt:    now,
	}
}

// ReplaceRecommendations supersedes every stored recommendation for
// (date, weight set) with recs.
func (s *Store) ReplaceRecommendations(ctx context.Context, date time.Time, weightSetID uint, recs []models.Recommendation) error {
	day := truncateDay(date)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("slate_date = ? AND weight_set_id = ?", day, weightSetID).
			Delete(&models.Recommendation{}).Error; err != nil {
			return fmt.Errorf("failed to delete recommendations: %w", err)
		}
		if len(recs) == 0 {
			return nil
		}
		for i := range recs {
			recs[i].ID = 0
			recs[i].Date = day
			recs[i].WeightSetID = weightSetID
		}
		if err := tx.Create(&recs).Error; err != nil {
			return fmt.Errorf("failed to insert recommendations: %w", err)
		}
		return nil
	})
}

// LoadRecommendations returns the stored list for (date, weight set) by rank.
func (s *Store) LoadRecommendations(ctx context.Context, date time.Time, weightSetID uint) ([]models.Recommendation, error) {
	var rows []models.Recommendation
	err := s.db.WithContext(ctx).
		Where("slate_date = ? AND weight_set_id = ?", truncateDay(date), weightSetID).
		Order("rank").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendations: %w", err)
	}
	return rows, nil
}

// SaveTradeEvaluation keeps an audit record of an evaluated trade.
func (s *Store) SaveTradeEvaluation(ctx context.Context, ownerID string, eval analytics.TradeEvaluation) error {
	give, err := json.Marshal(eval.Give)
	if err != nil {
		return fmt.Errorf("failed to marshal give side: %w", err)
	}
	receive, err := json.Marshal(eval.Receive)
	if err != nil {
		return fmt.Errorf("failed to marshal receive side: %w", err)
	}
	row := models.TradeEvaluation{
		OwnerID:  ownerID,
		Give:     datatypes.JSON(give),
		Receive:  datatypes.JSON(receive),
		NetValue: eval.NetValue,
		Label:    string(eval.Label),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to save trade evaluation: %w", err)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
