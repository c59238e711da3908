package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jstittsworth/hoops-analytics/internal/analytics"
	"github.com/jstittsworth/hoops-analytics/internal/models"
	"github.com/jstittsworth/hoops-analytics/pkg/config"
	"github.com/jstittsworth/hoops-analytics/pkg/logger"
	"github.com/jstittsworth/hoops-analytics/pkg/utils"
	"github.com/sirupsen/logrus"
)

// ServiceSettings are the runtime knobs of AnalyticsService.
type ServiceSettings struct {
	Analytics    analytics.Config
	SeasonStart  time.Time
	Workers      int
	CacheTTL     time.Duration
	FetchRetries int
}

// SettingsFromConfig derives the service settings from process configuration.
func SettingsFromConfig(cfg *config.Config) (ServiceSettings, error) {
	seasonStart, err := cfg.SeasonStartDate()
	if err != nil {
		return ServiceSettings{}, err
	}
	return ServiceSettings{
		Analytics:    cfg.AnalyticsConfig(),
		SeasonStart:  seasonStart,
		Workers:      cfg.BatchWorkers,
		CacheTTL:     cfg.CacheTTL,
		FetchRetries: cfg.FetchRetries,
	}, nil
}

// AnalyticsService orchestrates fetch, compute, persist and cache for every
// batch and on-demand analytics request.
type AnalyticsService struct {
	store    *Store
	cache    Cache
	breaker  *CircuitBreakerService
	metrics  *Metrics
	settings ServiceSettings
	logger   *logrus.Entry
	now      func() time.Time
}

func NewAnalyticsService(store *Store, cache Cache, breaker *CircuitBreakerService, metrics *Metrics, settings ServiceSettings) *AnalyticsService {
	return &AnalyticsService{
		store:    store,
		cache:    cache,
		breaker:  breaker,
		metrics:  metrics,
		settings: settings,
		logger:   logger.WithService("analytics"),
		now:      time.Now,
	}
}

// Config returns the pipeline configuration the service runs with.
func (s *AnalyticsService) Config() analytics.Config {
	return s.settings.Analytics
}

// ScorePreview is the fantasy score of one hypothetical box score.
type ScorePreview struct {
	Weights analytics.ScoringWeights `json:"weights"`
	Score   float64                  `json:"score"`
	Display float64                  `json:"display"`
}

// PreviewScore scores line under the explicit override when given, else
// under the weight set resolved for the owner.
func (s *AnalyticsService) PreviewScore(ctx context.Context, line analytics.StatLine, ownerID string, weightSetID uint, override *analytics.ScoringWeights) (*ScorePreview, error) {
	var weights analytics.ScoringWeights
	if override != nil {
		if err := override.Validate(); err != nil {
			return nil, err
		}
		weights = *override
	} else {
		resolved, err := s.store.ResolveWeights(ctx, ownerID, weightSetID)
		if err != nil {
			return nil, err
		}
		weights = resolved
	}

	score, err := analytics.Score(line, weights)
	if err != nil {
		return nil, err
	}
	return &ScorePreview{Weights: weights, Score: score, Display: analytics.RoundScore(score)}, nil
}

type RecomputeRequest struct {
	Date        time.Time `json:"date"`
	OwnerID     string    `json:"owner_id"`
	WeightSetID uint      `json:"weight_set_id"`
	PlayerIDs   []uint    `json:"player_ids"`
}

// BatchReport summarizes one recompute batch.
type BatchReport struct {
	BatchID     string                  `json:"batch_id"`
	Date        time.Time               `json:"date"`
	WeightSetID uint                    `json:"weight_set_id"`
	Processed   int                     `json:"processed"`
	Skipped     int                     `json:"skipped"`
	Failures    []analytics.EntityError `json:"failures"`
	DurationMS  int64                   `json:"duration_ms"`
}

// Recompute recomputes and persists every derived analytic for the
// requested players (all active players by default) as of the end of
// req.Date.
func (s *AnalyticsService) Recompute(ctx context.Context, req RecomputeRequest) (report *BatchReport, err error) {
	started := s.now()
	date := s.dateOrToday(req.Date)
	batchID := uuid.New().String()

	defer func() {
		s.metrics.ObserveBatch(BatchRecompute, err, s.now().Sub(started))
	}()

	weights, err := s.store.ResolveWeights(ctx, req.OwnerID, req.WeightSetID)
	if err != nil {
		return nil, err
	}
	log := logger.WithBatchContext(batchID, date, weights.ID)
	log.WithField("players_requested", len(req.PlayerIDs)).Info("Starting analytics recompute")

	histories, err := s.fetchHistories(ctx, date, req.PlayerIDs)
	if err != nil {
		log.WithError(err).Error("Failed to load player histories")
		return nil, err
	}

	result, err := analytics.ComputeBatch(ctx, histories, weights, s.settings.Analytics, s.settings.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to compute batch: %w", err)
	}
	logSkipped(batchID, result.Failures)

	if err := s.store.SaveAnalytics(ctx, weights.ID, s.settings.Analytics.ConsistencyWindow, result.Players); err != nil {
		return nil, fmt.Errorf("failed to persist analytics: %w", err)
	}

	s.invalidate(ctx, PlayerAnalyticsCachePattern(weights.ID))
	s.metrics.ObservePlayers(len(result.Players), len(result.Failures))

	report = &BatchReport{
		BatchID:     batchID,
		Date:        date,
		WeightSetID: weights.ID,
		Processed:   len(result.Players),
		Skipped:     len(result.Failures),
		Failures:    result.Failures,
		DurationMS:  s.now().Sub(started).Milliseconds(),
	}
	log.WithFields(logrus.Fields{
		"processed":   report.Processed,
		"skipped":     report.Skipped,
		"duration_ms": report.DurationMS,
	}).Info("Analytics recompute finished")

	return report, nil
}

type RecommendationRequest struct {
	Date        time.Time `json:"date"`
	OwnerID     string    `json:"owner_id"`
	WeightSetID uint      `json:"weight_set_id"`
	Limit       int       `json:"limit"`
}

// RecommendationReport is a freshly generated recommendation list.
type RecommendationReport struct {
	BatchID         string                     `json:"batch_id"`
	Date            time.Time                  `json:"date"`
	WeightSetID     uint                       `json:"weight_set_id"`
	Candidates      int                        `json:"candidates"`
	Recommendations []analytics.Recommendation `json:"recommendations"`
}

// GenerateRecommendations ranks the waiver pool for req.Date and replaces
// any list previously stored for that date and weight set.
func (s *AnalyticsService) GenerateRecommendations(ctx context.Context, req RecommendationRequest) (report *RecommendationReport, err error) {
	started := s.now()
	date := s.dateOrToday(req.Date)
	batchID := uuid.New().String()

	defer func() {
		s.metrics.ObserveBatch(BatchRecommendations, err, s.now().Sub(started))
	}()

	cfg := s.settings.Analytics
	if req.Limit < 0 {
		return nil, &analytics.ValidationError{Field: "limit", Message: "must not be negative"}
	}
	if req.Limit > 0 {
		cfg.Ranker.MaxRecommendations = req.Limit
	}

	weights, err := s.store.ResolveWeights(ctx, req.OwnerID, req.WeightSetID)
	if err != nil {
		return nil, err
	}
	log := logger.WithBatchContext(batchID, date, weights.ID)

	pool, err := s.waiverPool(ctx, batchID, date, weights, nil)
	if err != nil {
		return nil, err
	}

	defense, err := s.fetchDefense(ctx, date)
	if err != nil {
		return nil, err
	}
	opponents, err := s.store.LoadOpponents(ctx, date)
	if err != nil {
		return nil, err
	}

	// one league baseline for the whole pool
	baseline, err := analytics.NewLeagueBaseline(defense.League, cfg.Matchup)
	if err != nil {
		return nil, err
	}

	candidates := make([]analytics.Candidate, 0, len(pool))
	for _, p := range pool {
		opponent := opponents[p.Team]
		matchup, err := baseline.Evaluate(opponent, defense.ByTeam[opponent])
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, analytics.Candidate{
			PlayerID:            p.PlayerID,
			Name:                p.Name,
			Team:                p.Team,
			Opponent:            opponent,
			ProjectedPoints:     p.ProjectedPoints,
			HotFactor:           p.HotFactor(),
			MinutesTrend:        p.MinutesTrendValue(),
			MatchupFavorability: matchup.Favorability,
			InjuryStatus:        p.InjuryStatus,
		})
	}

	recs, err := analytics.Rank(candidates, cfg.Ranker)
	if err != nil {
		return nil, err
	}

	rows := make([]models.Recommendation, 0, len(recs))
	for _, r := range recs {
		row, err := models.NewRecommendation(date, weights.ID, batchID, r)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if err := s.store.ReplaceRecommendations(ctx, date, weights.ID, rows); err != nil {
		return nil, err
	}

	if err := SetWithRetry(ctx, s.cache, RecommendationsCacheKey(date, weights.ID), recs, s.settings.CacheTTL, 2); err != nil {
		log.WithError(err).Warn("Failed to cache recommendations")
	}
	s.metrics.SetRecommendations(len(recs))

	log.WithFields(logrus.Fields{
		"candidates":      len(candidates),
		"recommendations": len(recs),
		"league_neutral":  baseline.Neutral,
	}).Info("Recommendations generated")

	return &RecommendationReport{
		BatchID:         batchID,
		Date:            date,
		WeightSetID:     weights.ID,
		Candidates:      len(candidates),
		Recommendations: recs,
	}, nil
}

// Recommendations returns the stored list for a date, reading through the cache.
func (s *AnalyticsService) Recommendations(ctx context.Context, date time.Time, ownerID string, weightSetID uint) ([]analytics.Recommendation, bool, error) {
	date = s.dateOrToday(date)
	weights, err := s.store.ResolveWeights(ctx, ownerID, weightSetID)
	if err != nil {
		return nil, false, err
	}

	key := RecommendationsCacheKey(date, weights.ID)
	var cached []analytics.Recommendation
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.CacheHit()
		return cached, true, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.WithError(err).Warn("Cache read failed, falling back to store")
	}
	s.metrics.CacheMiss()

	rows, err := s.store.LoadRecommendations(ctx, date, weights.ID)
	if err != nil {
		return nil, false, err
	}
	recs := make([]analytics.Recommendation, 0, len(rows))
	for _, row := range rows {
		r, err := row.ToAnalytics()
		if err != nil {
			return nil, false, err
		}
		recs = append(recs, r)
	}

	if len(recs) > 0 {
		if err := s.cache.Set(ctx, key, recs, s.settings.CacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache recommendations")
		}
	}
	return recs, false, nil
}

// PlayerAnalytics computes every signal for one player as of date.
func (s *AnalyticsService) PlayerAnalytics(ctx context.Context, playerID uint, date time.Time, ownerID string, weightSetID uint) (*analytics.PlayerAnalytics, bool, error) {
	date = s.dateOrToday(date)
	if _, err := s.store.GetPlayer(ctx, playerID); err != nil {
		return nil, false, err
	}
	weights, err := s.store.ResolveWeights(ctx, ownerID, weightSetID)
	if err != nil {
		return nil, false, err
	}

	key := PlayerAnalyticsCacheKey(playerID, weights.ID, date)
	var cached analytics.PlayerAnalytics
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.CacheHit()
		return &cached, true, nil
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.WithError(err).Warn("Cache read failed, falling back to store")
	}
	s.metrics.CacheMiss()

	histories, err := s.fetchHistories(ctx, date, []uint{playerID})
	if err != nil {
		return nil, false, err
	}
	if len(histories) == 0 {
		return nil, false, fmt.Errorf("player %d is inactive: %w", playerID, utils.ErrNotFound)
	}

	result, err := analytics.ComputePlayer(histories[0], weights, s.settings.Analytics)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.Set(ctx, key, result, s.settings.CacheTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to cache player analytics")
	}
	return &result, false, nil
}

type TradeRequest struct {
	Date        time.Time `json:"date"`
	OwnerID     string    `json:"owner_id"`
	WeightSetID uint      `json:"weight_set_id"`
	Give        []uint    `json:"give"`
	Receive     []uint    `json:"receive"`
}

// EvaluateTrade values both sides of a proposed trade. The replacement
// value credited per freed roster slot is the mean composite value of the
// best waiver candidates.
func (s *AnalyticsService) EvaluateTrade(ctx context.Context, req TradeRequest) (*analytics.TradeEvaluation, error) {
	if len(req.Give) == 0 && len(req.Receive) == 0 {
		return nil, &analytics.ValidationError{Field: "trade", Message: "both sides are empty"}
	}
	seen := make(map[uint]bool, len(req.Give)+len(req.Receive))
	ids := make([]uint, 0, len(req.Give)+len(req.Receive))
	for _, id := range append(append([]uint{}, req.Give...), req.Receive...) {
		if seen[id] {
			return nil, &analytics.ValidationError{Field: "trade", Message: fmt.Sprintf("player %d appears more than once", id)}
		}
		seen[id] = true
		ids = append(ids, id)
	}

	date := s.dateOrToday(req.Date)
	weights, err := s.store.ResolveWeights(ctx, req.OwnerID, req.WeightSetID)
	if err != nil {
		return nil, err
	}

	histories, err := s.fetchHistories(ctx, date, ids)
	if err != nil {
		return nil, err
	}
	values := make(map[uint]analytics.TradeAsset, len(histories))
	for _, h := range histories {
		p, err := analytics.ComputePlayer(h, weights, s.settings.Analytics)
		if err != nil {
			return nil, err
		}
		asset, err := analytics.PlayerTradeValue(p)
		if err != nil {
			return nil, err
		}
		values[h.PlayerID] = asset
	}

	side := func(ids []uint) ([]analytics.TradeAsset, error) {
		assets := make([]analytics.TradeAsset, 0, len(ids))
		for _, id := range ids {
			asset, ok := values[id]
			if !ok {
				return nil, fmt.Errorf("player %d: %w", id, utils.ErrNotFound)
			}
			assets = append(assets, asset)
		}
		return assets, nil
	}
	give, err := side(req.Give)
	if err != nil {
		return nil, err
	}
	receive, err := side(req.Receive)
	if err != nil {
		return nil, err
	}

	replacement, err := s.replacementValue(ctx, uuid.New().String(), date, weights, seen)
	if err != nil {
		return nil, err
	}

	eval, err := analytics.EvaluateTrade(give, receive, replacement, s.settings.Analytics.TradeBand)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveTradeEvaluation(ctx, req.OwnerID, eval); err != nil {
		s.logger.WithError(err).Warn("Failed to record trade evaluation")
	}
	s.logger.WithFields(logrus.Fields{
		"give":      req.Give,
		"receive":   req.Receive,
		"net_value": eval.NetValue,
		"label":     eval.Label,
	}).Info("Trade evaluated")

	return &eval, nil
}

// replacementValue is the mean composite value of the top waiver
// candidates, ignoring players involved in the trade. An empty pool is 0.
func (s *AnalyticsService) replacementValue(ctx context.Context, batchID string, date time.Time, weights analytics.ScoringWeights, exclude map[uint]bool) (float64, error) {
	pool, err := s.waiverPool(ctx, batchID, date, weights, exclude)
	if err != nil {
		return 0, err
	}

	values := make([]float64, 0, len(pool))
	for _, p := range pool {
		asset, err := analytics.PlayerTradeValue(p)
		if err != nil {
			return 0, err
		}
		values = append(values, asset.Value)
	}
	if len(values) == 0 {
		return 0, nil
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(values)))
	if n := s.settings.Analytics.Ranker.MaxRecommendations; len(values) > n {
		values = values[:n]
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values)), nil
}

// waiverPool computes every active player and keeps those eligible for
// pickup: not OUT, at least one game, and outside the top ExcludeTopN by
// season average (a proxy for already being rostered).
func (s *AnalyticsService) waiverPool(ctx context.Context, batchID string, date time.Time, weights analytics.ScoringWeights, exclude map[uint]bool) ([]analytics.PlayerAnalytics, error) {
	histories, err := s.fetchHistories(ctx, date, nil)
	if err != nil {
		return nil, err
	}
	result, err := analytics.ComputeBatch(ctx, histories, weights, s.settings.Analytics, s.settings.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to compute waiver pool: %w", err)
	}
	logSkipped(batchID, result.Failures)
	s.metrics.ObservePlayers(len(result.Players), len(result.Failures))

	return WaiverEligible(result.Players, s.settings.Analytics.ExcludeTopN, exclude), nil
}

// WaiverEligible filters computed players down to the waiver pool. The
// top-N cut is taken over every player with games, before the OUT and
// exclude filters, so rostered stars stay out even when injured.
func WaiverEligible(players []analytics.PlayerAnalytics, excludeTopN int, exclude map[uint]bool) []analytics.PlayerAnalytics {
	withGames := make([]analytics.PlayerAnalytics, 0, len(players))
	for _, p := range players {
		if p.GamesPlayed > 0 {
			withGames = append(withGames, p)
		}
	}

	byAverage := append([]analytics.PlayerAnalytics(nil), withGames...)
	sort.SliceStable(byAverage, func(i, j int) bool {
		a := analytics.ValueOr(byAverage[i].Averages.Season, 0)
		b := analytics.ValueOr(byAverage[j].Averages.Season, 0)
		if a != b {
			return a > b
		}
		return byAverage[i].PlayerID < byAverage[j].PlayerID
	})
	rostered := make(map[uint]bool, excludeTopN)
	for i := 0; i < excludeTopN && i < len(byAverage); i++ {
		rostered[byAverage[i].PlayerID] = true
	}

	pool := make([]analytics.PlayerAnalytics, 0, len(withGames))
	for _, p := range withGames {
		if rostered[p.PlayerID] || exclude[p.PlayerID] || p.InjuryStatus == analytics.InjuryOut {
			continue
		}
		pool = append(pool, p)
	}
	return pool
}

func logSkipped(batchID string, failures []analytics.EntityError) {
	for _, f := range failures {
		logger.WithPlayerContext(f.PlayerID, "").
			WithField("batch_id", batchID).
			WithError(f.Err).
			Warn("Skipping player with rejected input")
	}
}

func (s *AnalyticsService) fetchHistories(ctx context.Context, date time.Time, playerIDs []uint) ([]analytics.PlayerHistory, error) {
	before := truncateDay(date).AddDate(0, 0, 1)
	out, err := s.breaker.ExecuteWithRetry(ctx, BreakerStore, s.settings.FetchRetries, func() (interface{}, error) {
		return s.store.LoadHistories(ctx, s.settings.SeasonStart, before, playerIDs)
	})
	if err != nil {
		return nil, err
	}
	return out.([]analytics.PlayerHistory), nil
}

func (s *AnalyticsService) fetchDefense(ctx context.Context, date time.Time) (*DefenseHistory, error) {
	out, err := s.breaker.ExecuteWithRetry(ctx, BreakerStore, s.settings.FetchRetries, func() (interface{}, error) {
		return s.store.LoadDefenseHistory(ctx, s.settings.SeasonStart, truncateDay(date))
	})
	if err != nil {
		return nil, err
	}
	return out.(*DefenseHistory), nil
}

func (s *AnalyticsService) invalidate(ctx context.Context, pattern string) {
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		s.logger.WithError(err).WithField("pattern", pattern).Warn("Cache invalidation failed")
	}
}

func (s *AnalyticsService) dateOrToday(date time.Time) time.Time {
	if date.IsZero() {
		return truncateDay(s.now())
	}
	return truncateDay(date)
}
