package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jstittsworth/hoops-analytics/internal/analytics"
	"github.com/jstittsworth/hoops-analytics/internal/models"
	"github.com/jstittsworth/hoops-analytics/pkg/config"
	"github.com/jstittsworth/hoops-analytics/pkg/logger"
	"github.com/jstittsworth/hoops-analytics/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AnalyticsServiceTestSuite struct {
	StoreSuite
	cache   *MockCacheService
	metrics *Metrics
	service *AnalyticsService
}

func TestAnalyticsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}

func (s *AnalyticsServiceTestSuite) SetupTest() {
	s.StoreSuite.SetupTest()
	s.cache = missingCache()
	s.metrics = NewMetrics()
	s.service = NewAnalyticsService(s.store, s.cache, testBreaker(), s.metrics, testSettings())
	s.service.now = func() time.Time { return slateDate.Add(18 * time.Hour) }
}

func (s *AnalyticsServiceTestSuite) TestRecompute_PersistsAndReports() {
	report, err := s.service.Recompute(s.ctx, RecomputeRequest{Date: slateDate})
	s.Require().NoError(err)

	s.NotEmpty(report.BatchID)
	s.Equal(slateDate, report.Date)
	s.Equal(5, report.Processed)
	s.Equal(0, report.Skipped)
	s.Empty(report.Failures)

	var scores int64
	s.db.Model(&models.FantasyScore{}).Count(&scores)
	s.Equal(int64(40), scores)

	s.cache.AssertCalled(s.T(), "DeletePattern", mock.Anything, PlayerAnalyticsCachePattern(0))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.batchesTotal.WithLabelValues(BatchRecompute, "success")))
	s.Equal(5.0, testutil.ToFloat64(s.metrics.playersProcessed))
}

func (s *AnalyticsServiceTestSuite) TestRecompute_IsIdempotent() {
	snapshot := func() []byte {
		var scores []models.FantasyScore
		s.db.Order("player_id, game_id").Find(&scores)
		var avgs []models.RollingAverage
		s.db.Order("player_id, metric, lookback").Find(&avgs)
		var trends []models.TrendSignal
		s.db.Order("player_id, metric").Find(&trends)

		type row struct {
			Player uint
			Key    string
			Value  interface{}
		}
		var rows []row
		for _, sc := range scores {
			rows = append(rows, row{sc.PlayerID, "score", sc.Score})
		}
		for _, a := range avgs {
			rows = append(rows, row{a.PlayerID, a.Metric + a.Lookback, a.Value})
		}
		for _, t := range trends {
			rows = append(rows, row{t.PlayerID, t.Metric, []interface{}{t.Direction, t.Value, t.HotFactor, t.IsHot}})
		}
		out, err := json.Marshal(rows)
		s.Require().NoError(err)
		return out
	}

	_, err := s.service.Recompute(s.ctx, RecomputeRequest{Date: slateDate})
	s.Require().NoError(err)
	first := snapshot()

	_, err = s.service.Recompute(s.ctx, RecomputeRequest{Date: slateDate})
	s.Require().NoError(err)
	s.Equal(first, snapshot())
}

// addRejectedPlayer stores player 6 with a stat line that fails validation.
func (s *AnalyticsServiceTestSuite) addRejectedPlayer() {
	bad := models.Player{ID: 6, Name: "Typo", Team: "DEN"}
	s.Require().NoError(s.db.Create(&bad).Error)
	var game models.Game
	s.Require().NoError(s.db.Where("home_team = ?", "LAL").First(&game).Error)
	s.Require().NoError(s.db.Create(&models.StatLine{PlayerID: 6, GameID: game.ID, Points: 10, Rebounds: -2}).Error)
}

// captureLogs records every entry written through the shared logger until
// the test ends.
func (s *AnalyticsServiceTestSuite) captureLogs() *logrustest.Hook {
	l := logger.GetLogger()
	level := l.GetLevel()
	original := l.ReplaceHooks(make(logrus.LevelHooks))
	l.SetLevel(logrus.InfoLevel)
	s.T().Cleanup(func() {
		l.ReplaceHooks(original)
		l.SetLevel(level)
	})
	return logrustest.NewLocal(l)
}

func skippedEntries(hook *logrustest.Hook, playerID uint) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["player_id"] == playerID {
			out = append(out, e)
		}
	}
	return out
}

func (s *AnalyticsServiceTestSuite) TestRecompute_SkipsRejectedPlayer() {
	s.addRejectedPlayer()
	hook := s.captureLogs()

	report, err := s.service.Recompute(s.ctx, RecomputeRequest{Date: slateDate})
	s.Require().NoError(err)
	s.Equal(5, report.Processed)
	s.Equal(1, report.Skipped)
	s.Require().Len(report.Failures, 1)
	s.Equal(uint(6), report.Failures[0].PlayerID)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.playersSkipped))

	entries := skippedEntries(hook, 6)
	s.Require().Len(entries, 1)
	s.Equal(report.BatchID, entries[0].Data["batch_id"])
}

func (s *AnalyticsServiceTestSuite) TestGenerateRecommendations_LogsRejectedPlayer() {
	s.addRejectedPlayer()
	hook := s.captureLogs()

	report, err := s.service.GenerateRecommendations(s.ctx, RecommendationRequest{Date: slateDate})
	s.Require().NoError(err)
	s.Equal(2, report.Candidates)
	for _, r := range report.Recommendations {
		s.NotEqual(uint(6), r.PlayerID)
	}

	entries := skippedEntries(hook, 6)
	s.Require().Len(entries, 1)
	s.Equal(report.BatchID, entries[0].Data["batch_id"])
	s.Equal("Skipping player with rejected input", entries[0].Message)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.playersSkipped))
	s.Equal(5.0, testutil.ToFloat64(s.metrics.playersProcessed))
}

func (s *AnalyticsServiceTestSuite) TestEvaluateTrade_LogsRejectedWaiverPlayer() {
	s.addRejectedPlayer()
	hook := s.captureLogs()

	_, err := s.service.EvaluateTrade(s.ctx, TradeRequest{Date: slateDate, Give: []uint{starID}, Receive: []uint{risingID}})
	s.Require().NoError(err)

	s.Len(skippedEntries(hook, 6), 1)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.playersSkipped))
}

func (s *AnalyticsServiceTestSuite) TestRecompute_UnknownWeightSet() {
	_, err := s.service.Recompute(s.ctx, RecomputeRequest{Date: slateDate, WeightSetID: 77})
	s.True(errors.Is(err, utils.ErrNotFound))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.batchesTotal.WithLabelValues(BatchRecompute, "error")))
}

func (s *AnalyticsServiceTestSuite) TestGenerateRecommendations() {
	report, err := s.service.GenerateRecommendations(s.ctx, RecommendationRequest{Date: slateDate})
	s.Require().NoError(err)

	// Star is rostered (top 1), Injured is OUT, Rookie has no games.
	s.Equal(2, report.Candidates)
	s.Require().Len(report.Recommendations, 2)

	top := report.Recommendations[0]
	s.Equal(risingID, top.PlayerID)
	s.Equal(1, top.Rank)
	s.Equal("BOS", top.Opponent)
	s.Contains(top.Reasons, "on a hot streak")
	// BOS allowed 100 against a 107.5 league average
	s.InDelta(100.0/107.5, top.MatchupFavorability, 1e-9)

	second := report.Recommendations[1]
	s.Equal(backupID, second.PlayerID)
	s.Equal("DEN", second.Opponent)
	s.Contains(second.Reasoning, "injury risk (questionable)")

	stored, err := s.store.LoadRecommendations(s.ctx, slateDate, 0)
	s.Require().NoError(err)
	s.Require().Len(stored, 2)
	s.Equal(report.BatchID, stored[0].BatchID)

	s.cache.AssertCalled(s.T(), "Set", mock.Anything, RecommendationsCacheKey(slateDate, 0), mock.Anything, time.Minute)
}

func (s *AnalyticsServiceTestSuite) TestGenerateRecommendations_LimitAndSupersede() {
	_, err := s.service.GenerateRecommendations(s.ctx, RecommendationRequest{Date: slateDate})
	s.Require().NoError(err)

	report, err := s.service.GenerateRecommendations(s.ctx, RecommendationRequest{Date: slateDate, Limit: 1})
	s.Require().NoError(err)
	s.Len(report.Recommendations, 1)

	stored, err := s.store.LoadRecommendations(s.ctx, slateDate, 0)
	s.Require().NoError(err)
	s.Len(stored, 1)

	_, err = s.service.GenerateRecommendations(s.ctx, RecommendationRequest{Date: slateDate, Limit: -1})
	s.True(analytics.IsValidationError(err))
}

func (s *AnalyticsServiceTestSuite) TestGenerateRecommendations_NoScheduleIsNeutral() {
	quiet := slateDate.AddDate(0, 0, 1)
	report, err := s.service.GenerateRecommendations(s.ctx, RecommendationRequest{Date: quiet})
	s.Require().NoError(err)
	for _, r := range report.Recommendations {
		s.Equal(1.0, r.MatchupFavorability)
		s.Equal("", r.Opponent)
	}
}

func (s *AnalyticsServiceTestSuite) TestRecommendations_ReadsThroughCache() {
	_, err := s.service.GenerateRecommendations(s.ctx, RecommendationRequest{Date: slateDate})
	s.Require().NoError(err)

	recs, cached, err := s.service.Recommendations(s.ctx, slateDate, "", 0)
	s.Require().NoError(err)
	s.False(cached)
	s.Len(recs, 2)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.cacheRequests.WithLabelValues("miss")))

	hit := &MockCacheService{}
	hit.On("Get", mock.Anything, RecommendationsCacheKey(slateDate, 0), mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(2).(*[]analytics.Recommendation)
			*dest = []analytics.Recommendation{{Rank: 1, PlayerID: 99}}
		}).Return(nil)
	s.service.cache = hit

	recs, cached, err = s.service.Recommendations(s.ctx, slateDate, "", 0)
	s.Require().NoError(err)
	s.True(cached)
	s.Equal(uint(99), recs[0].PlayerID)
	hit.AssertExpectations(s.T())
}

func (s *AnalyticsServiceTestSuite) TestPlayerAnalytics() {
	p, cached, err := s.service.PlayerAnalytics(s.ctx, risingID, slateDate, "", 0)
	s.Require().NoError(err)
	s.False(cached)
	s.Equal(10, p.GamesPlayed)
	s.Require().NotNil(p.ScoreTrend)
	s.True(p.ScoreTrend.IsHot)
	s.Require().NotNil(p.Consistency)

	rookie, _, err := s.service.PlayerAnalytics(s.ctx, rookieID, slateDate, "", 0)
	s.Require().NoError(err)
	s.Nil(rookie.Averages.Season)
	s.Nil(rookie.Consistency)

	_, _, err = s.service.PlayerAnalytics(s.ctx, 404, slateDate, "", 0)
	s.True(errors.Is(err, utils.ErrNotFound))
}

func (s *AnalyticsServiceTestSuite) TestEvaluateTrade() {
	// Giving the star for the rising guard loses value.
	eval, err := s.service.EvaluateTrade(s.ctx, TradeRequest{Date: slateDate, Give: []uint{starID}, Receive: []uint{risingID}})
	s.Require().NoError(err)
	s.Equal(analytics.TradeDecline, eval.Label)
	s.Less(eval.NetValue, -5.0)
	s.Equal(0.0, eval.RosterAdjustment)

	var audits int64
	s.db.Model(&models.TradeEvaluation{}).Count(&audits)
	s.Equal(int64(1), audits)

	// Two-for-one credits the waiver replacement for the freed slot.
	// Rising is the only waiver candidate left once the traded players are set aside.
	eval, err = s.service.EvaluateTrade(s.ctx, TradeRequest{Date: slateDate, Give: []uint{starID, injuredID}, Receive: []uint{backupID}})
	s.Require().NoError(err)
	s.Greater(eval.ReplacementValue, 0.0)
	s.InDelta(eval.ReplacementValue, eval.RosterAdjustment, 1e-9)
	s.InDelta(eval.ReceiveValue-eval.GiveValue+eval.RosterAdjustment, eval.NetValue, 1e-9)
}

func (s *AnalyticsServiceTestSuite) TestEvaluateTrade_Validation() {
	_, err := s.service.EvaluateTrade(s.ctx, TradeRequest{})
	s.True(analytics.IsValidationError(err))

	_, err = s.service.EvaluateTrade(s.ctx, TradeRequest{Give: []uint{1}, Receive: []uint{1}})
	s.True(analytics.IsValidationError(err))

	_, err = s.service.EvaluateTrade(s.ctx, TradeRequest{Date: slateDate, Give: []uint{404}})
	s.True(errors.Is(err, utils.ErrNotFound))
}

func TestWaiverEligible(t *testing.T) {
	avg := func(v float64) *float64 { return &v }
	players := []analytics.PlayerAnalytics{
		{PlayerID: 1, GamesPlayed: 5, Averages: analytics.RollingAverages{Season: avg(50)}},
		{PlayerID: 2, GamesPlayed: 5, Averages: analytics.RollingAverages{Season: avg(45)}, InjuryStatus: analytics.InjuryOut},
		{PlayerID: 3, GamesPlayed: 5, Averages: analytics.RollingAverages{Season: avg(30)}},
		{PlayerID: 4, GamesPlayed: 0},
		{PlayerID: 5, GamesPlayed: 3, Averages: analytics.RollingAverages{Season: avg(20)}, InjuryStatus: analytics.InjuryDoubtful},
		{PlayerID: 6, GamesPlayed: 3, Averages: analytics.RollingAverages{Season: avg(10)}},
	}

	ids := func(ps []analytics.PlayerAnalytics) []uint {
		out := make([]uint, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.PlayerID)
		}
		return out
	}

	// The OUT star still counts toward the rostered top two.
	assert.Equal(t, []uint{3, 5, 6}, ids(WaiverEligible(players, 2, nil)))
	assert.Equal(t, []uint{1, 3, 5, 6}, ids(WaiverEligible(players, 0, nil)))
	assert.Equal(t, []uint{5}, ids(WaiverEligible(players, 2, map[uint]bool{3: true, 6: true})))
	assert.Empty(t, WaiverEligible(players, 10, nil))
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := &config.Config{
		SeasonStart:  "2024-10-22",
		BatchWorkers: 6,
		CacheTTL:     15 * time.Minute,
		FetchRetries: 2,
	}

	settings, err := SettingsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC), settings.SeasonStart)
	assert.Equal(t, 6, settings.Workers)
	assert.Equal(t, 15*time.Minute, settings.CacheTTL)
	assert.Equal(t, 2, settings.FetchRetries)
	assert.Equal(t, cfg.AnalyticsConfig(), settings.Analytics)

	_, err = SettingsFromConfig(&config.Config{SeasonStart: "opening night"})
	assert.Error(t, err)
}
