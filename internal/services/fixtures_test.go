package services

import (
	"context"
	"time"

	"github.com/jstittsworth/hoops-analytics/internal/analytics"
	"github.com/jstittsworth/hoops-analytics/internal/models"
	"github.com/jstittsworth/hoops-analytics/pkg/database"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// MockCacheService for testing
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheService) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCacheService) DeletePattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

// missingCache answers every read with a miss and accepts every write.
func missingCache() *MockCacheService {
	c := &MockCacheService{}
	c.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(ErrCacheMiss)
	c.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	c.On("Delete", mock.Anything, mock.Anything).Return(nil)
	c.On("DeletePattern", mock.Anything, mock.Anything).Return(nil)
	return c
}

var (
	seasonStart = time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC)
	slateDate   = time.Date(2024, 11, 20, 0, 0, 0, 0, time.UTC)
)

// Fixture player ids
const (
	starID    uint = 1 // BOS, 40 a night, top of the league
	risingID  uint = 2 // MIA, scoring climbs every game
	backupID  uint = 3 // LAL, questionable, flat 15
	injuredID uint = 4 // DEN, OUT
	rookieID  uint = 5 // BOS, no games yet
)

// StoreSuite gives every test a fresh in-memory database seeded with ten
// game days and a scheduled slate.
type StoreSuite struct {
	suite.Suite
	db    *database.DB
	store *Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	db, err := database.NewMemoryConnection()
	s.Require().NoError(err)
	s.db = db
	s.store = NewStore(db)
	s.ctx = context.Background()
	s.Require().NoError(s.store.AutoMigrate())
	seedLeague(s.T(), s.db)
}

func (s *StoreSuite) TearDownTest() {
	s.db.Close()
}

func seedLeague(t require.TestingT, db *database.DB) {
	players := []models.Player{
		{ID: starID, Name: "Star", Team: "BOS", Position: "SF", InjuryStatus: "HEALTHY"},
		{ID: risingID, Name: "Rising", Team: "MIA", Position: "SG", InjuryStatus: "HEALTHY"},
		{ID: backupID, Name: "Backup", Team: "LAL", Position: "PF", InjuryStatus: "Questionable"},
		{ID: injuredID, Name: "Injured", Team: "DEN", Position: "C", InjuryStatus: "OUT"},
		{ID: rookieID, Name: "Rookie", Team: "BOS", Position: "PG", InjuryStatus: "HEALTHY"},
	}
	require.NoError(t, db.Create(&players).Error)

	var lines []models.StatLine
	for day := 1; day <= 10; day++ {
		date := time.Date(2024, 11, day, 0, 0, 0, 0, time.UTC)
		bosMia := models.Game{GameDate: date, HomeTeam: "BOS", AwayTeam: "MIA", HomeScore: 120, AwayScore: 100, IsFinal: true}
		lalDen := models.Game{GameDate: date, HomeTeam: "LAL", AwayTeam: "DEN", HomeScore: 105, AwayScore: 105, IsFinal: true}
		require.NoError(t, db.Create(&bosMia).Error)
		require.NoError(t, db.Create(&lalDen).Error)

		lines = append(lines,
			models.StatLine{PlayerID: starID, GameID: bosMia.ID, Team: "BOS", Opponent: "MIA", Minutes: 36, Points: 40},
			models.StatLine{PlayerID: risingID, GameID: bosMia.ID, Team: "MIA", Opponent: "BOS", Minutes: float64(20 + day), Points: 10 + 2*day},
			models.StatLine{PlayerID: backupID, GameID: lalDen.ID, Team: "LAL", Opponent: "DEN", Minutes: 24, Points: 15},
			models.StatLine{PlayerID: injuredID, GameID: lalDen.ID, Team: "DEN", Opponent: "LAL", Minutes: 30, Points: 25},
		)
	}
	require.NoError(t, db.Create(&lines).Error)

	// Tonight's slate is scheduled, not final.
	slate := []models.Game{
		{GameDate: slateDate, HomeTeam: "MIA", AwayTeam: "BOS"},
		{GameDate: slateDate, HomeTeam: "LAL", AwayTeam: "DEN"},
	}
	require.NoError(t, db.Create(&slate).Error)
}

func testSettings() ServiceSettings {
	cfg := analytics.DefaultConfig()
	cfg.ExcludeTopN = 1
	return ServiceSettings{
		Analytics:    cfg,
		SeasonStart:  seasonStart,
		Workers:      2,
		CacheTTL:     time.Minute,
		FetchRetries: 1,
	}
}

func testBreaker() *CircuitBreakerService {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewCircuitBreakerService(3, time.Second, log)
}
