package analytics

// Matchup defaults
const (
	DefaultOpponentGames = 15
	DefaultLeagueGames   = 100
	// DefaultLeagueAverage is points allowed per team-game used when history is missing.
	DefaultLeagueAverage = 112.0
)

// MatchupConfig bounds the defensive samples used for a matchup rating
type MatchupConfig struct {
	OpponentGames int     `json:"opponent_games"`
	LeagueGames   int     `json:"league_games"`
	LeagueAverage float64 `json:"league_average"`
}

// DefaultMatchupConfig returns 15 opponent games, 100 league games and a 112.0 fallback.
func DefaultMatchupConfig() MatchupConfig {
	return MatchupConfig{
		OpponentGames: DefaultOpponentGames,
		LeagueGames:   DefaultLeagueGames,
		LeagueAverage: DefaultLeagueAverage,
	}
}

// Validate checks window sizes and the fallback constant.
func (c MatchupConfig) Validate() error {
	if c.OpponentGames < 1 {
		return newValidationError("opponent_games", "must be at least 1, got %d", c.OpponentGames)
	}
	if c.LeagueGames < 1 {
		return newValidationError("league_games", "must be at least 1, got %d", c.LeagueGames)
	}
	if err := checkFinite("league_average", c.LeagueAverage); err != nil {
		return err
	}
	if c.LeagueAverage <= 0 {
		return newValidationError("league_average", "must be positive, got %v", c.LeagueAverage)
	}
	return nil
}

// MatchupFavorability rates an opponent's defense against the league
type MatchupFavorability struct {
	Opponent       string  `json:"opponent"`
	OpponentRating float64 `json:"opponent_rating"`
	LeagueRating   float64 `json:"league_rating"`
	Favorability   float64 `json:"favorability"`
	OpponentGames  int     `json:"opponent_games"`
	Neutral        bool    `json:"neutral"`
}

// LeagueBaseline is the league-wide defensive rating shared by every
// per-player matchup in one batch. It is immutable once built and only
// NewLeagueBaseline builds a usable one.
type LeagueBaseline struct {
	Rating  float64 `json:"rating"`
	Samples int     `json:"samples"`
	Neutral bool    `json:"neutral"`
	config  MatchupConfig
}

// NewLeagueBaseline averages up to LeagueGames newest-first points-allowed
// samples. An empty history produces a neutral baseline.
func NewLeagueBaseline(leagueHistory []float64, cfg MatchupConfig) (LeagueBaseline, error) {
	if err := cfg.Validate(); err != nil {
		return LeagueBaseline{}, err
	}
	avg, err := RollingAverage(leagueHistory, Games(cfg.LeagueGames))
	if err != nil {
		return LeagueBaseline{}, err
	}
	if avg == nil || *avg <= 0 {
		return LeagueBaseline{Rating: cfg.LeagueAverage, Neutral: true, config: cfg}, nil
	}
	samples := len(leagueHistory)
	if samples > cfg.LeagueGames {
		samples = cfg.LeagueGames
	}
	return LeagueBaseline{Rating: *avg, Samples: samples, config: cfg}, nil
}

// Evaluate rates one opponent against the shared baseline.
func (b LeagueBaseline) Evaluate(opponent string, opponentHistory []float64) (MatchupFavorability, error) {
	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return MatchupFavorability{}, newValidationError("baseline", "not built by NewLeagueBaseline: %v", err)
	}
	neutral := MatchupFavorability{
		Opponent:       opponent,
		OpponentRating: cfg.LeagueAverage,
		LeagueRating:   cfg.LeagueAverage,
		Favorability:   1.0,
		Neutral:        true,
	}

	avg, err := RollingAverage(opponentHistory, Games(cfg.OpponentGames))
	if err != nil {
		return MatchupFavorability{}, err
	}
	if avg == nil || b.Neutral || b.Rating <= 0 {
		return neutral, nil
	}

	games := len(opponentHistory)
	if games > cfg.OpponentGames {
		games = cfg.OpponentGames
	}
	return MatchupFavorability{
		Opponent:       opponent,
		OpponentRating: *avg,
		LeagueRating:   b.Rating,
		Favorability:   *avg / b.Rating,
		OpponentGames:  games,
	}, nil
}

// EvaluateMatchup rates an opponent directly from both histories. Missing
// data on either side yields a neutral favorability of exactly 1.0.
func EvaluateMatchup(opponent string, opponentHistory, leagueHistory []float64, cfg MatchupConfig) (MatchupFavorability, error) {
	baseline, err := NewLeagueBaseline(leagueHistory, cfg)
	if err != nil {
		return MatchupFavorability{}, err
	}
	return baseline.Evaluate(opponent, opponentHistory)
}
