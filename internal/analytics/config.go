package analytics

// Config carries every tunable of the pipeline. It is passed by value into
// each computation; nothing in this package reads process-wide settings.
type Config struct {
	Trend               TrendConfig   `json:"trend"`
	TrendRecentGames    int           `json:"trend_recent_games"`
	TrendBaseline       Window        `json:"trend_baseline"`
	MinConsistencyGames int           `json:"min_consistency_games"`
	ConsistencyWindow   Window        `json:"consistency_window"`
	Ranker              RankerConfig  `json:"ranker"`
	Matchup             MatchupConfig `json:"matchup"`
	ExcludeTopN         int           `json:"exclude_top_n"`
	TradeBand           float64       `json:"trade_band"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Trend:               DefaultTrendConfig(),
		TrendRecentGames:    5,
		TrendBaseline:       WindowAll,
		MinConsistencyGames: DefaultMinConsistencyGames,
		ConsistencyWindow:   WindowLast30,
		Ranker:              DefaultRankerConfig(),
		Matchup:             DefaultMatchupConfig(),
		ExcludeTopN:         50,
		TradeBand:           DefaultTradeBand,
	}
}

// Validate checks the whole configuration up front so a batch fails fast
// instead of once per player.
func (c Config) Validate() error {
	if err := checkFinite("trend.dead_band", c.Trend.DeadBand); err != nil {
		return err
	}
	if c.Trend.DeadBand < 0 {
		return newValidationError("trend.dead_band", "must not be negative, got %v", c.Trend.DeadBand)
	}
	if err := checkFinite("trend.hot_threshold", c.Trend.HotThreshold); err != nil {
		return err
	}
	if c.TrendRecentGames < 1 {
		return newValidationError("trend_recent_games", "must be at least 1, got %d", c.TrendRecentGames)
	}
	if err := c.TrendBaseline.Validate(); err != nil {
		return err
	}
	if c.MinConsistencyGames < 1 {
		return newValidationError("min_consistency_games", "must be at least 1, got %d", c.MinConsistencyGames)
	}
	if err := c.ConsistencyWindow.Validate(); err != nil {
		return err
	}
	if err := c.Ranker.Validate(); err != nil {
		return err
	}
	if err := c.Matchup.Validate(); err != nil {
		return err
	}
	if c.ExcludeTopN < 0 {
		return newValidationError("exclude_top_n", "must not be negative, got %d", c.ExcludeTopN)
	}
	if err := checkFinite("trade_band", c.TradeBand); err != nil {
		return err
	}
	if c.TradeBand < 0 {
		return newValidationError("trade_band", "must not be negative, got %v", c.TradeBand)
	}
	return nil
}
