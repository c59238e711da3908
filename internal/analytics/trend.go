package analytics

// Trend defaults
const (
	DefaultHotThreshold = 0.15
	DefaultDeadBand     = 0.05
)

// MetricKind names the series a trend was computed over
type MetricKind string

const (
	MetricFantasyScore MetricKind = "fantasy_score"
	MetricMinutes      MetricKind = "minutes"
)

// Direction is the labelled sign of a trend
type Direction string

const (
	DirectionUp     Direction = "UP"
	DirectionDown   Direction = "DOWN"
	DirectionStable Direction = "STABLE"
)

// TrendConfig controls direction labelling and the hot flag
type TrendConfig struct {
	DeadBand     float64 `json:"dead_band"`
	HotThreshold float64 `json:"hot_threshold"`
}

// DefaultTrendConfig returns the ±5% dead-band and 15% hot threshold.
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{DeadBand: DefaultDeadBand, HotThreshold: DefaultHotThreshold}
}

// TrendSignal compares a recent window against a baseline window
type TrendSignal struct {
	Metric        MetricKind `json:"metric"`
	Direction     Direction  `json:"direction"`
	Value         float64    `json:"value"`
	RecentAvg     float64    `json:"recent_avg"`
	BaselineAvg   float64    `json:"baseline_avg"`
	RecentGames   int        `json:"recent_games"`
	BaselineGames int        `json:"baseline_games"`
	HotFactor     float64    `json:"hot_factor"`
	IsHot         bool       `json:"is_hot"`
}

// DirectionFor labels a trend value using a symmetric dead-band.
func DirectionFor(value, deadBand float64) Direction {
	switch {
	case value > deadBand:
		return DirectionUp
	case value < -deadBand:
		return DirectionDown
	default:
		return DirectionStable
	}
}

// DetectTrend returns the fractional change of the recent average over the
// baseline average. It returns nil when either window is empty.
func DetectTrend(kind MetricKind, recent, baseline []float64, cfg TrendConfig) (*TrendSignal, error) {
	if err := checkFinite("dead_band", cfg.DeadBand); err != nil {
		return nil, err
	}
	if cfg.DeadBand < 0 {
		return nil, newValidationError("dead_band", "must not be negative, got %v", cfg.DeadBand)
	}
	if err := checkFinite("hot_threshold", cfg.HotThreshold); err != nil {
		return nil, err
	}

	recentAvg, err := RollingAverage(recent, WindowAll)
	if err != nil {
		return nil, err
	}
	baselineAvg, err := RollingAverage(baseline, WindowAll)
	if err != nil {
		return nil, err
	}
	if recentAvg == nil || baselineAvg == nil {
		return nil, nil
	}

	signal := &TrendSignal{
		Metric:        kind,
		Direction:     DirectionStable,
		RecentAvg:     *recentAvg,
		BaselineAvg:   *baselineAvg,
		RecentGames:   len(recent),
		BaselineGames: len(baseline),
	}

	// Zero baseline: no meaningful ratio, report flat.
	if *baselineAvg == 0 {
		return signal, nil
	}

	signal.Value = (*recentAvg - *baselineAvg) / *baselineAvg
	signal.Direction = DirectionFor(signal.Value, cfg.DeadBand)

	if kind == MetricFantasyScore {
		if signal.Value > 0 {
			signal.HotFactor = signal.Value
		}
		// A cooling player is never hot, whatever the threshold.
		signal.IsHot = signal.HotFactor > 0 && signal.HotFactor > cfg.HotThreshold
	}

	return signal, nil
}

// SplitTrendWindows cuts one newest-first series into a recent window of
// recentGames and a non-overlapping baseline of the games that follow,
// limited to baseline.
func SplitTrendWindows(values []float64, recentGames int, baseline Window) (recent, rest []float64, err error) {
	if recentGames < 1 {
		return nil, nil, newValidationError("recent_games", "must be at least 1, got %d", recentGames)
	}
	if err := baseline.Validate(); err != nil {
		return nil, nil, err
	}
	if len(values) <= recentGames {
		return values, nil, nil
	}
	rest, err = TakeWindow(values[recentGames:], baseline)
	if err != nil {
		return nil, nil, err
	}
	return values[:recentGames], rest, nil
}
