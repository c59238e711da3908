package analytics

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// EntityError records a player skipped by a batch
type EntityError struct {
	PlayerID uint   `json:"player_id"`
	Err      error  `json:"-"`
	Message  string `json:"message"`
}

func (e EntityError) Error() string {
	return fmt.Sprintf("player %d: %v", e.PlayerID, e.Err)
}

func (e EntityError) Unwrap() error {
	return e.Err
}

// BatchResult is the output of one recompute batch
type BatchResult struct {
	Players  []PlayerAnalytics `json:"players"`
	Failures []EntityError     `json:"failures"`
}

// ComputePlayer derives every signal for one player from their newest-first
// history. It is pure and safe to call concurrently.
func ComputePlayer(history PlayerHistory, weights ScoringWeights, cfg Config) (PlayerAnalytics, error) {
	out := PlayerAnalytics{
		PlayerID:     history.PlayerID,
		Name:         history.Name,
		Team:         history.Team,
		InjuryStatus: history.InjuryStatus,
		GamesPlayed:  len(history.Games),
	}
	if out.InjuryStatus == "" {
		out.InjuryStatus = InjuryHealthy
	}

	scores, err := ScoreHistory(history.Games, weights)
	if err != nil {
		return PlayerAnalytics{}, fmt.Errorf("failed to score history: %w", err)
	}
	out.Scores = scores

	points := scoreValues(scores)
	minutes := minutesValues(history.Games)

	if out.Averages, err = ComputeRollingAverages(points); err != nil {
		return PlayerAnalytics{}, fmt.Errorf("failed to average scores: %w", err)
	}
	if out.MinutesAverages, err = ComputeRollingAverages(minutes); err != nil {
		return PlayerAnalytics{}, fmt.Errorf("failed to average minutes: %w", err)
	}

	if out.Consistency, err = ConsistencyOver(points, cfg.ConsistencyWindow, cfg.MinConsistencyGames); err != nil {
		return PlayerAnalytics{}, fmt.Errorf("failed to compute consistency: %w", err)
	}

	recent, baseline, err := SplitTrendWindows(points, cfg.TrendRecentGames, cfg.TrendBaseline)
	if err != nil {
		return PlayerAnalytics{}, err
	}
	if out.ScoreTrend, err = DetectTrend(MetricFantasyScore, recent, baseline, cfg.Trend); err != nil {
		return PlayerAnalytics{}, fmt.Errorf("failed to detect score trend: %w", err)
	}

	recent, baseline, err = SplitTrendWindows(minutes, cfg.TrendRecentGames, cfg.TrendBaseline)
	if err != nil {
		return PlayerAnalytics{}, err
	}
	if out.MinutesTrend, err = DetectTrend(MetricMinutes, recent, baseline, cfg.Trend); err != nil {
		return PlayerAnalytics{}, fmt.Errorf("failed to detect minutes trend: %w", err)
	}

	out.ProjectedPoints = ProjectPoints(out.Averages)
	return out, nil
}

// ComputeBatch runs ComputePlayer over every history on a bounded pool of
// workers. A failing player is recorded in Failures and skipped. Output is
// ordered by player id regardless of scheduling.
func ComputeBatch(ctx context.Context, histories []PlayerHistory, weights ScoringWeights, cfg Config, workers int) (*BatchResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type outcome struct {
		player PlayerAnalytics
		err    *EntityError
	}
	slots := make([]outcome, len(histories))

	// A plain Group: one player's failure never cancels the others.
	var g errgroup.Group
	g.SetLimit(workers)
	var cancelled error
	for i, h := range histories {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := ComputePlayer(h, weights, cfg)
			if err != nil {
				slots[i] = outcome{err: &EntityError{PlayerID: h.PlayerID, Err: err, Message: err.Error()}}
				return nil
			}
			slots[i] = outcome{player: p}
			return nil
		})
	}
	if err := g.Wait(); err != nil && cancelled == nil {
		cancelled = err
	}
	if cancelled != nil {
		return nil, fmt.Errorf("batch cancelled: %w", cancelled)
	}

	batch := &BatchResult{
		Players:  make([]PlayerAnalytics, 0, len(histories)),
		Failures: []EntityError{},
	}
	for _, r := range slots {
		if r.err != nil {
			batch.Failures = append(batch.Failures, *r.err)
			continue
		}
		batch.Players = append(batch.Players, r.player)
	}

	sort.Slice(batch.Players, func(i, j int) bool {
		return batch.Players[i].PlayerID < batch.Players[j].PlayerID
	})
	sort.Slice(batch.Failures, func(i, j int) bool {
		return batch.Failures[i].PlayerID < batch.Failures[j].PlayerID
	})

	return batch, nil
}
