package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// BatchRunner is the part of AnalyticsService the scheduler drives.
type BatchRunner interface {
	Recompute(ctx context.Context, req RecomputeRequest) (*BatchReport, error)
	GenerateRecommendations(ctx context.Context, req RecommendationRequest) (*RecommendationReport, error)
}

// Scheduler runs the daily recompute and the recommendation refresh on cron
// schedules. Runs of the same job never overlap.
type Scheduler struct {
	runner                 BatchRunner
	logger                 *logrus.Logger
	cron                   *cron.Cron
	recomputeSchedule      string
	recommendationSchedule string
	timeout                time.Duration
	now                    func() time.Time

	mu        sync.Mutex
	isRunning bool
}

func NewScheduler(runner BatchRunner, logger *logrus.Logger, recomputeSchedule, recommendationSchedule string, timeout time.Duration) *Scheduler {
	return &Scheduler{
		runner: runner,
		logger: logger,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
			cron.Recover(cron.DiscardLogger),
		)),
		recomputeSchedule:      recomputeSchedule,
		recommendationSchedule: recommendationSchedule,
		timeout:                timeout,
		now:                    time.Now,
	}
}

// Start registers both jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if _, err := s.cron.AddFunc(s.recomputeSchedule, s.recomputeJob); err != nil {
		return fmt.Errorf("failed to schedule recompute: %w", err)
	}
	if _, err := s.cron.AddFunc(s.recommendationSchedule, s.recommendationJob); err != nil {
		return fmt.Errorf("failed to schedule recommendations: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	s.logger.WithFields(logrus.Fields{
		"recompute_schedule":      s.recomputeSchedule,
		"recommendation_schedule": s.recommendationSchedule,
	}).Info("Analytics scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.logger.Info("Analytics scheduler stopped")
}

// IsRunning reports whether the cron loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// RunNow recomputes analytics and regenerates recommendations for date
// synchronously. Used for backfills and the initial run.
func (s *Scheduler) RunNow(ctx context.Context, date time.Time) error {
	report, err := s.runner.Recompute(ctx, RecomputeRequest{Date: date})
	if err != nil {
		return fmt.Errorf("recompute failed: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"batch_id":  report.BatchID,
		"processed": report.Processed,
		"skipped":   report.Skipped,
	}).Info("Recompute complete")

	recs, err := s.runner.GenerateRecommendations(ctx, RecommendationRequest{Date: date})
	if err != nil {
		return fmt.Errorf("recommendation generation failed: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"batch_id":        recs.BatchID,
		"recommendations": len(recs.Recommendations),
	}).Info("Recommendations complete")
	return nil
}

func (s *Scheduler) recomputeJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.runner.Recompute(ctx, RecomputeRequest{Date: s.now()}); err != nil {
		s.logger.WithError(err).Error("Scheduled recompute failed")
	}
}

func (s *Scheduler) recommendationJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.runner.GenerateRecommendations(ctx, RecommendationRequest{Date: s.now()}); err != nil {
		s.logger.WithError(err).Error("Scheduled recommendation refresh failed")
	}
}
