package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/hoops-analytics/internal/services"
	"github.com/jstittsworth/hoops-analytics/pkg/config"
	"github.com/jstittsworth/hoops-analytics/pkg/database"
	"github.com/jstittsworth/hoops-analytics/pkg/logger"
)

// recompute backfills analytics for one date, optionally regenerating
// that date's recommendations.
func main() {
	var (
		dateFlag    = flag.String("date", "", "slate date YYYY-MM-DD (default today)")
		weightsFlag = flag.Uint("weights", 0, "weight set id (default: system default)")
		ownerFlag   = flag.String("owner", "", "owner whose default weight set applies")
		playersFlag = flag.String("players", "", "comma separated player ids (default: all active)")
		recommend   = flag.Bool("recommend", false, "regenerate recommendations after the recompute")
		timeout     = flag.Duration("timeout", 30*time.Minute, "overall deadline")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())

	date, err := parseDate(*dateFlag)
	if err != nil {
		log.Fatalf("Invalid -date: %v", err)
	}
	playerIDs, err := parsePlayerIDs(*playersFlag)
	if err != nil {
		log.Fatalf("Invalid -players: %v", err)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cache, closeCache := connectCache(ctx, cfg.RedisURL, log)
	defer closeCache()

	settings, err := services.SettingsFromConfig(cfg)
	if err != nil {
		log.Fatalf("Invalid service settings: %v", err)
	}
	breaker := services.NewCircuitBreakerService(cfg.CircuitBreakerThreshold, cfg.ExternalAPITimeout, log)
	service := services.NewAnalyticsService(services.NewStore(db), cache, breaker, services.NewMetrics(), settings)

	report, err := service.Recompute(ctx, services.RecomputeRequest{
		Date:        date,
		OwnerID:     *ownerFlag,
		WeightSetID: *weightsFlag,
		PlayerIDs:   playerIDs,
	})
	if err != nil {
		log.Fatalf("Recompute failed: %v", err)
	}
	log.WithFields(logrus.Fields{
		"batch_id":  report.BatchID,
		"processed": report.Processed,
		"skipped":   report.Skipped,
	}).Info("Recompute complete")

	if !*recommend {
		return
	}
	recs, err := service.GenerateRecommendations(ctx, services.RecommendationRequest{
		Date:        date,
		OwnerID:     *ownerFlag,
		WeightSetID: *weightsFlag,
	})
	if err != nil {
		log.Fatalf("Recommendation generation failed: %v", err)
	}
	for _, r := range recs.Recommendations {
		log.WithFields(logrus.Fields{
			"rank":  r.Rank,
			"score": r.Score,
		}).Infof("%s (%s vs %s): %s", r.Name, r.Team, r.Opponent, r.Reasoning)
	}
}

// connectCache falls back to a no-op cache when redis is unreachable; a
// backfill only loses cache invalidation.
func connectCache(ctx context.Context, url string, log *logrus.Logger) (services.Cache, func()) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.WithError(err).Warn("Invalid Redis URL, running without cache")
		return services.NoopCache{}, func() {}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unreachable, running without cache")
		client.Close()
		return services.NoopCache{}, func() {}
	}
	return services.NewCacheService(client), func() { client.Close() }
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", value)
}

func parsePlayerIDs(value string) ([]uint, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	var ids []uint
	for _, part := range strings.Split(value, ",") {
		id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("bad player id %q", part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
