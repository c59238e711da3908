package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/jstittsworth/hoops-analytics/internal/api"
	"github.com/jstittsworth/hoops-analytics/internal/api/handlers"
	"github.com/jstittsworth/hoops-analytics/internal/services"
	"github.com/jstittsworth/hoops-analytics/pkg/config"
	"github.com/jstittsworth/hoops-analytics/pkg/database"
	"github.com/jstittsworth/hoops-analytics/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	settings, err := services.SettingsFromConfig(cfg)
	if err != nil {
		log.Fatalf("Invalid service settings: %v", err)
	}

	// Initialize services
	store := services.NewStore(db)
	cacheService := services.NewCacheService(redisClient)
	breaker := services.NewCircuitBreakerService(cfg.CircuitBreakerThreshold, cfg.ExternalAPITimeout, log)
	metrics := services.NewMetrics()
	analyticsService := services.NewAnalyticsService(store, cacheService, breaker, metrics, settings)

	var scheduler *services.Scheduler
	if cfg.EnableBackgroundJobs {
		scheduler = services.NewScheduler(analyticsService, log, cfg.RecomputeSchedule, cfg.RecommendationSchedule, 10*time.Minute)
		if err := scheduler.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	router := api.NewRouter(api.RouterOptions{
		Service:        analyticsService,
		Store:          store,
		Breaker:        breaker,
		Metrics:        metrics,
		Logger:         log,
		DB:             handlers.PingFunc(func(context.Context) error { return db.Ping() }),
		Cache:          cacheService,
		CorsOrigins:    cfg.CorsOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	if cfg.IsDevelopment() {
		for _, route := range router.Routes() {
			log.Debugf("%s %s", route.Method, route.Path)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
