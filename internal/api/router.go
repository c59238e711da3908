package api

import (
	"github.com/gin-gonic/gin"
	"github.com/jstittsworth/hoops-analytics/internal/api/handlers"
	"github.com/jstittsworth/hoops-analytics/internal/api/middleware"
	"github.com/jstittsworth/hoops-analytics/internal/services"
	"github.com/sirupsen/logrus"
)

// RouterOptions carries everything the HTTP surface is wired to.
type RouterOptions struct {
	Service        *services.AnalyticsService
	Store          *services.Store
	Breaker        *services.CircuitBreakerService
	Metrics        *services.Metrics
	Logger         *logrus.Logger
	DB             handlers.Pinger
	Cache          handlers.Pinger
	CorsOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the engine: middleware, /health, /metrics and /api/v1.
func NewRouter(opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if opts.Metrics != nil {
		router.Use(middleware.Logger(opts.Metrics))
	} else {
		router.Use(middleware.Logger(nil))
	}
	router.Use(middleware.CORS(opts.CorsOrigins))

	health := handlers.NewHealthHandler(opts.DB, opts.Cache, opts.Breaker)
	router.GET("/health", health.GetHealth)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	apiV1 := router.Group("/api/v1")
	if opts.RateLimitRPS > 0 {
		apiV1.Use(middleware.NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst).Middleware())
	}
	SetupRoutes(apiV1, opts.Service, opts.Store, opts.Logger)

	return router
}

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, service *services.AnalyticsService, store *services.Store, logger *logrus.Logger) {
	analyticsHandler := handlers.NewAnalyticsHandler(service, logger)
	weightsHandler := handlers.NewWeightsHandler(store, logger)

	// Scoring
	group.POST("/scoring/preview", analyticsHandler.PreviewScore)
	group.GET("/scoring/weights/:owner", weightsHandler.ListWeights)
	group.POST("/scoring/weights/:owner", weightsHandler.CreateWeights)
	group.PUT("/scoring/weights/:owner/default", weightsHandler.SetDefault)

	// Player analytics
	group.GET("/players/:id/analytics", analyticsHandler.GetPlayerAnalytics)
	group.POST("/analytics/recompute", analyticsHandler.Recompute)

	// Recommendations and trades
	group.GET("/recommendations", analyticsHandler.GetRecommendations)
	group.POST("/recommendations/generate", analyticsHandler.GenerateRecommendations)
	group.POST("/trades/evaluate", analyticsHandler.EvaluateTrade)
}
