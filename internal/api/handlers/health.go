package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jstittsworth/hoops-analytics/internal/services"
	"github.com/sony/gobreaker"
)

// Pinger is anything the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// HealthHandler reports the state of the database, the cache and the store breaker.
type HealthHandler struct {
	db      Pinger
	cache   Pinger
	breaker *services.CircuitBreakerService
}

func NewHealthHandler(db, cache Pinger, breaker *services.CircuitBreakerService) *HealthHandler {
	return &HealthHandler{db: db, cache: cache, breaker: breaker}
}

// GetHealth returns 200 when everything answers, 206 when only the cache
// is down and 503 when the database is unreachable.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthStatus{
		Status:    "ok",
		Service:   "hoops-analytics",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]string),
	}

	if err := h.db.Ping(ctx); err != nil {
		response.Status = "unhealthy"
		response.Checks["database"] = "failed: " + err.Error()
	} else {
		response.Checks["database"] = "ok"
	}

	if h.cache == nil {
		response.Checks["cache"] = "not_configured"
	} else if err := h.cache.Ping(ctx); err != nil {
		if response.Status == "ok" {
			response.Status = "degraded"
		}
		response.Checks["cache"] = "failed: " + err.Error()
	} else {
		response.Checks["cache"] = "ok"
	}

	if h.breaker != nil {
		state := h.breaker.GetState(services.BreakerStore)
		response.Checks["store_breaker"] = state.String()
		if state == gobreaker.StateOpen && response.Status == "ok" {
			response.Status = "degraded"
		}
	}

	statusCode := http.StatusOK
	switch response.Status {
	case "unhealthy":
		statusCode = http.StatusServiceUnavailable
	case "degraded":
		statusCode = http.StatusPartialContent
	}
	c.JSON(statusCode, response)
}
