package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jstittsworth/hoops-analytics/pkg/utils"
	"golang.org/x/time/rate"
)

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	rps      rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow reports whether client may make a request now.
func (r *RateLimiter) Allow(client string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cl, ok := r.limiters[client]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(r.rps, r.burst)}
		r.limiters[client] = cl
		r.evictIdle(now)
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// evictIdle drops buckets not used for idleTTL. Callers hold mu.
func (r *RateLimiter) evictIdle(now time.Time) {
	for client, cl := range r.limiters {
		if !cl.lastSeen.IsZero() && now.Sub(cl.lastSeen) > r.idleTTL {
			delete(r.limiters, client)
		}
	}
}

// Middleware rejects requests over the limit with 429.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !r.Allow(c.ClientIP()) {
			utils.SendTooManyRequests(c, "Rate limit exceeded, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
