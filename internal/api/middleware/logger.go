package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jstittsworth/hoops-analytics/pkg/logger"
	"github.com/sirupsen/logrus"
)

// CorrelationHeader carries the request correlation id in and out.
const CorrelationHeader = "X-Correlation-ID"

// HTTPObserver receives one observation per served request.
type HTTPObserver interface {
	ObserveHTTP(method, route, status string, elapsed time.Duration)
}

// Logger logs every request with its correlation id and reports it to
// observer when one is given.
func Logger(observer HTTPObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		correlationID := c.GetHeader(CorrelationHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		c.Set("correlation_id", correlationID)
		c.Header(CorrelationHeader, correlationID)

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		entry := logger.WithHTTPContext(correlationID, c.Request.Method, c.Request.URL.Path, c.Request.UserAgent()).
			WithFields(logrus.Fields{
				"status":      status,
				"duration_ms": elapsed.Milliseconds(),
				"client_ip":   c.ClientIP(),
			})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request served")
		}

		if observer != nil {
			observer.ObserveHTTP(c.Request.Method, route, strconv.Itoa(status), elapsed)
		}
	}
}
