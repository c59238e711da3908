package logger

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger initializes the structured logger. An empty level falls back to
// LOG_LEVEL, then to debug in development and info elsewhere.
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			if isDevelopment {
				logLevel = "debug"
			} else {
				logLevel = "info"
			}
		}
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	if !isDevelopment || strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
			ForceColors:     true,
		})
	}

	log.SetOutput(os.Stdout)
	Logger = log

	return log
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("info", false)
	}
	return Logger
}

// WithService creates a logger with service context
func WithService(serviceName string) *logrus.Entry {
	return GetLogger().WithField("service", serviceName)
}

// WithCorrelationID creates a logger with a correlation ID
func WithCorrelationID(correlationID string) *logrus.Entry {
	return GetLogger().WithField("correlation_id", correlationID)
}

// WithBatchContext tags every line of one recompute or recommendation batch.
func WithBatchContext(batchID string, date time.Time, weightSetID uint) *logrus.Entry {
	return GetLogger().WithFields(logrus.Fields{
		"batch_id":      batchID,
		"date":          date.Format("2006-01-02"),
		"weight_set_id": weightSetID,
	})
}

// WithPlayerContext creates a logger scoped to one player
func WithPlayerContext(playerID uint, name string) *logrus.Entry {
	fields := logrus.Fields{"player_id": playerID}
	if name != "" {
		fields["player_name"] = name
	}
	return GetLogger().WithFields(fields)
}

// WithHTTPContext creates a logger with HTTP request context
func WithHTTPContext(correlationID, method, path, userAgent string) *logrus.Entry {
	return WithCorrelationID(correlationID).WithFields(logrus.Fields{
		"http_method":     method,
		"http_path":       path,
		"http_user_agent": userAgent,
	})
}
