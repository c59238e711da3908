package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jstittsworth/hoops-analytics/internal/analytics"
	"github.com/jstittsworth/hoops-analytics/pkg/utils"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Dependencies guarded by a breaker
const (
	BreakerStore = "store"
)

type CircuitBreakerService struct {
	breakers map[string]*gobreaker.CircuitBreaker
	logger   *logrus.Logger
}

// NewCircuitBreakerService opens a breaker after threshold consecutive
// failures and probes again after timeout.
func NewCircuitBreakerService(threshold int, timeout time.Duration, logger *logrus.Logger) *CircuitBreakerService {
	if threshold < 1 {
		threshold = 1
	}

	newSettings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     timeout,
			// caller mistakes are not dependency failures
			IsSuccessful: func(err error) bool {
				return err == nil || isPermanent(err)
			},
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"component": "circuit_breaker",
					"service":   name,
					"from":      from.String(),
					"to":        to.String(),
				}).Info("Circuit breaker state changed")
			},
		}
	}

	return &CircuitBreakerService{
		breakers: map[string]*gobreaker.CircuitBreaker{
			BreakerStore: gobreaker.NewCircuitBreaker(newSettings(BreakerStore)),
		},
		logger: logger,
	}
}

// Execute wraps a function call with circuit breaker protection
func (cb *CircuitBreakerService) Execute(service string, fn func() (interface{}, error)) (interface{}, error) {
	breaker, exists := cb.breakers[service]
	if !exists {
		cb.logger.WithFields(logrus.Fields{
			"component": "circuit_breaker",
			"service":   service,
		}).Warn("No circuit breaker found for service, executing without protection")
		return fn()
	}

	return breaker.Execute(fn)
}

// ExecuteWithRetry runs fn behind the named breaker, retrying up to
// attempts times with linear backoff. An open breaker or a cancelled
// context stops retrying immediately. Validation and not-found errors are
// returned as-is without retry.
func (cb *CircuitBreakerService) ExecuteWithRetry(ctx context.Context, service string, attempts int, fn func() (interface{}, error)) (interface{}, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		result, err := cb.Execute(service, fn)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if isPermanent(err) || IsUnavailable(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if i == attempts-1 {
			break
		}

		cb.logger.WithFields(logrus.Fields{
			"component": "circuit_breaker",
			"service":   service,
			"attempt":   i + 1,
			"error":     err.Error(),
		}).Warn("Guarded call failed, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 100 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("%s failed after %d attempts: %w", service, attempts, lastErr)
}

// GetState returns the current state of a circuit breaker
func (cb *CircuitBreakerService) GetState(service string) gobreaker.State {
	if breaker, exists := cb.breakers[service]; exists {
		return breaker.State()
	}
	return gobreaker.StateClosed
}

// GetCounts returns the current counts for a circuit breaker
func (cb *CircuitBreakerService) GetCounts(service string) gobreaker.Counts {
	if breaker, exists := cb.breakers[service]; exists {
		return breaker.Counts()
	}
	return gobreaker.Counts{}
}

func isPermanent(err error) bool {
	return errors.Is(err, utils.ErrNotFound) || analytics.IsValidationError(err)
}

// IsUnavailable reports whether err came from an open or saturated breaker.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
