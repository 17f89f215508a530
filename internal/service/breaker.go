package service

import (
	"context"
	"errors"
	"fmt"

	"sales-dashboard/config"
	"sales-dashboard/internal/util"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const breakerName = "sales-db"

// newBreaker guards the sales database. The circuit opens after
// FailureThreshold consecutive failed fetches; cancelled requests do not count.
func newBreaker(cfg config.BreakerConfig) *gobreaker.CircuitBreaker[any] {
	logger := util.Named("circuit-breaker")
	util.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			util.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// guarded runs fn through the breaker and restores its result type
func guarded[T any](cb *gobreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	var zero T
	result, err := cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}
