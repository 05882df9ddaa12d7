package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"favourflix.com/favourflix-api/internal/logging"
)

// ErrCallerGone marks an upstream error caused by the caller's own context
// ending. Such errors never count against a breaker.
var ErrCallerGone = errors.New("caller context ended")

// CallerError tags err with ErrCallerGone when ctx, the caller's context, is
// already done.
func CallerError(ctx context.Context, err error) error {
	if err == nil || ctx.Err() == nil {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCallerGone, err)
}

// NewBreaker returns a circuit breaker that opens after five consecutive
// failures and half-opens after timeout. State changes are logged and
// exported through CircuitBreakerState.
func NewBreaker[T any](name string, timeout time.Duration) *gobreaker.CircuitBreaker[T] {
	CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      timeout,
		IsSuccessful: isSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

// Cancellation belongs to the caller, not the upstream.
func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrCallerGone)
}

func stateValue(s gobreaker.State) float64 {
	switch s {
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
