package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Options configures one wrapped operation. Total tries are MaxRetries+1
// (the initial attempt plus retries).
type Options struct {
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	RetryableCodes []int
}

// DefaultOptions returns the retry policy used for distribution calls.
func DefaultOptions() Options {
	return Options{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
	}
}

// Executor wraps outbound calls with bounded exponential-backoff retries and
// a per-endpoint circuit breaker. It holds no persistent state.
type Executor struct {
	breaker *CircuitBreaker
	logger  *zap.Logger

	// sleep is injectable so tests do not wait on real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates an executor with its own circuit breaker registry.
func NewExecutor(logger *zap.Logger) *Executor {
	return &Executor{
		breaker: NewCircuitBreaker(),
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Breaker exposes the circuit registry for inspection.
func (e *Executor) Breaker() *CircuitBreaker {
	return e.breaker
}

// Do runs op with the retry policy in opts. When circuitName is non-empty
// the call participates in that circuit: open circuits fail fast without
// invoking op, every failed attempt increments the failure counter, and any
// success resets it.
func (e *Executor) Do(ctx context.Context, circuitName string, opts Options, op func(ctx context.Context) error) error {
	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = opts.BaseDelay
	schedule.MaxInterval = opts.MaxDelay
	schedule.Multiplier = opts.Multiplier
	schedule.RandomizationFactor = 0.25
	schedule.MaxElapsedTime = 0
	schedule.Reset()

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if circuitName != "" {
			if err := e.breaker.Allow(circuitName); err != nil {
				e.logger.Warn("circuit open, failing fast",
					zap.String("circuit", circuitName),
				)
				return err
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			if circuitName != "" {
				e.breaker.RecordSuccess(circuitName)
			}
			return nil
		}

		if circuitName != "" {
			e.breaker.RecordFailure(circuitName)
		}

		if !IsRetryable(lastErr, opts.RetryableCodes) {
			e.logger.Warn("permanent failure, not retrying",
				zap.String("circuit", circuitName),
				zap.Error(lastErr),
			)
			return lastErr
		}

		if attempt == opts.MaxRetries {
			break
		}

		delay := schedule.NextBackOff()
		e.logger.Debug("retrying after transient failure",
			zap.String("circuit", circuitName),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)
		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
	}

	e.logger.Error("retries exhausted",
		zap.String("circuit", circuitName),
		zap.Int("attempts", opts.MaxRetries+1),
		zap.Error(lastErr),
	)
	return lastErr
}

// sleepContext waits for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
