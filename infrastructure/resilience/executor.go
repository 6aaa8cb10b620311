// Package resilience guards oracle calls using fortify.
package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
)

// Executor applies rate limiting, a per-call timeout, a circuit breaker and
// retries around a call. One executor fronts one upstream.
type Executor struct {
	breaker  circuitbreaker.CircuitBreaker[any]
	retry    retry.Retry[any]
	attempts int
	limiter  ratelimit.RateLimiter
	timeout  time.Duration
}

// ExecutorConfig configures the resilient executor.
type ExecutorConfig struct {
	// CircuitBreakerThreshold is the number of consecutive failures before opening.
	CircuitBreakerThreshold int

	// CircuitBreakerTimeout is how long the circuit stays open.
	CircuitBreakerTimeout time.Duration

	// RetryMaxAttempts is the total number of attempts per call.
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between retries.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// Timeout bounds each call, including its retries.
	Timeout time.Duration

	// Rate is the number of calls per second; zero disables rate limiting.
	Rate int

	// Burst is the rate limiter's bucket capacity.
	Burst int
}

// DefaultExecutorConfig returns a configuration with sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		RetryMaxAttempts:        1,
		RetryInitialDelay:       200 * time.Millisecond,
		RetryBackoffMultiplier:  2.0,
		Timeout:                 30 * time.Second,
	}
}

// NewExecutor creates a new resilient executor.
func NewExecutor(config ExecutorConfig) *Executor {
	threshold := config.CircuitBreakerThreshold
	if threshold <= 0 {
		threshold = 5 // default
	}
	attempts := config.RetryMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	multiplier := config.RetryBackoffMultiplier
	if multiplier < 1 {
		multiplier = 2.0
	}

	e := &Executor{
		breaker: circuitbreaker.New[any](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    config.CircuitBreakerTimeout,
			Timeout:     config.CircuitBreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[any](retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    multiplier,
		}),
		attempts: attempts,
		timeout:  config.Timeout,
	}

	if config.Rate > 0 {
		burst := config.Burst
		if burst <= 0 {
			burst = config.Rate
		}
		e.limiter = ratelimit.New(&ratelimit.Config{
			Rate:  config.Rate,
			Burst: burst,
		})
	}

	return e
}

// NewDefaultExecutor creates an executor with default configuration.
func NewDefaultExecutor() *Executor {
	return NewExecutor(DefaultExecutorConfig())
}

// Do runs fn through the executor.
// Composition order: Rate limit → Timeout → Circuit Breaker → Retry.
func Do[T any](ctx context.Context, e *Executor, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, key); err != nil {
			return zero, err
		}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	call := func(ctx context.Context) (any, error) {
		return fn(ctx)
	}

	v, err := e.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
		if e.attempts > 1 {
			return e.retry.Do(ctx, call)
		}
		return call(ctx)
	})
	if err != nil {
		return zero, err
	}

	out, _ := v.(T)
	return out, nil
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (e *Executor) CircuitBreakerState() circuitbreaker.State {
	return e.breaker.State()
}
