// Package resilience wraps reasoner calls in fortify protection patterns.
// A flaky or slow external reasoner degrades a session; it must never hang
// or crash one.
package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/praxis-agent/praxis/infrastructure/reasoner"
)

// Config tunes the protection layers around the reasoner.
type Config struct {
	// MaxConcurrent limits reasoner calls in flight.
	MaxConcurrent int

	// BreakerThreshold is consecutive failures before the circuit opens.
	BreakerThreshold int

	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration

	// RetryMaxAttempts is the attempt budget per call.
	RetryMaxAttempts int

	// RetryInitialDelay is the first backoff delay.
	RetryInitialDelay time.Duration

	// RetryBackoffMultiplier is the exponential backoff multiplier.
	RetryBackoffMultiplier float64

	// CallTimeout bounds a single reasoner call.
	CallTimeout time.Duration
}

// DefaultConfig returns sensible protection defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:          10,
		BreakerThreshold:       5,
		BreakerTimeout:         30 * time.Second,
		RetryMaxAttempts:       3,
		RetryInitialDelay:      100 * time.Millisecond,
		RetryBackoffMultiplier: 2.0,
		CallTimeout:            60 * time.Second,
	}
}

// Executor is a Reasoner that shields an inner Reasoner with bulkhead,
// circuit breaker, and retry. Composition order: bulkhead admits the call,
// the timeout bounds it, the breaker watches it, the retry re-runs it.
type Executor struct {
	inner    reasoner.Reasoner
	bulkhead bulkhead.Bulkhead[*reasoner.Output]
	breaker  circuitbreaker.CircuitBreaker[*reasoner.Output]
	retry    retry.Retry[*reasoner.Output]
	timeout  time.Duration
}

// NewExecutor wraps a reasoner with the given protection config.
func NewExecutor(inner reasoner.Reasoner, config Config) *Executor {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	threshold := config.BreakerThreshold
	if threshold <= 0 {
		threshold = 5
	}

	return &Executor{
		inner: inner,
		bulkhead: bulkhead.New[*reasoner.Output](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		breaker: circuitbreaker.New[*reasoner.Output](circuitbreaker.Config{
			MaxRequests: uint32(maxConcurrent), // #nosec G115 -- bounds checked above
			Interval:    config.BreakerTimeout,
			Timeout:     config.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(threshold) // #nosec G115 -- bounds checked above
			},
		}),
		retry: retry.New[*reasoner.Output](retry.Config{
			MaxAttempts:   config.RetryMaxAttempts,
			InitialDelay:  config.RetryInitialDelay,
			BackoffPolicy: retry.BackoffExponential,
			Multiplier:    config.RetryBackoffMultiplier,
		}),
		timeout: config.CallTimeout,
	}
}

// Reason implements reasoner.Reasoner with the protection layers applied.
func (e *Executor) Reason(ctx context.Context, in reasoner.Input) (*reasoner.Output, error) {
	return e.bulkhead.Execute(ctx, func(ctx context.Context) (*reasoner.Output, error) {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()

		return e.breaker.Execute(ctx, func(ctx context.Context) (*reasoner.Output, error) {
			return e.retry.Do(ctx, func(ctx context.Context) (*reasoner.Output, error) {
				return e.inner.Reason(ctx, in)
			})
		})
	})
}

// BreakerState reports the circuit state, for health surfaces.
func (e *Executor) BreakerState() circuitbreaker.State {
	return e.breaker.State()
}
