// Package backoff provides retry delay strategies for job execution.
//
// Strategies are stateless: each Delay call derives the interval for the
// given attempt from a fresh github.com/cenkalti/backoff/v5 schedule, so a
// single Strategy is safe to share between workers.
package backoff

import (
	"math"
	"time"

	cbackoff "github.com/cenkalti/backoff/v5"
)

// Strategy computes the delay before a retry attempt.
type Strategy interface {
	// Delay returns how long to wait before retry attempt n (1-indexed).
	// Attempt 1 is the first retry after the initial failure.
	Delay(attempt int) time.Duration
}

// ──────────────────────────────────────────────────
// Constant
// ──────────────────────────────────────────────────

// Constant always returns the same delay regardless of attempt number.
type Constant struct {
	Interval time.Duration
}

// NewConstant creates a constant backoff strategy.
func NewConstant(interval time.Duration) *Constant {
	return &Constant{Interval: interval}
}

// Delay returns the fixed interval.
func (c *Constant) Delay(_ int) time.Duration {
	return cbackoff.NewConstantBackOff(c.Interval).NextBackOff()
}

// ──────────────────────────────────────────────────
// Exponential
// ──────────────────────────────────────────────────

// Exponential multiplies the delay by Multiplier each attempt, capped at
// Max. Jitter is the randomization factor in [0, 1): the returned delay is
// drawn from [d*(1-Jitter), d*(1+Jitter)] around the capped interval d.
type Exponential struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// NewExponential creates an exponential backoff that doubles each attempt
// without jitter.
func NewExponential(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay, Multiplier: 2}
}

// NewExponentialWithJitter creates a doubling backoff with a 0.5
// randomization factor, spreading retries of jobs that failed together.
func NewExponentialWithJitter(initial, maxDelay time.Duration) *Exponential {
	return &Exponential{Initial: initial, Max: maxDelay, Multiplier: 2, Jitter: 0.5}
}

// Delay walks a fresh schedule forward to the given attempt.
func (e *Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	b := e.schedule()
	var d time.Duration
	for range attempt {
		d = b.NextBackOff()
	}
	return d
}

func (e *Exponential) schedule() *cbackoff.ExponentialBackOff {
	b := cbackoff.NewExponentialBackOff()
	b.InitialInterval = e.Initial
	b.RandomizationFactor = e.Jitter
	b.Multiplier = e.Multiplier
	if b.Multiplier < 1 {
		b.Multiplier = 2
	}
	b.MaxInterval = e.Max
	if b.MaxInterval <= 0 {
		b.MaxInterval = time.Duration(math.MaxInt64)
	}
	b.Reset()
	return b
}

// ──────────────────────────────────────────────────
// Default
// ──────────────────────────────────────────────────

// DefaultStrategy returns the default backoff used by the engine: a
// jittered exponential schedule starting at 1s and capped at 1m.
func DefaultStrategy() Strategy {
	return NewExponentialWithJitter(1*time.Second, 1*time.Minute)
}
