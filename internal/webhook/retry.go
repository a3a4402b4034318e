package webhook

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts   = 3
	DefaultInitialDelay  = 5 * time.Second
	DefaultMaxDelay      = 60 * time.Second
	DefaultMultiplier    = 2.0
)

// RetryPolicy bounds how many times a webhook send is attempted and how
// long to wait between attempts. The delay sequence is deterministic:
// initial_delay * multiplier^retry, capped at max_delay.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
	}
}

// NewRetryPolicy validates its arguments and returns an error rather than
// panicking, since it is reachable from config validation and a bad value
// there must become a reported ConfigError, not a crash.
func NewRetryPolicy(maxAttempts int, initialDelay, maxDelay time.Duration, multiplier float64) (RetryPolicy, error) {
	p := RetryPolicy{MaxAttempts: maxAttempts, InitialDelay: initialDelay, MaxDelay: maxDelay, Multiplier: multiplier}
	if maxAttempts < 1 {
		return RetryPolicy{}, errors.New("retry policy: max attempts must be at least 1")
	}
	if multiplier <= 0 {
		return RetryPolicy{}, errors.New("retry policy: multiplier must be positive")
	}
	if initialDelay < 0 || maxDelay < 0 {
		return RetryPolicy{}, errors.New("retry policy: delays must not be negative")
	}
	return p, nil
}

// ShouldRetry reports whether another attempt may follow attempt (1-indexed)
// without exceeding MaxAttempts.
func (p RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxAttempts
}

// DelayForRetry returns the delay to wait before retry number retry
// (0-indexed: the wait before the second attempt is retry=0). It is
// computed by driving a cenkalti/backoff/v4 ExponentialBackOff with
// randomization disabled, which — given a fresh Reset() and retry+1 calls
// to NextBackOff — produces exactly min(initial*multiplier^retry, max),
// the same deterministic sequence the policy is documented to produce.
func (p RetryPolicy) DelayForRetry(retry int) time.Duration {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialDelay,
		RandomizationFactor: 0,
		Multiplier:          p.Multiplier,
		MaxInterval:         p.MaxDelay,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	var d time.Duration
	for i := 0; i <= retry; i++ {
		d = b.NextBackOff()
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
