package resilience

import (
	"math/rand"
	"time"
)

// RetryPolicy retries transient failures with exponential backoff and ±25%
// jitter. Business rejections are never retried.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultSubmitRetry matches the tuning used for state-changing ledger calls.
func DefaultSubmitRetry() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, InitialDelay: time.Second, MaxDelay: 10 * time.Second, Multiplier: 2}
}

// DefaultQueryRetry is more aggressive: reads are safe to repeat.
func DefaultQueryRetry() RetryPolicy {
	return RetryPolicy{MaxRetries: 5, InitialDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second, Multiplier: 2}
}

// Delay computes the backoff before retry attempt n (1-based).
func (p RetryPolicy) Delay(attempt int, rng *rand.Rand) time.Duration {
	d := float64(p.InitialDelay)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
	}
	if max := float64(p.MaxDelay); d > max {
		d = max
	}
	if rng != nil {
		jitter := d * 0.25 * (rng.Float64()*2 - 1)
		d += jitter
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
