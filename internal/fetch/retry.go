package fetch

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds how often a page fetch is attempted. MaxAttempts counts
// the first try, so the zero value and the default both mean a single attempt.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
}

// DefaultRetryPolicy returns the single-attempt policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 1,
		Backoff:     time.Second,
		MaxBackoff:  30 * time.Second,
	}
}

// backoff builds a fresh go-retry backoff. Backoffs are stateful, so one is
// built per fetch.
func (p RetryPolicy) backoff() retry.Backoff {
	base := p.Backoff
	if base <= 0 {
		base = time.Second
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := retry.NewExponential(base)
	b = retry.WithJitterPercent(10, b)
	if p.MaxBackoff > 0 {
		b = retry.WithCappedDuration(p.MaxBackoff, b)
	}
	return retry.WithMaxRetries(uint64(attempts-1), b)
}
