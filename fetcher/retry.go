package fetcher

import (
	"context"
	"time"

	"github.com/aluiziolira/go-scrape-games/config"
)

// retryPolicy decides how many attempts a fetch gets and how long to wait
// before each retry, independent of the transport issuing the request.
type retryPolicy struct {
	maxAttempts int
	base        time.Duration
	max         time.Duration
}

func newRetryPolicy(cfg *config.Config) retryPolicy {
	return retryPolicy{
		maxAttempts: cfg.MaxRetries,
		base:        cfg.RetryBackoff,
		max:         cfg.RetryBackoffMax,
	}
}

// backoff returns the exponential delay before retry number attempt (1-based).
func (p retryPolicy) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := p.base
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if p.max > 0 && delay > p.max {
		delay = p.max
	}
	return delay
}

// sleepCtx sleeps for d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
