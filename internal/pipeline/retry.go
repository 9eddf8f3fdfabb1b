package pipeline

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// retryPolicy derives the per-attempt delay from a task.Definition's
// Retries/RetryBackoff/RetryJitter fields: the k-th retry sleeps
// retry_backoff·2^(k-1) + uniform[0, retry_jitter) seconds, with no sleep
// before attempt 0.
type retryPolicy struct {
	maxRetries int
	backoff    float64
	jitter     float64
	rng        *rand.Rand
}

func newRetryPolicy(maxRetries int, backoff, jitter float64) *retryPolicy {
	return &retryPolicy{
		maxRetries: maxRetries,
		backoff:    backoff,
		jitter:     jitter,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// delay returns the sleep duration before retry attempt k (k >= 1).
func (p *retryPolicy) delay(k int) time.Duration {
	base := p.backoff * math.Pow(2, float64(k-1))
	jitter := 0.0
	if p.jitter > 0 {
		jitter = p.rng.Float64() * p.jitter
	}
	seconds := base + jitter
	if seconds < 0 {
		seconds = 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// sleep waits for the retry delay, honoring cooperative cancellation.
func (p *retryPolicy) sleep(ctx context.Context, k int) error {
	d := p.delay(k)
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
