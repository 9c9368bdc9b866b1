package threads

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy is an explicit retry value so the backoff behavior can be
// unit-tested with a fake failing call, independent of any network code.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// BaseDelay is doubled after each failed attempt, capped at MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// MaxJitter bounds the uniform random delay added on top of the
	// exponential backoff.
	MaxJitter time.Duration
}

// DefaultRetryPolicy matches the outbound call contract: 3 attempts,
// exponential backoff base 1s capped at 4s, up to 1s of jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    4 * time.Second,
		MaxJitter:   time.Second,
	}
}

// Backoff returns the sleep before the given retry (attempt is 0-based:
// the delay after the first failure is Backoff(0)).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay << uint(attempt)
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	if p.MaxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}
	return delay
}

// Do runs call up to MaxAttempts times, sleeping Backoff between
// attempts. The final error propagates unchanged.
func (p RetryPolicy) Do(ctx context.Context, call func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = call(ctx); err == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(p.Backoff(attempt)):
		}
	}
	return err
}
