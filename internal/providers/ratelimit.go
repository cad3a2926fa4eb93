package providers

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket gating LLM call rate (spec component C2).
// Capacity equals rate_limit_per_minute; replenishment is continuous at
// rate_limit_per_minute/60 tokens per second. One call consumes exactly
// one token regardless of prompt size — the bucket protects call rate,
// not byte rate (spec.md §4.2).
type RateLimiter struct {
	mu sync.Mutex

	perMinute int
	tokens    float64
	lastFill  time.Time

	totalConsumed int64
	totalWaited   time.Duration
	last429       time.Time
}

// NewRateLimiter creates a limiter starting at full capacity.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{
		perMinute: perMinute,
		tokens:    float64(perMinute),
		lastFill:  time.Now(),
	}
}

// Status reports a snapshot of the limiter's internal state.
type Status struct {
	TokensAvailable int
	TokensLimit     int
	TotalConsumed   int64
	TotalWaited     time.Duration
	Last429         time.Time
}

// Wait blocks the caller until one token is available or ctx is done.
// It never busy-polls: each pass computes the exact wait for the next
// token and sleeps once against ctx.Done(), satisfying spec.md §4.2's
// "suspends the caller cooperatively ... does not poll-spin".
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait, ok := r.tryConsumeOrWait()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			r.mu.Lock()
			r.totalWaited += wait
			r.mu.Unlock()
		}
	}
}

// tryConsumeOrWait refills, consumes a token if available, and otherwise
// returns the exact duration until the next token would exist.
func (r *RateLimiter) tryConsumeOrWait() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refillLocked()

	if r.tokens >= 1.0 {
		r.tokens--
		r.totalConsumed++
		return 0, true
	}

	refillRate := float64(r.perMinute) / 60.0
	needed := 1.0 - r.tokens
	return time.Duration(needed / refillRate * float64(time.Second)), false
}

// Record429 should be called when a provider returns a rate-limit error.
// If the provider supplied a Retry-After, we drain the bucket so the next
// Wait call backs off rather than immediately re-attempting.
func (r *RateLimiter) Record429(retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last429 = time.Now()
	if retryAfter > 0 {
		r.tokens = 0
	}
}

// Status returns a point-in-time snapshot for observability.
func (r *RateLimiter) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refillLocked()
	return Status{
		TokensAvailable: int(r.tokens),
		TokensLimit:     r.perMinute,
		TotalConsumed:   r.totalConsumed,
		TotalWaited:     r.totalWaited,
		Last429:         r.last429,
	}
}

func (r *RateLimiter) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(r.lastFill).Seconds()
	r.lastFill = now

	refillRate := float64(r.perMinute) / 60.0
	r.tokens += elapsed * refillRate
	if r.tokens > float64(r.perMinute) {
		r.tokens = float64(r.perMinute)
	}
}
