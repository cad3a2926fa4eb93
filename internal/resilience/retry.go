// Package resilience implements the Retry Handler (spec component C3) and
// the Fallback Chain (C4) as orthogonal higher-order wrappers over a single
// "call one model once" primitive, composed as Chain(Retry(RawCall)).
// Rate limiting is not one of these layers: the Extractor waits on the
// rate limiter once per step before entering the chain, so retries and
// fallback attempts within a step are not gated by it.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	retrygo "github.com/avast/retry-go/v4"

	"github.com/jackzampolin/extractd/internal/providers"
)

// RetryConfig mirrors the retry_* fields of spec.md §3's PipelineConfig.
type RetryConfig struct {
	MaxAttempts   int           // inclusive of the initial try
	InitialDelay  time.Duration // backoff doubles per retry
}

// Retry wraps fn with bounded retries per spec.md §4.3: the first attempt
// runs immediately and retry r (1-indexed) sleeps initial_delay * 2^(r-1)
// with ±20% jitter, retries only on ErrorKindTransientHTTP/
// ErrorKindRateLimited, and never retries auth_failure/invalid_request/
// content_policy. The final failure surfaces the last error, wrapped with
// the number of attempts made.
func Retry(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (*providers.ChatResult, error)) (*providers.ChatResult, error) {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	initialDelay := cfg.InitialDelay
	if initialDelay <= 0 {
		initialDelay = time.Second
	}

	var result *providers.ChatResult
	attempts := 0

	err := retrygo.Do(
		func() error {
			attempts++
			r, callErr := fn(ctx)
			result = r
			return callErr
		},
		retrygo.Context(ctx),
		retrygo.Attempts(uint(maxAttempts)),
		retrygo.LastErrorOnly(true),
		retrygo.RetryIf(func(err error) bool {
			return isRetryable(err)
		}),
		retrygo.DelayType(func(n uint, _ error, _ *retrygo.Config) time.Duration {
			return backoffWithJitter(initialDelay, n)
		}),
	)
	if err != nil {
		return result, fmt.Errorf("after %d attempt(s): %w", attempts, err)
	}
	return result, nil
}

// backoffWithJitter computes initial_delay * 2^n with +/-20% jitter,
// n being the zero-indexed retry number (n=0 is the delay before the
// second attempt, so the first retry waits about initial_delay).
func backoffWithJitter(initial time.Duration, n uint) time.Duration {
	base := float64(initial) * float64(uint64(1)<<n)
	jitter := base * (0.8 + 0.4*rand.Float64()) // [0.8, 1.2) of base
	return time.Duration(jitter)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var classified *providers.ClassifiedError
	if !errors.As(err, &classified) {
		return false
	}
	return classified.Kind.Retryable()
}
