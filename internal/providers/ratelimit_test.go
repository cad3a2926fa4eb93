package providers

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterAllowsBurstUpToCapacity(t *testing.T) {
	rl := NewRateLimiter(60) // 1 token/sec, starts full

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 60; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait() call %d error = %v", i, err)
		}
	}

	status := rl.Status()
	if status.TotalConsumed != 60 {
		t.Errorf("TotalConsumed = %d, want 60", status.TotalConsumed)
	}
}

func TestRateLimiterBlocksUntilRefill(t *testing.T) {
	rl := NewRateLimiter(120) // 2 tokens/sec
	ctx := context.Background()

	// Drain all tokens.
	for i := 0; i < 120; i++ {
		if err := rl.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}

	start := time.Now()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	elapsed := time.Since(start)

	// Next token takes ~1/2 second to refill; allow generous slack for CI jitter.
	if elapsed < 200*time.Millisecond {
		t.Errorf("Wait() returned too early after %v, expected to block for refill", elapsed)
	}
}

func TestRateLimiterRespectsContextCancellation(t *testing.T) {
	rl := NewRateLimiter(1)
	ctx := context.Background()
	if err := rl.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Wait(cancelCtx); err == nil {
		t.Error("Wait() with cancelled context should return an error")
	}
}

func TestRateLimiterOneCallConsumesOneToken(t *testing.T) {
	rl := NewRateLimiter(10)
	before := rl.Status().TokensAvailable

	_ = rl.Wait(context.Background())

	after := rl.Status().TokensAvailable
	if before-after != 1 {
		t.Errorf("one call should consume exactly one token regardless of payload size, got delta %d", before-after)
	}
}
