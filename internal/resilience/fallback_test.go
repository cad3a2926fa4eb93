package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackzampolin/extractd/internal/providers"
)

func newTestRegistry(t *testing.T, models ...string) *providers.Registry {
	t.Helper()
	catalog := providers.ModelCatalog{Models: map[string]providers.LLMModelSpec{}}
	for i, m := range models {
		spec := providers.LLMModelSpec{ModelID: m}
		if i+1 < len(models) {
			spec.Fallback = models[i+1]
		}
		catalog.Models[m] = spec
	}
	reg, err := providers.NewRegistry(catalog)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg
}

func TestChainFallsOverOnTerminalFailure(t *testing.T) {
	reg := newTestRegistry(t, "primary", "secondary")
	reg.Set("primary", providers.NewMockClient("primary", true, providers.MockResponse{Kind: providers.ErrorKindAuthFailure}))
	reg.Set("secondary", providers.NewMockClient("secondary", true, providers.MockResponse{Content: "from secondary"}))

	chain := NewChain(reg, RetryConfig{MaxAttempts: 1, InitialDelay: time.Millisecond})
	result, err := chain.Execute(context.Background(), "primary", func(client providers.Client) func(context.Context) (*providers.ChatResult, error) {
		return func(ctx context.Context) (*providers.ChatResult, error) {
			return client.Chat(ctx, &providers.ChatRequest{})
		}
	})

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Content != "from secondary" {
		t.Errorf("Content = %q, want %q", result.Content, "from secondary")
	}
}

func TestChainExhaustsWhenAllModelsFail(t *testing.T) {
	reg := newTestRegistry(t, "primary", "secondary")
	reg.Set("primary", providers.NewMockClient("primary", true, providers.MockResponse{Kind: providers.ErrorKindAuthFailure}))
	reg.Set("secondary", providers.NewMockClient("secondary", true, providers.MockResponse{Kind: providers.ErrorKindInvalidReq}))

	chain := NewChain(reg, RetryConfig{MaxAttempts: 1, InitialDelay: time.Millisecond})
	_, err := chain.Execute(context.Background(), "primary", func(client providers.Client) func(context.Context) (*providers.ChatResult, error) {
		return func(ctx context.Context) (*providers.ChatResult, error) {
			return client.Chat(ctx, &providers.ChatRequest{})
		}
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Execute() error = %v, want *ExhaustedError", err)
	}
	if len(exhausted.Attempts) != 2 {
		t.Errorf("Attempts = %d, want 2", len(exhausted.Attempts))
	}
}

func TestChainContentPolicyFallsOverImmediately(t *testing.T) {
	reg := newTestRegistry(t, "primary", "secondary")
	primary := providers.NewMockClient("primary", true, providers.MockResponse{Kind: providers.ErrorKindContentPolicy})
	reg.Set("primary", primary)
	reg.Set("secondary", providers.NewMockClient("secondary", true, providers.MockResponse{Content: "ok"}))

	chain := NewChain(reg, RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond})
	result, err := chain.Execute(context.Background(), "primary", func(client providers.Client) func(context.Context) (*providers.ChatResult, error) {
		return func(ctx context.Context) (*providers.ChatResult, error) {
			return client.Chat(ctx, &providers.ChatRequest{})
		}
	})

	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Content != "ok" {
		t.Errorf("Content = %q, want %q", result.Content, "ok")
	}
	// content_policy is not retryable, so primary should only be called once.
	if primary.Calls() != 1 {
		t.Errorf("primary.Calls() = %d, want 1 (content_policy must not retry the same model)", primary.Calls())
	}
}
