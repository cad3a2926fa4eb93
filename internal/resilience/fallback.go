package resilience

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackzampolin/extractd/internal/providers"
)

// Attempt records one model's outcome within a FallbackChain.Execute call,
// grounded on the attempt-log shape of original_source's FallbackChain.
type Attempt struct {
	ModelID string
	Kind    providers.ErrorKind
	Detail  string
}

// ExhaustedError is raised when every model in the chain fails terminally
// (spec.md §4.4/§7: fallback_exhausted).
type ExhaustedError struct {
	Attempts []Attempt
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s(%s): %s", a.ModelID, a.Kind, a.Detail)
	}
	return "fallback_exhausted: " + strings.Join(parts, "; ")
}

// Registry is the subset of providers.Registry that FallbackChain needs.
type Registry interface {
	Get(modelID string) (providers.Client, error)
	FallbackChain(modelID string) []string
}

// Chain walks a model's fallback chain, retrying each model with the
// Retry Handler and falling over to the next model on terminal failure
// (spec.md §4.4). It never retries a model already attempted in the same
// Execute call, relying on the catalog's acyclicity invariant.
type Chain struct {
	Registry Registry
	Retry    RetryConfig
}

// NewChain builds a Chain over the given registry and retry config.
func NewChain(registry Registry, retry RetryConfig) *Chain {
	return &Chain{Registry: registry, Retry: retry}
}

// Execute tries each model in startModel's fallback chain in order,
// invoking build(client) with that model's Client to get a bound call function, routing each
// attempt through Retry. Returns the first success, or an *ExhaustedError
// listing every attempted model and its terminal cause.
func (c *Chain) Execute(ctx context.Context, startModel string, build func(client providers.Client) func(ctx context.Context) (*providers.ChatResult, error)) (*providers.ChatResult, error) {
	chain := c.Registry.FallbackChain(startModel)
	if len(chain) == 0 {
		chain = []string{startModel}
	}

	var attempts []Attempt
	for _, modelID := range chain {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		client, err := c.Registry.Get(modelID)
		if err != nil {
			attempts = append(attempts, Attempt{ModelID: modelID, Kind: providers.ErrorKindTerminalOther, Detail: err.Error()})
			continue
		}

		result, callErr := Retry(ctx, c.Retry, build(client))
		if callErr == nil && result != nil && result.Success {
			return result, nil
		}

		kind := providers.ErrorKindTerminalOther
		detail := "unknown error"
		var classified *providers.ClassifiedError
		if errors.As(callErr, &classified) {
			kind = classified.Kind
			detail = classified.Error()
		} else if callErr != nil {
			detail = callErr.Error()
		}
		attempts = append(attempts, Attempt{ModelID: modelID, Kind: kind, Detail: detail})

		// content_policy refusals fall over immediately rather than being
		// retried with a softened prompt — spec.md §9 fixes this.
	}

	return nil, &ExhaustedError{Attempts: attempts}
}
