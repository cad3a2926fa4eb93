package orchestrate

import (
	"context"
	"log/slog"
	"testing"

	"github.com/jackzampolin/extractd/internal/extract"
	"github.com/jackzampolin/extractd/internal/llmcall"
	"github.com/jackzampolin/extractd/internal/pageinput"
	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/refine"
	"github.com/jackzampolin/extractd/internal/resilience"
	"github.com/jackzampolin/extractd/internal/router"
	"github.com/jackzampolin/extractd/internal/strategy"
)

func newTestOrchestrator(t *testing.T, concurrency int) *Orchestrator {
	t.Helper()
	catalog := providers.ModelCatalog{
		DefaultRouter:    "router-model",
		DefaultExtractor: "extract-model",
		Models: map[string]providers.LLMModelSpec{
			"router-model":  {ModelID: "router-model", VisionCapable: true},
			"extract-model": {ModelID: "extract-model", VisionCapable: true},
		},
	}
	reg, err := providers.NewRegistry(catalog)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	reg.Set("router-model", providers.NewMockClient("router-model", true,
		providers.MockResponse{Content: `{"page_complexity":"moderate","recommended_strategies":["minimal"]}`}))
	reg.Set("extract-model", providers.NewMockClient("extract-model", true,
		providers.MockResponse{Content: `{"main_title":"T","page_summary":"S"}`}))

	recorder := llmcall.NewRecorder(llmcall.NewMemorySink())
	retryCfg := resilience.RetryConfig{MaxAttempts: 1}

	r := router.New(reg, retryCfg, slog.Default())
	limiter := providers.NewRateLimiter(6000)
	e := extract.New(reg, limiter, strategy.NewRegistry(), retryCfg, recorder, slog.Default())
	a := refine.New(reg, retryCfg, refine.Config{Enabled: false}, recorder, slog.Default())

	return New(r, e, a, concurrency, slog.Default())
}

func TestProcessDocumentReturnsOnePageResultPerPage(t *testing.T) {
	o := newTestOrchestrator(t, 2)
	pages := []*pageinput.PageInput{
		{PageIndex: 0, Text: "first"},
		{PageIndex: 1, Text: "second"},
		{PageIndex: 2, Text: "third"},
	}

	result := o.ProcessDocument(context.Background(), pages)
	if len(result.Pages) != 3 {
		t.Fatalf("Pages = %d, want 3", len(result.Pages))
	}
	for i, p := range result.Pages {
		if p.PageIndex != i {
			t.Errorf("Pages[%d].PageIndex = %d, want %d", i, p.PageIndex, i)
		}
		if p.SuccessfulSteps == 0 {
			t.Errorf("Pages[%d] should have at least one successful step", i)
		}
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %+v, want none", result.Errors)
	}
}

func TestProcessDocumentSinglePageFailureDoesNotCancelSiblings(t *testing.T) {
	catalog := providers.ModelCatalog{
		DefaultRouter:    "router-model",
		DefaultExtractor: "extract-model",
		Models: map[string]providers.LLMModelSpec{
			"router-model":  {ModelID: "router-model", VisionCapable: true},
			"extract-model": {ModelID: "extract-model", VisionCapable: true},
		},
	}
	reg, err := providers.NewRegistry(catalog)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	reg.Set("router-model", providers.NewMockClient("router-model", true,
		providers.MockResponse{Content: `{"page_complexity":"moderate","recommended_strategies":["minimal"]}`}))
	// Every extraction call fails terminally; this must still yield a
	// PageResult per page (zero successful steps), not abort the document.
	reg.Set("extract-model", providers.NewMockClient("extract-model", true,
		providers.MockResponse{Kind: providers.ErrorKindAuthFailure}))

	recorder := llmcall.NewRecorder(llmcall.NewMemorySink())
	retryCfg := resilience.RetryConfig{MaxAttempts: 1}
	r := router.New(reg, retryCfg, slog.Default())
	limiter := providers.NewRateLimiter(6000)
	e := extract.New(reg, limiter, strategy.NewRegistry(), retryCfg, recorder, slog.Default())
	a := refine.New(reg, retryCfg, refine.Config{Enabled: false}, recorder, slog.Default())
	o := New(r, e, a, 2, slog.Default())

	pages := []*pageinput.PageInput{{PageIndex: 0}, {PageIndex: 1}}
	result := o.ProcessDocument(context.Background(), pages)

	if len(result.Pages) != 2 {
		t.Fatalf("Pages = %d, want 2 even though all extractions failed", len(result.Pages))
	}
	for _, p := range result.Pages {
		if p.SuccessfulSteps != 0 {
			t.Errorf("expected SuccessfulSteps=0, got %d", p.SuccessfulSteps)
		}
	}
}
