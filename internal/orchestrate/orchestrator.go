// Package orchestrate implements C10: driving every page of a document
// through route → extract → merge → refine-loop → emit, bounded by a
// page-level concurrency semaphore that is orthogonal to the shared LLM
// call-rate limiter (spec.md §4.10/§5).
//
// Grounded on original_source/backend/processing/parallel_processor.py's
// asyncio.Semaphore + asyncio.gather(..., return_exceptions=True) shape,
// rebuilt on golang.org/x/sync/errgroup + golang.org/x/sync/semaphore so a
// single page's failure never cancels sibling pages.
package orchestrate

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jackzampolin/extractd/internal/extract"
	"github.com/jackzampolin/extractd/internal/merge"
	"github.com/jackzampolin/extractd/internal/pageinput"
	"github.com/jackzampolin/extractd/internal/refine"
	"github.com/jackzampolin/extractd/internal/router"
	"github.com/jackzampolin/extractd/internal/types"
)

// ErrorRecord captures a single page's unrecoverable failure without
// aborting the rest of the document (spec.md §7).
type ErrorRecord struct {
	PageIndex int    `json:"page_index"`
	Kind      string `json:"kind"`
	Detail    string `json:"detail"`
}

// Result is the aggregate the Orchestrator returns for a document.
type Result struct {
	Pages     []types.PageResult `json:"pages"`
	Errors    []ErrorRecord      `json:"errors"`
	Cancelled bool               `json:"cancelled"`
}

// Orchestrator drives every page of a document through the pipeline.
type Orchestrator struct {
	Router           *router.Router
	Extractor        *extract.Extractor
	Analyzer         *refine.Analyzer
	ConcurrencyLimit int64
	Logger           *slog.Logger
}

// New builds an Orchestrator bound to the given collaborators.
func New(r *router.Router, e *extract.Extractor, a *refine.Analyzer, concurrencyLimit int, logger *slog.Logger) *Orchestrator {
	if concurrencyLimit <= 0 {
		concurrencyLimit = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{Router: r, Extractor: e, Analyzer: a, ConcurrencyLimit: int64(concurrencyLimit), Logger: logger}
}

// ProcessDocument runs every page through the pipeline. The page-level
// semaphore bounds pages in flight; the rate limiter inside the Extractor
// independently bounds extraction calls per minute across all pages. The
// Router's and the refinement Analyzer's LLM calls do not pass through
// the rate limiter.
func (o *Orchestrator) ProcessDocument(ctx context.Context, pages []*pageinput.PageInput) Result {
	sem := semaphore.NewWeighted(o.ConcurrencyLimit)
	group, groupCtx := errgroup.WithContext(ctx)

	results := make([]types.PageResult, len(pages))
	var mu sync.Mutex
	var errRecords []ErrorRecord

	for i, page := range pages {
		i, page := i, page
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				mu.Lock()
				errRecords = append(errRecords, ErrorRecord{PageIndex: page.PageIndex, Kind: "cancelled", Detail: err.Error()})
				mu.Unlock()
				return nil
			}
			defer sem.Release(1)

			result, errRecord := o.processPage(groupCtx, page)
			mu.Lock()
			results[i] = result
			if errRecord != nil {
				errRecords = append(errRecords, *errRecord)
			}
			mu.Unlock()
			return nil
		})
	}

	_ = group.Wait() // page tasks never return an error themselves; failures are captured above

	sort.Slice(errRecords, func(i, j int) bool { return errRecords[i].PageIndex < errRecords[j].PageIndex })

	return Result{
		Pages:     results,
		Errors:    errRecords,
		Cancelled: errors.Is(ctx.Err(), context.Canceled),
	}
}

func (o *Orchestrator) processPage(ctx context.Context, page *pageinput.PageInput) (types.PageResult, *ErrorRecord) {
	plan := o.Router.Plan(ctx, page)
	wasRouted := !planIsFallback(plan)

	results := o.Extractor.Run(ctx, page, plan)

	complexity := plan.PageComplexity
	pageResult := merge.Merge(page.PageIndex, complexity, results, wasRouted, 0)

	tried := map[string]bool{}
	cycle := 0
	for {
		if err := ctx.Err(); err != nil {
			return pageResult, &ErrorRecord{PageIndex: page.PageIndex, Kind: "cancelled", Detail: err.Error()}
		}

		newSteps, refineNeeded := o.Analyzer.Decide(ctx, page.PageIndex, pageResult, cycle, tried)
		if !refineNeeded {
			break
		}

		extendedPlan := &types.ExtractionPlan{PageIndex: page.PageIndex, Steps: newSteps}
		newResults := o.Extractor.Run(ctx, page, extendedPlan)
		results = append(results, newResults...)
		cycle++

		pageResult = merge.Merge(page.PageIndex, complexity, results, wasRouted, cycle)
	}

	return pageResult, nil
}

func planIsFallback(plan *types.ExtractionPlan) bool {
	for _, step := range plan.Steps {
		if step.IsFallback {
			return true
		}
	}
	return false
}
