package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/extractd/internal/chunk"
	"github.com/jackzampolin/extractd/internal/config"
	"github.com/jackzampolin/extractd/internal/extract"
	"github.com/jackzampolin/extractd/internal/llmcall"
	"github.com/jackzampolin/extractd/internal/orchestrate"
	"github.com/jackzampolin/extractd/internal/providers"
	"github.com/jackzampolin/extractd/internal/refine"
	"github.com/jackzampolin/extractd/internal/render"
	"github.com/jackzampolin/extractd/internal/resilience"
	"github.com/jackzampolin/extractd/internal/router"
	"github.com/jackzampolin/extractd/internal/strategy"
	"github.com/jackzampolin/extractd/internal/summarize"
)

// exit codes per spec.md §6.
const (
	exitSuccess        = 0
	exitUnrecoverable  = 1
	exitPartialSuccess = 2
)

// exitCode is set by runExtract on a non-error return; main.go reads it
// after Execute. A RunE error (invalid config, unreadable input) always
// maps to exitUnrecoverable via cobra's own error path in main.go instead,
// so the default here covers every other command (version, --help) too.
var exitCode = exitSuccess

func runExtract(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("unreadable input %s: %w", pdfPath, err)
	}

	mgr, err := config.NewManager(cfgFile, catalogFile)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	pipelineCfg := mgr.Pipeline()

	registry, err := providers.NewRegistry(*mgr.Catalog())
	if err != nil {
		return fmt.Errorf("invalid model catalog: %w", err)
	}

	mgr.OnCatalogChange(func(catalog *providers.ModelCatalog) {
		if err := registry.Reload(*catalog); err != nil {
			logger.Warn("extractd: reloaded catalog failed validation, keeping previous catalog", "error", err)
		}
	})
	watcher, err := mgr.WatchCatalog(logger)
	if err != nil {
		logger.Warn("extractd: failed to start catalog watcher, continuing without hot-reload", "path", catalogFile, "error", err)
	} else {
		defer watcher.Close()
	}

	retryCfg := resilience.RetryConfig{
		MaxAttempts:  pipelineCfg.RetryMaxAttempts,
		InitialDelay: pipelineCfg.RetryInitialDelay,
	}
	limiter := providers.NewRateLimiter(pipelineCfg.RateLimitPerMinute)
	recorder := llmcall.NewRecorder(llmcall.NewMemorySink())

	r := router.New(registry, retryCfg, logger)
	e := extract.New(registry, limiter, strategy.NewRegistry(), retryCfg, recorder, logger)
	a := refine.New(registry, retryCfg, refine.Config{
		Enabled:   pipelineCfg.IterativeRefinementEnabled,
		MaxCycles: pipelineCfg.MaxRefinementCycles,
	}, recorder, logger)
	o := orchestrate.New(r, e, a, pipelineCfg.ConcurrencyLimit, logger)

	pages, err := render.NewPDFRenderer().RenderFile(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", pdfPath, err)
	}

	result := o.ProcessDocument(cmd.Context(), pages)

	summarizer := summarize.New(registry, retryCfg, logger)
	execSummary := summarizer.Generate(cmd.Context(), result.Pages)

	chunks := chunk.New("en").ChunkPages(result.Pages)

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	if err := writeJSON(filepath.Join(outputDir, "extraction_results.json"), result); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outputDir, "executive_summary.json"), execSummary); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(outputDir, "chunks.json"), chunks); err != nil {
		return err
	}

	if len(result.Errors) > 0 || result.Cancelled {
		logger.Warn("extractd: completed with per-page errors", "error_count", len(result.Errors), "cancelled", result.Cancelled)
		exitCode = exitPartialSuccess
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
