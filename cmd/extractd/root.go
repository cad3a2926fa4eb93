package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/extractd/version"
)

var (
	cfgFile     string
	catalogFile string
	outputDir   string
)

var rootCmd = &cobra.Command{
	Use:   "extractd <pdf_path>",
	Short: "Intelligent document extraction pipeline",
	Long: `extractd turns a PDF into structured page records using LLM-routed
extraction strategies with bounded concurrency, rate limiting, and provider
fallback.

The pipeline:
  - classifies each page with a router model and picks extraction strategies
  - runs extraction steps sequentially per page, pages in parallel
  - merges strategy outputs and iteratively refines under-extracted pages
  - emits extraction_results.json, executive_summary.json, chunks.json`,
	Version: version.GitRelease,
	Args:    cobra.ExactArgs(1),
	RunE:    runExtract,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "pipeline config file (default: ./extractd.yaml)")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "models.yaml", "model catalog YAML file")
	rootCmd.Flags().StringVar(&outputDir, "output_dir", ".", "directory to write extraction_results.json, executive_summary.json, chunks.json")

	rootCmd.AddCommand(versionCmd)
}
