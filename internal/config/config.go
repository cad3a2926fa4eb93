// Package config loads the pipeline's runtime settings and model catalog,
// grounded on the teacher's internal/config Manager/viper pattern, extended
// with hot-reload of the model catalog file via fsnotify.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/jackzampolin/extractd/internal/providers"
)

// PipelineConfig covers spec.md §3's tunables.
type PipelineConfig struct {
	ConcurrencyLimit           int           `mapstructure:"concurrency_limit"`
	RateLimitPerMinute         int           `mapstructure:"rate_limit_per_minute"`
	RetryMaxAttempts           int           `mapstructure:"retry_max_attempts"`
	RetryInitialDelay          time.Duration `mapstructure:"retry_initial_delay"`
	IterativeRefinementEnabled bool          `mapstructure:"iterative_refinement_enabled"`
	MaxRefinementCycles        int           `mapstructure:"max_refinement_cycles"`
}

// DefaultPipelineConfig returns the conservative defaults spec.md §3
// implies when a field is omitted from the config file.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ConcurrencyLimit:           5,
		RateLimitPerMinute:         60,
		RetryMaxAttempts:           3,
		RetryInitialDelay:          time.Second,
		IterativeRefinementEnabled: true,
		MaxRefinementCycles:        2,
	}
}

// Validate enforces spec.md §3's field-level invariants.
func (c PipelineConfig) Validate() error {
	if c.ConcurrencyLimit < 1 {
		return errors.New("concurrency_limit must be >= 1")
	}
	if c.RateLimitPerMinute < 1 {
		return errors.New("rate_limit_per_minute must be >= 1")
	}
	if c.RetryMaxAttempts < 1 {
		return errors.New("retry_max_attempts must be >= 1")
	}
	if c.RetryInitialDelay <= 0 {
		return errors.New("retry_initial_delay must be > 0")
	}
	if c.MaxRefinementCycles < 0 {
		return errors.New("max_refinement_cycles must be >= 0")
	}
	return nil
}

// Manager loads PipelineConfig and the model catalog, and hot-reloads the
// catalog file on change (spec.md doesn't require live pipeline-setting
// reload, only the catalog is watched — see watch.go).
type Manager struct {
	mu          sync.RWMutex
	pipeline    PipelineConfig
	catalog     *providers.ModelCatalog
	catalogPath string
	callbacks   []func(*providers.ModelCatalog)
}

// NewManager loads pipeline settings from cfgFile (or, if empty, from
// extractd.yaml in the working directory or $HOME/.extractd, plus
// EXTRACTD_* env vars) and the model catalog from catalogFile.
func NewManager(cfgFile, catalogFile string) (*Manager, error) {
	m := &Manager{catalogPath: catalogFile}

	if err := initViper(cfgFile); err != nil {
		return nil, err
	}

	pipeline := DefaultPipelineConfig()
	if err := viper.Unmarshal(&pipeline); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pipeline config: %w", err)
	}
	if err := pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	m.pipeline = pipeline

	catalog, err := loadCatalogFile(catalogFile)
	if err != nil {
		return nil, err
	}
	m.catalog = catalog

	return m, nil
}

func initViper(cfgFile string) error {
	defaults := DefaultPipelineConfig()
	viper.SetDefault("concurrency_limit", defaults.ConcurrencyLimit)
	viper.SetDefault("rate_limit_per_minute", defaults.RateLimitPerMinute)
	viper.SetDefault("retry_max_attempts", defaults.RetryMaxAttempts)
	viper.SetDefault("retry_initial_delay", defaults.RetryInitialDelay)
	viper.SetDefault("iterative_refinement_enabled", defaults.IterativeRefinementEnabled)
	viper.SetDefault("max_refinement_cycles", defaults.MaxRefinementCycles)

	viper.SetEnvPrefix("EXTRACTD")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("extractd")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.extractd")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

func loadCatalogFile(path string) (*providers.ModelCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model catalog %s: %w", path, err)
	}
	return LoadCatalog(data)
}

// Pipeline returns the loaded pipeline settings (immutable after load).
func (m *Manager) Pipeline() PipelineConfig {
	return m.pipeline
}

// Catalog returns the current model catalog (thread-safe against reload).
func (m *Manager) Catalog() *providers.ModelCatalog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.catalog
}

// OnCatalogChange registers a callback invoked with the newly reloaded
// catalog whenever the catalog file changes on disk.
func (m *Manager) OnCatalogChange(fn func(*providers.ModelCatalog)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
}

// ResolveEnvVars expands ${ENV_VAR} references in a string, per spec.md §6.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}
