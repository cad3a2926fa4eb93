package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jackzampolin/extractd/internal/providers"
)

// CatalogDocument is the YAML shape from spec.md §6:
//
//	default_models: { router: id, extraction: id, summarizer: id }
//	providers:
//	  <name>: { base_url: <url>, api_key: ${ENV_VAR} }
//	models:
//	  <id>:
//	    provider: <name>
//	    token_limit: <int>
//	    is_vision_capable: <bool>
//	    fallback: <id | null>
//
// "providers" is this module's one addition to the spec's wire schema — an
// HTTP client needs a base URL per provider, which spec.md leaves implicit.
// api_key uses the ${ENV_VAR} syntax resolved by ResolveEnvVars, never a
// literal secret, per spec.md §6's "one API credential per provider, via
// environment variables whose names are provider-specific".
type CatalogDocument struct {
	DefaultModels DefaultModels            `yaml:"default_models"`
	Providers     map[string]ProviderEntry `yaml:"providers"`
	Models        map[string]ModelEntry    `yaml:"models"`
}

// DefaultModels assigns the router/extraction/summarizer roles to model ids.
type DefaultModels struct {
	Router     string `yaml:"router"`
	Extraction string `yaml:"extraction"`
	Summarizer string `yaml:"summarizer"`
}

// ProviderEntry configures one named LLM provider's transport.
type ProviderEntry struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// ModelEntry is one entry in the models map.
type ModelEntry struct {
	Provider        string `yaml:"provider"`
	TokenLimit      int    `yaml:"token_limit"`
	IsVisionCapable bool   `yaml:"is_vision_capable"`
	Fallback        string `yaml:"fallback"`
}

// LoadCatalog parses a YAML catalog document, resolving each model's API
// key from its provider's environment variable (spec.md §6: "absent
// credentials surface as auth_failure on first use" — so a missing env
// var is not itself a load error).
func LoadCatalog(data []byte) (*providers.ModelCatalog, error) {
	var doc CatalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse model catalog: %w", err)
	}

	catalog := &providers.ModelCatalog{
		DefaultRouter:     doc.DefaultModels.Router,
		DefaultExtractor:  doc.DefaultModels.Extraction,
		DefaultSummarizer: doc.DefaultModels.Summarizer,
		Models:            make(map[string]providers.LLMModelSpec, len(doc.Models)),
	}

	for id, entry := range doc.Models {
		providerEntry := doc.Providers[entry.Provider]
		catalog.Models[id] = providers.LLMModelSpec{
			ModelID:       id,
			Provider:      entry.Provider,
			BaseURL:       providerEntry.BaseURL,
			APIKey:        ResolveEnvVars(providerEntry.APIKey),
			TokenLimit:    entry.TokenLimit,
			VisionCapable: entry.IsVisionCapable,
			Fallback:      entry.Fallback,
		}
	}

	if err := catalog.ValidateAcyclic(); err != nil {
		return nil, err
	}
	if err := validateDefaultsExist(catalog); err != nil {
		return nil, err
	}
	if err := validateVisionCapableDefaults(catalog); err != nil {
		return nil, err
	}

	return catalog, nil
}

func validateDefaultsExist(catalog *providers.ModelCatalog) error {
	for role, id := range map[string]string{
		"router":     catalog.DefaultRouter,
		"extraction": catalog.DefaultExtractor,
		"summarizer": catalog.DefaultSummarizer,
	} {
		if id == "" {
			continue
		}
		if _, ok := catalog.Models[id]; !ok {
			return fmt.Errorf("default_models.%s references unknown model %q", role, id)
		}
	}
	return nil
}

// validateVisionCapableDefaults ensures the router default (which always
// sends page images) is vision-capable, per spec.md §6's "vision-capable
// models exist for any task that uses images".
func validateVisionCapableDefaults(catalog *providers.ModelCatalog) error {
	if catalog.DefaultRouter == "" {
		return nil
	}
	spec, ok := catalog.Models[catalog.DefaultRouter]
	if !ok {
		return fmt.Errorf("default_models.router references unknown model %q", catalog.DefaultRouter)
	}
	if !spec.VisionCapable {
		return fmt.Errorf("default_models.router %q must be vision-capable", catalog.DefaultRouter)
	}
	return nil
}
