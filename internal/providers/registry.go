package providers

import (
	"fmt"
	"sync"
)

// LLMModelSpec describes one entry in the model catalog (spec.md §3/§6).
type LLMModelSpec struct {
	ModelID       string
	Provider      string
	BaseURL       string
	APIKey        string
	TokenLimit    int
	VisionCapable bool
	Fallback      string // model_id, or "" for none
}

// ModelCatalog is the validated set of models plus default role
// assignments, as loaded from the YAML document in spec.md §6.
type ModelCatalog struct {
	DefaultRouter    string
	DefaultExtractor string
	DefaultSummarizer string
	Models           map[string]LLMModelSpec
}

// ValidateAcyclic walks every model's Fallback chain and returns an error
// if any chain cycles, per spec.md §3's "fallback chains form a finite
// acyclic walk" invariant.
func (c *ModelCatalog) ValidateAcyclic() error {
	for id := range c.Models {
		visited := map[string]bool{}
		cur := id
		for cur != "" {
			if visited[cur] {
				return fmt.Errorf("fallback cycle detected starting at model %q", id)
			}
			visited[cur] = true
			spec, ok := c.Models[cur]
			if !ok {
				return fmt.Errorf("model %q references unknown fallback target", cur)
			}
			cur = spec.Fallback
		}
	}
	return nil
}

// FallbackChain returns the deterministic, acyclic walk of model ids
// starting at id, per spec.md §4.4 ("YAML-declared" ordering).
func (c *ModelCatalog) FallbackChain(id string) []string {
	var chain []string
	seen := map[string]bool{}
	cur := id
	for cur != "" && !seen[cur] {
		seen[cur] = true
		chain = append(chain, cur)
		spec, ok := c.Models[cur]
		if !ok {
			break
		}
		cur = spec.Fallback
	}
	return chain
}

// Registry holds one Client per configured model id. It is built once at
// startup from a ModelCatalog and is safe for concurrent read access from
// every page-processing goroutine (spec.md §9: "pass them explicitly
// through a context object; do not place them in module-level mutables").
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
	catalog ModelCatalog
}

// NewRegistry builds a Registry, constructing one HTTPClient per entry in
// the catalog. Returns an error if the catalog fails validation.
func NewRegistry(catalog ModelCatalog) (*Registry, error) {
	if err := catalog.ValidateAcyclic(); err != nil {
		return nil, err
	}

	clients := make(map[string]Client, len(catalog.Models))
	for id, spec := range catalog.Models {
		clients[id] = NewHTTPClient(HTTPClientConfig{
			Name:          id,
			BaseURL:       spec.BaseURL,
			APIKey:        spec.APIKey,
			Model:         spec.ModelID,
			VisionCapable: spec.VisionCapable,
		})
	}
	return &Registry{clients: clients, catalog: catalog}, nil
}

// Get returns the Client for a model id.
func (r *Registry) Get(modelID string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[modelID]
	if !ok {
		return nil, fmt.Errorf("no client registered for model %q", modelID)
	}
	return c, nil
}

// Set overrides or injects a client (used by tests to splice in a MockClient).
func (r *Registry) Set(modelID string, c Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[modelID] = c
}

// Reload rebuilds the client set from a freshly loaded catalog, replacing
// the registry's clients and catalog atomically. Used by
// internal/config.Manager.WatchCatalog's reload callback so a long-running
// extraction can pick up a fixed API key or a new fallback chain without a
// restart.
func (r *Registry) Reload(catalog ModelCatalog) error {
	if err := catalog.ValidateAcyclic(); err != nil {
		return err
	}

	clients := make(map[string]Client, len(catalog.Models))
	for id, spec := range catalog.Models {
		clients[id] = NewHTTPClient(HTTPClientConfig{
			Name:          id,
			BaseURL:       spec.BaseURL,
			APIKey:        spec.APIKey,
			Model:         spec.ModelID,
			VisionCapable: spec.VisionCapable,
		})
	}

	r.mu.Lock()
	r.clients = clients
	r.catalog = catalog
	r.mu.Unlock()
	return nil
}

// Spec returns the LLMModelSpec for a model id.
func (r *Registry) Spec(modelID string) (LLMModelSpec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.catalog.Models[modelID]
	return spec, ok
}

// FallbackChain delegates to the underlying catalog.
func (r *Registry) FallbackChain(modelID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog.FallbackChain(modelID)
}

// DefaultRouter, DefaultExtractor, DefaultSummarizer return the
// default_models role assignments from the catalog.
func (r *Registry) DefaultRouter() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog.DefaultRouter
}

func (r *Registry) DefaultExtractor() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog.DefaultExtractor
}

func (r *Registry) DefaultSummarizer() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog.DefaultSummarizer
}
