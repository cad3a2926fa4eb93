package providers

import "testing"

func TestValidateAcyclicDetectsCycle(t *testing.T) {
	catalog := ModelCatalog{
		Models: map[string]LLMModelSpec{
			"a": {ModelID: "a", Fallback: "b"},
			"b": {ModelID: "b", Fallback: "a"},
		},
	}

	if err := catalog.ValidateAcyclic(); err == nil {
		t.Error("ValidateAcyclic() should detect a→b→a cycle")
	}
}

func TestValidateAcyclicAcceptsLinearChain(t *testing.T) {
	catalog := ModelCatalog{
		Models: map[string]LLMModelSpec{
			"primary":  {ModelID: "primary", Fallback: "secondary"},
			"secondary": {ModelID: "secondary", Fallback: "tertiary"},
			"tertiary":  {ModelID: "tertiary"},
		},
	}

	if err := catalog.ValidateAcyclic(); err != nil {
		t.Errorf("ValidateAcyclic() = %v, want nil for a linear chain", err)
	}
}

func TestFallbackChainOrder(t *testing.T) {
	catalog := ModelCatalog{
		Models: map[string]LLMModelSpec{
			"primary":   {ModelID: "primary", Fallback: "secondary"},
			"secondary": {ModelID: "secondary", Fallback: "tertiary"},
			"tertiary":  {ModelID: "tertiary"},
		},
	}

	chain := catalog.FallbackChain("primary")
	want := []string{"primary", "secondary", "tertiary"}
	if len(chain) != len(want) {
		t.Fatalf("FallbackChain() = %v, want %v", chain, want)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Errorf("FallbackChain()[%d] = %q, want %q", i, chain[i], want[i])
		}
	}
}

func TestNewRegistryRejectsCyclicCatalog(t *testing.T) {
	catalog := ModelCatalog{
		Models: map[string]LLMModelSpec{
			"a": {ModelID: "a", Fallback: "a"},
		},
	}

	if _, err := NewRegistry(catalog); err == nil {
		t.Error("NewRegistry() should reject a self-referencing fallback")
	}
}

func TestRegistryGetAndSet(t *testing.T) {
	catalog := ModelCatalog{
		Models: map[string]LLMModelSpec{
			"router-model": {ModelID: "router-model", VisionCapable: true},
		},
	}
	reg, err := NewRegistry(catalog)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	mock := NewMockClient("router-model", true, MockResponse{Content: "{}"})
	reg.Set("router-model", mock)

	client, err := reg.Get("router-model")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if client != mock {
		t.Error("Get() should return the client installed via Set()")
	}

	if _, err := reg.Get("missing-model"); err == nil {
		t.Error("Get() should error for an unregistered model id")
	}
}
