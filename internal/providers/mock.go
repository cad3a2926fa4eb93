package providers

import (
	"context"
	"sync"
	"time"
)

// MockClient is a scripted Client for hermetic tests of the Router,
// Extractor, resilience wrappers, etc. Grounded on internal/providers/mock.go
// in the teacher.
type MockClient struct {
	mu sync.Mutex

	name          string
	visionCapable bool

	// Responses is consumed in order, one per Chat call. When exhausted,
	// the last entry is reused so long-running loops don't panic.
	Responses []MockResponse
	calls     int
}

// MockResponse scripts one Chat call's outcome.
type MockResponse struct {
	Content string
	Kind    ErrorKind // empty means success
	Err     error
	Delay   time.Duration
}

// NewMockClient creates a MockClient with the given scripted responses.
func NewMockClient(name string, visionCapable bool, responses ...MockResponse) *MockClient {
	return &MockClient{name: name, visionCapable: visionCapable, Responses: responses}
}

func (m *MockClient) Name() string        { return m.name }
func (m *MockClient) VisionCapable() bool { return m.visionCapable }

// Calls returns how many times Chat has been invoked.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	var resp MockResponse
	if len(m.Responses) > 0 {
		if idx < len(m.Responses) {
			resp = m.Responses[idx]
		} else {
			resp = m.Responses[len(m.Responses)-1]
		}
	}
	m.mu.Unlock()

	if resp.Delay > 0 {
		timer := time.NewTimer(resp.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if resp.Kind != "" {
		err := resp.Err
		if err == nil {
			err = Classify(resp.Kind, nil)
		}
		return &ChatResult{
			Provider:     m.name,
			Success:      false,
			Kind:         resp.Kind,
			ErrorMessage: err.Error(),
		}, err
	}

	model := req.Model
	if model == "" {
		model = m.name
	}
	return &ChatResult{
		Content:   resp.Content,
		Provider:  m.name,
		ModelUsed: model,
		Success:   true,
	}, nil
}
