package llmcall

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
)

// Sink accepts recorded Calls. Grounded on the teacher's defra.Sink
// interface shape but backed by an in-memory slice / JSONL writer instead
// of a DefraDB write queue, since this module has no persistence layer
// (spec.md §1 Non-goals).
type Sink interface {
	Send(call *Call)
}

// MemorySink accumulates every recorded Call in process memory, useful for
// tests and for a CLI run that dumps the trace at the end.
type MemorySink struct {
	mu    sync.Mutex
	calls []*Call
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Send(call *Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

// Calls returns a snapshot of every call recorded so far.
func (s *MemorySink) Calls() []*Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// JSONLSink writes each recorded Call as one JSON line to an underlying
// writer (e.g. a trace file next to extraction_results.json).
type JSONLSink struct {
	mu     sync.Mutex
	w      io.Writer
	logger *slog.Logger
}

// NewJSONLSink wraps w as a line-delimited JSON call sink.
func NewJSONLSink(w io.Writer, logger *slog.Logger) *JSONLSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONLSink{w: w, logger: logger}
}

func (s *JSONLSink) Send(call *Call) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(call)
	if err != nil {
		s.logger.Warn("llmcall: failed to serialize call record", "error", err, "call_id", call.ID)
		return
	}
	data = append(data, '\n')
	if _, err := s.w.Write(data); err != nil {
		s.logger.Warn("llmcall: failed to write call record", "error", err, "call_id", call.ID)
	}
}
