package llmcall

import "github.com/jackzampolin/extractd/internal/providers"

// Recorder handles fire-and-forget LLM call recording via a Sink, grounded
// on internal/llmcall/recorder.go in the teacher.
type Recorder struct {
	sink Sink
}

// NewRecorder creates a Recorder writing to sink. A nil sink makes Record a no-op.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Record captures an LLM call.
func (r *Recorder) Record(result *providers.ChatResult, opts RecordOptions) {
	if r == nil || r.sink == nil {
		return
	}
	if call := FromChatResult(result, opts); call != nil {
		r.sink.Send(call)
	}
}
