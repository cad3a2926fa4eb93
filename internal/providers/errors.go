package providers

import "fmt"

// ErrorKind is the closed error taxonomy from spec.md §4.1/§7. Every
// Client implementation must surface one of these so internal/resilience
// can decide retry (C3) and fallover (C4) behavior without inspecting
// provider-specific error types.
type ErrorKind string

const (
	ErrorKindTransientHTTP ErrorKind = "transient_http" // 5xx, reset, timeout
	ErrorKindRateLimited   ErrorKind = "rate_limited"   // 429 / provider throttle
	ErrorKindAuthFailure   ErrorKind = "auth_failure"    // 401/403
	ErrorKindInvalidReq    ErrorKind = "invalid_request" // 400/422
	ErrorKindContentPolicy ErrorKind = "content_policy"  // provider refusal
	ErrorKindTerminalOther ErrorKind = "terminal_other"
)

// Retryable reports whether C3's Retry Handler should retry this kind.
// Only transient_http and rate_limited are retryable per spec.md §4.3;
// auth_failure, invalid_request, and content_policy are raised immediately.
func (k ErrorKind) Retryable() bool {
	return k == ErrorKindTransientHTTP || k == ErrorKindRateLimited
}

// ClassifiedError pairs a raw error with its ErrorKind classification.
type ClassifiedError struct {
	Kind  ErrorKind
	Cause error
}

func (e *ClassifiedError) Error() string {
	if e.Cause == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *ClassifiedError) Unwrap() error { return e.Cause }

// Classify wraps err with the given ErrorKind.
func Classify(kind ErrorKind, err error) *ClassifiedError {
	return &ClassifiedError{Kind: kind, Cause: err}
}

// ClassifyHTTPStatus maps an HTTP status code to an ErrorKind per spec.md §4.1.
func ClassifyHTTPStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return ErrorKindRateLimited
	case status == 401 || status == 403:
		return ErrorKindAuthFailure
	case status == 400 || status == 422:
		return ErrorKindInvalidReq
	case status >= 500:
		return ErrorKindTransientHTTP
	default:
		return ErrorKindTerminalOther
	}
}
