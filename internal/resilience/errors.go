package resilience

import (
	"errors"
)

// OverloadedError wraps a provider response that indicates temporary
// overload (e.g. Anthropic 529, Gemini 429/503). Only these errors are
// retried by the evaluator client; everything else propagates immediately.
type OverloadedError struct {
	Err        error
	StatusCode int
}

func (e *OverloadedError) Error() string {
	return e.Err.Error()
}

func (e *OverloadedError) Unwrap() error {
	return e.Err
}

// NewOverloadedError wraps an error as an overload signal with the
// originating HTTP status code.
func NewOverloadedError(err error, statusCode int) *OverloadedError {
	return &OverloadedError{Err: err, StatusCode: statusCode}
}

// IsOverloaded reports whether the error chain contains an OverloadedError.
func IsOverloaded(err error) bool {
	if err == nil {
		return false
	}
	var oe *OverloadedError
	return errors.As(err, &oe)
}

// IsOverloadedHTTPStatus reports whether the HTTP status code indicates a
// temporarily overloaded backend that is safe to retry.
func IsOverloadedHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 429, // Too Many Requests
		503, // Service Unavailable
		529: // Anthropic: Overloaded
		return true
	default:
		return false
	}
}
