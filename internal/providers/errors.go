package providers

import (
	"fmt"

	"github.com/nexus-orchestrator/orchestrator/internal/apperr"
)

// Error carries provider, model, and optional HTTP status context around an
// apperr.Kind, matching the teacher's provider-level error-wrapping
// convention of a fluent .WithStatus(...) builder.
type Error struct {
	Err      *apperr.Error
	Provider string
	Model    string
	Status   int
}

func (e *Error) Error() string { return e.Err.Error() }

// Unwrap exposes the wrapped *apperr.Error, so apperr.KindOf reports its Kind.
func (e *Error) Unwrap() error { return e.Err }

// NewProviderError classifies cause into a Kind by sniffing common
// network/context signals, the same heuristic the original adapters use.
func NewProviderError(provider, model string, cause error) *Error {
	kind := apperr.KindTransport
	if cause != nil {
		switch cause.Error() {
		case "context deadline exceeded":
			kind = apperr.KindTimeout
		case "context canceled":
			kind = apperr.KindCancelled
		}
	}
	return &Error{
		Err:      apperr.Wrap(kind, fmt.Sprintf("%s provider error", provider), cause),
		Provider: provider,
		Model:    model,
	}
}

// WithStatus attaches an HTTP status code and reclassifies 4xx (other than
// 429) as refused rather than transport, matching the teacher's adapters.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	if status >= 400 && status < 500 && status != 429 {
		e.Err.Kind = apperr.KindRefused
	}
	return e
}
