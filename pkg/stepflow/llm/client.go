// Package llm defines the completion port consumed by LLM nodes, plus a
// CLI-backed client. The engine never talks to a provider directly; it only
// sees this interface, so tests and alternative providers plug in freely.
package llm

import (
	"context"
	"fmt"
)

// Client produces completions. Implementations must be safe for
// concurrent use; the engine may drive many runs at once.
type Client interface {
	// Complete performs a single completion call.
	// Failures surface as *ProviderError.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ProviderError reports a failed provider call.
type ProviderError struct {
	// Op is the operation that failed, e.g. "complete".
	Op string
	// Err is the underlying cause.
	Err error
	// Transient marks failures a retry may fix (rate limits, network).
	Transient bool
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a retry may help. Consumed by fault.Categorize.
func (e *ProviderError) Retryable() bool {
	return e.Transient
}

// NewError builds a ProviderError.
func NewError(op string, err error, transient bool) *ProviderError {
	return &ProviderError{Op: op, Err: err, Transient: transient}
}
