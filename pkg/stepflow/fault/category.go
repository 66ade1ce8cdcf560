// Package fault classifies execution errors and provides a generic
// backoff retry helper. The step interpreter uses the classification to
// decide whether a failed Invoke node may be re-attempted on a later
// advance call or must fail the run outright.
package fault

import (
	"context"
	"errors"
	"fmt"
)

// Category says how an error should be handled.
type Category int

const (
	// Transient means a retry will likely help: rate limits, timeouts,
	// provider hiccups.
	Transient Category = iota

	// Permanent means a retry won't help: bad configuration, invalid
	// input, cancelled context.
	Permanent
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// retryable is implemented by errors that know their own transience,
// such as llm.ProviderError.
type retryable interface {
	Retryable() bool
}

// Categorized wraps an error with an explicit category.
type Categorized struct {
	Err      error
	Category Category
	Attempts int
	Context  string
}

// Error implements the error interface.
func (e *Categorized) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Attempts)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)", e.Err, e.Category, e.Attempts)
}

// Unwrap returns the underlying error.
func (e *Categorized) Unwrap() error {
	return e.Err
}

// AsTransient marks err as transient.
func AsTransient(err error, context string) *Categorized {
	return &Categorized{Err: err, Category: Transient, Context: context}
}

// AsPermanent marks err as permanent.
func AsPermanent(err error, context string) *Categorized {
	return &Categorized{Err: err, Category: Permanent, Context: context}
}

// Categorize determines how an error should be handled.
// Explicit categories win; errors implementing Retryable() are consulted
// next; cancelled contexts and everything unknown are permanent.
func Categorize(err error) Category {
	if err == nil {
		return Permanent
	}

	var cat *Categorized
	if errors.As(err, &cat) {
		return cat.Category
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		if r, ok := e.(retryable); ok {
			if r.Retryable() {
				return Transient
			}
			return Permanent
		}
	}

	if errors.Is(err, context.Canceled) {
		return Permanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// A timeout around an external call is retryable by contract.
		return Transient
	}

	return Permanent
}

// IsRetryable reports whether the error is worth re-attempting.
func IsRetryable(err error) bool {
	return Categorize(err) == Transient
}
