// Package llm abstracts the text generator behind the edit pipeline.
//
// A Generator only performs the provider call. Cross-cutting concerns
// (timeouts, retries, logging) are layered on with Middleware.
package llm

import (
	"context"
	"errors"
	"time"
)

// Request is one completion: a system instruction, a user message and the
// per-call budget.
type Request struct {
	// Purpose names the call for logs ("plan", "snippet", "fallback").
	Purpose     string
	System      string
	User        string
	MaxTokens   int
	Temperature float32
	// Timeout bounds the call. Zero means no per-call bound beyond the
	// caller's context.
	Timeout time.Duration
}

// Generator turns a Request into raw completion text.
type Generator interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ErrEmptyCompletion is returned when the provider answers without text.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries a PermanentError.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}
