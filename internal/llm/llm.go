package llm

import (
	"context"
	"errors"
	"fmt"
)

// Completer sends a single prompt to a model and returns its raw text response.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrNotConfigured is returned by Disabled.
var ErrNotConfigured = errors.New("LLM provider not configured")

// Disabled is used when no provider is configured; every call fails.
type Disabled struct{}

// Complete returns ErrNotConfigured.
func (Disabled) Complete(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	return "", ErrNotConfigured
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.StatusCode, e.Message)
}
