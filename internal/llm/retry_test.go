package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type scriptedCompleter struct {
	errs  []error
	calls int
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return "", s.errs[idx]
	}
	return "ok", nil
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: true},
		{name: "5xx", err: &StatusError{Provider: "openai", StatusCode: 502, Message: "bad gateway"}, want: true},
		{name: "429", err: &StatusError{Provider: "gemini", StatusCode: 429, Message: "quota"}, want: true},
		{name: "4xx", err: &StatusError{Provider: "openai", StatusCode: 401, Message: "bad key"}, want: false},
		{name: "reset", err: errors.New("read: connection reset by peer"), want: true},
		{name: "other", err: errors.New("invalid prompt"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldRetry(tt.err); got != tt.want {
				t.Fatalf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithRetryRetriesTransientOnce(t *testing.T) {
	base := &scriptedCompleter{errs: []error{&StatusError{Provider: "openai", StatusCode: 503}}}
	c := retrying{base: base, delay: time.Millisecond}

	out, err := c.Complete(context.Background(), "prompt")
	if err != nil || out != "ok" {
		t.Fatalf("expected recovery on retry, got %q, %v", out, err)
	}
	if base.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", base.calls)
	}
}

func TestWithRetryDoesNotRetryPermanent(t *testing.T) {
	base := &scriptedCompleter{errs: []error{&StatusError{Provider: "openai", StatusCode: 400}}}
	c := retrying{base: base, delay: time.Millisecond}

	if _, err := c.Complete(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error")
	}
	if base.calls != 1 {
		t.Fatalf("expected 1 call, got %d", base.calls)
	}
}

func TestDisabled(t *testing.T) {
	if _, err := (Disabled{}).Complete(context.Background(), "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
