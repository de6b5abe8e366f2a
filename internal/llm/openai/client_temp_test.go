package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"resume-builder/internal/llm"
)

func serve(t *testing.T, status int, body string) (*sync.Mutex, *map[string]any) {
	t.Helper()
	oldURL := apiURL
	t.Cleanup(func() { apiURL = oldURL })

	var mu sync.Mutex
	var last map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		mu.Lock()
		last = payload
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	apiURL = server.URL
	return &mu, &last
}

func TestCompleteOmitsTemperatureForGPT5(t *testing.T) {
	mu, last := serve(t, http.StatusOK, `{"choices":[{"message":{"content":"{\"summary\":\"x\"}"}}]}`)

	client, err := NewClient("test-key", "gpt-5-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := client.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"summary":"x"}` {
		t.Fatalf("unexpected content %q", out)
	}

	mu.Lock()
	defer mu.Unlock()
	if _, hasTemp := (*last)["temperature"]; hasTemp {
		t.Fatalf("expected temperature to be omitted for gpt-5 models")
	}
	if (*last)["model"] != "gpt-5-mini" {
		t.Fatalf("unexpected model %v", (*last)["model"])
	}
}

func TestCompleteSendsZeroTemperature(t *testing.T) {
	mu, last := serve(t, http.StatusOK, `{"choices":[{"message":{"content":"{}"}}]}`)

	client, err := NewClient("test-key", "gpt-4o-mini")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Complete(context.Background(), "prompt"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	temp, ok := (*last)["temperature"]
	if !ok || temp.(float64) != 0 {
		t.Fatalf("expected temperature 0, got %v", temp)
	}
	format, _ := (*last)["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", format)
	}
}

func TestCompleteReturnsStatusError(t *testing.T) {
	serve(t, http.StatusServiceUnavailable, `{"error":{"message":"overloaded","type":"server_error"}}`)

	client, _ := NewClient("test-key", "gpt-4o-mini")
	_, err := client.Complete(context.Background(), "prompt")
	var statusErr *llm.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
	if !llm.ShouldRetry(err) {
		t.Fatalf("expected 503 to be retryable")
	}
}

func TestNewClientRequiresKeyAndModel(t *testing.T) {
	if _, err := NewClient("", "gpt-4o"); err == nil {
		t.Fatalf("expected error without key")
	}
	if _, err := NewClient("key", " "); err == nil {
		t.Fatalf("expected error without model")
	}
}
