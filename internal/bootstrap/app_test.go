package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"resume-builder/internal/render"
	"resume-builder/internal/resumes"
	"resume-builder/internal/shared/config"
)

type fakeRenderer struct{}

func (fakeRenderer) Render(_ context.Context, fields resumes.Fields, templateID string) ([]byte, error) {
	return []byte("%PDF-" + templateID), nil
}

func buildTestApp(t *testing.T) *App {
	t.Helper()
	prev := Renderer
	Renderer = func(config.Config) render.Renderer { return fakeRenderer{} }
	t.Cleanup(func() { Renderer = prev })

	dir := t.TempDir()
	app, err := Build(context.Background(), config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   filepath.Join(dir, "objects"),
		JournalPath:     filepath.Join(dir, "journal.db"),
		LLMProvider:     "none",
		OptimizeRate:    1,
		OptimizeBurst:   5,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func call(t *testing.T, app *App, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-Id", user)
	}
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func TestBuildWiresEndToEnd(t *testing.T) {
	app := buildTestApp(t)
	if app.DB != nil {
		t.Fatalf("expected in-memory repositories")
	}

	expect := func(resp *httptest.ResponseRecorder, status int) {
		t.Helper()
		if resp.Code != status {
			t.Fatalf("expected %d, got %d: %s", status, resp.Code, resp.Body.String())
		}
	}

	expect(call(t, app, http.MethodGet, "/api/v1/health", "", nil), http.StatusOK)
	expect(call(t, app, http.MethodPut, "/api/v1/me", "u-1", map[string]any{"username": "Ada"}), http.StatusOK)

	resp := call(t, app, http.MethodPost, "/api/v1/resumes", "u-1", map[string]any{
		"name":         "Main",
		"personalInfo": map[string]any{"fullName": "Ada", "summary": "Hi"},
	})
	expect(resp, http.StatusCreated)
	var created resumes.Resume
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	base := "/api/v1/resumes/" + created.ID

	resp = call(t, app, http.MethodPost, base+"/optimize", "u-1", map[string]any{"jobDescription": "Go developer"})
	expect(resp, http.StatusOK)

	expect(call(t, app, http.MethodPost, base+"/portfolio", "u-1", nil), http.StatusOK)
	expect(call(t, app, http.MethodGet, "/api/v1/portfolios/ada", "", nil), http.StatusOK)

	resp = call(t, app, http.MethodGet, base+"/pdf?template=classic", "u-1", nil)
	expect(resp, http.StatusOK)
	if got := resp.Body.String(); got != "%PDF-classic" {
		t.Fatalf("unexpected pdf body %q", got)
	}

	expect(call(t, app, http.MethodDelete, base, "u-1", nil), http.StatusNoContent)
	expect(call(t, app, http.MethodGet, base, "u-1", nil), http.StatusNotFound)
	expect(call(t, app, http.MethodGet, "/api/v1/portfolios/ada", "", nil), http.StatusNotFound)
	expect(call(t, app, http.MethodGet, base+"/versions", "u-1", nil), http.StatusNotFound)

	resp = call(t, app, http.MethodGet, "/api/v1/metrics", "", nil)
	expect(resp, http.StatusOK)
	if !bytes.Contains(resp.Body.Bytes(), []byte("resume_mutations_total")) {
		t.Fatalf("metrics missing mutation counter")
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	_, err := Build(context.Background(), config.Config{Env: "production", LLMProvider: "none"})
	if err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}
