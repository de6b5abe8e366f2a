package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"resume-builder/internal/shared/storage/object"
)

func TestSaveOpenDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	n, err := store.SaveWithKey(ctx, "exports/u/r-1/v1-modern.pdf", "application/pdf", strings.NewReader("%PDF-1.7"))
	if err != nil {
		t.Fatalf("SaveWithKey: %v", err)
	}
	if n != 8 {
		t.Fatalf("expected 8 bytes, got %d", n)
	}

	rc, err := store.Open(ctx, "exports/u/r-1/v1-modern.pdf")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(data, []byte("%PDF-1.7")) {
		t.Fatalf("unexpected content %q", data)
	}

	if err := store.Delete(ctx, "exports/u/r-1/v1-modern.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, "exports/u/r-1/v1-modern.pdf"); err != nil {
		t.Fatalf("Delete should be idempotent: %v", err)
	}
	if _, err := store.Open(ctx, "exports/u/r-1/v1-modern.pdf"); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	for _, key := range []string{"../escape.pdf", "/abs/path.pdf", "."} {
		if _, err := store.SaveWithKey(context.Background(), key, "application/pdf", strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}
