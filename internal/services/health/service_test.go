package health

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStatusWithoutDatabase(t *testing.T) {
	status, ok := NewService(nil).Status(context.Background())
	if !ok || status["database"] != "memory" {
		t.Fatalf("unexpected status %v, %v", status, ok)
	}
}

func TestStatusPingsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	svc := NewService(db)
	mock.ExpectPing()
	if status, ok := svc.Status(context.Background()); !ok || status["database"] != "ok" {
		t.Fatalf("unexpected status %v, %v", status, ok)
	}

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	if status, ok := svc.Status(context.Background()); ok || status["ok"] != false {
		t.Fatalf("expected failing status, got %v, %v", status, ok)
	}
}
