package health

import (
	"context"
	"database/sql"
	"time"

	"resume-builder/internal/shared/storage/db"
	"resume-builder/internal/shared/telemetry"
)

const pingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	// DB is optional; nil means the process runs on in-memory repositories.
	DB *sql.DB
}

// NewService constructs a new health service.
func NewService(database *sql.DB) *Service {
	return &Service{DB: database}
}

// Status reports liveness and, when a database is configured, its reachability.
func (s *Service) Status(ctx context.Context) (map[string]any, bool) {
	out := map[string]any{"ok": true}
	if s == nil || s.DB == nil {
		out["database"] = "memory"
		return out, true
	}
	if err := db.Ping(ctx, s.DB, pingTimeout); err != nil {
		telemetry.Warn("health.db_ping_failed", map[string]any{"error": err})
		out["ok"] = false
		out["database"] = "unreachable"
		return out, false
	}
	out["database"] = "ok"
	return out, true
}
