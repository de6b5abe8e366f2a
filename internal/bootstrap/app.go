package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/exports"
	"resume-builder/internal/journal"
	"resume-builder/internal/llm"
	"resume-builder/internal/llm/gemini"
	"resume-builder/internal/llm/openai"
	"resume-builder/internal/optimizer"
	"resume-builder/internal/portfolios"
	"resume-builder/internal/render"
	"resume-builder/internal/resumes"
	"resume-builder/internal/services/health"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/server"
	"resume-builder/internal/shared/storage/db"
	"resume-builder/internal/shared/storage/object"
	localstore "resume-builder/internal/shared/storage/object/local"
	s3store "resume-builder/internal/shared/storage/object/s3"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/users"
	"resume-builder/internal/versioning"
	"resume-builder/internal/versions"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	ResumesRepo    resumes.Repo
	VersionStore   versions.Store
	Journal        journal.Store
	UsersRepo      users.Repo
	PortfoliosRepo portfolios.Repo
	ExportsRepo    exports.Repo

	UsersService      *users.Service
	VersioningService *versioning.Service
	PortfolioService  *portfolios.Service
	ExportService     *exports.Service

	closers []func() error
}

// Renderer is used for PDF exports; tests replace it before Build.
var Renderer = func(cfg config.Config) render.Renderer {
	return render.NewChromedpRenderer(cfg.ChromePath)
}

// Build prepares dependencies and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, DB: sqlDB}
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Store = store

	if err := buildServices(app); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		Health:           health.NewService(sqlDB),
		UserHandler:      users.NewHandler(app.UsersService),
		ResumeHandler:    versioning.NewHandler(app.VersioningService, server.OptimizeRateLimit(cfg)),
		PortfolioHandler: portfolios.NewHandler(app.PortfolioService),
		ExportHandler:    exports.NewHandler(app.ExportService),
	})
	return app, nil
}

// Close releases the database and journal handles.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.database_url_empty", map[string]any{"repositories": "memory"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.database_connect_failed", map[string]any{"repositories": "memory", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildJournal(app *App) (journal.Store, error) {
	switch {
	case app.DB != nil:
		return &journal.PGStore{DB: app.DB}, nil
	case strings.TrimSpace(app.Config.JournalPath) != "":
		store, err := journal.OpenBolt(app.Config.JournalPath)
		if err != nil {
			return nil, fmt.Errorf("open journal: %w", err)
		}
		app.closers = append(app.closers, store.Close)
		return store, nil
	default:
		return journal.NewMemoryStore(), nil
	}
}

func buildCompleter(cfg config.Config) llm.Completer {
	var (
		client llm.Completer
		err    error
	)
	switch cfg.LLMProvider {
	case "openai":
		client, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	case "gemini":
		client, err = gemini.NewClient(cfg.GeminiAPIKey, cfg.LLMModel)
	default:
		return llm.Disabled{}
	}
	if err != nil {
		telemetry.Warn("bootstrap.llm_disabled", map[string]any{"provider": cfg.LLMProvider, "error": err})
		return llm.Disabled{}
	}
	return client
}

func buildServices(app *App) error {
	if app.DB != nil {
		app.ResumesRepo = &resumes.PGRepo{DB: app.DB}
		app.VersionStore = &versions.PGStore{DB: app.DB}
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.PortfoliosRepo = &portfolios.PGRepo{DB: app.DB}
		app.ExportsRepo = &exports.PGRepo{DB: app.DB}
	} else {
		app.ResumesRepo = resumes.NewMemoryRepo()
		app.VersionStore = versions.NewMemoryStore()
		app.UsersRepo = users.NewMemoryRepo()
		app.PortfoliosRepo = portfolios.NewMemoryRepo()
		app.ExportsRepo = exports.NewMemoryRepo()
	}
	journalStore, err := buildJournal(app)
	if err != nil {
		return err
	}
	app.Journal = journalStore

	app.UsersService = users.NewService(app.UsersRepo)
	app.PortfolioService = portfolios.NewService(app.PortfoliosRepo, app.ResumesRepo, app.UsersService)
	app.VersioningService = &versioning.Service{
		Resumes:    app.ResumesRepo,
		Versions:   app.VersionStore,
		Journal:    app.Journal,
		Optimizer:  optimizer.NewLLMOptimizer(buildCompleter(app.Config)),
		Portfolios: app.PortfolioService,
	}
	app.ExportService = &exports.Service{
		Repo:     app.ExportsRepo,
		Source:   app.VersioningService,
		Renderer: Renderer(app.Config),
		Store:    app.Store,
	}
	app.VersioningService.Exports = app.ExportService

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          app.Config.Env,
		"database":     app.DB != nil,
		"object_store": app.Config.ObjectStoreType,
		"llm_provider": app.Config.LLMProvider,
	})
	return nil
}
