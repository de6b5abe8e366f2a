package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/exports"
	"resume-builder/internal/portfolios"
	"resume-builder/internal/services/health"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/users"
	"resume-builder/internal/versioning"
)

// RouterDeps holds the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config           config.Config
	Health           *health.Service
	UserHandler      *users.Handler
	ResumeHandler    *versioning.Handler
	PortfolioHandler *portfolios.Handler
	ExportHandler    *exports.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		status, ok := deps.Health.Status(c.Request.Context())
		if !ok {
			respond.JSON(c, http.StatusServiceUnavailable, status)
			return
		}
		respond.JSON(c, http.StatusOK, status)
	})
	api.GET("/metrics", metrics.Handler())
	if deps.PortfolioHandler != nil {
		deps.PortfolioHandler.RegisterPublicRoutes(api)
	}

	private := api.Group("")
	private.Use(middleware.Auth(deps.Config.Env))
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(private)
	}
	if deps.ResumeHandler != nil {
		deps.ResumeHandler.RegisterRoutes(private)
	}
	if deps.PortfolioHandler != nil {
		deps.PortfolioHandler.RegisterRoutes(private)
	}
	if deps.ExportHandler != nil {
		deps.ExportHandler.RegisterRoutes(private)
	}

	return r
}

// OptimizeRateLimit limits AI optimization requests per caller.
func OptimizeRateLimit(cfg config.Config) gin.HandlerFunc {
	return middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			optimizeGroup: {Rate: cfg.OptimizeRate, Burst: cfg.OptimizeBurst},
		},
		DefaultGroup: optimizeGroup,
	})
}

const optimizeGroup = "OPTIMIZE"

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
