package exports

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/versioning"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches export routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes/:id/pdf", h.pdf)
	rg.GET("/resumes/:id/exports", h.list)
}

func (h *Handler) pdf(c *gin.Context) {
	resumeID := c.Param("id")
	c.Set("resumeId", resumeID)

	version := 0
	if raw := strings.TrimSpace(c.Query("version")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "version must be a positive integer", nil)
			return
		}
		version = n
	}

	export, body, err := h.Svc.PDF(c.Request.Context(), middleware.UserIDFromContext(c), resumeID, strings.TrimSpace(c.Query("template")), version)
	if err != nil {
		writeError(c, err)
		return
	}
	defer body.Close()

	c.Header("Content-Type", export.MimeType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="resume-v%d-%s.pdf"`, export.VersionNumber, export.TemplateID))
	if export.SizeBytes > 0 {
		c.Header("Content-Length", strconv.FormatInt(export.SizeBytes, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		telemetry.Warn("export.stream_failed", map[string]any{"resume_id": resumeID, "error": err})
	}
}

func (h *Handler) list(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	list, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, list)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, versioning.ErrNotFound), errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
	case errors.Is(err, versioning.ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not allowed", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": "), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to export resume", nil)
	}
}
