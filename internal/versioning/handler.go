package versioning

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/resumes"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
	"resume-builder/internal/versions"
)

const maxJobDescriptionLength = 20000

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
	// OptimizeLimit guards the optimize route; nil means unlimited.
	OptimizeLimit gin.HandlerFunc
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, optimizeLimit gin.HandlerFunc) *Handler {
	return &Handler{Svc: svc, OptimizeLimit: optimizeLimit}
}

// RegisterRoutes attaches resume routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/resumes", h.list)
	rg.POST("/resumes", h.create)
	rg.GET("/resumes/:id", h.get)
	rg.PUT("/resumes/:id", h.update)
	rg.DELETE("/resumes/:id", h.delete)
	rg.GET("/resumes/:id/versions", h.listVersions)
	rg.POST("/resumes/:id/versions", h.checkpoint)
	rg.GET("/resumes/:id/versions/:number", h.getVersion)
	rg.POST("/resumes/:id/versions/:number/restore", h.restore)
	rg.POST("/resumes/:id/snapshots/:snapshotId/restore", h.restoreByID)

	optimize := []gin.HandlerFunc{}
	if h.OptimizeLimit != nil {
		optimize = append(optimize, h.OptimizeLimit)
	}
	optimize = append(optimize, h.optimize)
	rg.POST("/resumes/:id/optimize", optimize...)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, list)
}

func (h *Handler) create(c *gin.Context) {
	var fields resumes.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	c.Set("operation", OpCreate)
	r, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), fields)
	if err != nil {
		writeError(c, err)
		return
	}
	tagResume(c, r)
	respond.JSON(c, http.StatusCreated, r)
}

func (h *Handler) get(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	r, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	tagResume(c, r)
	respond.OK(c, r)
}

type updateRequest struct {
	resumes.Patch
	VersionName string `json:"versionName"`
}

func (h *Handler) update(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	c.Set("operation", OpUpdate)
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	r, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req.Patch, req.VersionName)
	if err != nil {
		writeError(c, err)
		return
	}
	tagResume(c, r)
	respond.OK(c, r)
}

func (h *Handler) delete(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	c.Set("operation", OpDelete)
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) listVersions(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	seq, err := h.Svc.ListVersions(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]versions.Snapshot, 0)
	for snap, err := range seq {
		if err != nil {
			writeError(c, err)
			return
		}
		out = append(out, snap)
	}
	respond.OK(c, out)
}

type checkpointRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) checkpoint(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	c.Set("operation", OpCheckpoint)
	var req checkpointRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	snap, err := h.Svc.Checkpoint(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("resumeVersion", snap.VersionNumber)
	respond.JSON(c, http.StatusCreated, snap)
}

func (h *Handler) getVersion(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	number, ok := versionParam(c)
	if !ok {
		return
	}
	snap, err := h.Svc.GetVersion(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), number)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, snap)
}

func (h *Handler) restore(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	c.Set("operation", OpRestore)
	number, ok := versionParam(c)
	if !ok {
		return
	}
	r, err := h.Svc.Restore(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), number)
	if err != nil {
		writeError(c, err)
		return
	}
	tagResume(c, r)
	respond.OK(c, r)
}

func (h *Handler) restoreByID(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	c.Set("operation", OpRestore)
	r, err := h.Svc.RestoreByID(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), c.Param("snapshotId"))
	if err != nil {
		writeError(c, err)
		return
	}
	tagResume(c, r)
	respond.OK(c, r)
}

type optimizeRequest struct {
	JobDescription string `json:"jobDescription"`
}

func (h *Handler) optimize(c *gin.Context) {
	c.Set("resumeId", c.Param("id"))
	c.Set("operation", OpOptimize)
	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if len(req.JobDescription) > maxJobDescriptionLength {
		respond.Error(c, http.StatusBadRequest, "validation_error", "jobDescription is too long", gin.H{"maxLength": maxJobDescriptionLength})
		return
	}
	res, err := h.Svc.OptimizeWithAI(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req.JobDescription)
	if err != nil {
		writeError(c, err)
		return
	}
	tagResume(c, res.Resume)
	respond.OK(c, gin.H{
		"resume":          res.Resume,
		"fallback":        res.Fallback,
		"recommendations": res.Recommendations,
	})
}

func versionParam(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil || n < 1 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "version number must be a positive integer", nil)
		return 0, false
	}
	return n, true
}

func tagResume(c *gin.Context, r resumes.Resume) {
	c.Set("resumeId", r.ID)
	c.Set("resumeVersion", r.CurrentVersion)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "resume or version not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "not the owner of this resume", nil)
	case errors.Is(err, ErrValidation):
		msg := strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
		respond.Error(c, http.StatusBadRequest, "validation_error", msg, nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", "the resume changed while saving, reload and try again", nil)
	default:
		var opErr *OperationError
		if errors.As(err, &opErr) {
			respond.Error(c, http.StatusInternalServerError, "internal_error", ErrInconsistent.Error(), gin.H{"operation": opErr.Op, "step": opErr.Step})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
