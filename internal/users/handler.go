package users

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PUT("/me", h.updateMe)
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	user, err := h.Svc.EnsureFromIdentity(c.Request.Context(), User{
		ID:       middleware.UserIDFromContext(c),
		Email:    middleware.UserEmailFromContext(c),
		FullName: middleware.UserNameFromContext(c),
		Username: middleware.UsernameFromContext(c),
	})
	if err != nil {
		writeError(c, err, "failed to load user")
		return
	}
	respond.OK(c, user)
}

func (h *Handler) updateMe(c *gin.Context) {
	var req ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)
	if _, err := h.Svc.EnsureFromIdentity(c.Request.Context(), User{
		ID:    userID,
		Email: middleware.UserEmailFromContext(c),
	}); err != nil {
		writeError(c, err, "failed to load user")
		return
	}
	user, err := h.Svc.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err, "failed to update user")
		return
	}
	respond.OK(c, user)
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", strings.TrimPrefix(err.Error(), ErrInvalidInput.Error()+": "), nil)
	case errors.Is(err, ErrUsernameTaken):
		respond.Error(c, http.StatusConflict, "conflict", "username already taken", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
