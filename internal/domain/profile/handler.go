package profile

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bankprofile/internal/domain/identity"
	"bankprofile/internal/pkg/response"
	"bankprofile/internal/pkg/validator"
)

// storeCallTimeout bounds editor store calls, which outlive the request context.
const storeCallTimeout = 10 * time.Second

// Handler handles profile HTTP requests
type Handler struct {
	service  *Service
	sessions *Sessions
	log      *zap.Logger
}

// NewHandler creates profile handler
func NewHandler(service *Service, sessions *Sessions, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{service: service, sessions: sessions, log: log}
}

// GetProfile handles GET /api/v1/profile
func (h *Handler) GetProfile(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), ident)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/v1/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), ident, &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// OpenSession handles POST /api/v1/profile/editor/sessions
func (h *Handler) OpenSession(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}

	ctx, cancel := detached(c)
	defer cancel()

	sess, err := h.sessions.Open(ctx, ident)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, SessionResponse{
		SessionID: sess.ID,
		View:      sess.Editor.View(),
	})
}

// GetSession handles GET /api/v1/profile/editor/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, sess.Editor.View())
}

// Reload handles POST /api/v1/profile/editor/sessions/:id/reload
func (h *Handler) Reload(c *gin.Context) {
	h.command(c, func(ctx context.Context, e *Editor) error {
		return e.Load(ctx)
	})
}

// EnterEdit handles POST /api/v1/profile/editor/sessions/:id/edit
func (h *Handler) EnterEdit(c *gin.Context) {
	h.command(c, func(_ context.Context, e *Editor) error {
		return e.EnterEdit()
	})
}

// UpdateField handles PATCH /api/v1/profile/editor/sessions/:id/fields
func (h *Handler) UpdateField(c *gin.Context) {
	var req UpdateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid request", errs)
		return
	}

	h.command(c, func(_ context.Context, e *Editor) error {
		return e.UpdateField(req.Field, req.Value)
	})
}

// CancelEdit handles POST /api/v1/profile/editor/sessions/:id/cancel
func (h *Handler) CancelEdit(c *gin.Context) {
	h.command(c, func(ctx context.Context, e *Editor) error {
		return e.CancelEdit(ctx)
	})
}

// Save handles POST /api/v1/profile/editor/sessions/:id/save
func (h *Handler) Save(c *gin.Context) {
	h.command(c, func(ctx context.Context, e *Editor) error {
		return e.Save(ctx)
	})
}

// DismissSaved handles POST /api/v1/profile/editor/sessions/:id/saved/dismiss
func (h *Handler) DismissSaved(c *gin.Context) {
	h.command(c, func(_ context.Context, e *Editor) error {
		return e.DismissSaved()
	})
}

// CloseSession handles DELETE /api/v1/profile/editor/sessions/:id
func (h *Handler) CloseSession(c *gin.Context) {
	ident, ok := currentIdentity(c)
	if !ok {
		return
	}
	if err := h.sessions.Close(c.Param("id"), ident.ID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) command(c *gin.Context, fn func(context.Context, *Editor) error) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	ctx, cancel := detached(c)
	defer cancel()

	if err := fn(ctx, sess.Editor); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sess.Editor.View())
}

func (h *Handler) session(c *gin.Context) (*Session, bool) {
	ident, ok := currentIdentity(c)
	if !ok {
		return nil, false
	}
	sess, err := h.sessions.Get(c.Param("id"), ident.ID)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return sess, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Editor session not found")
	case errors.Is(err, ErrTooManySessions):
		response.Error(c, http.StatusTooManyRequests, "TOO_MANY_SESSIONS", "Too many open editor sessions")
	case errors.Is(err, ErrNotSessionOwner):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't own this editor session")
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, ErrNotEditing):
		response.Error(c, http.StatusConflict, "NOT_EDITING", err.Error())
	case errors.Is(err, ErrSaveInFlight):
		response.Error(c, http.StatusConflict, "SAVE_IN_FLIGHT", err.Error())
	case errors.Is(err, ErrEmailReadOnly):
		response.Error(c, http.StatusUnprocessableEntity, "EMAIL_READ_ONLY", err.Error())
	case errors.Is(err, ErrUnknownField):
		response.Error(c, http.StatusUnprocessableEntity, "UNKNOWN_FIELD", err.Error())
	case errors.Is(err, ErrInvalidDate):
		response.Error(c, http.StatusUnprocessableEntity, "INVALID_DATE", err.Error())
	case errors.Is(err, ErrEditorClosed):
		response.Error(c, http.StatusGone, "EDITOR_CLOSED", err.Error())
	case errors.Is(err, ErrStoreUnavailable):
		response.Error(c, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Profile store is temporarily unavailable")
	default:
		_ = c.Error(err)
		h.log.Error("profile request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

func currentIdentity(c *gin.Context) (identity.Identity, bool) {
	ident, ok := identity.FromContext{}.Current(c.Request.Context())
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return identity.Identity{}, false
	}
	return ident, true
}

// detached keeps store calls alive when the client goes away mid-request so a
// started save always reaches a terminal state.
func detached(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request.Context()), storeCallTimeout)
}
