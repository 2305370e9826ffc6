package authz

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-hr/meridian-hr/internal/platform/httpx"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Handler exposes authorization queries: role contexts and decision checks.
type Handler struct {
	logger   *slog.Logger
	builder  *Builder
	gate     *Gate
	guard    *Middleware
	validate *validator.Validate
}

// NewHandler constructs an authz Handler.
func NewHandler(logger *slog.Logger, builder *Builder, gate *Gate, guard *Middleware) *Handler {
	return &Handler{logger: logger, builder: builder, gate: gate, guard: guard, validate: validator.New()}
}

// MountRoutes attaches authorization routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(shared.PermAssignmentsView))
		r.Get("/context/{userID}", h.context)
		r.Get("/context/{userID}/highest-role", h.highestRole)
		r.Post("/check/resource", h.checkResource)
		r.Post("/check/approval", h.checkApproval)
		r.Post("/check/permissions", h.checkPermissions)
	})
}

func (h *Handler) context(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "invalid user id")
		return
	}
	actx, err := h.builder.ForUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, "build authorization context", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":     actx.UserID(),
		"memberships": actx.Memberships(),
	})
}

func (h *Handler) highestRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "invalid user id")
		return
	}
	kind, ok := shared.ParseScopeKind(r.URL.Query().Get("scope_type"))
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "unknown scope type")
		return
	}
	var scopeID int64
	if raw := r.URL.Query().Get("scope_id"); raw != "" {
		scopeID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || scopeID <= 0 {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "invalid scope id")
			return
		}
	}
	actx, err := h.builder.ForUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, "build authorization context", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"role":    actx.GetHighestRole(kind, scopeID),
	})
}

type resourceCheckRequest struct {
	UserID       int64  `json:"user_id" validate:"required,gt=0"`
	ResourceType string `json:"resource_type" validate:"required"`
	ResourceID   int64  `json:"resource_id" validate:"required,gt=0"`
}

func (h *Handler) checkResource(w http.ResponseWriter, r *http.Request) {
	var req resourceCheckRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	actx, err := h.builder.ForUser(r.Context(), req.UserID)
	if err != nil {
		h.respondError(w, "build authorization context", err)
		return
	}
	allowed, err := actx.CanAccessResource(r.Context(), req.ResourceType, req.ResourceID)
	if err != nil {
		h.respondError(w, "check resource access", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"allowed": allowed})
}

type approvalCheckRequest struct {
	UserID      int64  `json:"user_id" validate:"required,gt=0"`
	OwnerID     int64  `json:"owner_id" validate:"required,gt=0"`
	RequestType string `json:"request_type" validate:"required"`
}

func (h *Handler) checkApproval(w http.ResponseWriter, r *http.Request) {
	var req approvalCheckRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	actx, err := h.builder.ForUser(r.Context(), req.UserID)
	if err != nil {
		h.respondError(w, "build authorization context", err)
		return
	}
	allowed, err := actx.CanApproveRequest(r.Context(), req.OwnerID, req.RequestType)
	if err != nil {
		h.respondError(w, "check approval", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"allowed": allowed})
}

type permissionCheckRequest struct {
	UserID      int64    `json:"user_id" validate:"required,gt=0"`
	Permissions []string `json:"permissions" validate:"required,min=1,dive,required"`
	Mode        string   `json:"mode" validate:"required,oneof=SINGLE ANY ALL"`
}

func (h *Handler) checkPermissions(w http.ResponseWriter, r *http.Request) {
	var req permissionCheckRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	err := h.gate.Check(r.Context(), req.UserID, req.Permissions, Mode(req.Mode))
	if err != nil && !errors.Is(err, shared.ErrForbidden) {
		h.respondError(w, "check permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"allowed": err == nil})
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, shared.ErrNotFound) && !errors.Is(err, shared.ErrInvalidInput) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
