package assignments

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

// Guard wraps chi middleware constructors for permission checks.
type Guard interface {
	RequirePermission(permission string) func(http.Handler) http.Handler
	RequireAny(permissions ...string) func(http.Handler) http.Handler
}

// Handler serves the assignment and seat endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    Guard
	validate *validator.Validate
}

// NewHandler constructs an assignments Handler.
func NewHandler(logger *slog.Logger, service *Service, guard Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validate: validator.New()}
}

// MountRoutes attaches assignment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(shared.PermAssignmentsView, shared.PermAssignmentsEdit))
		r.Get("/users/{userID}", h.listByUser)
		r.Get("/users/{userID}/scope", h.listByScope)
		r.Get("/holders", h.listHolders)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(shared.PermAssignmentsEdit))
		r.Post("/", h.assign)
		r.Post("/bulk", h.bulkAssign)
		r.Post("/route", h.route)
		r.Delete("/", h.revoke)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(shared.PermSeatsManage))
		r.Post("/seats/install", h.installSeat)
		r.Post("/seats/vacate", h.vacateSeat)
	})
}

type assignRequest struct {
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	RoleID    int64  `json:"role_id" validate:"required,gt=0"`
	ScopeType string `json:"scope_type" validate:"required"`
	ScopeID   int64  `json:"scope_id" validate:"gte=0"`
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	kind, _ := shared.ParseScopeKind(req.ScopeType)
	created, err := h.service.Assign(r.Context(), Request{
		UserID:    req.UserID,
		RoleID:    req.RoleID,
		ScopeType: kind,
		ScopeID:   req.ScopeID,
	}, actor.UserID)
	if err != nil {
		h.respondError(w, "assign", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

type revokeRequest struct {
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
	RoleID    int64  `json:"role_id" validate:"required,gt=0"`
	ScopeType string `json:"scope_type" validate:"required"`
	ScopeID   int64  `json:"scope_id" validate:"gte=0"`
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	var req revokeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	kind, _ := shared.ParseScopeKind(req.ScopeType)
	scope := shared.Scope{Kind: kind, ScopeID: req.ScopeID}
	revoked, err := h.service.Revoke(r.Context(), req.UserID, req.RoleID, scope, actor.UserID)
	if err != nil {
		h.respondError(w, "revoke", err)
		return
	}
	httpx.JSON(w, http.StatusOK, revoked)
}

type bulkAssignRequest struct {
	Assignments []assignRequest `json:"assignments" validate:"required,min=1,dive"`
}

func (h *Handler) bulkAssign(w http.ResponseWriter, r *http.Request) {
	var req bulkAssignRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	reqs := make([]Request, 0, len(req.Assignments))
	for _, item := range req.Assignments {
		kind, _ := shared.ParseScopeKind(item.ScopeType)
		reqs = append(reqs, Request{
			UserID:    item.UserID,
			RoleID:    item.RoleID,
			ScopeType: kind,
			ScopeID:   item.ScopeID,
		})
	}
	results := h.service.BulkAssign(r.Context(), reqs, actor.UserID)
	httpx.JSON(w, http.StatusOK, map[string]any{"results": results})
}

type routeRequest struct {
	UserIDs    []int64 `json:"user_ids" validate:"required,min=1,dive,gt=0"`
	RoleID     int64   `json:"role_id" validate:"required,gt=0"`
	ProjectID  int64   `json:"project_id" validate:"gte=0"`
	TeamID     int64   `json:"team_id" validate:"gte=0"`
	DivisionID int64   `json:"division_id" validate:"gte=0"`
}

func (h *Handler) route(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	summary, err := h.service.RouteAssignment(r.Context(), req.UserIDs, req.RoleID, actor.UserID, RouteContext{
		ProjectID:  req.ProjectID,
		TeamID:     req.TeamID,
		DivisionID: req.DivisionID,
	})
	if err != nil {
		h.respondError(w, "route assignment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

type seatRequest struct {
	ScopeType string `json:"scope_type" validate:"required"`
	ScopeID   int64  `json:"scope_id" validate:"required,gt=0"`
	UserID    int64  `json:"user_id" validate:"required,gt=0"`
}

func (h *Handler) installSeat(w http.ResponseWriter, r *http.Request) {
	var req seatRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	kind, _ := shared.ParseScopeKind(req.ScopeType)
	change, err := h.service.InstallSeat(r.Context(), kind, req.ScopeID, req.UserID, actor.UserID)
	if err != nil {
		h.respondError(w, "install seat", err)
		return
	}
	httpx.JSON(w, http.StatusOK, change)
}

func (h *Handler) vacateSeat(w http.ResponseWriter, r *http.Request) {
	var req seatRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
		return
	}
	actor := shared.ActorFromContext(r.Context())
	kind, _ := shared.ParseScopeKind(req.ScopeType)
	result, err := h.service.VacateSeat(r.Context(), kind, req.ScopeID, req.UserID, actor.UserID)
	if err != nil {
		h.respondError(w, "vacate seat", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "invalid user id")
		return
	}
	list, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, "list by user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assignments": list})
}

func (h *Handler) listByScope(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "invalid user id")
		return
	}
	scope, ok := scopeFromQuery(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "invalid scope parameters")
		return
	}
	list, err := h.service.ListByScope(r.Context(), userID, scope)
	if err != nil {
		h.respondError(w, "list by scope", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assignments": list})
}

func (h *Handler) listHolders(w http.ResponseWriter, r *http.Request) {
	roleName := r.URL.Query().Get("role")
	scope, ok := scopeFromQuery(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Input", "invalid scope parameters")
		return
	}
	holders, err := h.service.ListHoldersOfRole(r.Context(), roleName, scope)
	if err != nil {
		h.respondError(w, "list holders", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"holders": holders})
}

func scopeFromQuery(r *http.Request) (shared.Scope, bool) {
	kind, ok := shared.ParseScopeKind(r.URL.Query().Get("scope_type"))
	if !ok {
		return shared.Scope{}, false
	}
	scope := shared.Scope{Kind: kind}
	if raw := r.URL.Query().Get("scope_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return shared.Scope{}, false
		}
		scope.ScopeID = id
	}
	return scope, true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if !errors.Is(err, shared.ErrNotFound) &&
		!errors.Is(err, shared.ErrConflict) &&
		!errors.Is(err, shared.ErrInvalidInput) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
