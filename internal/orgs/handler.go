package orgs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-hr/meridian-hr/internal/platform/httpx"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Guard wraps chi middleware constructors for permission checks.
type Guard interface {
	RequirePermission(permission string) func(http.Handler) http.Handler
}

// Handler serves the organizational directory endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   Guard
}

// NewHandler constructs an orgs Handler.
func NewHandler(logger *slog.Logger, service *Service, guard Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes attaches directory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(shared.PermUsersView))
		r.Get("/divisions", h.listDivisions)
		r.Get("/teams", h.listTeams)
		r.Get("/projects", h.listProjects)
	})
}

func (h *Handler) listDivisions(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListDivisions(r.Context())
	if err != nil {
		h.logger.Error("list divisions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"divisions": list})
}

func (h *Handler) listTeams(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListTeams(r.Context())
	if err != nil {
		h.logger.Error("list teams", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"teams": list})
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListProjects(r.Context())
	if err != nil {
		h.logger.Error("list projects", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"projects": list})
}
