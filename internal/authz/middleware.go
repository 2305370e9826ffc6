package authz

import (
	"fmt"
	"net/http"

	"github.com/meridian-hr/meridian-hr/internal/platform/httpx"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// DecisionObserver records allow/deny outcomes for monitoring.
type DecisionObserver interface {
	ObserveAuthzDecision(allowed bool)
}

// Middleware guards chi routes with gate checks. Unlike programmatic gate
// use, HTTP requests without an authenticated actor are always rejected.
type Middleware struct {
	gate    *Gate
	metrics DecisionObserver
}

// NewMiddleware constructs route guards over a gate. metrics may be nil.
func NewMiddleware(gate *Gate, metrics DecisionObserver) *Middleware {
	return &Middleware{gate: gate, metrics: metrics}
}

// RequirePermission guards a route with a single-permission check.
func (m *Middleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return m.guard([]string{permission}, ModeSingle)
}

// RequireAny guards a route, passing when the actor holds any listed permission.
func (m *Middleware) RequireAny(permissions ...string) func(http.Handler) http.Handler {
	return m.guard(permissions, ModeAny)
}

// RequireAll guards a route, passing only with every listed permission.
func (m *Middleware) RequireAll(permissions ...string) func(http.Handler) http.Handler {
	return m.guard(permissions, ModeAll)
}

func (m *Middleware) guard(required []string, mode Mode) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.ActorFromContext(r.Context())
			if actor == nil {
				m.observe(false)
				httpx.RespondError(w, fmt.Errorf("%w: no authenticated actor", shared.ErrForbidden))
				return
			}
			if err := m.gate.Check(r.Context(), actor.UserID, required, mode); err != nil {
				m.observe(false)
				httpx.RespondError(w, err)
				return
			}
			m.observe(true)
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) observe(allowed bool) {
	if m.metrics != nil {
		m.metrics.ObserveAuthzDecision(allowed)
	}
}
