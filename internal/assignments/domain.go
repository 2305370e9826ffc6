package assignments

import (
	"time"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Assignment is the central fact: a role granted to a user within a scope.
// Revocation is a soft delete; RevokedAt is set and the row stays queryable.
type Assignment struct {
	ID         int64            `json:"id"`
	UserID     int64            `json:"user_id"`
	RoleID     int64            `json:"role_id"`
	RoleName   string           `json:"role_name"`
	ScopeType  shared.ScopeKind `json:"scope_type"`
	ScopeID    int64            `json:"scope_id,omitempty"`
	AssignedBy int64            `json:"assigned_by"`
	CreatedAt  time.Time        `json:"created_at"`
	RevokedAt  *time.Time       `json:"revoked_at,omitempty"`
}

// Scope returns the assignment's scope value.
func (a Assignment) Scope() shared.Scope {
	return shared.Scope{Kind: a.ScopeType, ScopeID: a.ScopeID}
}

// Live reports whether the assignment has not been revoked.
func (a Assignment) Live() bool {
	return a.RevokedAt == nil
}

// Request describes one assignment to create.
type Request struct {
	UserID    int64            `json:"user_id"`
	RoleID    int64            `json:"role_id"`
	ScopeType shared.ScopeKind `json:"scope_type"`
	ScopeID   int64            `json:"scope_id,omitempty"`
}

// BulkResult reports the outcome of one request inside a bulk operation.
// Bulk operations have partial-failure semantics: one item failing never
// rolls back the others.
type BulkResult struct {
	Request    Request     `json:"request"`
	Assignment *Assignment `json:"assignment,omitempty"`
	Err        error       `json:"-"`
	Error      string      `json:"error,omitempty"`
}

// Holder pairs a user with the time they were granted a role.
type Holder struct {
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	AssignedAt time.Time `json:"assigned_at"`
}

// SeatChange is the outcome of installing a seat holder.
type SeatChange struct {
	NewAssignment  Assignment `json:"new_assignment"`
	ReplacedUserID int64      `json:"replaced_user_id,omitempty"`
}

// VacateResult is the outcome of vacating a seat.
type VacateResult struct {
	Revoked              Assignment   `json:"revoked"`
	RemainingRoles       []Assignment `json:"remaining_roles"`
	BaselineAutoAssigned bool         `json:"baseline_auto_assigned"`
}

// RouteContext carries the candidate scope ids for seat routing.
type RouteContext struct {
	ProjectID  int64 `json:"project_id,omitempty"`
	TeamID     int64 `json:"team_id,omitempty"`
	DivisionID int64 `json:"division_id,omitempty"`
}

// RouteResult reports the outcome of routing one user's assignment.
type RouteResult struct {
	UserID     int64       `json:"user_id"`
	Assignment *Assignment `json:"assignment,omitempty"`
	Replaced   int64       `json:"replaced_user_id,omitempty"`
	Err        error       `json:"-"`
	Error      string      `json:"error,omitempty"`
}

// RouteSummary aggregates per-user routing outcomes.
type RouteSummary struct {
	Results   []RouteResult `json:"results"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
}
