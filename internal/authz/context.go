package authz

import (
	"context"
	"strings"

	"github.com/meridian-hr/meridian-hr/internal/rolecache"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// hrApprovableTypes lists request types an hr_manager at company scope may
// approve regardless of organizational relationship.
var hrApprovableTypes = map[string]struct{}{
	"day-off":     {},
	"day_off":     {},
	"remote-work": {},
	"remote_work": {},
}

// ContextSource resolves role contexts, loading on demand when not cached.
type ContextSource interface {
	GetUserRoleContext(ctx context.Context, userID int64) (rolecache.RoleContext, error)
}

// Builder constructs per-request authorization contexts. It owns the cache
// handle; decision objects are never built through ad hoc service discovery.
type Builder struct {
	contexts ContextSource
}

// NewBuilder constructs a Builder.
func NewBuilder(contexts ContextSource) *Builder {
	return &Builder{contexts: contexts}
}

// ForUser builds the read-only decision object for one user.
func (b *Builder) ForUser(ctx context.Context, userID int64) (*Context, error) {
	rc, err := b.contexts.GetUserRoleContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Context{userID: userID, roles: rc, contexts: b.contexts}, nil
}

// Context is a short-lived, read-only decision object over one user's role
// context. It is built once per request and never mutated afterwards.
type Context struct {
	userID   int64
	roles    rolecache.RoleContext
	contexts ContextSource
}

// UserID returns the user the context was built for.
func (c *Context) UserID() int64 {
	return c.userID
}

// Memberships exposes the underlying live memberships.
func (c *Context) Memberships() []rolecache.Membership {
	return c.roles.Memberships
}

// HasRole reports whether the user holds the role. A nil scope matches any
// scope; a scope with a zero id matches the kind regardless of entity; a
// full scope requires an exact match.
func (c *Context) HasRole(roleName string, scope *shared.Scope) bool {
	for _, m := range c.roles.Memberships {
		if m.RoleName != roleName {
			continue
		}
		if scope == nil {
			return true
		}
		if m.ScopeType != scope.Kind {
			continue
		}
		if scope.ScopeID == 0 || m.ScopeID == scope.ScopeID {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user holds at least one of the roles.
func (c *Context) HasAnyRole(roleNames []string, scope *shared.Scope) bool {
	for _, name := range roleNames {
		if c.HasRole(name, scope) {
			return true
		}
	}
	return false
}

// GetHighestRole returns the highest-level role for the scope, or empty when
// none. For the scoped kinds a zero scope id yields empty: no aggregate
// across scope instances is defined.
func (c *Context) GetHighestRole(kind shared.ScopeKind, scopeID int64) string {
	return c.roles.HighestRoles.Lookup(kind, scopeID)
}

// isCompanyAdmin reports whether the user is an admin at company scope.
func (c *Context) isCompanyAdmin() bool {
	company := shared.CompanyScope()
	return c.HasRole(shared.RoleAdmin, &company)
}

// CanAccessResource decides access to an organizational resource. Company
// admins always pass; otherwise the user must hold the resource's manager
// role for that exact entity. Unknown resource types are denied.
func (c *Context) CanAccessResource(ctx context.Context, resourceType string, resourceID int64) (bool, error) {
	if c.isCompanyAdmin() {
		return true, nil
	}
	var scope shared.Scope
	var managerRole string
	switch strings.ToLower(strings.TrimSpace(resourceType)) {
	case "division":
		scope = shared.Scope{Kind: shared.ScopeDivision, ScopeID: resourceID}
		managerRole = shared.RoleDivisionHead
	case "team":
		scope = shared.Scope{Kind: shared.ScopeTeam, ScopeID: resourceID}
		managerRole = shared.RoleTeamLeader
	case "project":
		scope = shared.Scope{Kind: shared.ScopeProject, ScopeID: resourceID}
		managerRole = shared.RoleProjectManager
	default:
		return false, nil
	}
	return c.HasRole(managerRole, &scope), nil
}

// CanApproveRequest decides whether the acting user may approve a request
// owned by another user. Company admins always pass. An hr_manager at
// company scope may approve the HR request types regardless of relationship.
// Otherwise the acting user must hold the manager role for a scope the owner
// participates in; the first matching relationship wins. Owners without any
// resolvable memberships are denied.
func (c *Context) CanApproveRequest(ctx context.Context, requestOwnerID int64, requestType string) (bool, error) {
	if c.isCompanyAdmin() {
		return true, nil
	}
	if _, ok := hrApprovableTypes[strings.ToLower(strings.TrimSpace(requestType))]; ok {
		company := shared.CompanyScope()
		if c.HasRole(shared.RoleHRManager, &company) {
			return true, nil
		}
	}

	owner, err := c.contexts.GetUserRoleContext(ctx, requestOwnerID)
	if err != nil {
		// Fail closed: an unresolvable owner grants nothing.
		return false, err
	}
	for _, m := range owner.Memberships {
		managerRole, ok := shared.SeatRoleForKind(m.ScopeType)
		if !ok {
			continue
		}
		scope := shared.Scope{Kind: m.ScopeType, ScopeID: m.ScopeID}
		if c.HasRole(managerRole, &scope) {
			return true, nil
		}
	}
	return false, nil
}
