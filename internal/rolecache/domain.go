package rolecache

import (
	"time"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Membership is one live role assignment enriched for decision-making.
type Membership struct {
	AssignmentID int64            `json:"assignment_id"`
	RoleName     string           `json:"role_name"`
	Level        int              `json:"level"`
	ScopeType    shared.ScopeKind `json:"scope_type"`
	ScopeID      int64            `json:"scope_id,omitempty"`
	ScopeName    string           `json:"scope_name,omitempty"`
	AssignedAt   time.Time        `json:"assigned_at"`
}

// HighestRoleIndex is the precomputed "highest role per scope" projection.
// Company is a single value; the scoped kinds map scope id to role name.
type HighestRoleIndex struct {
	Company  string           `json:"company,omitempty"`
	Division map[int64]string `json:"division,omitempty"`
	Team     map[int64]string `json:"team,omitempty"`
	Project  map[int64]string `json:"project,omitempty"`
}

// RoleContext is the cached per-user projection of live role memberships.
type RoleContext struct {
	UserID       int64            `json:"user_id"`
	Memberships  []Membership     `json:"memberships"`
	HighestRoles HighestRoleIndex `json:"highest_roles"`
	CachedAt     time.Time        `json:"cached_at"`
}

// buildHighestRoles derives the index by role-level comparison.
func buildHighestRoles(memberships []Membership) HighestRoleIndex {
	index := HighestRoleIndex{
		Division: map[int64]string{},
		Team:     map[int64]string{},
		Project:  map[int64]string{},
	}
	takeScoped := func(m map[int64]string, scopeID int64, roleName string) {
		if current, ok := m[scopeID]; !ok || shared.RoleLevel(roleName) > shared.RoleLevel(current) {
			m[scopeID] = roleName
		}
	}
	for _, membership := range memberships {
		switch membership.ScopeType {
		case shared.ScopeCompany:
			if index.Company == "" || shared.RoleLevel(membership.RoleName) > shared.RoleLevel(index.Company) {
				index.Company = membership.RoleName
			}
		case shared.ScopeDivision:
			takeScoped(index.Division, membership.ScopeID, membership.RoleName)
		case shared.ScopeTeam:
			takeScoped(index.Team, membership.ScopeID, membership.RoleName)
		case shared.ScopeProject:
			takeScoped(index.Project, membership.ScopeID, membership.RoleName)
		}
	}
	return index
}

// Lookup returns the highest role for a scope kind and id. For COMPANY the
// id is ignored. For the scoped kinds an omitted (zero) id resolves to no
// role: no aggregate "highest across all scopes of a kind" is defined.
func (i HighestRoleIndex) Lookup(kind shared.ScopeKind, scopeID int64) string {
	switch kind {
	case shared.ScopeCompany:
		return i.Company
	case shared.ScopeDivision:
		if scopeID == 0 {
			return ""
		}
		return i.Division[scopeID]
	case shared.ScopeTeam:
		if scopeID == 0 {
			return ""
		}
		return i.Team[scopeID]
	case shared.ScopeProject:
		if scopeID == 0 {
			return ""
		}
		return i.Project[scopeID]
	}
	return ""
}
