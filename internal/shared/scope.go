package shared

import "strings"

// ScopeKind enumerates the organizational contexts a role can be granted within.
type ScopeKind string

const (
	// ScopeCompany is the global scope; it carries no entity id.
	ScopeCompany ScopeKind = "COMPANY"
	// ScopeDivision scopes a role to one division.
	ScopeDivision ScopeKind = "DIVISION"
	// ScopeTeam scopes a role to one team.
	ScopeTeam ScopeKind = "TEAM"
	// ScopeProject scopes a role to one project.
	ScopeProject ScopeKind = "PROJECT"
)

// Scope pairs a scope kind with the entity id it refers to.
// ScopeID is zero for COMPANY.
type Scope struct {
	Kind    ScopeKind `json:"kind"`
	ScopeID int64     `json:"scope_id,omitempty"`
}

// CompanyScope returns the singleton company scope value.
func CompanyScope() Scope {
	return Scope{Kind: ScopeCompany}
}

// ParseScopeKind normalizes a raw scope kind string.
func ParseScopeKind(raw string) (ScopeKind, bool) {
	switch ScopeKind(strings.ToUpper(strings.TrimSpace(raw))) {
	case ScopeCompany:
		return ScopeCompany, true
	case ScopeDivision:
		return ScopeDivision, true
	case ScopeTeam:
		return ScopeTeam, true
	case ScopeProject:
		return ScopeProject, true
	}
	return "", false
}

// RequiresID reports whether the kind needs a concrete scope entity id.
func (k ScopeKind) RequiresID() bool {
	return k == ScopeDivision || k == ScopeTeam || k == ScopeProject
}

// Known reports whether the kind is one of the four supported kinds.
func (k ScopeKind) Known() bool {
	switch k {
	case ScopeCompany, ScopeDivision, ScopeTeam, ScopeProject:
		return true
	}
	return false
}
