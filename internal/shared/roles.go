package shared

// Canonical role names.
const (
	RoleAdmin          = "admin"
	RoleHRManager      = "hr_manager"
	RoleDivisionHead   = "division_head"
	RoleTeamLeader     = "team_leader"
	RoleProjectManager = "project_manager"
	RoleEmployee       = "employee"
)

// roleLevels is the single canonical ordering used for "highest role" resolution.
var roleLevels = map[string]int{
	RoleAdmin:          100,
	RoleHRManager:      80,
	RoleDivisionHead:   70,
	RoleTeamLeader:     60,
	RoleProjectManager: 50,
	RoleEmployee:       10,
}

// RoleLevel returns the numeric level for a role name; unknown roles rank lowest.
func RoleLevel(name string) int {
	return roleLevels[name]
}

// seatRoles maps each exclusive role to the scope kind it is a seat within.
var seatRoles = map[string]ScopeKind{
	RoleProjectManager: ScopeProject,
	RoleTeamLeader:     ScopeTeam,
	RoleDivisionHead:   ScopeDivision,
}

// SeatScopeKind returns the scope kind an exclusive role occupies, if any.
func SeatScopeKind(roleName string) (ScopeKind, bool) {
	kind, ok := seatRoles[roleName]
	return kind, ok
}

// SeatRoleForKind returns the exclusive role name for a scope kind, if any.
func SeatRoleForKind(kind ScopeKind) (string, bool) {
	switch kind {
	case ScopeProject:
		return RoleProjectManager, true
	case ScopeTeam:
		return RoleTeamLeader, true
	case ScopeDivision:
		return RoleDivisionHead, true
	}
	return "", false
}

// IsSeatRole reports whether the role has single-holder semantics.
func IsSeatRole(roleName string) bool {
	_, ok := seatRoles[roleName]
	return ok
}
