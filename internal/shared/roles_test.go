package shared

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleLevelOrdering(t *testing.T) {
	require.Greater(t, RoleLevel(RoleAdmin), RoleLevel(RoleHRManager))
	require.Greater(t, RoleLevel(RoleHRManager), RoleLevel(RoleDivisionHead))
	require.Greater(t, RoleLevel(RoleDivisionHead), RoleLevel(RoleTeamLeader))
	require.Greater(t, RoleLevel(RoleTeamLeader), RoleLevel(RoleProjectManager))
	require.Greater(t, RoleLevel(RoleProjectManager), RoleLevel(RoleEmployee))
	require.Zero(t, RoleLevel("intern"))
}

func TestSeatRoleMapping(t *testing.T) {
	kind, ok := SeatScopeKind(RoleTeamLeader)
	require.True(t, ok)
	require.Equal(t, ScopeTeam, kind)

	role, ok := SeatRoleForKind(ScopeProject)
	require.True(t, ok)
	require.Equal(t, RoleProjectManager, role)

	_, ok = SeatRoleForKind(ScopeCompany)
	require.False(t, ok)

	require.True(t, IsSeatRole(RoleDivisionHead))
	require.False(t, IsSeatRole(RoleEmployee))
	require.False(t, IsSeatRole(RoleAdmin))
}
