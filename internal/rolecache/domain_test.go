package rolecache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

func TestBuildHighestRolesPicksByLevel(t *testing.T) {
	memberships := []Membership{
		{RoleName: shared.RoleEmployee, ScopeType: shared.ScopeCompany},
		{RoleName: shared.RoleHRManager, ScopeType: shared.ScopeCompany},
		{RoleName: shared.RoleEmployee, ScopeType: shared.ScopeTeam, ScopeID: 3},
		{RoleName: shared.RoleTeamLeader, ScopeType: shared.ScopeTeam, ScopeID: 3},
		{RoleName: shared.RoleProjectManager, ScopeType: shared.ScopeProject, ScopeID: 7},
	}

	index := buildHighestRoles(memberships)
	require.Equal(t, shared.RoleHRManager, index.Company)
	require.Equal(t, shared.RoleTeamLeader, index.Team[3])
	require.Equal(t, shared.RoleProjectManager, index.Project[7])
	require.Empty(t, index.Division)
}

func TestLookupCompanyIgnoresScopeID(t *testing.T) {
	index := HighestRoleIndex{Company: shared.RoleAdmin}
	require.Equal(t, shared.RoleAdmin, index.Lookup(shared.ScopeCompany, 0))
	require.Equal(t, shared.RoleAdmin, index.Lookup(shared.ScopeCompany, 99))
}

func TestLookupScopedKindWithoutIDResolvesEmpty(t *testing.T) {
	index := HighestRoleIndex{Team: map[int64]string{3: shared.RoleTeamLeader}}
	require.Equal(t, shared.RoleTeamLeader, index.Lookup(shared.ScopeTeam, 3))
	require.Empty(t, index.Lookup(shared.ScopeTeam, 0))
	require.Empty(t, index.Lookup(shared.ScopeTeam, 4))
	require.Empty(t, index.Lookup(shared.ScopeKind("REGION"), 1))
}
