package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hr/meridian-hr/internal/authz"
	"github.com/meridian-hr/meridian-hr/internal/rolecache"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

type stubContexts struct {
	byUser map[int64]rolecache.RoleContext
	errFor map[int64]error
}

func (s stubContexts) GetUserRoleContext(ctx context.Context, userID int64) (rolecache.RoleContext, error) {
	if err, ok := s.errFor[userID]; ok {
		return rolecache.RoleContext{}, err
	}
	return s.byUser[userID], nil
}

func member(role string, kind shared.ScopeKind, scopeID int64) rolecache.Membership {
	return rolecache.Membership{
		RoleName:  role,
		Level:     shared.RoleLevel(role),
		ScopeType: kind,
		ScopeID:   scopeID,
	}
}

func buildContext(t *testing.T, contexts stubContexts, userID int64) *authz.Context {
	t.Helper()
	actx, err := authz.NewBuilder(contexts).ForUser(context.Background(), userID)
	require.NoError(t, err)
	return actx
}

func TestHasRoleScopeMatching(t *testing.T) {
	contexts := stubContexts{byUser: map[int64]rolecache.RoleContext{
		1: {UserID: 1, Memberships: []rolecache.Membership{
			member(shared.RoleTeamLeader, shared.ScopeTeam, 3),
			member(shared.RoleEmployee, shared.ScopeCompany, 0),
		}},
	}}
	actx := buildContext(t, contexts, 1)

	// Any scope.
	require.True(t, actx.HasRole(shared.RoleTeamLeader, nil))
	require.False(t, actx.HasRole(shared.RoleAdmin, nil))

	// Kind only.
	require.True(t, actx.HasRole(shared.RoleTeamLeader, &shared.Scope{Kind: shared.ScopeTeam}))
	require.False(t, actx.HasRole(shared.RoleTeamLeader, &shared.Scope{Kind: shared.ScopeProject}))

	// Exact scope.
	require.True(t, actx.HasRole(shared.RoleTeamLeader, &shared.Scope{Kind: shared.ScopeTeam, ScopeID: 3}))
	require.False(t, actx.HasRole(shared.RoleTeamLeader, &shared.Scope{Kind: shared.ScopeTeam, ScopeID: 4}))
}

func TestHasAnyRole(t *testing.T) {
	contexts := stubContexts{byUser: map[int64]rolecache.RoleContext{
		1: {UserID: 1, Memberships: []rolecache.Membership{
			member(shared.RoleEmployee, shared.ScopeCompany, 0),
		}},
	}}
	actx := buildContext(t, contexts, 1)

	require.True(t, actx.HasAnyRole([]string{shared.RoleAdmin, shared.RoleEmployee}, nil))
	require.False(t, actx.HasAnyRole([]string{shared.RoleAdmin, shared.RoleHRManager}, nil))
	require.False(t, actx.HasAnyRole(nil, nil))
}

func TestGetHighestRole(t *testing.T) {
	contexts := stubContexts{byUser: map[int64]rolecache.RoleContext{
		1: {
			UserID: 1,
			HighestRoles: rolecache.HighestRoleIndex{
				Company: shared.RoleHRManager,
				Team:    map[int64]string{3: shared.RoleTeamLeader},
			},
		},
	}}
	actx := buildContext(t, contexts, 1)

	require.Equal(t, shared.RoleHRManager, actx.GetHighestRole(shared.ScopeCompany, 0))
	require.Equal(t, shared.RoleTeamLeader, actx.GetHighestRole(shared.ScopeTeam, 3))
	require.Empty(t, actx.GetHighestRole(shared.ScopeTeam, 0))
	require.Empty(t, actx.GetHighestRole(shared.ScopeDivision, 5))
}

func TestCanAccessResource(t *testing.T) {
	contexts := stubContexts{byUser: map[int64]rolecache.RoleContext{
		1: {UserID: 1, Memberships: []rolecache.Membership{
			member(shared.RoleAdmin, shared.ScopeCompany, 0),
		}},
		2: {UserID: 2, Memberships: []rolecache.Membership{
			member(shared.RoleProjectManager, shared.ScopeProject, 7),
		}},
	}}

	admin := buildContext(t, contexts, 1)
	allowed, err := admin.CanAccessResource(context.Background(), "project", 7)
	require.NoError(t, err)
	require.True(t, allowed)
	allowed, err = admin.CanAccessResource(context.Background(), "division", 99)
	require.NoError(t, err)
	require.True(t, allowed)

	pm := buildContext(t, contexts, 2)
	allowed, err = pm.CanAccessResource(context.Background(), "project", 7)
	require.NoError(t, err)
	require.True(t, allowed)
	allowed, err = pm.CanAccessResource(context.Background(), "project", 8)
	require.NoError(t, err)
	require.False(t, allowed)
	allowed, err = pm.CanAccessResource(context.Background(), "team", 7)
	require.NoError(t, err)
	require.False(t, allowed)

	// Unknown resource types always deny.
	allowed, err = pm.CanAccessResource(context.Background(), "warehouse", 7)
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestCanApproveRequestAdminBypass(t *testing.T) {
	contexts := stubContexts{byUser: map[int64]rolecache.RoleContext{
		1: {UserID: 1, Memberships: []rolecache.Membership{
			member(shared.RoleAdmin, shared.ScopeCompany, 0),
		}},
	}}
	admin := buildContext(t, contexts, 1)

	allowed, err := admin.CanApproveRequest(context.Background(), 2, "expense")
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestCanApproveRequestHRManagerAllowList(t *testing.T) {
	contexts := stubContexts{byUser: map[int64]rolecache.RoleContext{
		1: {UserID: 1, Memberships: []rolecache.Membership{
			member(shared.RoleHRManager, shared.ScopeCompany, 0),
		}},
		2: {UserID: 2, Memberships: []rolecache.Membership{
			member(shared.RoleEmployee, shared.ScopeCompany, 0),
		}},
	}}
	hr := buildContext(t, contexts, 1)

	for _, requestType := range []string{"day-off", "day_off", "remote-work", "remote_work"} {
		allowed, err := hr.CanApproveRequest(context.Background(), 2, requestType)
		require.NoError(t, err)
		require.True(t, allowed, requestType)
	}

	// Outside the HR request types the company hr_manager has no special power.
	allowed, err := hr.CanApproveRequest(context.Background(), 2, "expense")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestCanApproveRequestManagerRelationship(t *testing.T) {
	contexts := stubContexts{byUser: map[int64]rolecache.RoleContext{
		1: {UserID: 1, Memberships: []rolecache.Membership{
			member(shared.RoleTeamLeader, shared.ScopeTeam, 3),
		}},
		2: {UserID: 2, Memberships: []rolecache.Membership{
			member(shared.RoleEmployee, shared.ScopeCompany, 0),
			member(shared.RoleEmployee, shared.ScopeTeam, 3),
		}},
		3: {UserID: 3, Memberships: []rolecache.Membership{
			member(shared.RoleEmployee, shared.ScopeTeam, 4),
		}},
	}}
	leader := buildContext(t, contexts, 1)

	// Owner participates in team 3, which the actor leads.
	allowed, err := leader.CanApproveRequest(context.Background(), 2, "expense")
	require.NoError(t, err)
	require.True(t, allowed)

	// Owner is in a different team.
	allowed, err = leader.CanApproveRequest(context.Background(), 3, "expense")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestCanApproveRequestOwnerWithoutMembershipsDenied(t *testing.T) {
	contexts := stubContexts{byUser: map[int64]rolecache.RoleContext{
		1: {UserID: 1, Memberships: []rolecache.Membership{
			member(shared.RoleTeamLeader, shared.ScopeTeam, 3),
		}},
	}}
	leader := buildContext(t, contexts, 1)

	allowed, err := leader.CanApproveRequest(context.Background(), 404, "expense")
	require.NoError(t, err)
	require.False(t, allowed)
}

func TestCanApproveRequestOwnerLookupFailureFailsClosed(t *testing.T) {
	contexts := stubContexts{
		byUser: map[int64]rolecache.RoleContext{
			1: {UserID: 1, Memberships: []rolecache.Membership{
				member(shared.RoleTeamLeader, shared.ScopeTeam, 3),
			}},
		},
		errFor: map[int64]error{2: errors.New("store down")},
	}
	actx := buildContext(t, contexts, 1)

	allowed, err := actx.CanApproveRequest(context.Background(), 2, "expense")
	require.Error(t, err)
	require.False(t, allowed)
}
