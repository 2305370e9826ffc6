package assignments_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hr/meridian-hr/internal/assignments"
	"github.com/meridian-hr/meridian-hr/internal/audit"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

func TestInstallSeatEmptySeat(t *testing.T) {
	f := newFixture(t)

	change, err := f.service.InstallSeat(context.Background(), shared.ScopeProject, 7, 10, 99)
	require.NoError(t, err)
	require.Zero(t, change.ReplacedUserID)
	require.Equal(t, shared.RoleProjectManager, change.NewAssignment.RoleName)
	require.Equal(t, int64(7), change.NewAssignment.ScopeID)

	require.Len(t, f.auditor.entries, 1)
	require.Equal(t, audit.EventRoleAssigned, f.auditor.entries[0].Event)
	require.Equal(t, []int64{10}, f.cache.invalidated)

	require.Len(t, f.notifier.notices, 1)
	require.Equal(t, int64(10), f.notifier.notices[0].NewUserID)
}

func TestInstallSeatReplacesIncumbent(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.InstallSeat(context.Background(), shared.ScopeTeam, 3, 10, 99)
	require.NoError(t, err)
	f.cache.invalidated = nil

	change, err := f.service.InstallSeat(context.Background(), shared.ScopeTeam, 3, 11, 99)
	require.NoError(t, err)
	require.Equal(t, int64(10), change.ReplacedUserID)
	require.Equal(t, int64(11), change.NewAssignment.UserID)

	// Only the new holder is live.
	holders, err := f.repo.ListHolders(context.Background(), shared.RoleTeamLeader, shared.Scope{Kind: shared.ScopeTeam, ScopeID: 3})
	require.NoError(t, err)
	require.Len(t, holders, 1)
	require.Equal(t, int64(11), holders[0].UserID)

	// Both old and new holders get invalidated.
	require.ElementsMatch(t, []int64{10, 11}, f.cache.invalidated)

	last := f.auditor.entries[len(f.auditor.entries)-1]
	require.Equal(t, audit.EventRoleAssigned, last.Event)
	require.Equal(t, int64(10), last.Properties["replaced_user_id"])
}

func TestInstallSeatSameUserConflicts(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.InstallSeat(context.Background(), shared.ScopeDivision, 2, 10, 99)
	require.NoError(t, err)

	_, err = f.service.InstallSeat(context.Background(), shared.ScopeDivision, 2, 10, 99)
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestInstallSeatRejectsCompanyScope(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.InstallSeat(context.Background(), shared.ScopeCompany, 0, 10, 99)
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestInstallSeatUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.InstallSeat(context.Background(), shared.ScopeTeam, 3, 404, 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestVacateSeatAssignsBaselineWhenLastRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.InstallSeat(context.Background(), shared.ScopeTeam, 3, 10, 99)
	require.NoError(t, err)

	result, err := f.service.VacateSeat(context.Background(), shared.ScopeTeam, 3, 10, 99)
	require.NoError(t, err)
	require.True(t, result.BaselineAutoAssigned)
	require.NotNil(t, result.Revoked.RevokedAt)
	require.Len(t, result.RemainingRoles, 1)
	require.Equal(t, shared.RoleEmployee, result.RemainingRoles[0].RoleName)
	require.Equal(t, shared.ScopeCompany, result.RemainingRoles[0].ScopeType)

	last := f.auditor.entries[len(f.auditor.entries)-1]
	require.Equal(t, audit.EventRoleRevoked, last.Event)
	require.Equal(t, true, last.Properties["baseline_auto_assigned"])
}

func TestVacateSeatKeepsOtherRoles(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Assign(context.Background(), assignments.Request{
		UserID: 10, RoleID: 1, ScopeType: shared.ScopeCompany,
	}, 99)
	require.NoError(t, err)
	_, err = f.service.InstallSeat(context.Background(), shared.ScopeTeam, 3, 10, 99)
	require.NoError(t, err)

	result, err := f.service.VacateSeat(context.Background(), shared.ScopeTeam, 3, 10, 99)
	require.NoError(t, err)
	require.False(t, result.BaselineAutoAssigned)
	require.Len(t, result.RemainingRoles, 1)
	require.Equal(t, shared.RoleEmployee, result.RemainingRoles[0].RoleName)
}

func TestVacateSeatNotHolder(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.VacateSeat(context.Background(), shared.ScopeTeam, 3, 10, 99)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRouteAssignmentSeatRequiresMatchingContextID(t *testing.T) {
	f := newFixture(t)

	// project_manager routes to the seat path and needs a project id.
	_, err := f.service.RouteAssignment(context.Background(), []int64{10}, 3, 99, assignments.RouteContext{TeamID: 3})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestRouteAssignmentSeatPath(t *testing.T) {
	f := newFixture(t)

	summary, err := f.service.RouteAssignment(context.Background(), []int64{10}, 4, 99, assignments.RouteContext{TeamID: 3})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Succeeded)
	require.Equal(t, 0, summary.Failed)
	require.Equal(t, shared.RoleTeamLeader, summary.Results[0].Assignment.RoleName)
	require.Equal(t, shared.ScopeTeam, summary.Results[0].Assignment.ScopeType)
}

func TestRouteAssignmentOrdinaryPathUsesNarrowestScope(t *testing.T) {
	f := newFixture(t)

	summary, err := f.service.RouteAssignment(context.Background(), []int64{10, 11}, 1, 99, assignments.RouteContext{
		ProjectID:  7,
		DivisionID: 2,
	})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Succeeded)
	for _, item := range summary.Results {
		require.Equal(t, shared.ScopeProject, item.Assignment.ScopeType)
		require.Equal(t, int64(7), item.Assignment.ScopeID)
	}
}

func TestRouteAssignmentIsolatesFailures(t *testing.T) {
	f := newFixture(t)

	summary, err := f.service.RouteAssignment(context.Background(), []int64{10, 404, 11}, 1, 99, assignments.RouteContext{})
	require.NoError(t, err)
	require.Equal(t, 2, summary.Succeeded)
	require.Equal(t, 1, summary.Failed)
	require.ErrorIs(t, summary.Results[1].Err, shared.ErrNotFound)
}
