package rolecache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-hr/meridian-hr/internal/assignments"
	"github.com/meridian-hr/meridian-hr/internal/rolecache"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

type stubSource struct {
	calls int
	byID  map[int64][]assignments.Assignment
}

func (s *stubSource) ListLiveByUser(ctx context.Context, userID int64) ([]assignments.Assignment, error) {
	s.calls++
	return s.byID[userID], nil
}

type stubNames struct{}

func (stubNames) ScopeName(ctx context.Context, scope shared.Scope) (string, error) {
	return "Platform", nil
}

func newCacheService(t *testing.T, source *stubSource) (*rolecache.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rolecache.NewService(client, source, stubNames{}, time.Minute, nil), mr
}

func sampleAssignments() map[int64][]assignments.Assignment {
	return map[int64][]assignments.Assignment{
		42: {
			{ID: 1, UserID: 42, RoleID: 1, RoleName: shared.RoleEmployee, ScopeType: shared.ScopeCompany, CreatedAt: time.Now().UTC()},
			{ID: 2, UserID: 42, RoleID: 4, RoleName: shared.RoleTeamLeader, ScopeType: shared.ScopeTeam, ScopeID: 3, CreatedAt: time.Now().UTC()},
		},
	}
}

func TestGetUserRoleContextMissBuildsAndCaches(t *testing.T) {
	source := &stubSource{byID: sampleAssignments()}
	svc, mr := newCacheService(t, source)

	rc, err := svc.GetUserRoleContext(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, int64(42), rc.UserID)
	require.Len(t, rc.Memberships, 2)
	require.Equal(t, 1, source.calls)
	require.True(t, mr.Exists(rolecache.Key(42)))

	// Second read is served from cache without touching the store.
	again, err := svc.GetUserRoleContext(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, rc.UserID, again.UserID)
	require.Len(t, again.Memberships, 2)
	require.Equal(t, 1, source.calls)
}

func TestGetUserRoleContextEnrichesScopeNames(t *testing.T) {
	source := &stubSource{byID: sampleAssignments()}
	svc, _ := newCacheService(t, source)

	rc, err := svc.GetUserRoleContext(context.Background(), 42)
	require.NoError(t, err)
	var teamMembership *rolecache.Membership
	for i := range rc.Memberships {
		if rc.Memberships[i].ScopeType == shared.ScopeTeam {
			teamMembership = &rc.Memberships[i]
		}
	}
	require.NotNil(t, teamMembership)
	require.Equal(t, "Platform", teamMembership.ScopeName)
	require.Equal(t, shared.RoleLevel(shared.RoleTeamLeader), teamMembership.Level)
}

func TestInvalidateDropsEntry(t *testing.T) {
	source := &stubSource{byID: sampleAssignments()}
	svc, mr := newCacheService(t, source)

	_, err := svc.GetUserRoleContext(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, mr.Exists(rolecache.Key(42)))

	require.NoError(t, svc.Invalidate(context.Background(), 42))
	require.False(t, mr.Exists(rolecache.Key(42)))

	// Next read rebuilds from the store: no stale window after a write.
	_, err = svc.GetUserRoleContext(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, 2, source.calls)
}

func TestInvalidateManyDropsAllEntries(t *testing.T) {
	byID := sampleAssignments()
	byID[43] = []assignments.Assignment{
		{ID: 3, UserID: 43, RoleID: 1, RoleName: shared.RoleEmployee, ScopeType: shared.ScopeCompany, CreatedAt: time.Now().UTC()},
	}
	source := &stubSource{byID: byID}
	svc, mr := newCacheService(t, source)

	_, err := svc.GetUserRoleContext(context.Background(), 42)
	require.NoError(t, err)
	_, err = svc.GetUserRoleContext(context.Background(), 43)
	require.NoError(t, err)

	require.NoError(t, svc.InvalidateMany(context.Background(), []int64{42, 43}))
	require.False(t, mr.Exists(rolecache.Key(42)))
	require.False(t, mr.Exists(rolecache.Key(43)))
}

func TestCacheReadFailureFallsBackToStore(t *testing.T) {
	source := &stubSource{byID: sampleAssignments()}
	svc, mr := newCacheService(t, source)

	// A poisoned entry must not fail the read; it degrades to a rebuild.
	require.NoError(t, mr.Set(rolecache.Key(42), "{not json"))

	rc, err := svc.GetUserRoleContext(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, rc.Memberships, 2)
	require.Equal(t, 1, source.calls)
}

func TestCacheWriteFailureDoesNotFailRead(t *testing.T) {
	source := &stubSource{byID: sampleAssignments()}
	svc, mr := newCacheService(t, source)
	mr.Close()

	rc, err := svc.GetUserRoleContext(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, rc.Memberships, 2)
}
