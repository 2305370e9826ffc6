package authz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hr/meridian-hr/internal/authz"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

type stubPerms struct {
	granted map[int64][]string
	err     error
}

func (s stubPerms) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.granted[userID], nil
}

func newGate(granted map[int64][]string) *authz.Gate {
	return authz.NewGate(stubPerms{granted: granted}, nil)
}

func TestCheckEmptyRequirementPasses(t *testing.T) {
	gate := newGate(nil)

	require.NoError(t, gate.Check(context.Background(), 1, nil, authz.ModeAll))
	require.NoError(t, gate.Check(context.Background(), 1, []string{}, authz.ModeAll))
}

func TestCheckZeroUserPasses(t *testing.T) {
	gate := newGate(nil)

	require.NoError(t, gate.Check(context.Background(), 0, []string{shared.PermUsersView}, authz.ModeSingle))
}

func TestCheckSingleMode(t *testing.T) {
	gate := newGate(map[int64][]string{1: {shared.PermUsersView}})

	require.NoError(t, gate.Check(context.Background(), 1, []string{shared.PermUsersView}, authz.ModeSingle))

	err := gate.Check(context.Background(), 1, []string{shared.PermRolesEdit}, authz.ModeSingle)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCheckAnyMode(t *testing.T) {
	gate := newGate(map[int64][]string{1: {shared.PermUsersView}})

	require.NoError(t, gate.Check(context.Background(), 1,
		[]string{shared.PermRolesEdit, shared.PermUsersView}, authz.ModeAny))

	err := gate.Check(context.Background(), 1,
		[]string{shared.PermRolesEdit, shared.PermSeatsManage}, authz.ModeAny)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCheckAllMode(t *testing.T) {
	gate := newGate(map[int64][]string{1: {shared.PermUsersView, shared.PermRolesView}})

	require.NoError(t, gate.Check(context.Background(), 1,
		[]string{shared.PermUsersView, shared.PermRolesView}, authz.ModeAll))

	err := gate.Check(context.Background(), 1,
		[]string{shared.PermUsersView, shared.PermRolesEdit}, authz.ModeAll)
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.Contains(t, err.Error(), shared.PermRolesEdit)
}

func TestCheckUnknownModeRejected(t *testing.T) {
	gate := newGate(map[int64][]string{1: {shared.PermUsersView}})

	err := gate.Check(context.Background(), 1, []string{shared.PermUsersView}, authz.Mode("SOME"))
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestCheckSourceFailurePropagates(t *testing.T) {
	boom := errors.New("db down")
	gate := authz.NewGate(stubPerms{err: boom}, nil)

	err := gate.Check(context.Background(), 1, []string{shared.PermUsersView}, authz.ModeAll)
	require.ErrorIs(t, err, boom)
}
