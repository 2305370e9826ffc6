package orgs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hr/meridian-hr/internal/orgs"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

type stubRepo struct {
	entities map[shared.ScopeKind]map[int64]string
}

func (s stubRepo) ListDivisions(ctx context.Context) ([]orgs.Division, error) { return nil, nil }
func (s stubRepo) ListTeams(ctx context.Context) ([]orgs.Team, error)         { return nil, nil }
func (s stubRepo) ListProjects(ctx context.Context) ([]orgs.Project, error)   { return nil, nil }

func (s stubRepo) ScopeEntityExists(ctx context.Context, kind shared.ScopeKind, id int64) (bool, error) {
	_, ok := s.entities[kind][id]
	return ok, nil
}

func (s stubRepo) ScopeEntityName(ctx context.Context, kind shared.ScopeKind, id int64) (string, error) {
	name, ok := s.entities[kind][id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return name, nil
}

func newService() *orgs.Service {
	return orgs.NewService(stubRepo{entities: map[shared.ScopeKind]map[int64]string{
		shared.ScopeDivision: {2: "Engineering"},
		shared.ScopeTeam:     {3: "Platform"},
		shared.ScopeProject:  {7: "Orion Launch"},
	}})
}

func TestValidateScopeCompany(t *testing.T) {
	svc := newService()

	require.NoError(t, svc.ValidateScope(context.Background(), shared.CompanyScope()))

	err := svc.ValidateScope(context.Background(), shared.Scope{Kind: shared.ScopeCompany, ScopeID: 1})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestValidateScopeUnknownKind(t *testing.T) {
	svc := newService()

	err := svc.ValidateScope(context.Background(), shared.Scope{Kind: shared.ScopeKind("REGION"), ScopeID: 1})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestValidateScopeRequiresID(t *testing.T) {
	svc := newService()

	err := svc.ValidateScope(context.Background(), shared.Scope{Kind: shared.ScopeTeam})
	require.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestValidateScopeLiveEntity(t *testing.T) {
	svc := newService()

	require.NoError(t, svc.ValidateScope(context.Background(), shared.Scope{Kind: shared.ScopeTeam, ScopeID: 3}))
	require.NoError(t, svc.ValidateScope(context.Background(), shared.Scope{Kind: shared.ScopeProject, ScopeID: 7}))

	err := svc.ValidateScope(context.Background(), shared.Scope{Kind: shared.ScopeTeam, ScopeID: 99})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestScopeNameCompanyIsEmpty(t *testing.T) {
	svc := newService()

	name, err := svc.ScopeName(context.Background(), shared.CompanyScope())
	require.NoError(t, err)
	require.Empty(t, name)

	name, err = svc.ScopeName(context.Background(), shared.Scope{Kind: shared.ScopeDivision, ScopeID: 2})
	require.NoError(t, err)
	require.Equal(t, "Engineering", name)
}
