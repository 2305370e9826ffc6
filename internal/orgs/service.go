package orgs

import (
	"context"
	"fmt"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Service exposes the organizational directory and scope validation.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListDivisions returns all divisions.
func (s *Service) ListDivisions(ctx context.Context) ([]Division, error) {
	return s.repo.ListDivisions(ctx)
}

// ListTeams returns all teams.
func (s *Service) ListTeams(ctx context.Context) ([]Team, error) {
	return s.repo.ListTeams(ctx)
}

// ListProjects returns all projects.
func (s *Service) ListProjects(ctx context.Context) ([]Project, error) {
	return s.repo.ListProjects(ctx)
}

// ValidateScope confirms a scope refers to an existing, non-deleted entity.
// COMPANY must carry no scope id; the other kinds require one that resolves
// to a live record.
func (s *Service) ValidateScope(ctx context.Context, scope shared.Scope) error {
	if !scope.Kind.Known() {
		return fmt.Errorf("%w: unknown scope kind %q", shared.ErrInvalidInput, scope.Kind)
	}
	if scope.Kind == shared.ScopeCompany {
		if scope.ScopeID != 0 {
			return fmt.Errorf("%w: company scope must not carry a scope id", shared.ErrInvalidInput)
		}
		return nil
	}
	if scope.ScopeID == 0 {
		return fmt.Errorf("%w: scope id required for %s", shared.ErrInvalidInput, scope.Kind)
	}
	exists, err := s.repo.ScopeEntityExists(ctx, scope.Kind, scope.ScopeID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s %d", shared.ErrNotFound, scope.Kind, scope.ScopeID)
	}
	return nil
}

// ScopeName resolves the display name for a scoped entity. Company scope has
// no entity and resolves to an empty name.
func (s *Service) ScopeName(ctx context.Context, scope shared.Scope) (string, error) {
	if scope.Kind == shared.ScopeCompany {
		return "", nil
	}
	return s.repo.ScopeEntityName(ctx, scope.Kind, scope.ScopeID)
}
