package orgs

import (
	"context"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// RepositoryPort defines data access methods for scope entities.
type RepositoryPort interface {
	ListDivisions(ctx context.Context) ([]Division, error)
	ListTeams(ctx context.Context) ([]Team, error)
	ListProjects(ctx context.Context) ([]Project, error)
	ScopeEntityExists(ctx context.Context, kind shared.ScopeKind, id int64) (bool, error)
	ScopeEntityName(ctx context.Context, kind shared.ScopeKind, id int64) (string, error)
}
