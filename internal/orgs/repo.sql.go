package orgs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListDivisions returns all live divisions.
func (r *Repository) ListDivisions(ctx context.Context) ([]Division, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at
FROM divisions WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var divisions []Division
	for rows.Next() {
		var d Division
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		divisions = append(divisions, d)
	}
	return divisions, rows.Err()
}

// ListTeams returns all live teams.
func (r *Repository) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, division_id, name, created_at, updated_at
FROM teams WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var teams []Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.DivisionID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// ListProjects returns all live projects.
func (r *Repository) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at, updated_at
FROM projects WHERE deleted_at IS NULL ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func tableForKind(kind shared.ScopeKind) (string, error) {
	switch kind {
	case shared.ScopeDivision:
		return "divisions", nil
	case shared.ScopeTeam:
		return "teams", nil
	case shared.ScopeProject:
		return "projects", nil
	}
	return "", fmt.Errorf("orgs: scope kind %q has no entity table", kind)
}

// ScopeEntityExists reports whether a live entity record backs the scope id.
func (r *Repository) ScopeEntityExists(ctx context.Context, kind shared.ScopeKind, id int64) (bool, error) {
	table, err := tableForKind(kind)
	if err != nil {
		return false, err
	}
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE id = $1 AND deleted_at IS NULL)`
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ScopeEntityName returns the display name for a scope entity.
func (r *Repository) ScopeEntityName(ctx context.Context, kind shared.ScopeKind, id int64) (string, error) {
	table, err := tableForKind(kind)
	if err != nil {
		return "", err
	}
	var name string
	query := `SELECT name FROM ` + table + ` WHERE id = $1 AND deleted_at IS NULL`
	if err := r.pool.QueryRow(ctx, query, id).Scan(&name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return name, nil
}
