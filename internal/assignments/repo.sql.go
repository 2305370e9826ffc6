package assignments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// dbtx abstracts pool and transaction query execution.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("assignments repository not initialised")
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (t *txRepository) Tx() pgx.Tx { return t.tx }

const assignmentColumns = `ra.id, ra.user_id, ra.role_id, ro.name, ra.scope_type, ra.scope_id, ra.assigned_by, ra.created_at, ra.deleted_at`

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	var scopeID *int64
	if err := row.Scan(&a.ID, &a.UserID, &a.RoleID, &a.RoleName, &a.ScopeType, &scopeID, &a.AssignedBy, &a.CreatedAt, &a.RevokedAt); err != nil {
		return Assignment{}, err
	}
	if scopeID != nil {
		a.ScopeID = *scopeID
	}
	return a, nil
}

func scopeIDArg(scope shared.Scope) any {
	if scope.Kind == shared.ScopeCompany || scope.ScopeID == 0 {
		return nil
	}
	return scope.ScopeID
}

func insertAssignment(ctx context.Context, q dbtx, userID, roleID int64, scope shared.Scope, assignedBy int64) (Assignment, error) {
	row := q.QueryRow(ctx, `WITH inserted AS (
	INSERT INTO role_assignments (user_id, role_id, scope_type, scope_id, assigned_by, created_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	RETURNING id, user_id, role_id, scope_type, scope_id, assigned_by, created_at, deleted_at
)
SELECT ra.id, ra.user_id, ra.role_id, ro.name, ra.scope_type, ra.scope_id, ra.assigned_by, ra.created_at, ra.deleted_at
FROM inserted ra JOIN roles ro ON ro.id = ra.role_id`,
		userID, roleID, string(scope.Kind), scopeIDArg(scope), assignedBy)
	a, err := scanAssignment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Assignment{}, fmt.Errorf("%w: live assignment already exists", shared.ErrConflict)
		}
		return Assignment{}, err
	}
	return a, nil
}

func findLive(ctx context.Context, q dbtx, userID, roleID int64, scope shared.Scope) (*Assignment, error) {
	row := q.QueryRow(ctx, `SELECT `+assignmentColumns+`
FROM role_assignments ra
JOIN roles ro ON ro.id = ra.role_id
WHERE ra.user_id = $1 AND ra.role_id = $2 AND ra.scope_type = $3
  AND ra.scope_id IS NOT DISTINCT FROM $4 AND ra.deleted_at IS NULL`,
		userID, roleID, string(scope.Kind), scopeIDArg(scope))
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func softRevoke(ctx context.Context, q dbtx, id, revokedBy int64) (Assignment, error) {
	row := q.QueryRow(ctx, `WITH revoked AS (
	UPDATE role_assignments SET deleted_at = NOW(), revoked_by = $2
	WHERE id = $1 AND deleted_at IS NULL
	RETURNING id, user_id, role_id, scope_type, scope_id, assigned_by, created_at, deleted_at
)
SELECT ra.id, ra.user_id, ra.role_id, ro.name, ra.scope_type, ra.scope_id, ra.assigned_by, ra.created_at, ra.deleted_at
FROM revoked ra JOIN roles ro ON ro.id = ra.role_id`, id, revokedBy)
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, fmt.Errorf("%w: assignment %d", shared.ErrNotFound, id)
		}
		return Assignment{}, err
	}
	return a, nil
}

func listLiveByUser(ctx context.Context, q dbtx, userID int64) ([]Assignment, error) {
	rows, err := q.Query(ctx, `SELECT `+assignmentColumns+`
FROM role_assignments ra
JOIN roles ro ON ro.id = ra.role_id
WHERE ra.user_id = $1 AND ra.deleted_at IS NULL
ORDER BY ra.scope_type, ra.scope_id NULLS FIRST, ra.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// Insert creates a live assignment. A unique-violation on the partial live
// index surfaces as ErrConflict.
func (r *Repository) Insert(ctx context.Context, userID, roleID int64, scope shared.Scope, assignedBy int64) (Assignment, error) {
	return insertAssignment(ctx, r.pool, userID, roleID, scope, assignedBy)
}

// FindLive returns the live assignment matching all four dimensions, or nil.
func (r *Repository) FindLive(ctx context.Context, userID, roleID int64, scope shared.Scope) (*Assignment, error) {
	return findLive(ctx, r.pool, userID, roleID, scope)
}

// SoftRevoke marks the assignment revoked. History stays queryable.
func (r *Repository) SoftRevoke(ctx context.Context, id, revokedBy int64) (Assignment, error) {
	return softRevoke(ctx, r.pool, id, revokedBy)
}

// ListLiveByUser returns the user's live assignments ordered by scope then recency.
func (r *Repository) ListLiveByUser(ctx context.Context, userID int64) ([]Assignment, error) {
	return listLiveByUser(ctx, r.pool, userID)
}

// ListLiveByScope returns the user's live assignments within one scope.
func (r *Repository) ListLiveByScope(ctx context.Context, userID int64, scope shared.Scope) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+assignmentColumns+`
FROM role_assignments ra
JOIN roles ro ON ro.id = ra.role_id
WHERE ra.user_id = $1 AND ra.scope_type = $2 AND ra.scope_id IS NOT DISTINCT FROM $3
  AND ra.deleted_at IS NULL
ORDER BY ra.created_at DESC`, userID, string(scope.Kind), scopeIDArg(scope))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ListHolders returns the live holders of a role within a scope.
func (r *Repository) ListHolders(ctx context.Context, roleName string, scope shared.Scope) ([]Holder, error) {
	rows, err := r.pool.Query(ctx, `SELECT u.id, u.email, u.name, ra.created_at
FROM role_assignments ra
JOIN roles ro ON ro.id = ra.role_id
JOIN users u ON u.id = ra.user_id
WHERE ro.name = $1 AND ra.scope_type = $2 AND ra.scope_id IS NOT DISTINCT FROM $3
  AND ra.deleted_at IS NULL AND u.deleted_at IS NULL
ORDER BY ra.created_at DESC`, roleName, string(scope.Kind), scopeIDArg(scope))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var holders []Holder
	for rows.Next() {
		var h Holder
		if err := rows.Scan(&h.UserID, &h.Email, &h.Name, &h.AssignedAt); err != nil {
			return nil, err
		}
		holders = append(holders, h)
	}
	return holders, rows.Err()
}

func (t *txRepository) Insert(ctx context.Context, userID, roleID int64, scope shared.Scope, assignedBy int64) (Assignment, error) {
	return insertAssignment(ctx, t.tx, userID, roleID, scope, assignedBy)
}

func (t *txRepository) FindLive(ctx context.Context, userID, roleID int64, scope shared.Scope) (*Assignment, error) {
	return findLive(ctx, t.tx, userID, roleID, scope)
}

func (t *txRepository) SoftRevoke(ctx context.Context, id, revokedBy int64) (Assignment, error) {
	return softRevoke(ctx, t.tx, id, revokedBy)
}

func (t *txRepository) ListLiveByUser(ctx context.Context, userID int64) ([]Assignment, error) {
	return listLiveByUser(ctx, t.tx, userID)
}

// LockLiveHolder locks and returns the current live holder row for a seat
// role within a scope, or nil when the seat is empty.
func (t *txRepository) LockLiveHolder(ctx context.Context, roleID int64, scope shared.Scope) (*Assignment, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+assignmentColumns+`
FROM role_assignments ra
JOIN roles ro ON ro.id = ra.role_id
WHERE ra.role_id = $1 AND ra.scope_type = $2 AND ra.scope_id IS NOT DISTINCT FROM $3
  AND ra.deleted_at IS NULL
FOR UPDATE OF ra`, roleID, string(scope.Kind), scopeIDArg(scope))
	a, err := scanAssignment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// LockScopeEntity serializes concurrent seat installs for the same scope by
// locking the scope's entity row. Without this, two installs racing on an
// empty seat could both insert.
func (t *txRepository) LockScopeEntity(ctx context.Context, scope shared.Scope) error {
	var table string
	switch scope.Kind {
	case shared.ScopeDivision:
		table = "divisions"
	case shared.ScopeTeam:
		table = "teams"
	case shared.ScopeProject:
		table = "projects"
	default:
		return nil
	}
	var id int64
	err := t.tx.QueryRow(ctx, `SELECT id FROM `+table+` WHERE id = $1 AND deleted_at IS NULL FOR UPDATE`, scope.ScopeID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s %d", shared.ErrNotFound, scope.Kind, scope.ScopeID)
		}
		return err
	}
	return nil
}
