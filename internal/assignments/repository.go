package assignments

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// RepositoryPort defines data access methods for role assignments.
type RepositoryPort interface {
	Insert(ctx context.Context, userID, roleID int64, scope shared.Scope, assignedBy int64) (Assignment, error)
	FindLive(ctx context.Context, userID, roleID int64, scope shared.Scope) (*Assignment, error)
	SoftRevoke(ctx context.Context, id, revokedBy int64) (Assignment, error)
	ListLiveByUser(ctx context.Context, userID int64) ([]Assignment, error)
	ListLiveByScope(ctx context.Context, userID int64, scope shared.Scope) ([]Assignment, error)
	ListHolders(ctx context.Context, roleName string, scope shared.Scope) ([]Holder, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes assignment writes bound to one transaction. The seat
// manager uses it so revoke-then-create sequences commit or roll back as one.
type TxRepository interface {
	Insert(ctx context.Context, userID, roleID int64, scope shared.Scope, assignedBy int64) (Assignment, error)
	FindLive(ctx context.Context, userID, roleID int64, scope shared.Scope) (*Assignment, error)
	SoftRevoke(ctx context.Context, id, revokedBy int64) (Assignment, error)
	ListLiveByUser(ctx context.Context, userID int64) ([]Assignment, error)
	LockLiveHolder(ctx context.Context, roleID int64, scope shared.Scope) (*Assignment, error)
	LockScopeEntity(ctx context.Context, scope shared.Scope) error
	Tx() pgx.Tx
}
