package assignments

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-hr/meridian-hr/internal/audit"
	"github.com/meridian-hr/meridian-hr/internal/roles"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// ScopeValidator confirms a scope refers to a live organizational entity.
type ScopeValidator interface {
	ValidateScope(ctx context.Context, scope shared.Scope) error
}

// RoleCatalog resolves role records.
type RoleCatalog interface {
	GetRole(ctx context.Context, id int64) (roles.Role, error)
	GetRoleByName(ctx context.Context, name string) (roles.Role, error)
}

// UserDirectory answers user existence checks.
type UserDirectory interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Invalidator drops cached role contexts after writes. Every write path in
// this service must invalidate before reporting success.
type Invalidator interface {
	Invalidate(ctx context.Context, userID int64) error
	InvalidateMany(ctx context.Context, userIDs []int64) error
}

// AuditRecorder appends audit entries, inside or outside a transaction.
type AuditRecorder interface {
	RecordTx(ctx context.Context, tx pgx.Tx, entry audit.Entry) error
}

// SeatNotifier triggers downstream notification after a seat change.
// Delivery is best-effort; failures are logged, never returned.
type SeatNotifier interface {
	NotifySeatChange(ctx context.Context, notice SeatChangeNotice) error
}

// SeatChangeNotice describes a seat replacement for notification purposes.
type SeatChangeNotice struct {
	ScopeType      shared.ScopeKind `json:"scope_type"`
	ScopeID        int64            `json:"scope_id"`
	RoleName       string           `json:"role_name"`
	NewUserID      int64            `json:"new_user_id"`
	ReplacedUserID int64            `json:"replaced_user_id,omitempty"`
	InstalledBy    int64            `json:"installed_by"`
}

// Service is the role-assignment store plus the seat manager layered on top.
type Service struct {
	repo     RepositoryPort
	scopes   ScopeValidator
	catalog  RoleCatalog
	users    UserDirectory
	cache    Invalidator
	auditor  AuditRecorder
	notifier SeatNotifier
	logger   *slog.Logger
}

// NewService constructs a Service. notifier may be nil.
func NewService(repo RepositoryPort, scopes ScopeValidator, catalog RoleCatalog, users UserDirectory, cache Invalidator, auditor AuditRecorder, notifier SeatNotifier, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		scopes:   scopes,
		catalog:  catalog,
		users:    users,
		cache:    cache,
		auditor:  auditor,
		notifier: notifier,
		logger:   logger,
	}
}

// Assign creates a live assignment for an ordinary role. Seat exclusivity is
// not enforced here; exclusive roles go through InstallSeat.
func (s *Service) Assign(ctx context.Context, req Request, assignedBy int64) (Assignment, error) {
	scope := shared.Scope{Kind: req.ScopeType, ScopeID: req.ScopeID}
	if err := s.scopes.ValidateScope(ctx, scope); err != nil {
		return Assignment{}, err
	}
	if _, err := s.catalog.GetRole(ctx, req.RoleID); err != nil {
		return Assignment{}, fmt.Errorf("role %d: %w", req.RoleID, err)
	}
	exists, err := s.users.Exists(ctx, req.UserID)
	if err != nil {
		return Assignment{}, err
	}
	if !exists {
		return Assignment{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, req.UserID)
	}
	dup, err := s.repo.FindLive(ctx, req.UserID, req.RoleID, scope)
	if err != nil {
		return Assignment{}, err
	}
	if dup != nil {
		return Assignment{}, fmt.Errorf("%w: user %d already holds role %d in this scope", shared.ErrConflict, req.UserID, req.RoleID)
	}
	created, err := s.repo.Insert(ctx, req.UserID, req.RoleID, scope, assignedBy)
	if err != nil {
		return Assignment{}, err
	}
	if err := s.cache.Invalidate(ctx, req.UserID); err != nil {
		// The insert committed; the caller must retry invalidation.
		return created, fmt.Errorf("%w: invalidate role cache for user %d: %v", shared.ErrUnavailable, req.UserID, err)
	}
	return created, nil
}

// Revoke soft-deletes the live assignment matching all four dimensions.
func (s *Service) Revoke(ctx context.Context, userID, roleID int64, scope shared.Scope, revokedBy int64) (Assignment, error) {
	live, err := s.repo.FindLive(ctx, userID, roleID, scope)
	if err != nil {
		return Assignment{}, err
	}
	if live == nil {
		return Assignment{}, fmt.Errorf("%w: no live assignment for user %d role %d", shared.ErrNotFound, userID, roleID)
	}
	revoked, err := s.repo.SoftRevoke(ctx, live.ID, revokedBy)
	if err != nil {
		return Assignment{}, err
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		return revoked, fmt.Errorf("%w: invalidate role cache for user %d: %v", shared.ErrUnavailable, userID, err)
	}
	return revoked, nil
}

// ListByUser returns the user's live assignments ordered by scope then recency.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Assignment, error) {
	return s.repo.ListLiveByUser(ctx, userID)
}

// ListByScope returns the user's live assignments within one scope.
func (s *Service) ListByScope(ctx context.Context, userID int64, scope shared.Scope) ([]Assignment, error) {
	if !scope.Kind.Known() {
		return nil, fmt.Errorf("%w: unknown scope kind %q", shared.ErrInvalidInput, scope.Kind)
	}
	return s.repo.ListLiveByScope(ctx, userID, scope)
}

// ListHoldersOfRole returns the live holders of a role within a scope.
func (s *Service) ListHoldersOfRole(ctx context.Context, roleName string, scope shared.Scope) ([]Holder, error) {
	if roleName == "" {
		return nil, fmt.Errorf("%w: role name required", shared.ErrInvalidInput)
	}
	if !scope.Kind.Known() {
		return nil, fmt.Errorf("%w: unknown scope kind %q", shared.ErrInvalidInput, scope.Kind)
	}
	return s.repo.ListHolders(ctx, roleName, scope)
}

// BulkAssign applies each request independently. A failure on one request
// never rolls back the others; callers receive a per-item result list.
func (s *Service) BulkAssign(ctx context.Context, reqs []Request, assignedBy int64) []BulkResult {
	results := make([]BulkResult, 0, len(reqs))
	for _, req := range reqs {
		created, err := s.Assign(ctx, req, assignedBy)
		item := BulkResult{Request: req}
		if err != nil {
			item.Err = err
			item.Error = err.Error()
			if s.logger != nil {
				s.logger.Warn("bulk assign item failed",
					slog.Int64("user_id", req.UserID),
					slog.Int64("role_id", req.RoleID),
					slog.Any("error", err))
			}
		} else {
			item.Assignment = &created
		}
		results = append(results, item)
	}
	return results
}
