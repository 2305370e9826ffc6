package rolecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-hr/meridian-hr/internal/assignments"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// DefaultTTL bounds how stale a cached role context may be.
const DefaultTTL = 300 * time.Second

// AssignmentSource loads a user's live assignments from the store of truth.
type AssignmentSource interface {
	ListLiveByUser(ctx context.Context, userID int64) ([]assignments.Assignment, error)
}

// ScopeNames resolves display names for scoped entities.
type ScopeNames interface {
	ScopeName(ctx context.Context, scope shared.Scope) (string, error)
}

// Service is the cache-aside read path for role contexts.
type Service struct {
	client *redis.Client
	source AssignmentSource
	names  ScopeNames
	ttl    time.Duration
	logger *slog.Logger
}

// NewService constructs the cache service. A zero ttl falls back to DefaultTTL.
func NewService(client *redis.Client, source AssignmentSource, names ScopeNames, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{client: client, source: source, names: names, ttl: ttl, logger: logger}
}

// Key builds the cache key for a user's role context.
func Key(userID int64) string {
	return fmt.Sprintf("user:roles:%d", userID)
}

// GetUserRoleContext returns the cached projection, or rebuilds it from the
// assignment store on a miss. Cache read and write failures degrade to the
// store; they never fail the request.
func (s *Service) GetUserRoleContext(ctx context.Context, userID int64) (RoleContext, error) {
	key := Key(userID)
	if s.client != nil {
		payload, err := s.client.Get(ctx, key).Bytes()
		if err == nil {
			var cached RoleContext
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, nil
			}
			if s.logger != nil {
				s.logger.Warn("decode cached role context", slog.Int64("user_id", userID))
			}
		} else if !errors.Is(err, redis.Nil) {
			if s.logger != nil {
				s.logger.Warn("role cache read", slog.Int64("user_id", userID), slog.Any("error", err))
			}
		}
	}

	built, err := s.build(ctx, userID)
	if err != nil {
		return RoleContext{}, err
	}

	if s.client != nil {
		payload, err := json.Marshal(built)
		if err == nil {
			err = s.client.Set(ctx, key, payload, s.ttl).Err()
		}
		if err != nil && s.logger != nil {
			s.logger.Warn("role cache write", slog.Int64("user_id", userID), slog.Any("error", err))
		}
	}
	return built, nil
}

func (s *Service) build(ctx context.Context, userID int64) (RoleContext, error) {
	live, err := s.source.ListLiveByUser(ctx, userID)
	if err != nil {
		return RoleContext{}, err
	}
	memberships := make([]Membership, 0, len(live))
	for _, a := range live {
		m := Membership{
			AssignmentID: a.ID,
			RoleName:     a.RoleName,
			Level:        shared.RoleLevel(a.RoleName),
			ScopeType:    a.ScopeType,
			ScopeID:      a.ScopeID,
			AssignedAt:   a.CreatedAt,
		}
		if a.ScopeType != shared.ScopeCompany {
			name, err := s.names.ScopeName(ctx, a.Scope())
			if err != nil {
				// Best-effort enrichment only; the membership stays usable.
				if s.logger != nil && !errors.Is(err, shared.ErrNotFound) {
					s.logger.Warn("resolve scope name", slog.Int64("scope_id", a.ScopeID), slog.Any("error", err))
				}
			} else {
				m.ScopeName = name
			}
		}
		memberships = append(memberships, m)
	}
	return RoleContext{
		UserID:       userID,
		Memberships:  memberships,
		HighestRoles: buildHighestRoles(memberships),
		CachedAt:     time.Now().UTC(),
	}, nil
}

// Invalidate drops the user's cache entry. Unlike reads, a failure here is a
// real error: a stale entry after a write is a correctness risk.
func (s *Service) Invalidate(ctx context.Context, userID int64) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Del(ctx, Key(userID)).Err(); err != nil {
		return fmt.Errorf("rolecache: invalidate user %d: %w", userID, err)
	}
	return nil
}

// InvalidateMany drops entries for all users concurrently. Each deletion is
// attempted even when another fails.
func (s *Service) InvalidateMany(ctx context.Context, userIDs []int64) error {
	if s.client == nil || len(userIDs) == 0 {
		return nil
	}
	var g errgroup.Group
	for _, userID := range userIDs {
		g.Go(func() error {
			return s.Invalidate(ctx, userID)
		})
	}
	return g.Wait()
}

// TTL reports the configured staleness bound.
func (s *Service) TTL() time.Duration {
	return s.ttl
}
