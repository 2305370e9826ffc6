package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// Mode selects how a permission requirement is evaluated.
type Mode string

const (
	// ModeSingle requires exactly the one listed permission.
	ModeSingle Mode = "SINGLE"
	// ModeAny passes when the user holds at least one listed permission.
	ModeAny Mode = "ANY"
	// ModeAll passes only when the user holds every listed permission.
	ModeAll Mode = "ALL"
)

// PermissionSource resolves a user's deduplicated permission names across
// every live role assignment.
type PermissionSource interface {
	EffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

// Gate is the coarse permission check applied before scope-aware decisions.
type Gate struct {
	perms  PermissionSource
	logger *slog.Logger
}

// NewGate constructs a Gate.
func NewGate(perms PermissionSource, logger *slog.Logger) *Gate {
	return &Gate{perms: perms, logger: logger}
}

// Check evaluates the requirement for a user. An empty requirement or a zero
// user id passes: operations without permission metadata are ungated. Denials
// return ErrForbidden carrying the missing permission names; callers exposing
// the error over HTTP must not echo that detail to the client.
func (g *Gate) Check(ctx context.Context, userID int64, required []string, mode Mode) error {
	if len(required) == 0 || userID == 0 {
		return nil
	}
	granted, err := g.perms.EffectivePermissions(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve permissions for user %d: %w", userID, err)
	}
	held := make(map[string]struct{}, len(granted))
	for _, name := range granted {
		held[name] = struct{}{}
	}

	var missing []string
	for _, name := range required {
		if _, ok := held[name]; !ok {
			missing = append(missing, name)
		}
	}

	allowed := false
	switch mode {
	case ModeAny:
		allowed = len(missing) < len(required)
	case ModeSingle, ModeAll:
		allowed = len(missing) == 0
	default:
		return fmt.Errorf("%w: unknown permission mode %q", shared.ErrInvalidInput, mode)
	}
	if allowed {
		return nil
	}
	if g.logger != nil {
		g.logger.Info("permission denied",
			slog.Int64("user_id", userID),
			slog.String("mode", string(mode)),
			slog.Any("missing", missing))
	}
	return fmt.Errorf("%w: missing permissions %v", shared.ErrForbidden, missing)
}
