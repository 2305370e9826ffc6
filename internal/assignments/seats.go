package assignments

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/meridian-hr/meridian-hr/internal/audit"
	"github.com/meridian-hr/meridian-hr/internal/shared"
)

// InstallSeat makes newUserID the single live holder of the exclusive role
// for the given scope. The incumbent, if any, is soft-revoked in the same
// transaction as the new assignment and the audit entry.
func (s *Service) InstallSeat(ctx context.Context, kind shared.ScopeKind, scopeID, newUserID, installedBy int64) (SeatChange, error) {
	seatRole, ok := shared.SeatRoleForKind(kind)
	if !ok {
		return SeatChange{}, fmt.Errorf("%w: scope kind %q has no seat role", shared.ErrInvalidInput, kind)
	}
	scope := shared.Scope{Kind: kind, ScopeID: scopeID}
	if err := s.scopes.ValidateScope(ctx, scope); err != nil {
		return SeatChange{}, err
	}
	exists, err := s.users.Exists(ctx, newUserID)
	if err != nil {
		return SeatChange{}, err
	}
	if !exists {
		return SeatChange{}, fmt.Errorf("%w: user %d", shared.ErrNotFound, newUserID)
	}
	// Seat role records are seeded; absence is an operational fault, not a
	// caller mistake.
	role, err := s.catalog.GetRoleByName(ctx, seatRole)
	if err != nil {
		return SeatChange{}, fmt.Errorf("seat role %q: %w", seatRole, err)
	}

	var change SeatChange
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.LockScopeEntity(ctx, scope); err != nil {
			return err
		}
		incumbent, err := tx.LockLiveHolder(ctx, role.ID, scope)
		if err != nil {
			return err
		}
		if incumbent != nil {
			if incumbent.UserID == newUserID {
				return fmt.Errorf("%w: user %d already holds %s for %s %d", shared.ErrConflict, newUserID, seatRole, kind, scopeID)
			}
			if _, err := tx.SoftRevoke(ctx, incumbent.ID, installedBy); err != nil {
				return err
			}
			change.ReplacedUserID = incumbent.UserID
		}
		created, err := tx.Insert(ctx, newUserID, role.ID, scope, installedBy)
		if err != nil {
			return err
		}
		change.NewAssignment = created

		props := map[string]any{
			"scope_type": string(kind),
			"scope_id":   scopeID,
			"role":       seatRole,
		}
		if change.ReplacedUserID != 0 {
			props["replaced_user_id"] = change.ReplacedUserID
		}
		return s.auditor.RecordTx(ctx, tx.Tx(), audit.Entry{
			SubjectType: "user",
			SubjectID:   strconv.FormatInt(newUserID, 10),
			CauserType:  "user",
			CauserID:    installedBy,
			Event:       audit.EventRoleAssigned,
			Description: fmt.Sprintf("installed %s for %s %d", seatRole, kind, scopeID),
			Properties:  props,
		})
	})
	if err != nil {
		return SeatChange{}, err
	}

	affected := []int64{newUserID}
	if change.ReplacedUserID != 0 {
		affected = append(affected, change.ReplacedUserID)
	}
	if err := s.cache.InvalidateMany(ctx, affected); err != nil {
		return change, fmt.Errorf("%w: invalidate role cache: %v", shared.ErrUnavailable, err)
	}

	if s.notifier != nil {
		notice := SeatChangeNotice{
			ScopeType:      kind,
			ScopeID:        scopeID,
			RoleName:       seatRole,
			NewUserID:      newUserID,
			ReplacedUserID: change.ReplacedUserID,
			InstalledBy:    installedBy,
		}
		if err := s.notifier.NotifySeatChange(ctx, notice); err != nil && s.logger != nil {
			s.logger.Warn("enqueue seat change notice", slog.Any("error", err))
		}
	}
	return change, nil
}

// VacateSeat revokes the user's seat assignment for the scope. When the user
// would be left role-less, a baseline employee/COMPANY assignment is created
// in the same transaction; no user ends up with zero roles.
func (s *Service) VacateSeat(ctx context.Context, kind shared.ScopeKind, scopeID, userID, vacatedBy int64) (VacateResult, error) {
	seatRole, ok := shared.SeatRoleForKind(kind)
	if !ok {
		return VacateResult{}, fmt.Errorf("%w: scope kind %q has no seat role", shared.ErrInvalidInput, kind)
	}
	scope := shared.Scope{Kind: kind, ScopeID: scopeID}
	if err := s.scopes.ValidateScope(ctx, scope); err != nil {
		return VacateResult{}, err
	}
	role, err := s.catalog.GetRoleByName(ctx, seatRole)
	if err != nil {
		return VacateResult{}, fmt.Errorf("seat role %q: %w", seatRole, err)
	}

	var result VacateResult
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		live, err := tx.FindLive(ctx, userID, role.ID, scope)
		if err != nil {
			return err
		}
		if live == nil {
			return fmt.Errorf("%w: user %d does not hold %s for %s %d", shared.ErrNotFound, userID, seatRole, kind, scopeID)
		}
		revoked, err := tx.SoftRevoke(ctx, live.ID, vacatedBy)
		if err != nil {
			return err
		}
		result.Revoked = revoked

		remaining, err := tx.ListLiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			baseline, err := s.catalog.GetRoleByName(ctx, shared.RoleEmployee)
			if err != nil {
				return fmt.Errorf("baseline role %q: %w", shared.RoleEmployee, err)
			}
			created, err := tx.Insert(ctx, userID, baseline.ID, shared.CompanyScope(), vacatedBy)
			if err != nil {
				return err
			}
			remaining = []Assignment{created}
			result.BaselineAutoAssigned = true
		}
		result.RemainingRoles = remaining

		return s.auditor.RecordTx(ctx, tx.Tx(), audit.Entry{
			SubjectType: "user",
			SubjectID:   strconv.FormatInt(userID, 10),
			CauserType:  "user",
			CauserID:    vacatedBy,
			Event:       audit.EventRoleRevoked,
			Description: fmt.Sprintf("vacated %s for %s %d", seatRole, kind, scopeID),
			Properties: map[string]any{
				"scope_type":             string(kind),
				"scope_id":               scopeID,
				"role":                   seatRole,
				"baseline_auto_assigned": result.BaselineAutoAssigned,
			},
		})
	})
	if err != nil {
		return VacateResult{}, err
	}

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		return result, fmt.Errorf("%w: invalidate role cache for user %d: %v", shared.ErrUnavailable, userID, err)
	}
	return result, nil
}

// RouteAssignment resolves, per target user, whether the role takes the seat
// path or the ordinary path, based on the role's name. Users are processed
// independently; one failure never blocks the others.
func (s *Service) RouteAssignment(ctx context.Context, userIDs []int64, roleID, assignedBy int64, rctx RouteContext) (RouteSummary, error) {
	role, err := s.catalog.GetRole(ctx, roleID)
	if err != nil {
		return RouteSummary{}, fmt.Errorf("role %d: %w", roleID, err)
	}

	seatKind, isSeat := shared.SeatScopeKind(role.Name)
	var seatScopeID int64
	if isSeat {
		switch seatKind {
		case shared.ScopeProject:
			seatScopeID = rctx.ProjectID
		case shared.ScopeTeam:
			seatScopeID = rctx.TeamID
		case shared.ScopeDivision:
			seatScopeID = rctx.DivisionID
		}
		if seatScopeID == 0 {
			return RouteSummary{}, fmt.Errorf("%w: role %q requires a %s id in the routing context", shared.ErrInvalidInput, role.Name, seatKind)
		}
	}

	summary := RouteSummary{Results: make([]RouteResult, 0, len(userIDs))}
	for _, userID := range userIDs {
		item := RouteResult{UserID: userID}
		if isSeat {
			change, err := s.InstallSeat(ctx, seatKind, seatScopeID, userID, assignedBy)
			if err != nil {
				item.Err = err
				item.Error = err.Error()
			} else {
				item.Assignment = &change.NewAssignment
				item.Replaced = change.ReplacedUserID
			}
		} else {
			created, err := s.Assign(ctx, Request{
				UserID:    userID,
				RoleID:    roleID,
				ScopeType: rctx.scope().Kind,
				ScopeID:   rctx.scope().ScopeID,
			}, assignedBy)
			if err != nil {
				item.Err = err
				item.Error = err.Error()
			} else {
				item.Assignment = &created
			}
		}
		if item.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
		summary.Results = append(summary.Results, item)
	}
	return summary, nil
}

// scope derives the ordinary-role scope from the routing context, preferring
// the narrowest supplied id and defaulting to COMPANY.
func (c RouteContext) scope() shared.Scope {
	switch {
	case c.ProjectID != 0:
		return shared.Scope{Kind: shared.ScopeProject, ScopeID: c.ProjectID}
	case c.TeamID != 0:
		return shared.Scope{Kind: shared.ScopeTeam, ScopeID: c.TeamID}
	case c.DivisionID != 0:
		return shared.Scope{Kind: shared.ScopeDivision, ScopeID: c.DivisionID}
	}
	return shared.CompanyScope()
}
