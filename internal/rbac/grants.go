package rbac

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/praxis-pm/praxis/internal/audit"
	"github.com/praxis-pm/praxis/internal/permissions"
	"github.com/praxis-pm/praxis/internal/shared"
)

// GrantService maintains the role-to-permission junction. Every successful
// mutation writes an audit entry in the same transaction and then clears all
// verification caches: the affected user set is not known without a join, so
// everyone is invalidated rather than risking staleness.
type GrantService struct {
	store    Store
	roles    RoleDirectory
	perms    PermissionDirectory
	verifier *Verifier
	logger   *slog.Logger
}

// NewGrantService builds a GrantService.
func NewGrantService(store Store, roles RoleDirectory, perms PermissionDirectory, verifier *Verifier, logger *slog.Logger) *GrantService {
	return &GrantService{store: store, roles: roles, perms: perms, verifier: verifier, logger: logger}
}

// Grant attaches a permission to a role. Returns (nil, nil) when the pair
// already exists or either id does not resolve; both are recoverable no-ops.
func (s *GrantService) Grant(ctx context.Context, roleID, permissionID uuid.UUID, grantedBy *uuid.UUID) (*RolePermission, error) {
	exists, err := s.store.GrantExists(ctx, roleID, permissionID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	perm, err := s.perms.FindByID(ctx, permissionID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	now := time.Now().UTC()
	grant := RolePermission{
		ID:           uuid.New(),
		RoleID:       role.ID,
		PermissionID: perm.ID,
		AssignedAt:   now,
	}
	entry := audit.Entry{
		ID:           uuid.New(),
		RoleID:       &role.ID,
		PermissionID: &perm.ID,
		Action:       audit.ActionGrantPermission,
		PerformedBy:  grantedBy,
		PerformedAt:  now,
	}
	if err := s.store.CreateGrant(ctx, grant, entry); err != nil {
		return nil, err
	}

	// Invalidate only after the store commit so no reader repopulates a
	// pre-mutation entry that then survives.
	s.verifier.ClearAll()
	if s.logger != nil {
		s.logger.Info("permission granted",
			slog.String("role", role.Name),
			slog.String("permission", perm.String()))
	}
	return &grant, nil
}

// Revoke detaches a permission from a role. A missing pair is a no-op.
func (s *GrantService) Revoke(ctx context.Context, roleID, permissionID uuid.UUID, revokedBy *uuid.UUID) error {
	exists, err := s.store.GrantExists(ctx, roleID, permissionID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	entry := audit.Entry{
		ID:           uuid.New(),
		RoleID:       &roleID,
		PermissionID: &permissionID,
		Action:       audit.ActionRevokePermission,
		PerformedBy:  revokedBy,
		PerformedAt:  time.Now().UTC(),
	}
	if err := s.store.DeleteGrant(ctx, roleID, permissionID, entry); err != nil {
		return err
	}

	s.verifier.ClearAll()
	return nil
}

// ListByRole returns the junction rows of a role.
func (s *GrantService) ListByRole(ctx context.Context, roleID uuid.UUID) ([]RolePermission, error) {
	return s.store.GrantsByRole(ctx, roleID)
}

// ListPermissionsByRole returns a role's permissions, eagerly resolved.
func (s *GrantService) ListPermissionsByRole(ctx context.Context, roleID uuid.UUID) ([]permissions.Permission, error) {
	return s.store.PermissionsByRole(ctx, roleID)
}

// RoleHasPermission is a direct existence check against the store.
func (s *GrantService) RoleHasPermission(ctx context.Context, roleID, permissionID uuid.UUID) (bool, error) {
	return s.store.GrantExists(ctx, roleID, permissionID)
}
