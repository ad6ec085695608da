package rbac

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/praxis-pm/praxis/internal/audit"
	"github.com/praxis-pm/praxis/internal/shared"
)

// AssignmentService maintains the user-to-role junction. Unlike grants, the
// affected user is precisely known, so mutations invalidate only that user's
// cache entries.
type AssignmentService struct {
	store    Store
	users    UserDirectory
	roles    RoleDirectory
	verifier *Verifier
	logger   *slog.Logger
}

// NewAssignmentService builds an AssignmentService.
func NewAssignmentService(store Store, users UserDirectory, roles RoleDirectory, verifier *Verifier, logger *slog.Logger) *AssignmentService {
	return &AssignmentService{store: store, users: users, roles: roles, verifier: verifier, logger: logger}
}

// Assign gives a role to a user. Returns (nil, nil) when the pair already
// exists or the user or role does not resolve. A missing assigner is
// tolerated and recorded as absent.
func (s *AssignmentService) Assign(ctx context.Context, userID, roleID uuid.UUID, assignedBy *uuid.UUID, reason string) (*UserRole, error) {
	exists, err := s.store.AssignmentExists(ctx, userID, roleID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	assigner := s.resolveActor(ctx, assignedBy)

	now := time.Now().UTC()
	assignment := UserRole{
		ID:         uuid.New(),
		UserID:     user.ID,
		RoleID:     role.ID,
		AssignedAt: now,
		AssignedBy: assigner,
	}
	entry := audit.Entry{
		ID:          uuid.New(),
		UserID:      &user.ID,
		RoleID:      &role.ID,
		Action:      audit.ActionAssignRole,
		PerformedBy: assigner,
		PerformedAt: now,
		Reason:      reason,
	}
	if err := s.store.CreateAssignment(ctx, assignment, entry); err != nil {
		return nil, err
	}

	s.verifier.ClearUserPermissionCache(user.ID)
	if s.logger != nil {
		s.logger.Info("role assigned",
			slog.String("user", user.Email),
			slog.String("role", role.Name))
	}
	return &assignment, nil
}

// Revoke takes a role away from a user. A missing pair is a no-op. The audit
// entry is appended before the junction delete so it records the state prior
// to removal; both still commit as one unit.
func (s *AssignmentService) Revoke(ctx context.Context, userID, roleID uuid.UUID, revokedBy *uuid.UUID, reason string) error {
	exists, err := s.store.AssignmentExists(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	entry := audit.Entry{
		ID:          uuid.New(),
		UserID:      &userID,
		RoleID:      &roleID,
		Action:      audit.ActionRevokeRole,
		PerformedBy: s.resolveActor(ctx, revokedBy),
		PerformedAt: time.Now().UTC(),
		Reason:      reason,
	}
	if err := s.store.DeleteAssignment(ctx, userID, roleID, entry); err != nil {
		return err
	}

	s.verifier.ClearUserPermissionCache(userID)
	return nil
}

// ListByUser returns the junction rows of a user.
func (s *AssignmentService) ListByUser(ctx context.Context, userID uuid.UUID) ([]UserRole, error) {
	return s.store.AssignmentsByUser(ctx, userID)
}

// ListByRole returns the junction rows of a role.
func (s *AssignmentService) ListByRole(ctx context.Context, roleID uuid.UUID) ([]UserRole, error) {
	return s.store.AssignmentsByRole(ctx, roleID)
}

// UserHasRole is a direct existence check against the store, bypassing the
// verification cache.
func (s *AssignmentService) UserHasRole(ctx context.Context, userID, roleID uuid.UUID) (bool, error) {
	return s.store.AssignmentExists(ctx, userID, roleID)
}

// resolveActor looks up the acting user best-effort: an unknown actor is
// recorded as absent rather than failing the mutation.
func (s *AssignmentService) resolveActor(ctx context.Context, actorID *uuid.UUID) *uuid.UUID {
	if actorID == nil {
		return nil
	}
	actor, err := s.users.FindByID(ctx, *actorID)
	if err != nil {
		return nil
	}
	return &actor.ID
}
