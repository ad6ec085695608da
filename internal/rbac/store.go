package rbac

import (
	"context"

	"github.com/google/uuid"

	"github.com/praxis-pm/praxis/internal/audit"
	"github.com/praxis-pm/praxis/internal/permissions"
	"github.com/praxis-pm/praxis/internal/roles"
	"github.com/praxis-pm/praxis/internal/users"
)

// Store is the persistence surface the authorization kernel requires. The
// mutating operations take the audit entry documenting them so both commit as
// one atomic unit.
type Store interface {
	GrantExists(ctx context.Context, roleID, permissionID uuid.UUID) (bool, error)
	GrantsByRole(ctx context.Context, roleID uuid.UUID) ([]RolePermission, error)
	PermissionsByRole(ctx context.Context, roleID uuid.UUID) ([]permissions.Permission, error)
	CreateGrant(ctx context.Context, grant RolePermission, entry audit.Entry) error
	DeleteGrant(ctx context.Context, roleID, permissionID uuid.UUID, entry audit.Entry) error

	AssignmentExists(ctx context.Context, userID, roleID uuid.UUID) (bool, error)
	AssignmentsByUser(ctx context.Context, userID uuid.UUID) ([]UserRole, error)
	AssignmentsByRole(ctx context.Context, roleID uuid.UUID) ([]UserRole, error)
	CreateAssignment(ctx context.Context, assignment UserRole, entry audit.Entry) error
	DeleteAssignment(ctx context.Context, userID, roleID uuid.UUID, entry audit.Entry) error

	// EffectivePermissions joins assignments to grants to permissions,
	// keeping only active roles and active permissions.
	EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]permissions.Permission, error)
	// ActiveRoleNames returns the names of active roles assigned to a user.
	ActiveRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// RoleDirectory resolves role references for the write paths.
type RoleDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (roles.Role, error)
}

// PermissionDirectory resolves permission references.
type PermissionDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (permissions.Permission, error)
	FindByResourceAndAction(ctx context.Context, resource, action string) (permissions.Permission, error)
}

// UserDirectory resolves user references.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (users.User, error)
	FindByEmail(ctx context.Context, email string) (users.User, error)
}
