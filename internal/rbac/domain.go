package rbac

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RolePermission ties a permission to a role.
type RolePermission struct {
	ID           uuid.UUID `json:"id"`
	RoleID       uuid.UUID `json:"role_id"`
	PermissionID uuid.UUID `json:"permission_id"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// UserRole links a user to a role. AssignedBy is informational only.
type UserRole struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	RoleID     uuid.UUID  `json:"role_id"`
	AssignedAt time.Time  `json:"assigned_at"`
	AssignedBy *uuid.UUID `json:"assigned_by,omitempty"`
}

// ErrPermissionDenied indicates the caller failed a requirement check, had a
// malformed or unknown declared permission, or carried no principal at all.
var ErrPermissionDenied = errors.New("rbac: permission denied")

// Denied builds a PermissionDenied error carrying the unmet requirement.
func Denied(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, fmt.Sprintf(format, args...))
}

// RequirementKind selects one of the four supported requirement shapes.
type RequirementKind int

// Requirement shapes understood by the enforcement guard.
const (
	KindPermission RequirementKind = iota
	KindRole
	KindAnyPermission
	KindAllPermissions
)

// Requirement is the declarative description of what a protected operation
// demands from the caller.
type Requirement struct {
	Kind        RequirementKind
	Permission  string
	Role        string
	Permissions []string
}

// RequirePermission declares a single RESOURCE:ACTION requirement.
func RequirePermission(permission string) Requirement {
	return Requirement{Kind: KindPermission, Permission: permission}
}

// RequireRole declares a role-membership requirement.
func RequireRole(name string) Requirement {
	return Requirement{Kind: KindRole, Role: name}
}

// RequireAny declares an any-of-permissions requirement.
func RequireAny(permissions ...string) Requirement {
	return Requirement{Kind: KindAnyPermission, Permissions: permissions}
}

// RequireAll declares an all-of-permissions requirement.
func RequireAll(permissions ...string) Requirement {
	return Requirement{Kind: KindAllPermissions, Permissions: permissions}
}

func (r Requirement) describe() string {
	switch r.Kind {
	case KindPermission:
		return "permission " + r.Permission
	case KindRole:
		return "role " + r.Role
	case KindAnyPermission:
		return "any of permissions " + strings.Join(r.Permissions, ", ")
	case KindAllPermissions:
		return "all of permissions " + strings.Join(r.Permissions, ", ")
	}
	return "unknown requirement"
}
