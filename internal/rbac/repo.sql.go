package rbac

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxis-pm/praxis/internal/audit"
	"github.com/praxis-pm/praxis/internal/permissions"
	"github.com/praxis-pm/praxis/internal/platform/db"
)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL-backed store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// GrantExists checks for an existing (role, permission) junction.
func (s *PGStore) GrantExists(ctx context.Context, roleID, permissionID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM role_permissions WHERE role_id = $1 AND permission_id = $2)`,
		roleID, permissionID).Scan(&exists)
	return exists, err
}

// GrantsByRole returns the junction rows of a role.
func (s *PGStore) GrantsByRole(ctx context.Context, roleID uuid.UUID) ([]RolePermission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, role_id, permission_id, assigned_at FROM role_permissions WHERE role_id = $1 ORDER BY assigned_at`,
		roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var grants []RolePermission
	for rows.Next() {
		var g RolePermission
		if err := rows.Scan(&g.ID, &g.RoleID, &g.PermissionID, &g.AssignedAt); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// PermissionsByRole returns the permissions granted to a role with eager
// resolution of the permission rows.
func (s *PGStore) PermissionsByRole(ctx context.Context, roleID uuid.UUID) ([]permissions.Permission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.resource, p.action, p.description, p.active
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = $1
		 ORDER BY p.resource, p.action`, roleID)
	if err != nil {
		return nil, err
	}
	return collectPermissionRows(rows)
}

// CreateGrant persists the junction row and its audit entry atomically.
func (s *PGStore) CreateGrant(ctx context.Context, grant RolePermission, entry audit.Entry) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (id, role_id, permission_id, assigned_at) VALUES ($1, $2, $3, $4)`,
			grant.ID, grant.RoleID, grant.PermissionID, grant.AssignedAt); err != nil {
			return err
		}
		return audit.Append(ctx, tx, entry)
	})
}

// DeleteGrant appends the audit entry, then removes the junction, atomically.
func (s *PGStore) DeleteGrant(ctx context.Context, roleID, permissionID uuid.UUID, entry audit.Entry) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := audit.Append(ctx, tx, entry); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
		return err
	})
}

// AssignmentExists checks for an existing (user, role) junction.
func (s *PGStore) AssignmentExists(ctx context.Context, userID, roleID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM user_roles WHERE user_id = $1 AND role_id = $2)`,
		userID, roleID).Scan(&exists)
	return exists, err
}

// AssignmentsByUser returns the junction rows of a user.
func (s *PGStore) AssignmentsByUser(ctx context.Context, userID uuid.UUID) ([]UserRole, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, role_id, assigned_at, assigned_by FROM user_roles WHERE user_id = $1 ORDER BY assigned_at`,
		userID)
	if err != nil {
		return nil, err
	}
	return collectAssignments(rows)
}

// AssignmentsByRole returns the junction rows of a role.
func (s *PGStore) AssignmentsByRole(ctx context.Context, roleID uuid.UUID) ([]UserRole, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, role_id, assigned_at, assigned_by FROM user_roles WHERE role_id = $1 ORDER BY assigned_at`,
		roleID)
	if err != nil {
		return nil, err
	}
	return collectAssignments(rows)
}

// CreateAssignment persists the junction row and its audit entry atomically.
func (s *PGStore) CreateAssignment(ctx context.Context, assignment UserRole, entry audit.Entry) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_roles (id, user_id, role_id, assigned_at, assigned_by) VALUES ($1, $2, $3, $4, $5)`,
			assignment.ID, assignment.UserID, assignment.RoleID, assignment.AssignedAt, assignment.AssignedBy); err != nil {
			return err
		}
		return audit.Append(ctx, tx, entry)
	})
}

// DeleteAssignment appends the audit entry, then removes the junction,
// atomically. The audit row records the state prior to removal.
func (s *PGStore) DeleteAssignment(ctx context.Context, userID, roleID uuid.UUID, entry audit.Entry) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := audit.Append(ctx, tx, entry); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
		return err
	})
}

// EffectivePermissions computes the derived permission set of a user:
// active permissions reachable through active roles. Dangling junction rows
// drop out of the join on their own.
func (s *PGStore) EffectivePermissions(ctx context.Context, userID uuid.UUID) ([]permissions.Permission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT p.id, p.resource, p.action, p.description, p.active
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 JOIN roles r ON r.id = rp.role_id
		 JOIN user_roles ur ON ur.role_id = rp.role_id
		 WHERE ur.user_id = $1 AND p.active AND r.active
		 ORDER BY p.resource, p.action`, userID)
	if err != nil {
		return nil, err
	}
	return collectPermissionRows(rows)
}

// ActiveRoleNames returns the names of active roles assigned to a user.
func (s *PGStore) ActiveRoleNames(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.name FROM roles r JOIN user_roles ur ON ur.role_id = r.id WHERE ur.user_id = $1 AND r.active`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func collectAssignments(rows pgx.Rows) ([]UserRole, error) {
	defer rows.Close()
	var assignments []UserRole
	for rows.Next() {
		var a UserRole
		if err := rows.Scan(&a.ID, &a.UserID, &a.RoleID, &a.AssignedAt, &a.AssignedBy); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func collectPermissionRows(rows pgx.Rows) ([]permissions.Permission, error) {
	defer rows.Close()
	var perms []permissions.Permission
	for rows.Next() {
		var p permissions.Permission
		if err := rows.Scan(&p.ID, &p.Resource, &p.Action, &p.Description, &p.Active); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

var _ Store = (*PGStore)(nil)
