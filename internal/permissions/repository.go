package permissions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxis-pm/praxis/internal/shared"
)

// Repository defines persistence operations for permissions.
type Repository interface {
	Insert(ctx context.Context, p Permission) (Permission, error)
	FindByID(ctx context.Context, id uuid.UUID) (Permission, error)
	FindByResource(ctx context.Context, resource string) ([]Permission, error)
	FindByResourceAndAction(ctx context.Context, resource, action string) (Permission, error)
	ExistsByResourceAndAction(ctx context.Context, resource, action string) (bool, error)
	FindAll(ctx context.Context) ([]Permission, error)
	FindAllActive(ctx context.Context) ([]Permission, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const permissionColumns = `id, resource, action, description, active`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert persists a new permission row.
func (r *PGRepository) Insert(ctx context.Context, p Permission) (Permission, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (id, resource, action, description, active) VALUES ($1, $2, $3, $4, $5) RETURNING `+permissionColumns,
		p.ID, p.Resource, p.Action, p.Description, p.Active)
	return scanPermission(row)
}

// FindByID fetches a permission by id.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE id = $1`, id)
	p, err := scanPermission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, shared.ErrNotFound
	}
	return p, err
}

// FindByResource returns all permissions under a resource.
func (r *PGRepository) FindByResource(ctx context.Context, resource string) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE resource = $1 ORDER BY action`, resource)
	if err != nil {
		return nil, err
	}
	return collectPermissions(rows)
}

// FindByResourceAndAction fetches the unique permission for a pair.
func (r *PGRepository) FindByResourceAndAction(ctx context.Context, resource, action string) (Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE resource = $1 AND action = $2`, resource, action)
	p, err := scanPermission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Permission{}, shared.ErrNotFound
	}
	return p, err
}

// ExistsByResourceAndAction checks for an existing pair.
func (r *PGRepository) ExistsByResourceAndAction(ctx context.Context, resource, action string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM permissions WHERE resource = $1 AND action = $2)`, resource, action).Scan(&exists)
	return exists, err
}

// FindAll returns every permission ordered by resource then action.
func (r *PGRepository) FindAll(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+permissionColumns+` FROM permissions ORDER BY resource, action`)
	if err != nil {
		return nil, err
	}
	return collectPermissions(rows)
}

// FindAllActive returns active permissions only.
func (r *PGRepository) FindAllActive(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+permissionColumns+` FROM permissions WHERE active ORDER BY resource, action`)
	if err != nil {
		return nil, err
	}
	return collectPermissions(rows)
}

// SetActive flips the active flag. Missing ids are a no-op.
func (r *PGRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE permissions SET active = $2 WHERE id = $1`, id, active)
	return err
}

// Delete removes the permission row. Junction rows referencing it are left in
// place and simply never resolve in the effective-set join.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	return err
}

func scanPermission(row pgx.Row) (Permission, error) {
	var p Permission
	if err := row.Scan(&p.ID, &p.Resource, &p.Action, &p.Description, &p.Active); err != nil {
		return Permission{}, err
	}
	return p, nil
}

func collectPermissions(rows pgx.Rows) ([]Permission, error) {
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.Resource, &p.Action, &p.Description, &p.Active); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
