package roles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxis-pm/praxis/internal/shared"
)

// Repository defines persistence operations for roles.
type Repository interface {
	Insert(ctx context.Context, role Role) (Role, error)
	FindByID(ctx context.Context, id uuid.UUID) (Role, error)
	FindByName(ctx context.Context, name string) (Role, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	FindAll(ctx context.Context) ([]Role, error)
	FindAllActive(ctx context.Context) ([]Role, error)
	Save(ctx context.Context, role Role) (Role, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const roleColumns = `id, name, description, active, created_at`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert persists a new role row.
func (r *PGRepository) Insert(ctx context.Context, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO roles (id, name, description, active, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING `+roleColumns,
		role.ID, role.Name, role.Description, role.Active, role.CreatedAt)
	return scanRole(row)
}

// FindByID fetches a role by id.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	return role, err
}

// FindByName fetches a role by its unique name.
func (r *PGRepository) FindByName(ctx context.Context, name string) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
	role, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	return role, err
}

// ExistsByName checks for an existing role name.
func (r *PGRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM roles WHERE name = $1)`, name).Scan(&exists)
	return exists, err
}

// FindAll returns every role ordered by name.
func (r *PGRepository) FindAll(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

// FindAllActive returns active roles only.
func (r *PGRepository) FindAllActive(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectRoles(rows)
}

// Save overwrites the mutable fields of an existing role.
func (r *PGRepository) Save(ctx context.Context, role Role) (Role, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE roles SET description = $2, active = $3 WHERE id = $1 RETURNING `+roleColumns,
		role.ID, role.Description, role.Active)
	updated, err := scanRole(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Role{}, shared.ErrNotFound
	}
	return updated, err
}

// SetActive flips the active flag. Missing ids are a no-op.
func (r *PGRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE roles SET active = $2 WHERE id = $1`, id, active)
	return err
}

// Delete removes the role row, tolerating dangling junction rows.
func (r *PGRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	return err
}

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &role.Active, &role.CreatedAt); err != nil {
		return Role{}, err
	}
	return role, nil
}

func collectRoles(rows pgx.Rows) ([]Role, error) {
	defer rows.Close()
	var result []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.Active, &role.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, role)
	}
	return result, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
