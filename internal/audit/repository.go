package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by pools and transactions. Write paths
// pass their open transaction so the audit row commits with the mutation.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const entryColumns = `id, user_id, role_id, permission_id, action, performed_by, performed_at, reason`

// Append inserts an entry using the given querier, typically a transaction
// opened by the mutating store.
func Append(ctx context.Context, q Querier, e Entry) error {
	_, err := q.Exec(ctx,
		`INSERT INTO permission_audit_log (id, user_id, role_id, permission_id, action, performed_by, performed_at, reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.RoleID, e.PermissionID, string(e.Action), e.PerformedBy, e.PerformedAt, e.Reason)
	return err
}

// Repository defines the read queries over the audit log.
type Repository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Entry, error)
	FindByPerformer(ctx context.Context, performerID uuid.UUID) ([]Entry, error)
	FindByRole(ctx context.Context, roleID uuid.UUID) ([]Entry, error)
	FindByDateRange(ctx context.Context, filter RangeFilter) ([]Entry, error)
	FindByAction(ctx context.Context, action Action) ([]Entry, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByUser returns entries about a user, newest first.
func (r *PGRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM permission_audit_log WHERE user_id = $1 ORDER BY performed_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// FindByPerformer returns entries recorded by an acting user, newest first.
func (r *PGRepository) FindByPerformer(ctx context.Context, performerID uuid.UUID) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM permission_audit_log WHERE performed_by = $1 ORDER BY performed_at DESC`, performerID)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// FindByRole returns entries about a role, newest first.
func (r *PGRepository) FindByRole(ctx context.Context, roleID uuid.UUID) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM permission_audit_log WHERE role_id = $1 ORDER BY performed_at DESC`, roleID)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// FindByDateRange returns entries inside the closed range, newest first.
func (r *PGRepository) FindByDateRange(ctx context.Context, filter RangeFilter) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM permission_audit_log WHERE performed_at >= $1 AND performed_at <= $2 ORDER BY performed_at DESC`,
		filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

// FindByAction returns entries with the given action tag, newest first.
func (r *PGRepository) FindByAction(ctx context.Context, action Action) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM permission_audit_log WHERE action = $1 ORDER BY performed_at DESC`, string(action))
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.ID, &e.UserID, &e.RoleID, &e.PermissionID, &action, &e.PerformedBy, &e.PerformedAt, &e.Reason); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
