package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/praxis-pm/praxis/internal/observability"
	"github.com/praxis-pm/praxis/internal/permissions"
	"github.com/praxis-pm/praxis/internal/shared"
)

// Guard is the enforcement interceptor: it resolves the calling principal,
// validates the declared requirement, and decides through the Verifier.
// It holds no per-request state and composes as an ordinary value.
type Guard struct {
	verifier *Verifier
	users    UserDirectory
	metrics  *observability.Metrics
}

// NewGuard builds a Guard. metrics may be nil.
func NewGuard(verifier *Verifier, users UserDirectory, metrics *observability.Metrics) *Guard {
	return &Guard{verifier: verifier, users: users, metrics: metrics}
}

// Authorize checks the requirement against the ambient principal. It returns
// nil when the call may proceed, ErrPermissionDenied when the caller lacks
// the grant (or no principal is present, or the declared permission is
// malformed or unregistered), and shared.ErrNotFound when the principal is
// authenticated but has no backing user record.
func (g *Guard) Authorize(ctx context.Context, req Requirement) error {
	principal := shared.PrincipalFromContext(ctx)
	if principal == nil {
		g.record(req, false)
		return Denied("no authenticated user")
	}

	if req.Kind == KindPermission {
		if !permissions.Valid(strings.ToUpper(strings.TrimSpace(req.Permission))) {
			g.record(req, false)
			return Denied("malformed permission declaration: %s", req.Permission)
		}
		known, err := g.verifier.Exists(ctx, req.Permission)
		if err != nil {
			return err
		}
		if !known {
			g.record(req, false)
			return Denied("unknown permission declaration: %s", req.Permission)
		}
	}

	user, err := g.users.FindByEmail(ctx, principal.Email)
	if err != nil {
		g.record(req, false)
		return fmt.Errorf("rbac: resolve principal %q: %w", principal.Email, err)
	}

	var allowed bool
	switch req.Kind {
	case KindPermission:
		allowed, err = g.verifier.HasPermission(ctx, user.ID, req.Permission)
	case KindRole:
		allowed, err = g.verifier.HasRole(ctx, user.ID, req.Role)
	case KindAnyPermission:
		allowed, err = g.verifier.HasAnyPermission(ctx, user.ID, req.Permissions)
	case KindAllPermissions:
		allowed, err = g.verifier.HasAllPermissions(ctx, user.ID, req.Permissions)
	default:
		return Denied("unsupported requirement")
	}
	if err != nil {
		return err
	}

	g.record(req, allowed)
	if !allowed {
		return Denied("user does not have required %s", req.describe())
	}
	return nil
}

func (g *Guard) record(req Requirement, allowed bool) {
	if g.metrics == nil {
		return
	}
	kind := "permission"
	switch req.Kind {
	case KindRole:
		kind = "role"
	case KindAnyPermission:
		kind = "any_permission"
	case KindAllPermissions:
		kind = "all_permissions"
	}
	g.metrics.RecordDecision(kind, allowed)
}

// Protect wraps a protected operation so it only runs when the ambient
// principal satisfies the requirement. On denial the wrapped operation is
// never invoked. Multiple wrappers compose, short-circuiting on the first
// denial.
func Protect[T any](g *Guard, req Requirement, op func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		if err := g.Authorize(ctx, req); err != nil {
			var zero T
			return zero, err
		}
		return op(ctx)
	}
}
