package rbac

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/praxis-pm/praxis/internal/platform/httpx"
	"github.com/praxis-pm/praxis/internal/shared"
)

// Middleware wires the enforcement guard into HTTP handler chains.
type Middleware struct {
	Guard  *Guard
	Logger *slog.Logger
}

// RequirePermission guards the chain with a single permission requirement.
func (m Middleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return m.require(RequirePermission(permission))
}

// RequireRole guards the chain with a role-membership requirement.
func (m Middleware) RequireRole(name string) func(http.Handler) http.Handler {
	return m.require(RequireRole(name))
}

// RequireAny guards the chain with an any-of-permissions requirement.
func (m Middleware) RequireAny(permissions ...string) func(http.Handler) http.Handler {
	return m.require(RequireAny(permissions...))
}

// RequireAll guards the chain with an all-of-permissions requirement.
func (m Middleware) RequireAll(permissions ...string) func(http.Handler) http.Handler {
	return m.require(RequireAll(permissions...))
}

func (m Middleware) require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := m.Guard.Authorize(r.Context(), req)
			if err == nil {
				next.ServeHTTP(w, r)
				return
			}
			switch {
			case errors.Is(err, ErrPermissionDenied):
				httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
			case errors.Is(err, shared.ErrNotFound):
				httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			default:
				if m.Logger != nil {
					m.Logger.Error("authorize request", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			}
		})
	}
}
