package shared

import "net/http"

// RouteGuard gates HTTP routes on authorization requirements.
type RouteGuard interface {
	RequirePermission(permission string) func(http.Handler) http.Handler
	RequireRole(name string) func(http.Handler) http.Handler
	RequireAny(permissions ...string) func(http.Handler) http.Handler
	RequireAll(permissions ...string) func(http.Handler) http.Handler
}

// Administrative permissions guarding the management API.
const (
	PermUsersView         = "USERS:VIEW"
	PermRolesManage       = "ROLES:MANAGE"
	PermPermissionsManage = "PERMISSIONS:MANAGE"
	PermAuditView         = "AUDIT:VIEW"
)

// CoreScopes lists the permissions the platform itself relies on.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermRolesManage,
		PermPermissionsManage,
		PermAuditView,
	}
}
