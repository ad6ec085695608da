package rbac

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/praxis-pm/praxis/internal/platform/httpx"
	"github.com/praxis-pm/praxis/internal/shared"
)

// Handler exposes grant, assignment and verification endpoints.
type Handler struct {
	logger      *slog.Logger
	grants      *GrantService
	assignments *AssignmentService
	verifier    *Verifier
	users       UserDirectory
	rbac        Middleware
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, grants *GrantService, assignments *AssignmentService, verifier *Verifier, users UserDirectory, rbac Middleware) *Handler {
	return &Handler{logger: logger, grants: grants, assignments: assignments, verifier: verifier, users: users, rbac: rbac}
}

// MountRoutes registers the RBAC management and check routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(shared.PermRolesManage))
		r.Post("/roles/{roleID}/permissions/{permissionID}", h.grant)
		r.Delete("/roles/{roleID}/permissions/{permissionID}", h.revokeGrant)
		r.Post("/users/{userID}/roles/{roleID}", h.assign)
		r.Delete("/users/{userID}/roles/{roleID}", h.revokeAssignment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermRolesManage, shared.PermUsersView))
		r.Get("/roles/{roleID}/permissions", h.listRolePermissions)
		r.Get("/users/{userID}/roles", h.listUserRoles)
		r.Get("/users/{userID}/permissions", h.listUserPermissions)
	})
	r.Get("/check", h.check)
	r.Post("/check-any", h.checkAny)
	r.Post("/check-all", h.checkAll)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type checkResponse struct {
	Granted bool `json:"granted"`
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathUUID(w, r, "roleID")
	if !ok {
		return
	}
	permissionID, ok := pathUUID(w, r, "permissionID")
	if !ok {
		return
	}

	created, err := h.grants.Grant(r.Context(), roleID, permissionID, h.actor(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if created == nil {
		httpx.Problem(w, http.StatusConflict, "Duplicate", "permission already granted or reference unresolved")
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) revokeGrant(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathUUID(w, r, "roleID")
	if !ok {
		return
	}
	permissionID, ok := pathUUID(w, r, "permissionID")
	if !ok {
		return
	}

	if err := h.grants.Revoke(r.Context(), roleID, permissionID, h.actor(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := pathUUID(w, r, "roleID")
	if !ok {
		return
	}
	var req reasonRequest
	_ = httpx.DecodeJSON(r, &req)

	created, err := h.assignments.Assign(r.Context(), userID, roleID, h.actor(r), req.Reason)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if created == nil {
		httpx.Problem(w, http.StatusConflict, "Duplicate", "role already assigned or reference unresolved")
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) revokeAssignment(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := pathUUID(w, r, "roleID")
	if !ok {
		return
	}
	var req reasonRequest
	_ = httpx.DecodeJSON(r, &req)

	if err := h.assignments.Revoke(r.Context(), userID, roleID, h.actor(r), req.Reason); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRolePermissions(w http.ResponseWriter, r *http.Request) {
	roleID, ok := pathUUID(w, r, "roleID")
	if !ok {
		return
	}
	perms, err := h.grants.ListPermissionsByRole(r.Context(), roleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, perms)
}

func (h *Handler) listUserRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	assignments, err := h.assignments.ListByUser(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, assignments)
}

func (h *Handler) listUserPermissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "userID")
	if !ok {
		return
	}
	perms, err := h.verifier.GetUserPermissions(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, perms)
}

// check answers one permission query for the calling principal.
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	permission := r.URL.Query().Get("permission")
	if permission == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permission query parameter required")
		return
	}
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	granted, err := h.verifier.HasPermission(r.Context(), user, permission)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, checkResponse{Granted: granted})
}

type multiCheckRequest struct {
	Permissions []string `json:"permissions"`
}

func (h *Handler) checkAny(w http.ResponseWriter, r *http.Request) {
	h.multiCheck(w, r, h.verifier.HasAnyPermission)
}

func (h *Handler) checkAll(w http.ResponseWriter, r *http.Request) {
	h.multiCheck(w, r, h.verifier.HasAllPermissions)
}

func (h *Handler) multiCheck(w http.ResponseWriter, r *http.Request, decide func(ctx context.Context, userID uuid.UUID, perms []string) (bool, error)) {
	var req multiCheckRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || len(req.Permissions) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "permissions array required")
		return
	}
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	granted, err := decide(r.Context(), user, req.Permissions)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, checkResponse{Granted: granted})
}

// actor resolves the calling principal to a user id, best-effort.
func (h *Handler) actor(r *http.Request) *uuid.UUID {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		return nil
	}
	user, err := h.users.FindByEmail(r.Context(), principal.Email)
	if err != nil {
		return nil
	}
	return &user.ID
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	principal := shared.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "no authenticated user")
		return uuid.Nil, false
	}
	user, err := h.users.FindByEmail(r.Context(), principal.Email)
	if err != nil {
		httpx.RespondError(w, err)
		return uuid.Nil, false
	}
	return user.ID, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
