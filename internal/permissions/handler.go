package permissions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/praxis-pm/praxis/internal/platform/httpx"
	"github.com/praxis-pm/praxis/internal/shared"
)

// Handler manages the permission registry over HTTP.
type Handler struct {
	logger   *slog.Logger
	registry *Registry
	validate *validator.Validate
	guard    shared.RouteGuard
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, registry *Registry, validate *validator.Validate, guard shared.RouteGuard) *Handler {
	return &Handler{logger: logger, registry: registry, validate: validate, guard: guard}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(shared.PermPermissionsManage))
		r.Post("/", h.create)
		r.Post("/{id}/activate", h.activate)
		r.Post("/{id}/deactivate", h.deactivate)
		r.Delete("/{id}", h.remove)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireAny(shared.PermPermissionsManage, shared.PermRolesManage))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
	})
}

type createPermissionRequest struct {
	Resource    string `json:"resource" validate:"required"`
	Action      string `json:"action" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	perm, err := h.registry.Create(r.Context(), req.Resource, req.Action, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if perm == nil {
		httpx.Problem(w, http.StatusConflict, "Duplicate", "permission already registered")
		return
	}
	httpx.JSON(w, http.StatusCreated, perm)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if resource := r.URL.Query().Get("resource"); resource != "" {
		perms, err := h.registry.FindByResource(r.Context(), resource)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, perms)
		return
	}
	var (
		perms []Permission
		err   error
	)
	if r.URL.Query().Get("active") == "true" {
		perms, err = h.registry.FindAllActive(r.Context())
	} else {
		perms, err = h.registry.FindAll(r.Context())
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, perms)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	perm, err := h.registry.FindByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, perm)
}

func (h *Handler) activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.registry.Activate)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.registry.Deactivate)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID) error) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.registry.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
