package audit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/praxis-pm/praxis/internal/platform/httpx"
	"github.com/praxis-pm/praxis/internal/shared"
)

// Handler exposes the audit trail over HTTP. Read only.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   shared.RouteGuard
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard shared.RouteGuard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers audit query routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequirePermission(shared.PermAuditView))
		r.Get("/users/{id}", h.byUser)
		r.Get("/performers/{id}", h.byPerformer)
		r.Get("/roles/{id}", h.byRole)
		r.Get("/actions/{action}", h.byAction)
		r.Get("/range", h.byDateRange)
	})
}

func (h *Handler) byUser(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.service.ByUser)
}

func (h *Handler) byPerformer(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.service.ByPerformer)
}

func (h *Handler) byRole(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, h.service.ByRole)
}

func (h *Handler) byID(w http.ResponseWriter, r *http.Request, query func(ctx context.Context, id uuid.UUID) ([]Entry, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "id must be a UUID")
		return
	}
	entries, err := query(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) byAction(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ByAction(r.Context(), Action(chi.URLParam(r, "action")))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) byDateRange(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be RFC3339")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be RFC3339")
		return
	}
	entries, err := h.service.ByDateRange(r.Context(), from, to)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}
