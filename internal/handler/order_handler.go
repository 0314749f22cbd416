package handler

import (
	"net/http"
	"strconv"
	"time"

	"orderdesk/internal/i18n"
	"orderdesk/internal/model"
	"orderdesk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler serves the customer status poll and the staff order console.
type OrderHandler struct {
	status    service.StatusService
	queries   service.OrderQueryService
	lifecycle service.OrderLifecycle
	now       func() time.Time
	responder
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(
	status service.StatusService,
	queries service.OrderQueryService,
	lifecycle service.OrderLifecycle,
	translator *i18n.Translator,
	logger zerolog.Logger,
) *OrderHandler {
	return &OrderHandler{
		status:    status,
		queries:   queries,
		lifecycle: lifecycle,
		now:       time.Now,
		responder: responder{
			translator: translator,
			logger:     logger.With().Str("handler", "order").Logger(),
		},
	}
}

// Status handles GET /api/orders/{orderNumber} requests.
func (h *OrderHandler) Status(w http.ResponseWriter, r *http.Request) {
	snap, err := h.status.Lookup(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, snap)
}

// List handles GET /api/admin/orders requests.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	// A missing or malformed limit falls back to the default page size.
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, err := h.queries.ListRecent(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// Stats handles GET /api/admin/orders/stats requests.
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.queries.Stats(r.Context(), h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Abandoned handles GET /api/admin/orders/abandoned requests.
func (h *OrderHandler) Abandoned(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queries.Abandoned(r.Context(), h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetByID handles GET /api/admin/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, errInvalidID)
		return
	}

	order, err := h.queries.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// History handles GET /api/admin/orders/{id}/history requests.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, errInvalidID)
		return
	}

	changes, err := h.queries.History(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, changes)
}

// ChangeStatus handles POST /api/admin/orders/{id}/status requests.
func (h *OrderHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, errInvalidID)
		return
	}

	var req model.StatusChangeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	target, err := model.ParseOrderStatus(req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.lifecycle.Transition(r.Context(), id, target)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
