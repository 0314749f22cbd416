package handler

import (
	"net/http"

	"orderdesk/internal/i18n"
	"orderdesk/internal/model"
	"orderdesk/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	products service.ProductService
	responder
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products service.ProductService, translator *i18n.Translator, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		responder: responder{
			translator: translator,
			logger:     logger.With().Str("handler", "product").Logger(),
		},
	}
}

// Menu handles GET /api/products requests.
func (h *ProductHandler) Menu(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.Menu(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// List handles GET /api/admin/products requests.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// Create handles POST /api/admin/products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.ProductInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}

	product, err := h.products.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/admin/products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, errInvalidID)
		return
	}

	var input model.ProductInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}

	product, err := h.products.Update(r.Context(), id, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// SetAvailability handles PATCH /api/admin/products/{id}/availability requests.
func (h *ProductHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, errInvalidID)
		return
	}

	var req model.AvailabilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	product, err := h.products.SetAvailability(r.Context(), id, req.Available)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /api/admin/products/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, errInvalidID)
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
