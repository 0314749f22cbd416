package handler

import (
	"net/http"

	"orderdesk/internal/i18n"
	"orderdesk/internal/model"
	"orderdesk/internal/service"

	"github.com/rs/zerolog"
)

// CheckoutHandler handles the customer checkout flow.
type CheckoutHandler struct {
	checkout service.CheckoutService
	responder
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(checkout service.CheckoutService, translator *i18n.Translator, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		responder: responder{
			translator: translator,
			logger:     logger.With().Str("handler", "checkout").Logger(),
		},
	}
}

// Checkout handles POST /api/checkout requests.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	resp, err := h.checkout.Checkout(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Confirm handles POST /api/checkout/confirm requests.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req model.ConfirmPaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.checkout.ConfirmPayment(r.Context(), req.SessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
