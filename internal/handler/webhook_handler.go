package handler

import (
	"errors"
	"io"
	"net/http"

	"orderdesk/internal/i18n"
	"orderdesk/internal/model"
	"orderdesk/internal/service"

	"github.com/rs/zerolog"
)

// maxWebhookBytes matches the gateway's documented payload ceiling.
const maxWebhookBytes = 65536

// SessionVerifier authenticates a gateway callback and extracts the id of a
// completed session. Other events yield an empty id.
type SessionVerifier interface {
	CompletedSessionID(payload []byte, signature string) (string, error)
}

// WebhookHandler receives payment gateway callbacks.
type WebhookHandler struct {
	verifier SessionVerifier
	checkout service.CheckoutService
	responder
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(
	verifier SessionVerifier,
	checkout service.CheckoutService,
	translator *i18n.Translator,
	logger zerolog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		verifier: verifier,
		checkout: checkout,
		responder: responder{
			translator: translator,
			logger:     logger.With().Str("handler", "webhook").Logger(),
		},
	}
}

type webhookAck struct {
	Received bool `json:"received"`
}

// Stripe handles POST /api/webhooks/stripe requests.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.writeError(w, r, errInvalidJSON)
		return
	}

	sessionID, err := h.verifier.CompletedSessionID(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn().Err(err).Msg("rejected webhook")
		h.writeError(w, r, errInvalidJSON)
		return
	}

	if sessionID == "" {
		writeJSON(w, http.StatusOK, webhookAck{Received: true})
		return
	}

	order, err := h.checkout.ConfirmPayment(r.Context(), sessionID)
	switch {
	case err == nil:
		h.logger.Info().
			Str("session_id", sessionID).
			Str("order_number", order.OrderNumber).
			Str("status", string(order.Status)).
			Msg("payment confirmed by webhook")
	case errors.Is(err, model.ErrPaymentNotCompleted), errors.Is(err, model.ErrOrderNotFound):
		// Retrying cannot change the outcome; the customer device or a
		// later event will confirm.
		h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("webhook session not confirmed")
	case errors.Is(err, model.ErrInvalidTransition):
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("paid session for an order that can no longer be paid")
	default:
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, webhookAck{Received: true})
}
