package payment

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Events that mean a checkout session may now be paid.
var completionEvents = map[stripe.EventType]bool{
	"checkout.session.completed":               true,
	"checkout.session.async_payment_succeeded": true,
}

// WebhookVerifier authenticates gateway callbacks.
type WebhookVerifier struct {
	secret string
}

// NewWebhookVerifier creates a verifier for the endpoint signing secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

// CompletedSessionID verifies the signature and returns the session id of a
// completion event. Other event types return an empty id and no error.
func (v *WebhookVerifier) CompletedSessionID(payload []byte, signature string) (string, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, v.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return "", fmt.Errorf("failed to verify webhook: %w", err)
	}

	if !completionEvents[event.Type] || event.Data == nil {
		return "", nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return "", fmt.Errorf("failed to decode checkout session: %w", err)
	}

	return s.ID, nil
}
