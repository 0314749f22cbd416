// Package payment talks to the hosted payment gateway. The service never
// sees card data: it creates an embeddable session and later reads back
// whether the session was paid.
package payment

import (
	"context"

	"github.com/google/uuid"
)

// Metadata keys attached to every session.
const (
	MetadataOrderID     = "order_id"
	MetadataOrderNumber = "order_number"
)

// LineItem is one priced line shown on the payment form.
type LineItem struct {
	Name           string
	UnitPriceCents int64
	Quantity       int64
}

// SessionRequest describes the payment session for one order.
type SessionRequest struct {
	OrderID       uuid.UUID
	OrderNumber   string
	CustomerEmail string
	Currency      string
	Items         []LineItem
}

// Session is the gateway's view of a payment session.
type Session struct {
	ID           string
	ClientSecret string
	Paid         bool
	// OrderID is the raw order_id metadata value, empty when absent.
	OrderID string
	// ConfirmationID identifies the captured payment once Paid is true.
	ConfirmationID string
}

// Gateway creates and reads hosted payment sessions.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
}
