package model

import (
	"time"

	"github.com/google/uuid"
)

// Order is the system of record for a purchase. Items and TotalCents are
// fixed at creation.
type Order struct {
	ID                    uuid.UUID   `json:"id" db:"id"`
	OrderNumber           string      `json:"order_number" db:"order_number"`
	CustomerName          string      `json:"customer_name" db:"customer_name"`
	CustomerEmail         string      `json:"customer_email" db:"customer_email"`
	Items                 []OrderItem `json:"items"`
	TotalCents            int64       `json:"total_cents" db:"total_cents"`
	Status                OrderStatus `json:"status" db:"status"`
	PaymentSessionID      *string     `json:"payment_session_id,omitempty" db:"payment_session_id"`
	PaymentConfirmationID *string     `json:"payment_confirmation_id,omitempty" db:"payment_confirmation_id"`
	Notes                 *string     `json:"notes,omitempty" db:"notes"`
	CreatedAt             time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem is a snapshot of a catalog row taken at checkout.
type OrderItem struct {
	ProductID      uuid.UUID `json:"product_id" db:"product_id"`
	Name           string    `json:"name" db:"name"`
	Quantity       int       `json:"quantity" db:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents" db:"unit_price_cents"`
}

// LineTotalCents returns unit price times quantity.
func (i OrderItem) LineTotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

// Customer identifies who placed an order.
type Customer struct {
	Name  string
	Email string
}

// StatusUpdate describes a conditional status write: the row changes only
// when its current status is one of From.
type StatusUpdate struct {
	OrderID               uuid.UUID
	From                  []OrderStatus
	To                    OrderStatus
	PaymentConfirmationID *string
	At                    time.Time
	// WithoutSession restricts the update to orders that never got a
	// payment session.
	WithoutSession bool
}

// StatusSnapshot is what a polling customer device sees.
type StatusSnapshot struct {
	OrderNumber string      `json:"order_number"`
	Status      OrderStatus `json:"status"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// StatusChange is one entry of an order's status history.
type StatusChange struct {
	Status    OrderStatus `json:"status"`
	ChangedAt time.Time   `json:"changed_at"`
}

// OrderStats summarises the staff console header.
type OrderStats struct {
	TodayOrders       int   `json:"today_orders"`
	AwaitingKitchen   int   `json:"awaiting_kitchen"`
	TodayRevenueCents int64 `json:"today_revenue_cents"`
}

// CheckoutItem is one cart line sent by the customer. Name is only used to
// label errors; prices are never read from the request.
type CheckoutItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
}

// CheckoutRequest represents the request payload for a checkout.
type CheckoutRequest struct {
	Items         []CheckoutItem `json:"items"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email"`
}

// CheckoutResponse carries the token the customer device needs to render
// the embedded payment form.
type CheckoutResponse struct {
	ClientSecret string    `json:"client_secret"`
	OrderNumber  string    `json:"order_number"`
	OrderID      uuid.UUID `json:"order_id"`
}

// ConfirmPaymentRequest represents the request payload for a payment confirmation.
type ConfirmPaymentRequest struct {
	SessionID string `json:"session_id"`
}

// StatusChangeRequest is a staff request to move an order.
type StatusChangeRequest struct {
	Status string `json:"status"`
}
