package service

import (
	"context"
	"time"

	"orderdesk/internal/model"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("orderdesk/internal/service")

// OrderLifecycle owns the order state machine. It is the only writer of an
// order's status, payment ids and updated timestamp.
type OrderLifecycle interface {
	// Create stores a new pending order with equal created and updated times.
	Create(ctx context.Context, orderNumber string, items []model.OrderItem, totalCents int64, customer model.Customer) (*model.Order, error)

	// Transition moves an order to target if the lifecycle allows it from
	// the order's current status, as one conditional write.
	Transition(ctx context.Context, id uuid.UUID, target model.OrderStatus) (*model.Order, error)

	// ConfirmPayment marks the order behind a paid gateway session as paid.
	// Repeated calls for an already confirmed order succeed without effect.
	ConfirmPayment(ctx context.Context, sessionID string) (*model.Order, error)

	// CancelAbandoned cancels an order only while it is still pending with
	// no payment session, in the same conditional write. It returns nil, nil
	// when the order has moved on since it was listed as abandoned.
	CancelAbandoned(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// AttachPaymentSession records the gateway session of a pending order.
	AttachPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error
}

// TransitionObserver is told about every committed status change,
// including the initial pending state.
type TransitionObserver interface {
	OrderTransitioned(ctx context.Context, order *model.Order)
}

// CheckoutService turns a cart into a pending order with a payment session.
type CheckoutService interface {
	Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error)
	ConfirmPayment(ctx context.Context, sessionID string) (*model.Order, error)
}

// StatusService answers customer status polls.
type StatusService interface {
	Lookup(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error)
}

// ProductService defines operations for catalog management.
type ProductService interface {
	// Menu returns available products in display order.
	Menu(ctx context.Context) ([]model.Product, error)

	// ListAll returns every product in display order.
	ListAll(ctx context.Context) ([]model.Product, error)

	Create(ctx context.Context, input model.ProductInput) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, input model.ProductInput) (*model.Product, error)
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderQueryService backs the staff console.
type OrderQueryService interface {
	ListRecent(ctx context.Context, limit int) ([]model.Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	History(ctx context.Context, id uuid.UUID) ([]model.StatusChange, error)
	Stats(ctx context.Context, now time.Time) (*model.OrderStats, error)
	Abandoned(ctx context.Context, now time.Time) ([]model.Order, error)
}
