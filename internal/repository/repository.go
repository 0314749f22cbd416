package repository

import (
	"context"
	"time"

	"orderdesk/internal/model"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product data access operations.
// Reads return nil, nil when the product does not exist.
type ProductRepository interface {
	// List returns products ordered by position, then creation time.
	List(ctx context.Context, onlyAvailable bool) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetAvailableByIDs returns the subset of ids that exist and are available.
	GetAvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// Update rewrites the editable fields. It reports false when no row matched.
	Update(ctx context.Context, product *model.Product) (bool, error)

	// Upsert inserts the product or overwrites the row with the same ID.
	Upsert(ctx context.Context, product *model.Product) error

	// SetAvailability flips the availability flag.
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) (bool, error)

	// Delete removes a product. Order snapshots are unaffected.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// OrderRepository defines the interface for order data access operations.
// Reads return nil, nil when the order does not exist.
type OrderRepository interface {
	// Create inserts the order, its items and the first history entry in
	// one transaction. A taken order number yields model.ErrDuplicateOrderNumber.
	Create(ctx context.Context, order *model.Order) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// GetByOrderNumber retrieves an order by its order number along with its items.
	GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error)

	// GetStatus reads the status snapshot served to polling customers.
	GetStatus(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error)

	// SetPaymentSession records the gateway session of a pending order.
	SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) (bool, error)

	// SetPaymentConfirmation fills the confirmation id when none is stored
	// yet. It reports false when the order is missing or already has one.
	SetPaymentConfirmation(ctx context.Context, id uuid.UUID, confirmationID string) (bool, error)

	// UpdateStatus applies update as one conditional statement and appends
	// a history entry. It returns nil, nil when the order does not exist or
	// its current status is not in update.From. Items are not loaded.
	UpdateStatus(ctx context.Context, update model.StatusUpdate) (*model.Order, error)

	// ListRecent returns the newest orders with their items.
	ListRecent(ctx context.Context, limit int) ([]model.Order, error)

	// ListAbandoned returns pending orders without a payment session
	// created before olderThan.
	ListAbandoned(ctx context.Context, olderThan time.Time) ([]model.Order, error)

	// History returns the status changes of an order, oldest first.
	History(ctx context.Context, id uuid.UUID) ([]model.StatusChange, error)

	// Stats summarises orders for the staff console.
	Stats(ctx context.Context, since time.Time) (*model.OrderStats, error)
}
