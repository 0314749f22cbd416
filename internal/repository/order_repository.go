package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	orderColumns = `id, order_number, customer_name, customer_email, total_cents, status,
		payment_session_id, payment_confirmation_id, notes, created_at, updated_at`

	uniqueViolation       = "23505"
	orderNumberConstraint = "orders_order_number_key"
)

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.TotalCents,
		&o.Status,
		&o.PaymentSessionID,
		&o.PaymentConfirmationID,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts the order, its items and the first history entry in one transaction.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		order.ID,
		order.OrderNumber,
		order.CustomerName,
		order.CustomerEmail,
		order.TotalCents,
		string(order.Status),
		order.PaymentSessionID,
		order.PaymentConfirmationID,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == orderNumberConstraint {
			r.logger.Warn().Str("order_number", order.OrderNumber).Msg("order number already taken")
			return model.ErrDuplicateOrderNumber
		}
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	batch := &pgx.Batch{}
	for i, item := range order.Items {
		batch.Queue(`
			INSERT INTO order_items (order_id, position, product_id, name, quantity, unit_price_cents)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, order.ID, i, item.ProductID, item.Name, item.Quantity, item.UnitPriceCents)
	}
	batch.Queue(`
		INSERT INTO order_status_history (order_id, status, changed_at)
		VALUES ($1, $2, $3)
	`, order.ID, string(order.Status), order.CreatedAt)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err = results.Exec(); err != nil {
			_ = results.Close()
			r.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Msg("failed to create order items")
			return fmt.Errorf("failed to create order items: %w", err)
		}
	}
	if err = results.Close(); err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int("item_count", len(order.Items)).
		Msg("order created successfully")

	return nil
}

func (r *orderRepository) getOne(ctx context.Context, where string, arg any) (*model.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Interface("key", arg).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsByOrder, err := r.loadItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = itemsByOrder[order.ID]

	return order, nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByOrderNumber retrieves an order by its order number along with its items.
func (r *orderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	return r.getOne(ctx, "order_number = $1", orderNumber)
}

// loadItems fetches the items of several orders in display order.
func (r *orderRepository) loadItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT order_id, product_id, name, quantity, unit_price_cents
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("order_count", len(ids)).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]model.OrderItem, len(ids))
	for rows.Next() {
		var orderID uuid.UUID
		var item model.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Name, &item.Quantity, &item.UnitPriceCents); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items[orderID] = append(items[orderID], item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// GetStatus reads the status snapshot served to polling customers.
func (r *orderRepository) GetStatus(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error) {
	var snap model.StatusSnapshot
	err := r.pool.QueryRow(ctx, `
		SELECT order_number, status, updated_at
		FROM orders
		WHERE order_number = $1
	`, orderNumber).Scan(&snap.OrderNumber, &snap.Status, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to query order status")
		return nil, fmt.Errorf("failed to query order status: %w", err)
	}

	return &snap, nil
}

// SetPaymentSession records the gateway session of a pending order.
func (r *orderRepository) SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_session_id = $2
		WHERE id = $1 AND status = 'pending'
	`, id, sessionID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to set payment session")
		return false, fmt.Errorf("failed to set payment session: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// SetPaymentConfirmation fills payment_confirmation_id when it is still empty.
func (r *orderRepository) SetPaymentConfirmation(ctx context.Context, id uuid.UUID, confirmationID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE orders
		SET payment_confirmation_id = $2
		WHERE id = $1 AND payment_confirmation_id IS NULL
	`, id, confirmationID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to set payment confirmation")
		return false, fmt.Errorf("failed to set payment confirmation: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// UpdateStatus applies update as one conditional statement and appends a
// history entry in the same statement.
func (r *orderRepository) UpdateStatus(ctx context.Context, update model.StatusUpdate) (*model.Order, error) {
	from := make([]string, len(update.From))
	for i, s := range update.From {
		from[i] = string(s)
	}

	query := `
		WITH updated AS (
			UPDATE orders
			SET status = $2,
			    updated_at = $3,
			    payment_confirmation_id = COALESCE($4, payment_confirmation_id)
			WHERE id = $1 AND status = ANY($5)
			  AND (NOT $6 OR payment_session_id IS NULL)
			RETURNING ` + orderColumns + `
		), logged AS (
			INSERT INTO order_status_history (order_id, status, changed_at)
			SELECT id, status, updated_at FROM updated
		)
		SELECT ` + orderColumns + ` FROM updated
	`

	order, err := scanOrder(r.pool.QueryRow(ctx, query,
		update.OrderID,
		string(update.To),
		update.At,
		update.PaymentConfirmationID,
		from,
		update.WithoutSession,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().
				Str("order_id", update.OrderID.String()).
				Str("to", string(update.To)).
				Msg("status update matched no row")
			return nil, nil
		}
		r.logger.Error().
			Err(err).
			Str("order_id", update.OrderID.String()).
			Str("to", string(update.To)).
			Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	return order, nil
}

func (r *orderRepository) listOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}
	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}

// ListRecent returns the newest orders with their items.
func (r *orderRepository) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	return r.listOrders(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
}

// ListAbandoned returns pending orders without a payment session created before olderThan.
func (r *orderRepository) ListAbandoned(ctx context.Context, olderThan time.Time) ([]model.Order, error) {
	return r.listOrders(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE status = 'pending' AND payment_session_id IS NULL AND created_at < $1
		ORDER BY created_at
	`, olderThan)
}

// History returns the status changes of an order, oldest first.
func (r *orderRepository) History(ctx context.Context, id uuid.UUID) ([]model.StatusChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order history")
		return nil, fmt.Errorf("failed to query order history: %w", err)
	}
	defer rows.Close()

	changes := []model.StatusChange{}
	for rows.Next() {
		var c model.StatusChange
		if err := rows.Scan(&c.Status, &c.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order history: %w", err)
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order history: %w", err)
	}

	return changes, nil
}

// Stats summarises orders for the staff console. Revenue counts orders
// created since the given instant that were paid and not cancelled.
func (r *orderRepository) Stats(ctx context.Context, since time.Time) (*model.OrderStats, error) {
	var stats model.OrderStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE status IN ('paid', 'preparing')),
			COALESCE(SUM(total_cents) FILTER (
				WHERE created_at >= $1 AND status NOT IN ('pending', 'cancelled')
			), 0)
		FROM orders
	`, since).Scan(&stats.TodayOrders, &stats.AwaitingKitchen, &stats.TodayRevenueCents)
	if err != nil {
		r.logger.Error().Err(err).Time("since", since).Msg("failed to compute order stats")
		return nil, fmt.Errorf("failed to compute order stats: %w", err)
	}

	return &stats, nil
}
