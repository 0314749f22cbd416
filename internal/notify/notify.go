// Package notify delivers "ready for pickup" notices outside the service.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReadyNotice tells a customer their order can be collected.
type ReadyNotice struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Title         string    `json:"title"`
	Body          string    `json:"body"`
	ReadyAt       time.Time `json:"ready_at"`
}

// Notifier delivers ready notices. Delivery is best effort.
type Notifier interface {
	NotifyReady(ctx context.Context, notice ReadyNotice) error
	Close() error
}

func encode(notice ReadyNotice) ([]byte, error) {
	body, err := json.Marshal(notice)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ready notice: %w", err)
	}
	return body, nil
}

// logNotifier writes notices to the log only.
type logNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier(logger zerolog.Logger) Notifier {
	return &logNotifier{logger: logger.With().Str("component", "log-notifier").Logger()}
}

func (n *logNotifier) NotifyReady(_ context.Context, notice ReadyNotice) error {
	n.logger.Info().
		Str("order_id", notice.OrderID.String()).
		Str("order_number", notice.OrderNumber).
		Str("title", notice.Title).
		Str("body", notice.Body).
		Msg("order ready for pickup")
	return nil
}

func (n *logNotifier) Close() error { return nil }
