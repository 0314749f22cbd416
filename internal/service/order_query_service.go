package service

import (
	"context"
	"fmt"
	"time"

	"orderdesk/internal/model"
	"orderdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// DefaultOrderListLimit is the staff console page size.
	DefaultOrderListLimit = 50
	maxOrderListLimit     = 200
)

// orderQueryService implements OrderQueryService.
type orderQueryService struct {
	orders       repository.OrderRepository
	location     *time.Location
	abandonAfter time.Duration
	logger       zerolog.Logger
}

// NewOrderQueryService creates the staff read model. "Today" is computed in
// location; pending orders without a payment session older than
// abandonAfter count as abandoned.
func NewOrderQueryService(
	orders repository.OrderRepository,
	location *time.Location,
	abandonAfter time.Duration,
	logger zerolog.Logger,
) OrderQueryService {
	if location == nil {
		location = time.UTC
	}
	return &orderQueryService{
		orders:       orders,
		location:     location,
		abandonAfter: abandonAfter,
		logger:       logger.With().Str("service", "order-query").Logger(),
	}
}

func (s *orderQueryService) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = DefaultOrderListLimit
	}
	limit = min(limit, maxOrderListLimit)

	orders, err := s.orders.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderQueryService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderQueryService) History(ctx context.Context, id uuid.UUID) ([]model.StatusChange, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	changes, err := s.orders.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}
	return changes, nil
}

func (s *orderQueryService) Stats(ctx context.Context, now time.Time) (*model.OrderStats, error) {
	local := now.In(s.location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.location)

	stats, err := s.orders.Stats(ctx, midnight)
	if err != nil {
		return nil, fmt.Errorf("failed to compute order stats: %w", err)
	}
	return stats, nil
}

func (s *orderQueryService) Abandoned(ctx context.Context, now time.Time) ([]model.Order, error) {
	orders, err := s.orders.ListAbandoned(ctx, now.Add(-s.abandonAfter))
	if err != nil {
		return nil, fmt.Errorf("failed to list abandoned orders: %w", err)
	}
	return orders, nil
}
