package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"orderdesk/internal/model"

	"github.com/google/uuid"
)

// memoryOrders is an in-memory OrderRepository with the same conditional
// update semantics as the Postgres one.
type memoryOrders struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]model.Order
	history map[uuid.UUID][]model.StatusChange
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{
		orders:  make(map[uuid.UUID]model.Order),
		history: make(map[uuid.UUID][]model.StatusChange),
	}
}

func (s *memoryOrders) Create(_ context.Context, order *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.orders {
		if existing.OrderNumber == order.OrderNumber {
			return model.ErrDuplicateOrderNumber
		}
	}
	s.orders[order.ID] = *order
	s.history[order.ID] = []model.StatusChange{{Status: order.Status, ChangedAt: order.CreatedAt}}
	return nil
}

func (s *memoryOrders) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (s *memoryOrders) GetByOrderNumber(_ context.Context, orderNumber string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if order.OrderNumber == orderNumber {
			return &order, nil
		}
	}
	return nil, nil
}

func (s *memoryOrders) GetStatus(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error) {
	order, _ := s.GetByOrderNumber(ctx, orderNumber)
	if order == nil {
		return nil, nil
	}
	return &model.StatusSnapshot{OrderNumber: order.OrderNumber, Status: order.Status, UpdatedAt: order.UpdatedAt}, nil
}

func (s *memoryOrders) SetPaymentSession(_ context.Context, id uuid.UUID, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || order.Status != model.StatusPending {
		return false, nil
	}
	order.PaymentSessionID = &sessionID
	s.orders[id] = order
	return true, nil
}

func (s *memoryOrders) SetPaymentConfirmation(_ context.Context, id uuid.UUID, confirmationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok || order.PaymentConfirmationID != nil {
		return false, nil
	}
	order.PaymentConfirmationID = &confirmationID
	s.orders[id] = order
	return true, nil
}

func (s *memoryOrders) UpdateStatus(_ context.Context, update model.StatusUpdate) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[update.OrderID]
	if !ok || !slices.Contains(update.From, order.Status) {
		return nil, nil
	}
	if update.WithoutSession && order.PaymentSessionID != nil {
		return nil, nil
	}
	order.Status = update.To
	order.UpdatedAt = update.At
	if update.PaymentConfirmationID != nil {
		order.PaymentConfirmationID = update.PaymentConfirmationID
	}
	s.orders[order.ID] = order
	s.history[order.ID] = append(s.history[order.ID], model.StatusChange{Status: update.To, ChangedAt: update.At})
	return &order, nil
}

func (s *memoryOrders) ListRecent(context.Context, int) ([]model.Order, error) { return nil, nil }

func (s *memoryOrders) ListAbandoned(context.Context, time.Time) ([]model.Order, error) {
	return nil, nil
}

func (s *memoryOrders) History(_ context.Context, id uuid.UUID) ([]model.StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history[id]), nil
}

func (s *memoryOrders) Stats(context.Context, time.Time) (*model.OrderStats, error) {
	return &model.OrderStats{}, nil
}
