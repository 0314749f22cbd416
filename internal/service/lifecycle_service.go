package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/model"
	"orderdesk/internal/payment"
	"orderdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// lifecycleService implements OrderLifecycle.
type lifecycleService struct {
	orders   repository.OrderRepository
	gateway  payment.Gateway
	observer TransitionObserver
	now      func() time.Time
	logger   zerolog.Logger
}

// NewOrderLifecycle creates the lifecycle manager. observer may be nil.
func NewOrderLifecycle(
	orders repository.OrderRepository,
	gateway payment.Gateway,
	observer TransitionObserver,
	logger zerolog.Logger,
) OrderLifecycle {
	return &lifecycleService{
		orders:   orders,
		gateway:  gateway,
		observer: observer,
		now:      time.Now,
		logger:   logger.With().Str("service", "lifecycle").Logger(),
	}
}

// Create stores a new pending order.
func (s *lifecycleService) Create(
	ctx context.Context,
	orderNumber string,
	items []model.OrderItem,
	totalCents int64,
	customer model.Customer,
) (*model.Order, error) {
	var sum int64
	for _, item := range items {
		sum += item.LineTotalCents()
	}
	if sum != totalCents {
		return nil, fmt.Errorf("order total %d does not match item sum %d", totalCents, sum)
	}

	now := s.now().UTC()
	order := &model.Order{
		ID:            uuid.New(),
		OrderNumber:   orderNumber,
		CustomerName:  customer.Name,
		CustomerEmail: customer.Email,
		Items:         items,
		TotalCents:    totalCents,
		Status:        model.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, model.ErrDuplicateOrderNumber) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int64("total_cents", order.TotalCents).
		Msg("order created")

	s.observe(ctx, order)

	return order, nil
}

// Transition moves an order to target as one conditional write.
func (s *lifecycleService) Transition(ctx context.Context, id uuid.UUID, target model.OrderStatus) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "lifecycle.transition", trace.WithAttributes(
		attribute.String("order.id", id.String()),
		attribute.String("order.status.target", string(target)),
	))
	defer span.End()

	if !target.Valid() {
		return nil, model.InvalidStatus(string(target))
	}

	updated, current, err := s.apply(ctx, model.StatusUpdate{
		OrderID: id,
		From:    model.AllowedSources(target),
		To:      target,
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if updated == nil {
		err := model.InvalidTransition(current.Status, target)
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("current", string(current.Status)).
			Str("requested", string(target)).
			Msg("transition rejected")
		recordError(span, err)
		return nil, err
	}

	return updated, nil
}

// ConfirmPayment marks the order behind a paid gateway session as paid.
func (s *lifecycleService) ConfirmPayment(ctx context.Context, sessionID string) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "lifecycle.confirm_payment", trace.WithAttributes(
		attribute.String("payment.session_id", sessionID),
	))
	defer span.End()

	session, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to read payment session")
		recordError(span, err)
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentGateway, err)
	}

	if !session.Paid {
		s.logger.Info().Str("session_id", sessionID).Msg("payment not completed yet")
		return nil, model.ErrPaymentNotCompleted
	}

	orderID, err := uuid.Parse(session.OrderID)
	if err != nil {
		s.logger.Error().
			Str("session_id", sessionID).
			Str("metadata_order_id", session.OrderID).
			Msg("paid session carries no usable order id")
		return nil, model.ErrOrderNotFound
	}

	update := model.StatusUpdate{
		OrderID: orderID,
		From:    []model.OrderStatus{model.StatusPending},
		To:      model.StatusPaid,
	}
	if session.ConfirmationID != "" {
		update.PaymentConfirmationID = &session.ConfirmationID
	}

	updated, current, err := s.apply(ctx, update)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if updated != nil {
		return updated, nil
	}

	if current.Status.HasReached(model.StatusPaid) {
		s.logger.Info().
			Str("order_id", orderID.String()).
			Str("status", string(current.Status)).
			Msg("payment already confirmed")
		if current.PaymentConfirmationID == nil && session.ConfirmationID != "" {
			// Staff may have marked the order paid before the gateway reported.
			s.recordConfirmation(ctx, current, session.ConfirmationID)
		}
		return current, nil
	}

	err = model.InvalidTransition(current.Status, model.StatusPaid)
	recordError(span, err)
	return nil, err
}

func (s *lifecycleService) recordConfirmation(ctx context.Context, order *model.Order, confirmationID string) {
	ok, err := s.orders.SetPaymentConfirmation(ctx, order.ID, confirmationID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Msg("failed to record payment confirmation")
		return
	}
	if ok {
		order.PaymentConfirmationID = &confirmationID
	}
}

// CancelAbandoned cancels an order that is still pending without a payment
// session.
func (s *lifecycleService) CancelAbandoned(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "lifecycle.cancel_abandoned", trace.WithAttributes(
		attribute.String("order.id", id.String()),
	))
	defer span.End()

	updated, current, err := s.apply(ctx, model.StatusUpdate{
		OrderID:        id,
		From:           []model.OrderStatus{model.StatusPending},
		To:             model.StatusCancelled,
		WithoutSession: true,
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	if updated == nil {
		s.logger.Info().
			Str("order_id", id.String()).
			Str("status", string(current.Status)).
			Bool("has_session", current.PaymentSessionID != nil).
			Msg("order no longer abandoned, left untouched")
		return nil, nil
	}

	return updated, nil
}

// AttachPaymentSession records the gateway session of a pending order.
func (s *lifecycleService) AttachPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	ok, err := s.orders.SetPaymentSession(ctx, id, sessionID)
	if err != nil {
		return fmt.Errorf("failed to attach payment session: %w", err)
	}
	if ok {
		return nil
	}

	current, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if current == nil {
		return model.ErrOrderNotFound
	}

	s.logger.Warn().
		Str("order_id", id.String()).
		Str("status", string(current.Status)).
		Msg("payment session not attached, order is no longer pending")
	return nil
}

// apply runs the conditional update. When no row changes it returns the
// current order instead, or ErrOrderNotFound.
func (s *lifecycleService) apply(ctx context.Context, update model.StatusUpdate) (*model.Order, *model.Order, error) {
	update.At = s.now().UTC()

	if len(update.From) > 0 {
		updated, err := s.orders.UpdateStatus(ctx, update)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to update order status: %w", err)
		}
		if updated != nil {
			s.logger.Info().
				Str("order_id", updated.ID.String()).
				Str("order_number", updated.OrderNumber).
				Str("status", string(updated.Status)).
				Msg("order status changed")
			s.observe(ctx, updated)
			return updated, nil, nil
		}
	}

	current, err := s.orders.GetByID(ctx, update.OrderID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load order: %w", err)
	}
	if current == nil {
		return nil, nil, model.ErrOrderNotFound
	}

	return nil, current, nil
}

func (s *lifecycleService) observe(ctx context.Context, order *model.Order) {
	if s.observer != nil {
		s.observer.OrderTransitioned(ctx, order)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
