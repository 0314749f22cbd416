package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"orderdesk/internal/model"
	"orderdesk/internal/ordernumber"
	"orderdesk/internal/payment"
	"orderdesk/internal/pricing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// maxNumberAttempts bounds retries when a generated order number is taken.
const maxNumberAttempts = 5

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// checkoutService implements CheckoutService.
type checkoutService struct {
	validator pricing.Validator
	numbers   ordernumber.Generator
	lifecycle OrderLifecycle
	gateway   payment.Gateway
	currency  string
	now       func() time.Time
	logger    zerolog.Logger
}

// NewCheckoutService creates a new checkout orchestrator.
func NewCheckoutService(
	validator pricing.Validator,
	numbers ordernumber.Generator,
	lifecycle OrderLifecycle,
	gateway payment.Gateway,
	currency string,
	logger zerolog.Logger,
) CheckoutService {
	return &checkoutService{
		validator: validator,
		numbers:   numbers,
		lifecycle: lifecycle,
		gateway:   gateway,
		currency:  currency,
		now:       time.Now,
		logger:    logger.With().Str("service", "checkout").Logger(),
	}
}

// Checkout validates the cart, creates a pending order and opens a payment
// session for exactly the priced lines.
func (s *checkoutService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	ctx, span := tracer.Start(ctx, "checkout")
	defer span.End()

	customer, err := validateCheckout(req)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	priced, err := s.validator.Validate(ctx, req.Items)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	order, err := s.createOrder(ctx, priced, customer)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.String("order.number", order.OrderNumber),
	)

	lines := make([]payment.LineItem, len(order.Items))
	for i, item := range order.Items {
		lines[i] = payment.LineItem{
			Name:           item.Name,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       int64(item.Quantity),
		}
	}

	session, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerEmail: order.CustomerEmail,
		Currency:      s.currency,
		Items:         lines,
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Msg("payment session failed, order left pending")
		recordError(span, err)
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentGateway, err)
	}

	// The session metadata carries the order id, so confirmation still
	// resolves the order if this write is lost.
	if err := s.lifecycle.AttachPaymentSession(ctx, order.ID, session.ID); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Str("session_id", session.ID).
			Msg("failed to record payment session")
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Int("item_count", len(order.Items)).
		Int64("total_cents", order.TotalCents).
		Msg("checkout started")

	return &model.CheckoutResponse{
		ClientSecret: session.ClientSecret,
		OrderNumber:  order.OrderNumber,
		OrderID:      order.ID,
	}, nil
}

// ConfirmPayment completes the flow once the customer's payment succeeds.
func (s *checkoutService) ConfirmPayment(ctx context.Context, sessionID string) (*model.Order, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, model.ErrPaymentNotCompleted
	}
	return s.lifecycle.ConfirmPayment(ctx, sessionID)
}

func (s *checkoutService) createOrder(ctx context.Context, priced *pricing.Result, customer model.Customer) (*model.Order, error) {
	for attempt := 1; ; attempt++ {
		number := s.numbers.Generate(s.now())

		order, err := s.lifecycle.Create(ctx, number, priced.Items, priced.TotalCents, customer)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, model.ErrDuplicateOrderNumber) || attempt == maxNumberAttempts {
			return nil, err
		}

		s.logger.Warn().
			Str("order_number", number).
			Int("attempt", attempt).
			Msg("order number collision, retrying")
	}
}

// validateCheckout applies the request checks in their fixed order and
// returns the normalised customer.
func validateCheckout(req *model.CheckoutRequest) (model.Customer, error) {
	if req == nil || len(req.Items) == 0 {
		return model.Customer{}, model.ErrEmptyCart
	}

	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return model.Customer{}, model.ErrMissingCustomerName
	}

	email := strings.ToLower(strings.TrimSpace(req.CustomerEmail))
	if email == "" {
		return model.Customer{}, model.ErrMissingCustomerEmail
	}
	if !emailPattern.MatchString(email) {
		return model.Customer{}, model.ErrInvalidCustomerEmail
	}

	return model.Customer{Name: name, Email: email}, nil
}
