package payment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// sessionAPI is the subset of the Stripe checkout session client in use.
type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// stripeGateway implements Gateway with Stripe embedded Checkout.
type stripeGateway struct {
	sessions sessionAPI
	logger   zerolog.Logger
}

// NewStripeGateway creates a gateway authenticated with secretKey.
func NewStripeGateway(secretKey string, logger zerolog.Logger) Gateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return newStripeGateway(api.CheckoutSessions, logger)
}

func newStripeGateway(sessions sessionAPI, logger zerolog.Logger) *stripeGateway {
	return &stripeGateway{
		sessions: sessions,
		logger:   logger.With().Str("component", "stripe-gateway").Logger(),
	}
}

// CreateSession opens an embedded session that never redirects, so the
// customer stays on the order page when payment completes.
func (g *stripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		UIMode:               stripe.String("embedded"),
		Mode:                 stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:        stripe.String(req.CustomerEmail),
		RedirectOnCompletion: stripe.String("never"),
		PaymentMethodTypes:   stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	for _, item := range req.Items {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitPriceCents),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	params.AddMetadata(MetadataOrderID, req.OrderID.String())
	params.AddMetadata(MetadataOrderNumber, req.OrderNumber)

	s, err := g.sessions.New(params)
	if err != nil {
		g.logger.Error().
			Err(err).
			Str("order_id", req.OrderID.String()).
			Str("order_number", req.OrderNumber).
			Msg("failed to create checkout session")
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	g.logger.Debug().
		Str("order_number", req.OrderNumber).
		Str("session_id", s.ID).
		Msg("checkout session created")

	return toSession(s), nil
}

// GetSession reads a session and the payment intent it produced.
func (g *stripeGateway) GetSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sessions.Get(id, params)
	if err != nil {
		g.logger.Error().Err(err).Str("session_id", id).Msg("failed to retrieve checkout session")
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	return toSession(s), nil
}

func toSession(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:           s.ID,
		ClientSecret: s.ClientSecret,
		Paid:         s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		OrderID:      s.Metadata[MetadataOrderID],
	}
	if s.PaymentIntent != nil {
		out.ConfirmationID = s.PaymentIntent.ID
	}
	return out
}
