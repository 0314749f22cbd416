package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

// MockSessionAPI is a mock implementation of sessionAPI.
type MockSessionAPI struct {
	mock.Mock
}

func (m *MockSessionAPI) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	args := m.Called(params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}

func (m *MockSessionAPI) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	args := m.Called(id, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stripe.CheckoutSession), args.Error(1)
}

func TestStripeGateway_CreateSession(t *testing.T) {
	ctx := context.Background()
	orderID := uuid.New()

	api := new(MockSessionAPI)
	api.On("New", mock.MatchedBy(func(p *stripe.CheckoutSessionParams) bool {
		return *p.UIMode == "embedded" &&
			*p.Mode == "payment" &&
			*p.RedirectOnCompletion == "never" &&
			*p.CustomerEmail == "giulia@example.com" &&
			len(p.LineItems) == 2 &&
			*p.LineItems[0].PriceData.UnitAmount == 550 &&
			*p.LineItems[0].Quantity == 2 &&
			*p.LineItems[0].PriceData.Currency == "eur" &&
			*p.LineItems[1].PriceData.ProductData.Name == "Acqua" &&
			p.Metadata[MetadataOrderID] == orderID.String() &&
			p.Metadata[MetadataOrderNumber] == "ORD-20250101-ABCDEF" &&
			p.Context == ctx
	})).Return(&stripe.CheckoutSession{ID: "cs_test_1", ClientSecret: "cs_secret"}, nil)

	gw := newStripeGateway(api, zerolog.Nop())
	session, err := gw.CreateSession(ctx, SessionRequest{
		OrderID:       orderID,
		OrderNumber:   "ORD-20250101-ABCDEF",
		CustomerEmail: "giulia@example.com",
		Currency:      "eur",
		Items: []LineItem{
			{Name: "Panino", UnitPriceCents: 550, Quantity: 2},
			{Name: "Acqua", UnitPriceCents: 100, Quantity: 1},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "cs_secret", session.ClientSecret)
	assert.False(t, session.Paid)
	api.AssertExpectations(t)
}

func TestStripeGateway_CreateSessionError(t *testing.T) {
	api := new(MockSessionAPI)
	api.On("New", mock.Anything).Return(nil, errors.New("card network down"))

	gw := newStripeGateway(api, zerolog.Nop())
	session, err := gw.CreateSession(context.Background(), SessionRequest{OrderID: uuid.New(), Currency: "eur"})

	require.Error(t, err)
	assert.Nil(t, session)
	assert.Contains(t, err.Error(), "failed to create checkout session")
}

func TestStripeGateway_GetSession(t *testing.T) {
	orderID := uuid.New().String()

	tests := []struct {
		name     string
		session  *stripe.CheckoutSession
		expected *Session
	}{
		{
			name: "Paid session",
			session: &stripe.CheckoutSession{
				ID:            "cs_paid",
				PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
				Metadata:      map[string]string{MetadataOrderID: orderID},
				PaymentIntent: &stripe.PaymentIntent{ID: "pi_123"},
			},
			expected: &Session{ID: "cs_paid", Paid: true, OrderID: orderID, ConfirmationID: "pi_123"},
		},
		{
			name: "Unpaid session",
			session: &stripe.CheckoutSession{
				ID:            "cs_open",
				PaymentStatus: stripe.CheckoutSessionPaymentStatusUnpaid,
				Metadata:      map[string]string{MetadataOrderID: orderID},
			},
			expected: &Session{ID: "cs_open", OrderID: orderID},
		},
		{
			name: "Missing metadata",
			session: &stripe.CheckoutSession{
				ID:            "cs_nometa",
				PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
			},
			expected: &Session{ID: "cs_nometa", Paid: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockSessionAPI)
			api.On("Get", tt.session.ID, mock.Anything).Return(tt.session, nil)

			got, err := newStripeGateway(api, zerolog.Nop()).GetSession(context.Background(), tt.session.ID)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
