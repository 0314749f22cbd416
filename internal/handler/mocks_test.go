package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"orderdesk/internal/i18n"
	"orderdesk/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCheckoutService is a mock implementation of service.CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Checkout(ctx context.Context, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CheckoutResponse), args.Error(1)
}

func (m *MockCheckoutService) ConfirmPayment(ctx context.Context, sessionID string) (*model.Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockStatusService is a mock implementation of service.StatusService.
type MockStatusService struct {
	mock.Mock
}

func (m *MockStatusService) Lookup(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StatusSnapshot), args.Error(1)
}

// MockOrderQueryService is a mock implementation of service.OrderQueryService.
type MockOrderQueryService struct {
	mock.Mock
}

func (m *MockOrderQueryService) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderQueryService) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderQueryService) History(ctx context.Context, id uuid.UUID) ([]model.StatusChange, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatusChange), args.Error(1)
}

func (m *MockOrderQueryService) Stats(ctx context.Context, now time.Time) (*model.OrderStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderStats), args.Error(1)
}

func (m *MockOrderQueryService) Abandoned(ctx context.Context, now time.Time) ([]model.Order, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

// MockLifecycle is a mock implementation of service.OrderLifecycle.
type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) Create(ctx context.Context, orderNumber string, items []model.OrderItem, totalCents int64, customer model.Customer) (*model.Order, error) {
	args := m.Called(ctx, orderNumber, items, totalCents, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockLifecycle) Transition(ctx context.Context, id uuid.UUID, target model.OrderStatus) (*model.Order, error) {
	args := m.Called(ctx, id, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockLifecycle) ConfirmPayment(ctx context.Context, sessionID string) (*model.Order, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockLifecycle) CancelAbandoned(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockLifecycle) AttachPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	args := m.Called(ctx, id, sessionID)
	return args.Error(0)
}

// MockProductService is a mock implementation of service.ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) Menu(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) ListAll(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, input model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id uuid.UUID, input model.ProductInput) (*model.Product, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*model.Product, error) {
	args := m.Called(ctx, id, available)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVerifier is a mock implementation of SessionVerifier.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) CompletedSessionID(payload []byte, signature string) (string, error) {
	args := m.Called(payload, signature)
	return args.String(0), args.Error(1)
}

func newTestTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.NewTranslator("it")
	require.NoError(t, err)
	return tr
}

// route mounts a single handler on a chi router so URL parameters resolve.
func route(method, pattern string, h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	return r
}
