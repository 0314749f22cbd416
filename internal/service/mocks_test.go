package service

import (
	"context"
	"sync"
	"time"

	"orderdesk/internal/model"
	"orderdesk/internal/notify"
	"orderdesk/internal/payment"
	"orderdesk/internal/pricing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of repository.OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetStatus(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StatusSnapshot), args.Error(1)
}

func (m *MockOrderRepository) SetPaymentSession(ctx context.Context, id uuid.UUID, sessionID string) (bool, error) {
	args := m.Called(ctx, id, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SetPaymentConfirmation(ctx context.Context, id uuid.UUID, confirmationID string) (bool, error) {
	args := m.Called(ctx, id, confirmationID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, update model.StatusUpdate) (*model.Order, error) {
	args := m.Called(ctx, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListAbandoned(ctx context.Context, olderThan time.Time) ([]model.Order, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) History(ctx context.Context, id uuid.UUID) ([]model.StatusChange, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatusChange), args.Error(1)
}

func (m *MockOrderRepository) Stats(ctx context.Context, since time.Time) (*model.OrderStats, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderStats), args.Error(1)
}

// MockProductRepository is a mock implementation of repository.ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, onlyAvailable bool) ([]model.Product, error) {
	args := m.Called(ctx, onlyAvailable)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetAvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *model.Product) (bool, error) {
	args := m.Called(ctx, product)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Upsert(ctx context.Context, product *model.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (bool, error) {
	args := m.Called(ctx, id, available)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockGateway is a mock implementation of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

func (m *MockGateway) GetSession(ctx context.Context, id string) (*payment.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

// MockValidator is a mock implementation of pricing.Validator.
type MockValidator struct {
	mock.Mock
}

func (m *MockValidator) Validate(ctx context.Context, lines []model.CheckoutItem) (*pricing.Result, error) {
	args := m.Called(ctx, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pricing.Result), args.Error(1)
}

// MockGenerator is a mock implementation of ordernumber.Generator.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(now time.Time) string {
	args := m.Called(now)
	return args.String(0)
}

// MockLifecycle is a mock implementation of OrderLifecycle.
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

// MockQueries is a mock implementation of OrderQueryService.
type MockQueries struct {
	mock.Mock
}

func (m *MockQueries) ListRecent(ctx context.Context, limit int) ([]model.Order, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockQueries) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockQueries) History(ctx context.Context, id uuid.UUID) ([]model.StatusChange, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StatusChange), args.Error(1)
}

func (m *MockQueries) Stats(ctx context.Context, now time.Time) (*model.OrderStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderStats), args.Error(1)
}

func (m *MockQueries) Abandoned(ctx context.Context, now time.Time) ([]model.Order, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

// MockCache is a mock implementation of statuscache.Cache.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StatusSnapshot), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, snapshot model.StatusSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// recordingObserver collects every order it is told about.
type recordingObserver struct {
	mu     sync.Mutex
	orders []model.Order
}

func (o *recordingObserver) OrderTransitioned(_ context.Context, order *model.Order) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orders = append(o.orders, *order)
}

func (o *recordingObserver) statuses() []model.OrderStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]model.OrderStatus, len(o.orders))
	for i, order := range o.orders {
		out[i] = order.Status
	}
	return out
}

// recordingNotifier collects delivered notices.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.ReadyNotice
	err     error
}

func (n *recordingNotifier) NotifyReady(_ context.Context, notice notify.ReadyNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

func (n *recordingNotifier) Close() error { return nil }

func (n *recordingNotifier) sent() []notify.ReadyNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.ReadyNotice(nil), n.notices...)
}
