package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"orderdesk/internal/model"
	"orderdesk/internal/payment"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestLifecycle(store *memoryOrders, gateway payment.Gateway, observer TransitionObserver) *lifecycleService {
	svc := NewOrderLifecycle(store, gateway, observer, zerolog.Nop()).(*lifecycleService)
	var mu sync.Mutex
	clock := time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return svc
}

func burgerLine() []model.OrderItem {
	return []model.OrderItem{{ProductID: uuid.New(), Name: "Burger", Quantity: 2, UnitPriceCents: 550}}
}

func createPending(t *testing.T, svc *lifecycleService) *model.Order {
	t.Helper()
	order, err := svc.Create(context.Background(), "ORD-20241231-ABC123", burgerLine(), 1100,
		model.Customer{Name: "Mario", Email: "mario@example.com"})
	require.NoError(t, err)
	return order
}

func TestLifecycle_Create_Success(t *testing.T) {
	store := newMemoryOrders()
	observer := &recordingObserver{}
	svc := newTestLifecycle(store, nil, observer)

	order := createPending(t, svc)

	assert.Equal(t, model.StatusPending, order.Status)
	assert.Equal(t, int64(1100), order.TotalCents)
	assert.Equal(t, order.CreatedAt, order.UpdatedAt)
	assert.Nil(t, order.PaymentSessionID)
	assert.Equal(t, []model.OrderStatus{model.StatusPending}, observer.statuses())

	history, err := store.History(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.StatusPending, history[0].Status)
}

func TestLifecycle_Create_TotalMismatch(t *testing.T) {
	svc := newTestLifecycle(newMemoryOrders(), nil, nil)

	_, err := svc.Create(context.Background(), "ORD-20241231-ABC123", burgerLine(), 1000, model.Customer{Name: "a", Email: "a@b.it"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestLifecycle_Create_DuplicateNumber(t *testing.T) {
	store := newMemoryOrders()
	svc := newTestLifecycle(store, nil, nil)
	createPending(t, svc)

	_, err := svc.Create(context.Background(), "ORD-20241231-ABC123", burgerLine(), 1100, model.Customer{Name: "b", Email: "b@b.it"})

	assert.ErrorIs(t, err, model.ErrDuplicateOrderNumber)
}

func TestLifecycle_Create_RepositoryError(t *testing.T) {
	repo := new(MockOrderRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))
	svc := NewOrderLifecycle(repo, nil, nil, zerolog.Nop())

	_, err := svc.Create(context.Background(), "ORD-20241231-ABC123", burgerLine(), 1100, model.Customer{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create order")
	repo.AssertExpectations(t)
}

func TestLifecycle_Transition_FullPath(t *testing.T) {
	store := newMemoryOrders()
	observer := &recordingObserver{}
	svc := newTestLifecycle(store, nil, observer)
	ctx := context.Background()
	order := createPending(t, svc)

	previous := order.UpdatedAt
	for _, target := range []model.OrderStatus{model.StatusPaid, model.StatusPreparing, model.StatusReady, model.StatusCompleted} {
		updated, err := svc.Transition(ctx, order.ID, target)
		require.NoError(t, err, "transition to %s", target)
		assert.Equal(t, target, updated.Status)
		assert.True(t, updated.UpdatedAt.After(previous))
		previous = updated.UpdatedAt
	}

	_, err := svc.Transition(ctx, order.ID, model.StatusPreparing)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	var domainErr *model.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, []any{"completed", "preparing"}, domainErr.Args)

	current, _ := store.GetByID(ctx, order.ID)
	assert.Equal(t, model.StatusCompleted, current.Status)

	assert.Equal(t, []model.OrderStatus{
		model.StatusPending,
		model.StatusPaid,
		model.StatusPreparing,
		model.StatusReady,
		model.StatusCompleted,
	}, observer.statuses())
}

func TestLifecycle_Transition_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		path    []model.OrderStatus
		target  model.OrderStatus
		wantErr error
	}{
		{"skip paid", nil, model.StatusPreparing, model.ErrInvalidTransition},
		{"pending to ready", nil, model.StatusReady, model.ErrInvalidTransition},
		{"back to pending", []model.OrderStatus{model.StatusPaid}, model.StatusPending, model.ErrInvalidTransition},
		{"leave cancelled", []model.OrderStatus{model.StatusCancelled}, model.StatusPaid, model.ErrInvalidTransition},
		{"cancel twice", []model.OrderStatus{model.StatusCancelled}, model.StatusCancelled, model.ErrInvalidTransition},
		{"unknown status", nil, model.OrderStatus("shipped"), model.ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryOrders()
			svc := newTestLifecycle(store, nil, nil)
			ctx := context.Background()
			order := createPending(t, svc)
			for _, step := range tt.path {
				_, err := svc.Transition(ctx, order.ID, step)
				require.NoError(t, err)
			}
			before, _ := store.GetByID(ctx, order.ID)

			_, err := svc.Transition(ctx, order.ID, tt.target)

			assert.ErrorIs(t, err, tt.wantErr)
			after, _ := store.GetByID(ctx, order.ID)
			assert.Equal(t, before.Status, after.Status)
			assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
		})
	}
}

func TestLifecycle_Transition_CancelFromAnyActiveStatus(t *testing.T) {
	for _, path := range [][]model.OrderStatus{
		nil,
		{model.StatusPaid},
		{model.StatusPaid, model.StatusPreparing},
		{model.StatusPaid, model.StatusPreparing, model.StatusReady},
	} {
		svc := newTestLifecycle(newMemoryOrders(), nil, nil)
		order := createPending(t, svc)
		for _, step := range path {
			_, err := svc.Transition(context.Background(), order.ID, step)
			require.NoError(t, err)
		}

		updated, err := svc.Transition(context.Background(), order.ID, model.StatusCancelled)

		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, updated.Status)
	}
}

func TestLifecycle_Transition_NotFound(t *testing.T) {
	svc := newTestLifecycle(newMemoryOrders(), nil, nil)

	_, err := svc.Transition(context.Background(), uuid.New(), model.StatusPaid)

	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestLifecycle_Transition_ConcurrentWritersOneWins(t *testing.T) {
	store := newMemoryOrders()
	observer := &recordingObserver{}
	svc := newTestLifecycle(store, nil, observer)
	order := createPending(t, svc)
	_, err := svc.Transition(context.Background(), order.ID, model.StatusPaid)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Transition(context.Background(), order.ID, model.StatusPreparing); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	history, _ := store.History(context.Background(), order.ID)
	assert.Len(t, history, 3)
}

func TestLifecycle_ConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("paid session moves pending to paid", func(t *testing.T) {
		store := newMemoryOrders()
		gateway := new(MockGateway)
		observer := &recordingObserver{}
		svc := newTestLifecycle(store, gateway, observer)
		order := createPending(t, svc)
		gateway.On("GetSession", mock.Anything, "cs_test_1").Return(&payment.Session{
			ID:             "cs_test_1",
			Paid:           true,
			OrderID:        order.ID.String(),
			ConfirmationID: "pi_123",
		}, nil)

		confirmed, err := svc.ConfirmPayment(ctx, "cs_test_1")

		require.NoError(t, err)
		assert.Equal(t, model.StatusPaid, confirmed.Status)
		require.NotNil(t, confirmed.PaymentConfirmationID)
		assert.Equal(t, "pi_123", *confirmed.PaymentConfirmationID)

		again, err := svc.ConfirmPayment(ctx, "cs_test_1")
		require.NoError(t, err)
		assert.Equal(t, model.StatusPaid, again.Status)
		assert.Equal(t, confirmed.UpdatedAt, again.UpdatedAt)

		history, _ := store.History(ctx, order.ID)
		assert.Len(t, history, 2)
		assert.Equal(t, []model.OrderStatus{model.StatusPending, model.StatusPaid}, observer.statuses())
		gateway.AssertExpectations(t)
	})

	t.Run("confirm after kitchen started is a no-op", func(t *testing.T) {
		store := newMemoryOrders()
		gateway := new(MockGateway)
		svc := newTestLifecycle(store, gateway, nil)
		order := createPending(t, svc)
		_, err := svc.Transition(ctx, order.ID, model.StatusPaid)
		require.NoError(t, err)
		_, err = svc.Transition(ctx, order.ID, model.StatusPreparing)
		require.NoError(t, err)
		gateway.On("GetSession", mock.Anything, "cs_late").
			Return(&payment.Session{ID: "cs_late", Paid: true, OrderID: order.ID.String()}, nil)

		got, err := svc.ConfirmPayment(ctx, "cs_late")

		require.NoError(t, err)
		assert.Equal(t, model.StatusPreparing, got.Status)
	})

	t.Run("unpaid session leaves order pending", func(t *testing.T) {
		store := newMemoryOrders()
		gateway := new(MockGateway)
		svc := newTestLifecycle(store, gateway, nil)
		order := createPending(t, svc)
		gateway.On("GetSession", mock.Anything, "cs_open").
			Return(&payment.Session{ID: "cs_open", Paid: false, OrderID: order.ID.String()}, nil)

		_, err := svc.ConfirmPayment(ctx, "cs_open")

		assert.ErrorIs(t, err, model.ErrPaymentNotCompleted)
		current, _ := store.GetByID(ctx, order.ID)
		assert.Equal(t, model.StatusPending, current.Status)
	})

	t.Run("cancelled order cannot be paid", func(t *testing.T) {
		store := newMemoryOrders()
		gateway := new(MockGateway)
		svc := newTestLifecycle(store, gateway, nil)
		order := createPending(t, svc)
		_, err := svc.Transition(ctx, order.ID, model.StatusCancelled)
		require.NoError(t, err)
		gateway.On("GetSession", mock.Anything, "cs_x").
			Return(&payment.Session{ID: "cs_x", Paid: true, OrderID: order.ID.String()}, nil)

		_, err = svc.ConfirmPayment(ctx, "cs_x")

		assert.ErrorIs(t, err, model.ErrInvalidTransition)
	})

	t.Run("gateway failure", func(t *testing.T) {
		gateway := new(MockGateway)
		svc := newTestLifecycle(newMemoryOrders(), gateway, nil)
		gateway.On("GetSession", mock.Anything, "cs_err").Return(nil, errors.New("timeout"))

		_, err := svc.ConfirmPayment(ctx, "cs_err")

		assert.ErrorIs(t, err, model.ErrPaymentGateway)
		assert.Contains(t, err.Error(), "timeout")
	})

	t.Run("session without order id", func(t *testing.T) {
		gateway := new(MockGateway)
		svc := newTestLifecycle(newMemoryOrders(), gateway, nil)
		gateway.On("GetSession", mock.Anything, "cs_anon").
			Return(&payment.Session{ID: "cs_anon", Paid: true}, nil)

		_, err := svc.ConfirmPayment(ctx, "cs_anon")

		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("session for unknown order", func(t *testing.T) {
		gateway := new(MockGateway)
		svc := newTestLifecycle(newMemoryOrders(), gateway, nil)
		gateway.On("GetSession", mock.Anything, "cs_ghost").
			Return(&payment.Session{ID: "cs_ghost", Paid: true, OrderID: uuid.NewString()}, nil)

		_, err := svc.ConfirmPayment(ctx, "cs_ghost")

		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestLifecycle_ConfirmPayment_ConcurrentCallsCommitOnce(t *testing.T) {
	store := newMemoryOrders()
	gateway := new(MockGateway)
	observer := &recordingObserver{}
	svc := newTestLifecycle(store, gateway, observer)
	order := createPending(t, svc)
	gateway.On("GetSession", mock.Anything, "cs_race").
		Return(&payment.Session{ID: "cs_race", Paid: true, OrderID: order.ID.String(), ConfirmationID: "pi_race"}, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ConfirmPayment(context.Background(), "cs_race")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	history, _ := store.History(context.Background(), order.ID)
	assert.Len(t, history, 2)
	assert.Equal(t, []model.OrderStatus{model.StatusPending, model.StatusPaid}, observer.statuses())
}

func TestLifecycle_AttachPaymentSession(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order", func(t *testing.T) {
		store := newMemoryOrders()
		svc := newTestLifecycle(store, nil, nil)
		order := createPending(t, svc)

		require.NoError(t, svc.AttachPaymentSession(ctx, order.ID, "cs_1"))

		current, _ := store.GetByID(ctx, order.ID)
		require.NotNil(t, current.PaymentSessionID)
		assert.Equal(t, "cs_1", *current.PaymentSessionID)
	})

	t.Run("order already paid", func(t *testing.T) {
		store := newMemoryOrders()
		svc := newTestLifecycle(store, nil, nil)
		order := createPending(t, svc)
		_, err := svc.Transition(ctx, order.ID, model.StatusPaid)
		require.NoError(t, err)

		require.NoError(t, svc.AttachPaymentSession(ctx, order.ID, "cs_2"))

		current, _ := store.GetByID(ctx, order.ID)
		assert.Nil(t, current.PaymentSessionID)
	})

	t.Run("unknown order", func(t *testing.T) {
		svc := newTestLifecycle(newMemoryOrders(), nil, nil)

		err := svc.AttachPaymentSession(ctx, uuid.New(), "cs_3")

		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestLifecycle_ConfirmPayment_BackfillsConfirmationAfterStaffMarkedPaid(t *testing.T) {
	ctx := context.Background()
	store := newMemoryOrders()
	gateway := new(MockGateway)
	svc := newTestLifecycle(store, gateway, nil)
	order := createPending(t, svc)
	_, err := svc.Transition(ctx, order.ID, model.StatusPaid)
	require.NoError(t, err)
	gateway.On("GetSession", mock.Anything, "cs_staff").
		Return(&payment.Session{ID: "cs_staff", Paid: true, OrderID: order.ID.String(), ConfirmationID: "pi_staff"}, nil)

	got, err := svc.ConfirmPayment(ctx, "cs_staff")
	require.NoError(t, err)
	require.NotNil(t, got.PaymentConfirmationID)
	assert.Equal(t, "pi_staff", *got.PaymentConfirmationID)

	// A second delivery keeps the recorded id and writes no history.
	gateway.On("GetSession", mock.Anything, "cs_other").
		Return(&payment.Session{ID: "cs_other", Paid: true, OrderID: order.ID.String(), ConfirmationID: "pi_other"}, nil)
	again, err := svc.ConfirmPayment(ctx, "cs_other")
	require.NoError(t, err)
	assert.Equal(t, "pi_staff", *again.PaymentConfirmationID)

	stored, _ := store.GetByID(ctx, order.ID)
	assert.Equal(t, model.StatusPaid, stored.Status)
	assert.Equal(t, "pi_staff", *stored.PaymentConfirmationID)
	history, _ := store.History(ctx, order.ID)
	assert.Len(t, history, 2)
}

func TestLifecycle_ConfirmPayment_BackfillFailureStillSucceeds(t *testing.T) {
	repo := new(MockOrderRepository)
	gateway := new(MockGateway)
	svc := NewOrderLifecycle(repo, gateway, nil, zerolog.Nop())
	id := uuid.New()
	gateway.On("GetSession", mock.Anything, "cs_db").
		Return(&payment.Session{ID: "cs_db", Paid: true, OrderID: id.String(), ConfirmationID: "pi_db"}, nil)
	repo.On("UpdateStatus", mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("GetByID", mock.Anything, id).Return(&model.Order{ID: id, Status: model.StatusReady}, nil)
	repo.On("SetPaymentConfirmation", mock.Anything, id, "pi_db").Return(false, errors.New("connection reset"))

	got, err := svc.ConfirmPayment(context.Background(), "cs_db")

	require.NoError(t, err)
	assert.Equal(t, model.StatusReady, got.Status)
	assert.Nil(t, got.PaymentConfirmationID)
	repo.AssertExpectations(t)
}

func TestLifecycle_CancelAbandoned(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name          string
		prepare       func(t *testing.T, svc *lifecycleService, id uuid.UUID)
		wantCancelled bool
		wantStatus    model.OrderStatus
	}{
		{
			name:          "pending without session",
			prepare:       func(*testing.T, *lifecycleService, uuid.UUID) {},
			wantCancelled: true,
			wantStatus:    model.StatusCancelled,
		},
		{
			name: "paid in the meantime",
			prepare: func(t *testing.T, svc *lifecycleService, id uuid.UUID) {
				_, err := svc.Transition(ctx, id, model.StatusPaid)
				require.NoError(t, err)
			},
			wantStatus: model.StatusPaid,
		},
		{
			name: "session attached in the meantime",
			prepare: func(t *testing.T, svc *lifecycleService, id uuid.UUID) {
				require.NoError(t, svc.AttachPaymentSession(ctx, id, "cs_late"))
			},
			wantStatus: model.StatusPending,
		},
		{
			name: "already in the kitchen",
			prepare: func(t *testing.T, svc *lifecycleService, id uuid.UUID) {
				for _, s := range []model.OrderStatus{model.StatusPaid, model.StatusPreparing} {
					_, err := svc.Transition(ctx, id, s)
					require.NoError(t, err)
				}
			},
			wantStatus: model.StatusPreparing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryOrders()
			svc := newTestLifecycle(store, nil, nil)
			order := createPending(t, svc)
			tt.prepare(t, svc, order.ID)

			cancelled, err := svc.CancelAbandoned(ctx, order.ID)

			require.NoError(t, err)
			assert.Equal(t, tt.wantCancelled, cancelled != nil)
			current, _ := store.GetByID(ctx, order.ID)
			assert.Equal(t, tt.wantStatus, current.Status)
		})
	}

	t.Run("unknown order", func(t *testing.T) {
		svc := newTestLifecycle(newMemoryOrders(), nil, nil)

		_, err := svc.CancelAbandoned(ctx, uuid.New())

		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}
