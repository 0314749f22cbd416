package service

import (
	"context"
	"sync"
	"time"

	"orderdesk/internal/i18n"
	"orderdesk/internal/model"
	"orderdesk/internal/notify"
	"orderdesk/internal/ordernumber"
	"orderdesk/internal/statuscache"

	"github.com/rs/zerolog"
)

// StatusReader reads the status snapshot of an order.
type StatusReader interface {
	GetStatus(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error)
}

// StatusBridge publishes committed transitions. It writes each new status
// through to the polling cache and, on entering ready, hands a notice to
// the outward notifier without waiting for it.
type StatusBridge struct {
	orders        StatusReader
	cache         statuscache.Cache
	notifier      notify.Notifier
	translator    *i18n.Translator
	notifyTimeout time.Duration
	logger        zerolog.Logger
	wg            sync.WaitGroup
}

// NewStatusBridge creates a bridge. cache may be nil to always read from orders.
func NewStatusBridge(
	orders StatusReader,
	cache statuscache.Cache,
	notifier notify.Notifier,
	translator *i18n.Translator,
	logger zerolog.Logger,
) *StatusBridge {
	return &StatusBridge{
		orders:        orders,
		cache:         cache,
		notifier:      notifier,
		translator:    translator,
		notifyTimeout: 10 * time.Second,
		logger:        logger.With().Str("service", "status-bridge").Logger(),
	}
}

// OrderTransitioned implements TransitionObserver.
func (b *StatusBridge) OrderTransitioned(ctx context.Context, order *model.Order) {
	if b.cache != nil {
		snap := model.StatusSnapshot{
			OrderNumber: order.OrderNumber,
			Status:      order.Status,
			UpdatedAt:   order.UpdatedAt,
		}
		if err := b.cache.Set(ctx, snap); err != nil {
			b.logger.Warn().
				Err(err).
				Str("order_number", order.OrderNumber).
				Msg("failed to cache order status")
		}
	}

	if order.Status == model.StatusReady {
		b.sendReady(ctx, order)
	}
}

func (b *StatusBridge) sendReady(ctx context.Context, order *model.Order) {
	lang := b.translator.Default()
	notice := notify.ReadyNotice{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.CustomerName,
		CustomerEmail: order.CustomerEmail,
		Title:         b.translator.Message(lang, i18n.KeyOrderReadyTitle),
		Body:          b.translator.Message(lang, i18n.KeyOrderReadyBody, order.OrderNumber),
		ReadyAt:       order.UpdatedAt,
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.notifyTimeout)
		defer cancel()

		if err := b.notifier.NotifyReady(nctx, notice); err != nil {
			b.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Str("order_number", order.OrderNumber).
				Msg("failed to deliver ready notice")
			return
		}

		b.logger.Debug().Str("order_number", order.OrderNumber).Msg("ready notice delivered")
	}()
}

// Wait blocks until in-flight notices finish.
func (b *StatusBridge) Wait() {
	b.wg.Wait()
}

// Lookup returns the status snapshot for an order number. It has no side
// effects on the order.
func (b *StatusBridge) Lookup(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error) {
	if !ordernumber.Valid(orderNumber) {
		return nil, model.ErrOrderNotFound
	}

	if b.cache != nil {
		snap, err := b.cache.Get(ctx, orderNumber)
		if err != nil {
			b.logger.Warn().Err(err).Str("order_number", orderNumber).Msg("status cache read failed")
		} else if snap != nil {
			return snap, nil
		}
	}

	snap, err := b.orders.GetStatus(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, model.ErrOrderNotFound
	}

	if b.cache != nil {
		if err := b.cache.Set(ctx, *snap); err != nil {
			b.logger.Warn().Err(err).Str("order_number", orderNumber).Msg("failed to cache order status")
		}
	}

	return snap, nil
}
