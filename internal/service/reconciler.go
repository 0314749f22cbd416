package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ReconcilerConfig controls the abandoned order sweep.
type ReconcilerConfig struct {
	Interval   time.Duration
	AutoCancel bool
}

// Reconciler periodically reports pending orders whose payment session was
// never created, and optionally cancels them.
type Reconciler struct {
	queries   OrderQueryService
	lifecycle OrderLifecycle
	cfg       ReconcilerConfig
	now       func() time.Time
	logger    zerolog.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(queries OrderQueryService, lifecycle OrderLifecycle, cfg ReconcilerConfig, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		queries:   queries,
		lifecycle: lifecycle,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.With().Str("service", "reconciler").Logger(),
	}
}

// Run sweeps every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	if r.cfg.Interval <= 0 {
		return fmt.Errorf("reconcile interval must be positive, got %s", r.cfg.Interval)
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.logger.Info().
		Dur("interval", r.cfg.Interval).
		Bool("auto_cancel", r.cfg.AutoCancel).
		Msg("reconciler started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("reconciler stopped")
			return nil
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error().Err(err).Msg("reconcile sweep failed")
			}
		}
	}
}

// RunOnce performs one sweep and returns the number of abandoned orders found.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	orders, err := r.queries.Abandoned(ctx, r.now())
	if err != nil {
		return 0, err
	}

	for _, order := range orders {
		r.logger.Warn().
			Str("order_id", order.ID.String()).
			Str("order_number", order.OrderNumber).
			Time("created_at", order.CreatedAt).
			Msg("abandoned pending order")

		if !r.cfg.AutoCancel {
			continue
		}

		cancelled, err := r.lifecycle.CancelAbandoned(ctx, order.ID)
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", order.ID.String()).
				Str("order_number", order.OrderNumber).
				Msg("failed to cancel abandoned order")
			continue
		}
		if cancelled != nil {
			r.logger.Info().
				Str("order_id", order.ID.String()).
				Str("order_number", order.OrderNumber).
				Msg("abandoned order cancelled")
		}
	}

	return len(orders), nil
}
