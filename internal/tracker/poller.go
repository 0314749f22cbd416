// Package tracker follows an order from the customer's device by polling the
// status endpoint.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"orderdesk/internal/model"

	"github.com/rs/zerolog"
)

// DefaultInterval is the polling period when none is configured.
const DefaultInterval = 5 * time.Second

// ErrAlreadyRunning is returned by Start on a poller that is still polling.
var ErrAlreadyRunning = errors.New("tracker: poller already running")

// StatusFetcher reads the current status of an order.
type StatusFetcher interface {
	OrderStatus(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error)
}

// Config configures a Poller. OnUpdate and OnError run on the polling
// goroutine and must not block for long.
type Config struct {
	OrderNumber string
	Interval    time.Duration
	OnUpdate    func(model.StatusSnapshot)
	OnError     func(error)
}

// Poller fetches an order's status once immediately and then once per
// interval until stopped or a terminal status is seen.
type Poller struct {
	fetcher StatusFetcher
	cfg     Config
	logger  zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller creates a stopped poller.
func NewPoller(fetcher StatusFetcher, cfg Config, logger zerolog.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Poller{
		fetcher: fetcher,
		cfg:     cfg,
		logger: logger.With().
			Str("component", "status-poller").
			Str("order_number", cfg.OrderNumber).
			Logger(),
	}
}

// Start begins polling in the background and returns immediately.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running() {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, cancel, done)
	return nil
}

// Stop cancels polling and waits for the polling goroutine to exit. It is
// safe to call on a stopped poller.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the current run ends. It returns nil before the first
// Start.
func (p *Poller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// running must be called with mu held.
func (p *Poller) running() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *Poller) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)
	defer cancel()

	p.logger.Debug().Dur("interval", p.cfg.Interval).Msg("status poller started")

	if p.poll(ctx) {
		return
	}

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug().Msg("status poller stopped")
			return
		case <-ticker.C:
			if p.poll(ctx) {
				return
			}
		}
	}
}

// poll fetches once and reports whether polling should end.
func (p *Poller) poll(ctx context.Context) bool {
	snap, err := p.fetcher.OrderStatus(ctx, p.cfg.OrderNumber)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		p.logger.Warn().Err(err).Msg("status poll failed")
		if p.cfg.OnError != nil {
			p.cfg.OnError(err)
		}
		return false
	}

	if p.cfg.OnUpdate != nil {
		p.cfg.OnUpdate(*snap)
	}

	if snap.Status.IsTerminal() {
		p.logger.Info().Str("status", string(snap.Status)).Msg("order reached a final status, polling stopped")
		return true
	}
	return false
}
