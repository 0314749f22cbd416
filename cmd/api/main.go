package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderdesk/internal/catalog"
	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/handler"
	"orderdesk/internal/i18n"
	"orderdesk/internal/notify"
	"orderdesk/internal/ordernumber"
	"orderdesk/internal/payment"
	"orderdesk/internal/pricing"
	"orderdesk/internal/repository"
	"orderdesk/internal/router"
	"orderdesk/internal/service"
	"orderdesk/internal/statuscache"
	"orderdesk/internal/telemetry"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, "api")
	logger.Info().Msg("starting orderdesk API server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Environment: cfg.Telemetry.Environment,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(tctx); err != nil {
			logger.Error().Err(err).Msg("failed to flush traces")
		}
	}()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.ApplySchema(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	if err := importMenu(ctx, cfg, productRepo, logger); err != nil {
		return err
	}

	cache, err := newStatusCache(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	notifier, err := newNotifier(cfg.Notify, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close notifier")
		}
	}()

	translator, err := i18n.NewTranslator(cfg.Locale.Default)
	if err != nil {
		return fmt.Errorf("failed to initialize translator: %w", err)
	}

	location, err := cfg.Locale.Location()
	if err != nil {
		return fmt.Errorf("failed to load store timezone: %w", err)
	}

	gateway := payment.NewStripeGateway(cfg.Payment.SecretKey, logger)

	// Initialize services
	bridge := service.NewStatusBridge(orderRepo, cache, notifier, translator, logger)
	defer bridge.Wait()

	lifecycle := service.NewOrderLifecycle(orderRepo, gateway, bridge, logger)
	checkoutService := service.NewCheckoutService(
		pricing.NewValidator(productRepo, logger),
		ordernumber.NewGenerator(),
		lifecycle,
		gateway,
		cfg.Payment.Currency,
		logger,
	)
	productService := service.NewProductService(productRepo, logger)
	queryService := service.NewOrderQueryService(orderRepo, location, cfg.Reconcile.AbandonAfter, logger)
	reconciler := service.NewReconciler(queryService, lifecycle, service.ReconcilerConfig{
		Interval:   cfg.Reconcile.Interval,
		AutoCancel: cfg.Reconcile.AutoCancel,
	}, logger)

	// Initialize HTTP handlers
	handlers := router.Handlers{
		Products: handler.NewProductHandler(productService, translator, logger),
		Orders:   handler.NewOrderHandler(bridge, queryService, lifecycle, translator, logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, translator, logger),
	}
	if cfg.Payment.WebhookSecret != "" {
		verifier := payment.NewWebhookVerifier(cfg.Payment.WebhookSecret)
		handlers.Webhook = handler.NewWebhookHandler(verifier, checkoutService, translator, logger)
	} else {
		logger.Warn().Msg("STRIPE_WEBHOOK_SECRET not set, webhook endpoint disabled")
	}

	mux := router.New(handlers, router.Options{
		APIKey:         cfg.Auth.APIKey,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return reconciler.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
		return nil
	})

	return g.Wait()
}

// importMenu upserts the configured seed files into the catalog.
func importMenu(ctx context.Context, cfg *config.Config, products repository.ProductRepository, logger zerolog.Logger) error {
	if len(cfg.Menu.SeedFiles) == 0 {
		return nil
	}

	var remote catalog.Loader
	if cfg.S3.Enabled {
		l, err := catalog.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("menu bucket unavailable, importing from local files only")
		} else {
			remote = l
		}
	}

	loader := catalog.NewFallbackLoader(remote, cfg.S3.Prefix, catalog.NewFileLoader(logger), logger)
	if _, err := catalog.NewImporter(loader, products, logger).Import(ctx, cfg.Menu.SeedFiles...); err != nil {
		return fmt.Errorf("failed to import menu: %w", err)
	}
	return nil
}

// newStatusCache returns nil when Redis is disabled.
func newStatusCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (statuscache.Cache, error) {
	if !cfg.Enabled {
		logger.Info().Msg("status cache disabled, polling reads the database")
		return nil, nil
	}

	cache, err := statuscache.NewRedisCache(ctx, statuscache.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		TTL:      cfg.TTL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize status cache: %w", err)
	}
	return cache, nil
}

func newNotifier(cfg config.NotifyConfig, logger zerolog.Logger) (notify.Notifier, error) {
	switch cfg.Backend {
	case config.NotifyKafka:
		return notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger), nil
	case config.NotifyRabbitMQ:
		n, err := notify.NewRabbitNotifier(cfg.RabbitURL, cfg.RabbitExchange, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize rabbitmq notifier: %w", err)
		}
		return n, nil
	default:
		return notify.NewLogNotifier(logger), nil
	}
}
