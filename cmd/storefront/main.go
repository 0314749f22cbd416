package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orderdesk/internal/cart"
	"orderdesk/internal/client"
	"orderdesk/internal/config"
	"orderdesk/internal/i18n"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.LoadStorefront()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, "storefront")

	translator, err := i18n.NewTranslator(cfg.Language)
	if err != nil {
		return fmt.Errorf("failed to initialize translator: %w", err)
	}

	items, err := cart.Open(cart.NewFileStore(cfg.CartFile, logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{
		api:          client.New(cfg.APIURL, client.WithLanguage(cfg.Language)),
		cart:         items,
		translator:   translator,
		lang:         translator.Default(),
		currency:     cfg.Currency,
		pollInterval: cfg.PollInterval,
		out:          os.Stdout,
		logger:       logger,
	}
	return a.dispatch(ctx, args)
}
