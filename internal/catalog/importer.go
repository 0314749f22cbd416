package catalog

import (
	"context"
	"fmt"
	"time"

	"orderdesk/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Importer seeds the product catalog from menu files.
type Importer struct {
	loader Loader
	store  ProductStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewImporter creates an importer that reads through loader and writes to store.
func NewImporter(loader Loader, store ProductStore, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		store:  store,
		logger: logger.With().Str("component", "catalog-importer").Logger(),
		now:    time.Now,
	}
}

// Import loads every file concurrently and upserts the products by id, in
// file order. Nothing is written if any file fails to load. It returns the
// number of products written.
func (i *Importer) Import(ctx context.Context, files ...string) (int, error) {
	if len(files) == 0 {
		return 0, nil
	}

	loaded := make([][]model.Product, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for idx, file := range files {
		g.Go(func() error {
			products, err := i.loader.Load(gctx, file)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", file, err)
			}
			loaded[idx] = products
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	now := i.now().UTC()
	written := 0
	for _, products := range loaded {
		for _, p := range products {
			if p.CreatedAt.IsZero() {
				p.CreatedAt = now
			}
			if err := i.store.Upsert(ctx, &p); err != nil {
				return written, fmt.Errorf("failed to import product %s: %w", p.ID, err)
			}
			written++
		}
	}

	i.logger.Info().
		Int("files", len(files)).
		Int("products", written).
		Msg("menu seed imported")

	return written, nil
}
