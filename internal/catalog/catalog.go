package catalog

import (
	"context"

	"orderdesk/internal/model"
)

// Loader defines the interface for loading menu seed files.
type Loader interface {
	// Load reads a gzipped JSON-lines file and returns the products it holds.
	Load(ctx context.Context, path string) ([]model.Product, error)
}

// ProductStore is the write side the importer needs from the product repository.
type ProductStore interface {
	Upsert(ctx context.Context, product *model.Product) error
}
