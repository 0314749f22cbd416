package repository

import (
	"context"
	"errors"
	"fmt"

	"orderdesk/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, description, price_cents, image_url, available, position, created_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.ImageURL, &p.Available, &p.Position, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// List returns products ordered by position, then creation time.
func (r *productRepository) List(ctx context.Context, onlyAvailable bool) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE (NOT $1::boolean OR available)
		ORDER BY position, created_at
	`
	return r.queryProducts(ctx, query, onlyAvailable)
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// GetAvailableByIDs returns the subset of ids that exist and are available.
func (r *productRepository) GetAvailableByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1) AND available
	`
	return r.queryProducts(ctx, query, ids)
}

// Create inserts a new product.
func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.Description, p.PriceCents, p.ImageURL, p.Available, p.Position, p.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to create product")
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update rewrites the editable fields. It reports false when no row matched.
func (r *productRepository) Update(ctx context.Context, p *model.Product) (bool, error) {
	query := `
		UPDATE products
		SET name = $2, description = $3, price_cents = $4, image_url = $5, position = $6
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.Description, p.PriceCents, p.ImageURL, p.Position)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to update product")
		return false, fmt.Errorf("failed to update product: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Upsert inserts the product or overwrites the row with the same ID.
func (r *productRepository) Upsert(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			price_cents = EXCLUDED.price_cents,
			image_url = EXCLUDED.image_url,
			available = EXCLUDED.available,
			position = EXCLUDED.position
	`

	_, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.Description, p.PriceCents, p.ImageURL, p.Available, p.Position, p.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", p.ID.String()).Msg("failed to upsert product")
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	return nil
}

// SetAvailability flips the availability flag.
func (r *productRepository) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET available = $2 WHERE id = $1`, id, available)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to set product availability")
		return false, fmt.Errorf("failed to set product availability: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Delete removes a product. Order snapshots are unaffected.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return false, fmt.Errorf("failed to delete product: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
