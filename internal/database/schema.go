package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Schema creates the products, orders, order_items and
// order_status_history tables. It is safe to run repeatedly.
//
// order_items.product_id has no foreign key: items are snapshots and must
// survive product edits and deletions.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
	image_url   TEXT,
	available   BOOLEAN NOT NULL DEFAULT TRUE,
	position    INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_products_menu ON products (available, position, created_at);

CREATE TABLE IF NOT EXISTS orders (
	id                      UUID PRIMARY KEY,
	order_number            TEXT NOT NULL,
	customer_name           TEXT NOT NULL,
	customer_email          TEXT NOT NULL,
	total_cents             BIGINT NOT NULL CHECK (total_cents >= 0),
	status                  TEXT NOT NULL CHECK (status IN ('pending', 'paid', 'preparing', 'ready', 'completed', 'cancelled')),
	payment_session_id      TEXT,
	payment_confirmation_id TEXT,
	notes                   TEXT,
	created_at              TIMESTAMPTZ NOT NULL,
	updated_at              TIMESTAMPTZ NOT NULL,
	CONSTRAINT orders_order_number_key UNIQUE (order_number)
);

CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status);

CREATE TABLE IF NOT EXISTS order_items (
	order_id         UUID NOT NULL REFERENCES orders(id),
	position         INTEGER NOT NULL,
	product_id       UUID NOT NULL,
	name             TEXT NOT NULL,
	quantity         INTEGER NOT NULL CHECK (quantity > 0),
	unit_price_cents BIGINT NOT NULL CHECK (unit_price_cents >= 0),
	PRIMARY KEY (order_id, position)
);

CREATE TABLE IF NOT EXISTS order_status_history (
	id         BIGSERIAL PRIMARY KEY,
	order_id   UUID NOT NULL REFERENCES orders(id),
	status     TEXT NOT NULL,
	changed_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history (order_id, id);
`

// ApplySchema creates any missing tables and indexes.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	logger.Info().Msg("database schema applied")

	return nil
}
