// Package integration drives the full HTTP stack against a real Postgres.
package integration

import (
	"context"
	"testing"
	"time"

	"orderdesk/internal/config"
	"orderdesk/internal/database"
	"orderdesk/internal/model"
	"orderdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	pgImage    = "postgres:16-alpine"
	pgDatabase = "orderdesk_it"
	pgUser     = "orderdesk"
	pgPassword = "orderdesk"
)

// startPostgres runs a throwaway container and returns settings pointing at it.
func startPostgres(t *testing.T) config.DatabaseConfig {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, pgImage,
		postgres.WithDatabase(pgDatabase),
		postgres.WithUsername(pgUser),
		postgres.WithPassword(pgPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "postgres container")
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	return config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            pgUser,
		Password:        pgPassword,
		Database:        pgDatabase,
		MaxConnections:  8,
		MinConnections:  1,
		MaxConnLifetime: 300,
	}
}

// SetupTestDB returns a pool on a fresh database with the schema applied.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pool, err := database.NewPool(ctx, startPostgres(t), zerolog.Nop())
	require.NoError(t, err, "connect")
	t.Cleanup(pool.Close)

	require.NoError(t, database.ApplySchema(ctx, pool, zerolog.Nop()), "schema")
	return pool
}

// SeedProducts writes the bar menu used by the scenarios. Panettone is the
// only item off the menu.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) []model.Product {
	t.Helper()

	repo := repository.NewProductRepository(pool, zerolog.Nop())
	created := time.Now().UTC().Truncate(time.Microsecond)

	menu := []struct {
		name      string
		cents     int64
		available bool
	}{
		{"Espresso", 150, true},
		{"Cornetto", 550, true},
		{"Tiramisù", 450, true},
		{"Panettone", 1200, false},
	}

	products := make([]model.Product, 0, len(menu))
	for i, m := range menu {
		p := model.Product{
			ID:         uuid.New(),
			Name:       m.name,
			PriceCents: m.cents,
			Available:  m.available,
			Position:   i + 1,
			CreatedAt:  created,
		}
		require.NoError(t, repo.Create(context.Background(), &p), "seed %s", m.name)
		products = append(products, p)
	}
	return products
}

// CleanupDB empties every table so a test can reuse the container.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		"TRUNCATE order_status_history, order_items, orders, products CASCADE")
	require.NoError(t, err, "truncate")
}
