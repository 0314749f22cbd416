// Package database opens the Postgres pool and owns the schema.
package database

import (
	"context"
	"fmt"
	"time"

	"orderdesk/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	applicationName = "orderdesk"
	pingAttempts    = 5
	firstPingDelay  = 200 * time.Millisecond
)

// NewPool opens a pool and waits until Postgres answers. Sessions run in UTC
// so order timestamps never depend on the server's zone.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	logger = logger.With().Str("component", "database").Logger()

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"
	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Second
	poolConfig.MaxConnIdleTime = 15 * time.Minute
	poolConfig.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := waitForDatabase(ctx, pool, logger); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Int32("max_conns", poolConfig.MaxConns).
		Msg("connected to postgres")

	return pool, nil
}

// waitForDatabase pings with doubling delays so the API can start alongside
// a database container that is still booting.
func waitForDatabase(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	delay := firstPingDelay
	for attempt := 1; ; attempt++ {
		err := pool.Ping(ctx)
		if err == nil {
			return nil
		}
		if attempt == pingAttempts {
			return fmt.Errorf("failed to ping database after %d attempts: %w", attempt, err)
		}

		logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("database not ready")

		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to ping database: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
}
