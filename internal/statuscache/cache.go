// Package statuscache keeps the latest status of each order in Redis so the
// customer polling endpoint rarely reaches Postgres.
package statuscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"orderdesk/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "order_status:"

// Cache stores status snapshots by order number.
type Cache interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error)
	Set(ctx context.Context, snapshot model.StatusSnapshot) error
	Close() error
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, opts Options, logger zerolog.Logger) (Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}

	return newRedisCache(client, opts.TTL, logger), nil
}

func newRedisCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *redisCache {
	return &redisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "status-cache").Logger(),
	}
}

// Key returns the Redis key for an order number.
func Key(orderNumber string) string {
	return keyPrefix + orderNumber
}

func (c *redisCache) Get(ctx context.Context, orderNumber string) (*model.StatusSnapshot, error) {
	raw, err := c.client.HGet(ctx, Key(orderNumber), "body").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read status cache: %w", err)
	}

	var snap model.StatusSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		c.logger.Warn().Err(err).Str("order_number", orderNumber).Msg("discarding corrupt cache entry")
		return nil, nil
	}

	return &snap, nil
}

// setIfNewer writes the entry unless the stored one carries a later
// updated_at, in one round trip so concurrent writers cannot interleave.
// KEYS[1] entry hash; ARGV body, updated_at in microseconds, ttl in ms.
var setIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'at')
if current and tonumber(current) > tonumber(ARGV[2]) then
	return 0
end
redis.call('HSET', KEYS[1], 'body', ARGV[1], 'at', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// Set stores snapshot unless the cached entry is newer, so an out-of-order
// write cannot roll a customer's view back.
func (c *redisCache) Set(ctx context.Context, snapshot model.StatusSnapshot) error {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode status snapshot: %w", err)
	}

	written, err := setIfNewer.Run(ctx, c.client,
		[]string{Key(snapshot.OrderNumber)},
		body, snapshot.UpdatedAt.UnixMicro(), c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to write status cache: %w", err)
	}
	if written == 0 {
		c.logger.Debug().
			Str("order_number", snapshot.OrderNumber).
			Str("status", string(snapshot.Status)).
			Msg("kept newer cached status")
	}

	return nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}
