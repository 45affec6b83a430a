package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CheckoutCache implements ports.IdempotencyCache using Redis. It is the
// fast-path layer over the orders.idempotency_key unique constraint: a
// cache miss never means the key is unused, only that the database must
// be consulted.
type CheckoutCache struct {
	client *goredis.Client
	prefix string
}

// NewCheckoutCache creates a new Redis-backed checkout response cache.
func NewCheckoutCache(client *goredis.Client) *CheckoutCache {
	return &CheckoutCache{
		client: client,
		prefix: "checkout:idem:",
	}
}

// Get retrieves a cached checkout response by idempotency key.
// Returns nil, nil if the key does not exist.
func (c *CheckoutCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis checkout get: %w", err)
	}
	return val, nil
}

// Set stores a checkout response with TTL.
func (c *CheckoutCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis checkout set: %w", err)
	}
	return nil
}
