package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// idem:order:create:{key} -> order id
const keyOrderCreate = "idem:order:create:%s"

// RedisCache remembers which order an idempotency key produced. It is a fast
// path only; the order store's unique key decides.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Lookup(ctx context.Context, key string) (string, bool, error) {
	orderID, err := c.client.Get(ctx, fmt.Sprintf(keyOrderCreate, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up idempotency key: %w", err)
	}
	return orderID, true, nil
}

func (c *RedisCache) Remember(ctx context.Context, key, orderID string) error {
	if err := c.client.Set(ctx, fmt.Sprintf(keyOrderCreate, key), orderID, c.ttl).Err(); err != nil {
		return fmt.Errorf("storing idempotency key: %w", err)
	}
	return nil
}
