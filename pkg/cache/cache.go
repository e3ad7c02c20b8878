package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// MenuCache keeps rendered public menus in Redis so the read-only menu
// endpoint does not hit Postgres on every QR scan.
type MenuCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(url string, ttl time.Duration) (*MenuCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	// Fail here rather than on first use so the caller can disable the
	// cache when Redis is unreachable.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return NewWithClient(rdb, ttl), nil
}

// NewWithClient wraps an existing client. Tests use this with miniredis.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *MenuCache {
	return &MenuCache{rdb: rdb, ttl: ttl}
}

func menuKey(restaurantID string) string {
	return "menu:" + restaurantID
}

// Get returns the cached menu payload, or ok=false on miss or error.
func (c *MenuCache) Get(ctx context.Context, restaurantID string) ([]byte, bool) {
	payload, err := c.rdb.Get(ctx, menuKey(restaurantID)).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

func (c *MenuCache) Set(ctx context.Context, restaurantID string, payload []byte) error {
	return c.rdb.Set(ctx, menuKey(restaurantID), payload, c.ttl).Err()
}

func (c *MenuCache) Invalidate(ctx context.Context, restaurantID string) error {
	return c.rdb.Del(ctx, menuKey(restaurantID)).Err()
}

func (c *MenuCache) Close() error {
	return c.rdb.Close()
}
