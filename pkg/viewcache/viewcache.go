// Package viewcache caches rendered dashboard views in Redis keyed by
// their logical path, and supports invalidating every cached rendering
// under a path after a mutation.
package viewcache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "view:"

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get loads the cached rendering stored under path into dest.
// Returns false on a miss.
func (c *Cache) Get(ctx context.Context, path string, dest any) (bool, error) {
	b, err := c.rdb.Get(ctx, keyPrefix+path).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores value under path with the cache TTL.
func (c *Cache) Set(ctx context.Context, path string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPrefix+path, b, c.ttl).Err()
}

// Invalidate marks every cached rendering under path stale. Paginated
// variants are stored as "<path>?page=N", so the match is prefix-based.
func (c *Cache) Invalidate(ctx context.Context, path string) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, keyPrefix+path+"*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
