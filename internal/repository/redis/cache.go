package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/nft-tix/internal/metrics"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache is a JSON read-through cache in front of slow ledger views.
type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group
}

func New(client *redis.Client) *Cache {
	return &Cache{rdb: client}
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return c.rdb.Del(ctx, keys...).Err()
}

// InvalidateToken drops the cached view of a token, e.g. after the client
// reports a signed share or approve call.
func (c *Cache) InvalidateToken(ctx context.Context, tokenID string) error {
	return c.Del(ctx, KeyToken(tokenID))
}

func getJSON[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var out T

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		// treat a value we cannot read as a miss; the loader overwrites it
		return out, false, nil
	}

	return out, true, nil
}

// GetOrSetJSON returns the cached value under key or loads, stores and
// returns it. Concurrent misses on one key share a single loader call.
// Loader errors are returned as is and never cached.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	var zero T

	if v, ok, err := getJSON[T](ctx, c, key); err != nil || ok {
		metrics.CacheLookup(ok)
		return v, err
	}
	metrics.CacheLookup(false)

	vAny, err, _ := c.sf.Do(key, func() (any, error) {
		if v, ok, err := getJSON[T](ctx, c, key); err != nil || ok {
			return v, err
		}

		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		if b, err := json.Marshal(v); err == nil {
			// a failed write only costs the next caller a reload
			_ = c.rdb.Set(ctx, key, string(b), ttl).Err()
		}

		return v, nil
	})
	if err != nil {
		return zero, err
	}

	v, ok := vAny.(T)
	if !ok {
		return zero, fmt.Errorf("cache %s: unexpected value type %T", key, vAny)
	}

	return v, nil
}
