package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nepalihub/portal/internal/domain"
)

const defaultRedisPrefix = "portal:catalog:"

var _ domain.PageCache = (*RedisPageCache)(nil)

// RedisPageCache shares catalog pages between clients through Redis so the
// catalog API quota is spent once per page, not once per client.
type RedisPageCache struct {
	client *redis.Client
	prefix string
}

// NewRedisPageCache returns nil when addr is empty
func NewRedisPageCache(addr, password string, db int, prefix string) *RedisPageCache {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisPageCache{client: client, prefix: prefix}
}

// Ping checks connectivity
func (c *RedisPageCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisPageCache) GetPage(ctx context.Context, key string, dest any) bool {
	if c == nil || c.client == nil {
		return false
	}

	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(value, dest) == nil
}

func (c *RedisPageCache) PutPage(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

// InvalidatePages scans and deletes keys under prefix
func (c *RedisPageCache) InvalidatePages(ctx context.Context, prefix string) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, c.prefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisPageCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
