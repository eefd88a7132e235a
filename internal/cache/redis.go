package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

// RedisCache stores rendered widget fragments as JSON under
// "cart:fragment:<session prefix>:<revision>". Entries expire after the base
// TTL plus jitter, so fragments of earlier processes age out on their own.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, key string) (*Fragment, error) {
	data, err := r.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var fragment Fragment
	if err2 := json.Unmarshal(data, &fragment); err2 != nil {
		return nil, fmt.Errorf("unmarshal fragment failed: %w", err2)
	}

	return &fragment, nil
}

func (r RedisCache) Set(ctx context.Context, key string, fragment *Fragment) error {
	jsonFragment, err := json.Marshal(fragment)
	if err != nil {
		return fmt.Errorf("marshal fragment failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, cacheKey(key), jsonFragment, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func cacheKey(key string) string {
	return fmt.Sprintf("cart:fragment:%s", key)
}
