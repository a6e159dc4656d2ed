package deblur

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultResultTTL bounds how long a terminal result is served from cache.
const DefaultResultTTL = 10 * time.Minute

const cacheKeyPrefix = "deblur:result:"

// RedisResultCache stores terminal predictions in Redis with a TTL.
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisResultCache wraps the given client. A non-positive ttl falls back
// to DefaultResultTTL.
func NewRedisResultCache(client *redis.Client, ttl time.Duration) *RedisResultCache {
	if client == nil {
		panic("deblur: redis client is required")
	}
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &RedisResultCache{client: client, ttl: ttl}
}

func (c *RedisResultCache) Get(ctx context.Context, requestID string) (*Prediction, bool, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+requestID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", requestID, err)
	}

	var p Prediction
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false, fmt.Errorf("cache decode %s: %w", requestID, err)
	}
	return &p, true, nil
}

func (c *RedisResultCache) Set(ctx context.Context, requestID string, p *Prediction) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", requestID, err)
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+requestID, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", requestID, err)
	}
	return nil
}
