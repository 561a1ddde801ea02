package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPreferenceCache caches successful preference lookups with a TTL.
// Preferences change rarely, while the refresh loop would otherwise re-query
// every pending patient each cycle. Any cache error is treated as a miss.
type RedisPreferenceCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisPreferenceCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisPreferenceCache {
	return &RedisPreferenceCache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(email string) string {
	return "frontdesk:pref:" + email
}

func (c *RedisPreferenceCache) Get(ctx context.Context, email string) (*Preference, bool) {
	raw, err := c.client.Get(ctx, cacheKey(email)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("preference cache get failed", zap.Error(err))
		}
		return nil, false
	}

	var p Preference
	if err := json.Unmarshal(raw, &p); err != nil {
		c.logger.Debug("preference cache entry corrupt, ignoring", zap.Error(err))
		return nil, false
	}
	return &p, true
}

func (c *RedisPreferenceCache) Set(ctx context.Context, email string, p Preference) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(email), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("preference cache set failed", zap.Error(err))
	}
}
