package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hirewire/matchengine/internal/domain"
)

// RedisCache stores match results in Redis so multiple engine instances share
// one cache. Redis expiry enforces the TTL; a Redis failure is reported as a
// miss so the caller recomputes instead of erroring.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis parses redisURL, verifies connectivity, and returns the cache.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}, nil
}

func key(jobID string) string { return "match:" + jobID }

func (c *RedisCache) Get(ctx context.Context, jobID string) (*domain.MatchResult, bool) {
	raw, err := c.client.Get(ctx, key(jobID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("redis cache read failed, treating as miss",
			zap.String("job_id", jobID), zap.Error(err))
		return nil, false
	}

	var result domain.MatchResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warn("corrupt cache entry, treating as miss",
			zap.String("job_id", jobID), zap.Error(err))
		return nil, false
	}
	return &result, true
}

func (c *RedisCache) Put(ctx context.Context, jobID string, result *domain.MatchResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("marshal cache entry failed",
			zap.String("job_id", jobID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key(jobID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis cache write failed",
			zap.String("job_id", jobID), zap.Error(err))
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, jobID string) {
	if err := c.client.Del(ctx, key(jobID)).Err(); err != nil {
		c.logger.Warn("redis cache invalidate failed",
			zap.String("job_id", jobID), zap.Error(err))
	}
}

// Close releases the underlying Redis connection.
func (c *RedisCache) Close() error { return c.client.Close() }
