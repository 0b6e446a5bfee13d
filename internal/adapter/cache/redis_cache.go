// internal/adapter/cache/redis_cache.go

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"github.com/sirupsen/logrus"

	"agentesocial/internal/config"
	"agentesocial/internal/metrics"
)

const (
	keyPrefix      = "agentesocial:"
	deleteBatch    = 100
	scanBatchCount = 200
)

// NewClient connects to Redis and verifies the connection
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,

		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	return rdb, nil
}

// RedisCache stores JSON-encoded responses with a fixed TTL
type RedisCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
}

// NewRedisCache creates a new response cache. m may be nil.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration, m *metrics.Metrics, logger logrus.FieldLogger) *RedisCache {
	return &RedisCache{
		client:  client,
		ttl:     ttl,
		metrics: m,
		logger:  logger,
	}
}

// DashboardKey is the cache key of a user's learning dashboard
func DashboardKey(userID, platform string) string {
	return DashboardPrefix(userID) + platform
}

// DashboardPrefix matches every cached dashboard of a user and nobody else
func DashboardPrefix(userID string) string {
	return "insights:dashboard:" + userID + ":"
}

// GetJSON decodes the cached value of key into dst. found is false on a miss.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.CountCache(false)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error reading cache key %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.metrics.CountCache(false)
		return false, fmt.Errorf("error decoding cache key %s: %w", key, err)
	}

	c.metrics.CountCache(true)
	return true, nil
}

// SetJSON stores value under key for the cache TTL
func (c *RedisCache) SetJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error encoding cache value: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("error writing cache key %s: %w", key, err)
	}
	return nil
}

// DeletePrefix removes every key starting with prefix
func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+prefix+"*", scanBatchCount).Iterator()

	batch := make([]string, 0, deleteBatch)
	deleted := 0
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == deleteBatch {
			if err := c.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("error deleting cache keys: %w", err)
			}
			deleted += len(batch)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning cache keys: %w", err)
	}

	if len(batch) > 0 {
		if err := c.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("error deleting cache keys: %w", err)
		}
		deleted += len(batch)
	}

	c.logger.WithFields(logrus.Fields{"prefix": prefix, "deleted": deleted}).Debug("Invalidated cache entries")
	return nil
}
