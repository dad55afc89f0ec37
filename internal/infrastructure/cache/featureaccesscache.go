// Package cache holds Redis-backed read caches in front of the primary
// store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lumahq/luma/internal/shared/logger"
)

const (
	featureAccessKeyPrefix = "workspace:features:"
	baseFeatureTTL         = 30 * time.Minute
	featureTTLJitter       = 10 * time.Minute // anti-stampede
)

// FeatureAccessCache caches the per-workspace feature flag so entitlement
// checks on the hot path skip the database.
type FeatureAccessCache interface {
	GetEnabled(ctx context.Context, workspaceID uint) (*bool, error)
	SetEnabled(ctx context.Context, workspaceID uint, enabled bool) error
	Invalidate(ctx context.Context, workspaceID uint) error
}

type RedisFeatureAccessCache struct {
	client *redis.Client
	logger logger.Interface
}

func NewRedisFeatureAccessCache(client *redis.Client, logger logger.Interface) *RedisFeatureAccessCache {
	return &RedisFeatureAccessCache{client: client, logger: logger}
}

func (c *RedisFeatureAccessCache) key(workspaceID uint) string {
	return fmt.Sprintf("%s%d", featureAccessKeyPrefix, workspaceID)
}

// GetEnabled returns the cached flag, or nil on cache miss.
func (c *RedisFeatureAccessCache) GetEnabled(ctx context.Context, workspaceID uint) (*bool, error) {
	val, err := c.client.Get(ctx, c.key(workspaceID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get feature access from cache: %w", err)
	}

	enabled, err := strconv.ParseBool(val)
	if err != nil {
		// Corrupt entry: drop it and fall through to a miss.
		c.logger.Warnw("corrupt feature access cache entry", "workspace_id", workspaceID, "value", val)
		_ = c.client.Del(ctx, c.key(workspaceID)).Err()
		return nil, nil
	}
	return &enabled, nil
}

func (c *RedisFeatureAccessCache) SetEnabled(ctx context.Context, workspaceID uint, enabled bool) error {
	ttl := baseFeatureTTL + time.Duration(rand.Int64N(int64(featureTTLJitter)))
	if err := c.client.Set(ctx, c.key(workspaceID), strconv.FormatBool(enabled), ttl).Err(); err != nil {
		return fmt.Errorf("failed to set feature access cache: %w", err)
	}
	return nil
}

func (c *RedisFeatureAccessCache) Invalidate(ctx context.Context, workspaceID uint) error {
	if err := c.client.Del(ctx, c.key(workspaceID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate feature access cache: %w", err)
	}
	return nil
}
