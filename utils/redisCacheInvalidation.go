package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"utility-billing-backend/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GetCachedJSON loads key into dest. It reports false on a miss, a nil client or an
// unreadable entry.
func GetCachedJSON(ctx context.Context, rdb *redis.Client, key string, dest interface{}) bool {
	if rdb == nil {
		return false
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			config.Logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		config.Logger.Warn("Discarding unreadable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetCachedJSON stores value under key for ttl. Failures are logged, never returned.
func SetCachedJSON(ctx context.Context, rdb *redis.Client, key string, value interface{}, ttl time.Duration) {
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		config.Logger.Warn("Cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		config.Logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateCache deletes every key under "<resourceType>:".
func InvalidateCache(ctx context.Context, rdb *redis.Client, resourceType string) error {
	if rdb == nil {
		return nil
	}
	pattern := fmt.Sprintf("%s:*", resourceType)
	iter := rdb.Scan(ctx, 0, pattern, 0).Iterator()

	for iter.Next(ctx) {
		key := iter.Val()
		if err := rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("failed to delete key %s: %w", key, err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("error during SCAN iteration: %w", err)
	}

	return nil
}
