package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "catalog:snapshot"

// SnapshotSource loads the barcode-keyed catalog from the backing store.
type SnapshotSource interface {
	Snapshot(ctx context.Context) (map[string]Product, error)
}

// SnapshotCache serves the barcode-keyed catalog snapshot from Redis,
// falling back to the source on a miss. Stale entries expire by TTL; Warm
// refreshes eagerly from the background job.
type SnapshotCache struct {
	rdb    *redis.Client
	source SnapshotSource
	ttl    time.Duration
	logger *slog.Logger
}

// NewSnapshotCache constructs SnapshotCache.
func NewSnapshotCache(rdb *redis.Client, source SnapshotSource, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SnapshotCache{rdb: rdb, source: source, ttl: ttl, logger: logger}
}

// Get returns the cached snapshot, loading and caching it on a miss. Cache
// failures degrade to a direct source read.
func (c *SnapshotCache) Get(ctx context.Context) (map[string]Product, error) {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, snapshotKey).Bytes()
		if err == nil {
			var snapshot map[string]Product
			if err := json.Unmarshal(raw, &snapshot); err == nil {
				return snapshot, nil
			}
			c.logger.Warn("corrupt catalog snapshot in cache, reloading")
		} else if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog snapshot cache read failed", slog.Any("error", err))
		}
	}
	return c.Warm(ctx)
}

// Warm loads the snapshot from the source and stores it in the cache.
func (c *SnapshotCache) Warm(ctx context.Context) (map[string]Product, error) {
	snapshot, err := c.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if c.rdb != nil {
		if raw, err := json.Marshal(snapshot); err == nil {
			if err := c.rdb.Set(ctx, snapshotKey, raw, c.ttl).Err(); err != nil {
				c.logger.Warn("catalog snapshot cache write failed", slog.Any("error", err))
			}
		}
	}
	return snapshot, nil
}

// Invalidate drops the cached snapshot, forcing the next Get to reload.
func (c *SnapshotCache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, snapshotKey).Err(); err != nil {
		c.logger.Warn("catalog snapshot invalidate failed", slog.Any("error", err))
	}
}
