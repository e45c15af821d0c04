package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const snapshotKey = "pricing:snapshot"

// SnapshotCache is a read-through Redis cache in front of a ReferenceStore.
// Concurrent misses are collapsed with singleflight so a cold cache triggers
// at most one store load. A short TTL keeps quotes running against a
// consistent, recent reference snapshot.
type SnapshotCache struct {
	store  ReferenceStore
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewSnapshotCache constructs a snapshot cache.
func NewSnapshotCache(store ReferenceStore, client *redis.Client, ttl time.Duration, logger *slog.Logger) *SnapshotCache {
	return &SnapshotCache{store: store, client: client, ttl: ttl, logger: logger}
}

// Snapshot returns the cached reference snapshot, loading and caching it on
// miss. Cache failures degrade to direct store reads; they never fail a quote.
func (c *SnapshotCache) Snapshot(ctx context.Context) (*Snapshot, error) {
	raw, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err == nil {
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err == nil {
			return &snap, nil
		}
		c.logger.Warn("discarding malformed cached snapshot")
	} else if err != redis.Nil {
		c.logger.Warn("snapshot cache read failed", "error", err)
	}

	v, err, _ := c.group.Do(snapshotKey, func() (any, error) {
		snap, err := c.store.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(snap); err == nil {
			if err := c.client.Set(ctx, snapshotKey, data, c.ttl).Err(); err != nil {
				c.logger.Warn("snapshot cache write failed", "error", err)
			}
		}
		return snap, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the cached snapshot. Called after admin writes to
// reference data and by the nightly refresh job.
func (c *SnapshotCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, snapshotKey).Err(); err != nil {
		return fmt.Errorf("invalidate snapshot: %w", err)
	}
	return nil
}
