package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	versionKey = "analytics:dashboard:ver"
	cacheTTL   = 5 * time.Minute
)

// Cache stores dashboard snapshots in Redis under a versioned key. Bumping
// the version orphans every previous snapshot instead of deleting it, so
// invalidation is a single INCR and never races readers.
type Cache struct {
	rdb *redis.Client
}

// NewCache builds a Cache.
func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) dataKey(version int64) string {
	return fmt.Sprintf("analytics:dashboard:v%d", version)
}

func (c *Cache) version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Fetch returns the cached snapshot for the current version, or ok=false on
// a miss.
func (c *Cache) Fetch(ctx context.Context, dest any) (bool, error) {
	version, err := c.version(ctx)
	if err != nil {
		return false, fmt.Errorf("analytics: read cache version: %w", err)
	}
	raw, err := c.rdb.Get(ctx, c.dataKey(version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("analytics: read cache: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("analytics: decode cache: %w", err)
	}
	return true, nil
}

// Store writes a snapshot under the current version.
func (c *Cache) Store(ctx context.Context, value any) error {
	version, err := c.version(ctx)
	if err != nil {
		return fmt.Errorf("analytics: read cache version: %w", err)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("analytics: encode cache: %w", err)
	}
	if err := c.rdb.Set(ctx, c.dataKey(version), raw, cacheTTL).Err(); err != nil {
		return fmt.Errorf("analytics: write cache: %w", err)
	}
	return nil
}

// Bump invalidates every cached snapshot.
func (c *Cache) Bump(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("analytics: bump cache version: %w", err)
	}
	return nil
}
