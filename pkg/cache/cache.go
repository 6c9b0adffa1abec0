// Package cache wraps redis/go-redis/v9 with the three TTL-scoped key
// families the pipeline shares across workers (spec.md §6): resource_stats,
// test_result, and stability, each with its own fixed expiry.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	resourceStatsTTL = 300 * time.Second
	testResultTTL    = 3600 * time.Second
	stabilityTTL     = 24 * time.Hour
)

// Cache wraps a redis client.
type Cache struct {
	rdb *redis.Client
}

// New wraps an existing client.
func New(rdb *redis.Client) *Cache { return &Cache{rdb: rdb} }

// Open connects to addr.
func Open(addr string) *Cache {
	return &Cache{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error { return c.rdb.Close() }

func resourceStatsKey(testID string) string { return "resource_stats:" + testID }
func testResultKey(testID string) string    { return "test_result:" + testID }
func stabilityKey(reproID string) string    { return "stability:" + reproID }

// PutResourceStats caches a sample window's CPU/memory/disk usage for a
// test run, keyed by test_id with a 300s TTL (spec.md §4.6's sampler).
func (c *Cache) PutResourceStats(ctx context.Context, testID string, stats any) error {
	return c.putJSON(ctx, resourceStatsKey(testID), stats, resourceStatsTTL)
}

// GetResourceStats reads back a cached resource-stats sample, if still live.
func (c *Cache) GetResourceStats(ctx context.Context, testID string, out any) (bool, error) {
	return c.getJSON(ctx, resourceStatsKey(testID), out)
}

// PutTestResult caches a Validate worker run outcome for test_id with a 1h TTL.
func (c *Cache) PutTestResult(ctx context.Context, testID string, result any) error {
	return c.putJSON(ctx, testResultKey(testID), result, testResultTTL)
}

// GetTestResult reads back a cached test result, if still live.
func (c *Cache) GetTestResult(ctx context.Context, testID string, out any) (bool, error) {
	return c.getJSON(ctx, testResultKey(testID), out)
}

// PutStability caches a StabilityRecord for repro_id with a 24h TTL.
func (c *Cache) PutStability(ctx context.Context, reproID string, record any) error {
	return c.putJSON(ctx, stabilityKey(reproID), record, stabilityTTL)
}

// GetStability reads back a cached StabilityRecord, if still live.
func (c *Cache) GetStability(ctx context.Context, reproID string, out any) (bool, error) {
	return c.getJSON(ctx, stabilityKey(reproID), out)
}

func (c *Cache) putJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) getJSON(ctx context.Context, key string, out any) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("cache: unmarshal %s: %w", key, err)
	}
	return true, nil
}
