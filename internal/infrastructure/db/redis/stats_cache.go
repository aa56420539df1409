package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tientodo/todo-api/internal/api/metrics"
	"github.com/tientodo/todo-api/internal/core/ports"
)

const statsTTL = 30 * time.Second

// StatsCache caches per-user todo counts backed by Redis.
// Key format: stats:<user_id>, value "<total>:<completed>"
type StatsCache struct {
	client *redis.Client
}

// NewStatsCache creates a StatsCache wrapping the given Redis client.
func NewStatsCache(client *redis.Client) *StatsCache {
	return &StatsCache{client: client}
}

// Get returns the cached counts for a user; the second return value reports
// whether the cache held an entry.
func (c *StatsCache) Get(ctx context.Context, ownerID string) (ports.TodoCounts, bool, error) {
	val, err := c.client.Get(ctx, c.key(ownerID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.StatsCacheTotal.WithLabelValues("miss").Inc()
			return ports.TodoCounts{}, false, nil
		}
		return ports.TodoCounts{}, false, fmt.Errorf("stats cache get: %w", err)
	}

	var counts ports.TodoCounts
	if _, err := fmt.Sscanf(val, "%d:%d", &counts.Total, &counts.Completed); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		metrics.StatsCacheTotal.WithLabelValues("miss").Inc()
		return ports.TodoCounts{}, false, nil
	}

	metrics.StatsCacheTotal.WithLabelValues("hit").Inc()
	return counts, true, nil
}

// Set stores the counts for a user (expires after statsTTL).
func (c *StatsCache) Set(ctx context.Context, ownerID string, counts ports.TodoCounts) error {
	val := fmt.Sprintf("%d:%d", counts.Total, counts.Completed)
	return c.client.Set(ctx, c.key(ownerID), val, statsTTL).Err()
}

// Invalidate drops the cached counts after a write changes them.
func (c *StatsCache) Invalidate(ctx context.Context, ownerID string) error {
	return c.client.Del(ctx, c.key(ownerID)).Err()
}

func (c *StatsCache) key(ownerID string) string {
	return fmt.Sprintf("stats:%s", ownerID)
}
