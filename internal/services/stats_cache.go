package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/campuscare/backend/internal/logger"
	"github.com/campuscare/backend/internal/metrics"
	"github.com/campuscare/backend/internal/models"
	"github.com/campuscare/backend/internal/store"
	"github.com/redis/go-redis/v9"
)

// Stats is the admin analytics summary.
type Stats struct {
	Total            int64                            `json:"total"`
	StatusCounts     map[models.ComplaintStatus]int64 `json:"statusCounts"`
	DepartmentCounts []store.DepartmentCount          `json:"departmentCounts"`
}

// StatsCache holds the last computed Stats. Implementations swallow their
// own errors; a failed lookup is a miss.
type StatsCache interface {
	Get(ctx context.Context) (*Stats, bool)
	Set(ctx context.Context, stats *Stats)
	Invalidate(ctx context.Context)
}

type NoopStatsCache struct{}

func (NoopStatsCache) Get(context.Context) (*Stats, bool) { return nil, false }
func (NoopStatsCache) Set(context.Context, *Stats)        {}
func (NoopStatsCache) Invalidate(context.Context)         {}

const statsCacheKey = "campuscare:stats:v1"

type RedisStatsCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStatsCache(client redis.Cmdable, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{client: client, ttl: ttl}
}

func (c *RedisStatsCache) Get(ctx context.Context) (*Stats, bool) {
	raw, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.WithError(err, "stats_cache").Warn("Stats cache read failed")
		}
		metrics.RecordCache(false)
		return nil, false
	}

	var stats Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		logger.WithError(err, "stats_cache").Warn("Discarding corrupt stats cache entry")
		metrics.RecordCache(false)
		return nil, false
	}
	metrics.RecordCache(true)
	return &stats, true
}

func (c *RedisStatsCache) Set(ctx context.Context, stats *Stats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsCacheKey, raw, c.ttl).Err(); err != nil {
		logger.WithError(err, "stats_cache").Warn("Stats cache write failed")
	}
}

func (c *RedisStatsCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, statsCacheKey).Err(); err != nil {
		logger.WithError(err, "stats_cache").Warn("Stats cache invalidation failed")
	}
}
