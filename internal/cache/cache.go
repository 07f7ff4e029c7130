// Package cache provides a redis-backed cache for weekly schedules, the
// hottest read of the booking path. The cache is optional: a nil
// ScheduleCache is a no-op.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"reservio/internal/models"
)

// ScheduleCache caches weekly schedules by business id with a TTL.
type ScheduleCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewScheduleCache creates a cache around rdb.
func NewScheduleCache(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *ScheduleCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ScheduleCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func scheduleKey(businessID string) string {
	return fmt.Sprintf("schedule:%s", businessID)
}

// Get returns the cached schedule, or (nil, false) on miss or error.
// Cache errors are logged and treated as misses.
func (c *ScheduleCache) Get(ctx context.Context, businessID string) (models.WeeklySchedule, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, scheduleKey(businessID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("business_id", businessID).Msg("cache read failed")
		}
		return nil, false
	}
	var week models.WeeklySchedule
	if err := json.Unmarshal(data, &week); err != nil {
		c.logger.Warn().Err(err).Str("business_id", businessID).Msg("cache entry corrupt")
		return nil, false
	}
	return week, true
}

// Set stores the schedule with the configured TTL.
func (c *ScheduleCache) Set(ctx context.Context, businessID string, week models.WeeklySchedule) {
	if c == nil || c.rdb == nil {
		return
	}
	data, err := json.Marshal(week)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, scheduleKey(businessID), data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("business_id", businessID).Msg("cache write failed")
	}
}

// Invalidate drops the cached schedule, called after an hours update.
func (c *ScheduleCache) Invalidate(ctx context.Context, businessID string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, scheduleKey(businessID)).Err(); err != nil {
		c.logger.Warn().Err(err).Str("business_id", businessID).Msg("cache invalidate failed")
	}
}
