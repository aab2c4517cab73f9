// Package cache keeps public tour detail in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/domain"
)

const tourKeyPrefix = "tour:"

// TourCache stores tour packages as JSON under tour:<id>. Redis failures are
// logged and treated as misses.
type TourCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewTourCache builds a cache with the given entry lifetime.
func NewTourCache(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *TourCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TourCache{client: client, ttl: ttl, logger: logger}
}

func tourKey(id string) string {
	return tourKeyPrefix + id
}

func (c *TourCache) Get(ctx context.Context, id string) (*domain.TourPackage, bool) {
	raw, err := c.client.Get(ctx, tourKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("tour cache read failed", zap.String("tour_id", id), zap.Error(err))
		}
		return nil, false
	}
	var tour domain.TourPackage
	if err := json.Unmarshal(raw, &tour); err != nil {
		c.logger.Warn("discarding undecodable tour cache entry", zap.String("tour_id", id), zap.Error(err))
		c.Invalidate(ctx, id)
		return nil, false
	}
	return &tour, true
}

func (c *TourCache) Set(ctx context.Context, tour *domain.TourPackage) {
	payload, err := json.Marshal(tour)
	if err != nil {
		c.logger.Warn("tour cache encode failed", zap.String("tour_id", tour.ID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, tourKey(tour.ID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("tour cache write failed", zap.String("tour_id", tour.ID), zap.Error(err))
	}
}

func (c *TourCache) Invalidate(ctx context.Context, id string) {
	if err := c.client.Del(ctx, tourKey(id)).Err(); err != nil {
		c.logger.Warn("tour cache invalidate failed", zap.String("tour_id", id), zap.Error(err))
	}
}
