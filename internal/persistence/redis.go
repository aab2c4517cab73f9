package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/config"
)

// ErrRedisNotConfigured is reported by Ping on a nil handle.
var ErrRedisNotConfigured = errors.New("redis client not configured")

// Redis holds the client shared by the tour cache and the email queue.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration. Redis is
// optional: an unreachable server is logged, and the flag tells the caller to
// run without the cache and with inline email delivery.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, bool) {
	r := &Redis{Client: redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})}

	if err := r.Ping(ctx); err != nil {
		logger.Warn("redis unavailable; cache and email queue disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		return r, false
	}
	logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return r, true
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity for the readiness check.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return ErrRedisNotConfigured
	}
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}
