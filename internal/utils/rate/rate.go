// Package rate implements a redis-backed fixed-window limiter used to
// throttle OTP issuance and password-reset requests. Redis failures fail
// open so an outage never locks users out of authentication.
package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Limiter counts events per key in a fixed window.
type Limiter struct {
	client  *redis.Client
	logger  *zap.Logger
	enabled bool
}

// NewLimiter creates a limiter over the given redis client. When enabled is
// false every Allow call succeeds without touching redis.
func NewLimiter(client *redis.Client, logger *zap.Logger, enabled bool) *Limiter {
	return &Limiter{client: client, logger: logger, enabled: enabled}
}

// Allow reports whether another event is permitted for key within the
// window. The first event in a window creates the counter with the window
// as its TTL.
func (l *Limiter) Allow(ctx context.Context, key string, limit int, period time.Duration) (bool, error) {
	if !l.enabled {
		return true, nil
	}

	redisKey := fmt.Sprintf("rate:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.logger.Error("rate limiter increment failed", zap.Error(err), zap.String("key", key))
		return true, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, period).Err(); err != nil {
			l.logger.Error("rate limiter expire failed", zap.Error(err), zap.String("key", key))
		}
	}
	if count > int64(limit) {
		l.logger.Warn("rate limit exceeded",
			zap.String("key", key), zap.Int64("count", count), zap.Int("limit", limit))
		return false, nil
	}
	return true, nil
}

// Reset clears the window for a key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, fmt.Sprintf("rate:%s", key)).Err()
}
