package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimiter caps send calls per owner over a sliding window, backed by
// a redis counter. A nil limiter (or nil client) allows everything, so
// deployments without redis degrade to unlimited sends.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	if client == nil || limit <= 0 {
		return nil
	}
	return &RateLimiter{client: client, limit: limit, window: window}
}

// Allow increments the owner's counter and reports whether the call is
// within the limit. Redis failures fail open: a broken cache must not
// take messaging down.
func (l *RateLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}

	redisKey := fmt.Sprintf("ratelimit:sms:%s", key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		log.Warn().Err(err).Str("key", redisKey).Msg("rate limit check failed, allowing")
		return true
	}

	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			log.Warn().Err(err).Str("key", redisKey).Msg("failed to set rate limit window")
		}
	}

	return count <= int64(l.limit)
}
