package middlewares

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter shares one fixed window across processes. INCR + EXPIRE on
// first hit; the key's TTL drives Retry-After.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	window time.Duration
	limit  int
}

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		prefix: prefix,
		window: window,
		limit:  limit,
	}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	k := rl.prefix + ":" + key

	count, err := rl.rdb.Incr(ctx, k).Result()

	if err != nil {
		return false, 0, err
	}

	if count == 1 {
		// first hit opens the window
		if err := rl.rdb.Expire(ctx, k, rl.window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count > int64(rl.limit) {
		ttl, err := rl.rdb.TTL(ctx, k).Result()

		if err != nil || ttl < 0 {
			return false, int(rl.window.Seconds()), nil
		}

		return false, int(ttl.Seconds()), nil
	}

	return true, 0, nil
}
