package cache

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts failures per key and locks the key out for a
// cooldown once the maximum is reached.
type AttemptLimiter struct {
	rdb         *redis.Client
	prefix      string
	maxAttempts int
	cooldown    time.Duration
}

func NewAttemptLimiter(rdb *redis.Client, prefix string, maxAttempts int, cooldown time.Duration) *AttemptLimiter {
	return &AttemptLimiter{rdb: rdb, prefix: prefix, maxAttempts: maxAttempts, cooldown: cooldown}
}

func (l *AttemptLimiter) attemptsKey(key string) string {
	return l.prefix + "_attempts:" + key
}

func (l *AttemptLimiter) cooldownKey(key string) string {
	return l.prefix + "_cooldown:" + key
}

// Blocked returns the remaining lockout, zero when the key may proceed.
// Reaching the maximum number of attempts starts the lockout.
func (l *AttemptLimiter) Blocked(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.rdb.TTL(ctx, l.cooldownKey(key)).Result()
	if err != nil {
		return 0, errors.Wrap(err, "read cooldown")
	}
	if ttl > 0 {
		return ttl, nil
	}

	attempts, err := l.rdb.Get(ctx, l.attemptsKey(key)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, errors.Wrap(err, "read attempts")
	}
	if attempts < l.maxAttempts {
		return 0, nil
	}

	pipe := l.rdb.TxPipeline()
	pipe.Set(ctx, l.cooldownKey(key), "1", l.cooldown)
	pipe.Del(ctx, l.attemptsKey(key))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Wrap(err, "start cooldown")
	}
	return l.cooldown, nil
}

// Fail records a failed attempt and returns how many remain.
func (l *AttemptLimiter) Fail(ctx context.Context, key string) (int, error) {
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, l.attemptsKey(key))
	pipe.Expire(ctx, l.attemptsKey(key), l.cooldown)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Wrap(err, "record attempt")
	}
	remaining := l.maxAttempts - int(incr.Val())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, l.attemptsKey(key), l.cooldownKey(key)).Err(); err != nil {
		return errors.Wrap(err, "reset attempts")
	}
	return nil
}
