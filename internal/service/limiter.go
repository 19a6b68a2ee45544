package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptLimiter counts failed logins per key inside a sliding window.
type AttemptLimiter interface {
	Blocked(ctx context.Context, key string) (bool, error)
	Fail(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type RedisLimiter struct {
	client redis.Cmdable
	max    int64
	window time.Duration
}

func NewRedisLimiter(client redis.Cmdable, limit int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: limit, window: window}
}

func loginKey(key string) string {
	return "civic:login-fail:" + strings.ToLower(key)
}

func (l *RedisLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, loginKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read login attempts: %w", err)
	}
	return n >= l.max, nil
}

func (l *RedisLimiter) Fail(ctx context.Context, key string) error {
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, loginKey(key))
	pipe.Expire(ctx, loginKey(key), l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record login attempt: %w", err)
	}
	return nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, loginKey(key)).Err()
}
