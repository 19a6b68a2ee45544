package reporting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Saman-dev12/civic/internal/lifecycle"
)

// Cache stores built reports. A miss is (false, nil).
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached report: %w", err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	if c.ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// reportKey identifies a report by everything that changes its content:
// the principal's visibility scope and the query.
func reportKey(p lifecycle.Principal, q Query) string {
	scope := "all"
	if !p.Can(lifecycle.CapViewAllComplaints) {
		scope = p.ID
	}
	var start, end int64
	if q.Start != nil && q.End != nil {
		start, end = q.Start.Unix(), q.End.Unix()
	}
	detail := "summary"
	if p.Can(lifecycle.CapViewDepartmentReports) {
		detail = "full"
	}
	return fmt.Sprintf("civic:reports:%s:%s:%d:%d:%s", detail, scope, start, end, q.Department)
}
