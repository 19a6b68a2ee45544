package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Saman-dev12/civic/internal/config"
)

// options maps the redis section onto client options. The same client
// carries report cache reads, login counters and the event stream.
func options(cfg config.RedisConfig, clientName string) *redis.Options {
	return &redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		ClientName:  clientName,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
	}
}

// NewRedisClient connects and pings. clientName shows up in CLIENT LIST so
// API and worker connections can be told apart.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, clientName string) (*redis.Client, error) {
	client := redis.NewClient(options(cfg, clientName))

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return client, nil
}
