package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"studyhub/internal/platform/config"
)

// OpenRedis connects to the configured Redis and pings it once.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Address, err)
	}
	return client, nil
}
