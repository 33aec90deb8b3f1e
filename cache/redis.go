package cache

import (
	"context"
	"fmt"
	"time"

	"AutoQFM/config"

	"github.com/go-redis/redis/v8"
)

// ConnectRedis creates and verifies a Redis client for the persistent
// cache tiers.
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// TestRedis verifies basic read/write/delete operations.
func TestRedis(client *redis.Client) error {
	if client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	ctx := context.Background()

	if err := client.Set(ctx, "autoqfm:ping", "ok", time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set Redis key: %w", err)
	}

	val, err := client.Get(ctx, "autoqfm:ping").Result()
	if err != nil {
		return fmt.Errorf("failed to get Redis key: %w", err)
	}
	if val != "ok" {
		return fmt.Errorf("unexpected value from Redis: got %s", val)
	}

	if _, err := client.Del(ctx, "autoqfm:ping").Result(); err != nil {
		return fmt.Errorf("failed to delete Redis key: %w", err)
	}

	return nil
}
