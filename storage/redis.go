package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	URL      string `json:"url"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// RedisEngine implements Engine on top of a Redis server. Lifetimes map onto
// native Redis key expiry.
type RedisEngine struct {
	client *redis.Client
}

// NewRedisEngine creates a Redis engine from a connection URL of the form
// redis://[user:password@]host:port[/db]. Password and DB in cfg override the
// values in the URL when set.
func NewRedisEngine(ctx context.Context, cfg RedisConfig) (*RedisEngine, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis: %w", ErrMissingDSN)
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisEngine{client: client}, nil
}

// NewRedisEngineFromClient wraps an existing client
func NewRedisEngineFromClient(client *redis.Client) *RedisEngine {
	return &RedisEngine{client: client}
}

// Get retrieves a value from Redis
func (r *RedisEngine) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidKey
	}

	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, true, nil
}

// Set stores a value in Redis
func (r *RedisEngine) Set(ctx context.Context, key, value string, lifetime time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	if lifetime < 0 {
		lifetime = 0
	}

	if err := r.client.Set(ctx, key, value, lifetime).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key from Redis
func (r *RedisEngine) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %q: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (r *RedisEngine) Close(_ context.Context) error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	return nil
}
