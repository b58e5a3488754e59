package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 7 * 24 * time.Hour

// redisClient is the subset of the go-redis client the store uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Redis is a Store backed by Redis string keys.
type Redis struct {
	client redisClient
	ttl    time.Duration
}

// NewRedis connects to the Redis instance at url (redis://host:port/db) and
// verifies the connection.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisWithClient(client, defaultTTL), nil
}

// NewRedisWithClient wraps an existing client. ttl <= 0 keeps keys forever.
func NewRedisWithClient(client redisClient, ttl time.Duration) *Redis {
	if ttl < 0 {
		ttl = 0
	}
	return &Redis{client: client, ttl: ttl}
}

// Save implements Store.
func (r *Redis) Save(ctx context.Context, name string, payload []byte) error {
	if err := r.client.Set(ctx, Key(name), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}
	return nil
}

// Load implements Store.
func (r *Redis) Load(ctx context.Context, name string) ([]byte, error) {
	b, err := r.client.Get(ctx, Key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", name, err)
	}
	return b, nil
}

// Close implements Store.
func (r *Redis) Close() error { return r.client.Close() }
