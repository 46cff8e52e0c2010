package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"whiteboard-backend/internal/logger"
)

// RedisClient wraps the Redis client for canvas snapshot caching
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a new Redis client and pings it
func NewRedisClient(addr, password string, db int, ttl time.Duration) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.For("redis").Infof("connected to %s", addr)
	return &RedisClient{client: client, ttl: ttl}, nil
}

// Client exposes the underlying client so presence can share the pool.
func (r *RedisClient) Client() *redis.Client {
	return r.client
}

func snapshotKey(code string) string {
	return "room:" + code + ":canvas"
}

// Get returns the cached snapshot; ok is false on a miss.
func (r *RedisClient) Get(ctx context.Context, code string) (string, bool, error) {
	data, err := r.client.Get(ctx, snapshotKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return data, true, nil
}

// Set caches a snapshot. Empty data is stored as a delete so misses fall through to the store.
func (r *RedisClient) Set(ctx context.Context, code, data string) error {
	if data == "" {
		return r.Delete(ctx, code)
	}
	return r.client.Set(ctx, snapshotKey(code), data, r.ttl).Err()
}

// Delete removes a room's cached snapshot
func (r *RedisClient) Delete(ctx context.Context, code string) error {
	return r.client.Del(ctx, snapshotKey(code)).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Health checks if Redis is healthy
func (r *RedisClient) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Forget drops a deleted room's snapshot
func (r *RedisClient) Forget(ctx context.Context, code string) error {
	return r.Delete(ctx, code)
}
