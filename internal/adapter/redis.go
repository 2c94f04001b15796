package adapter

import (
	"context"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RedisClient defines the subset of Redis used for distributed rate limiting
//
//go:generate mockgen -source=redis.go -destination=../mocks/redis.go -package=mocks -mock_names=RedisClient=MockRedisClient,RedisRateLimiter=MockRedisRateLimiter
type RedisClient interface {
	// Ping checks if Redis is reachable
	Ping(ctx context.Context) error

	// RateLimiter returns a GCRA rate limiter backed by this client
	RateLimiter() RedisRateLimiter

	// Close closes the Redis connection
	Close() error
}

// RedisRateLimiter defines the interface for distributed rate limiting operations
type RedisRateLimiter interface {
	// Allow reports whether one request identified by key fits in the limit
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RealRedisClient wraps the go-redis client
type RealRedisClient struct {
	client  *redis.Client
	limiter *redis_rate.Limiter
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int) RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RealRedisClient{
		client:  client,
		limiter: redis_rate.NewLimiter(client),
	}
}

func (r *RealRedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RealRedisClient) RateLimiter() RedisRateLimiter {
	return r.limiter
}

func (r *RealRedisClient) Close() error {
	return r.client.Close()
}
