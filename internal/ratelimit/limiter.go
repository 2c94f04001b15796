package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/truesource/storefront/internal/adapter"
	"github.com/truesource/storefront/internal/logger"
)

const (
	defaultKeyPrefix        = "truesource:ratelimit:"
	redisRecheckInterval    = 10 * time.Second
	redisPingTimeout        = 2 * time.Second
	maxLocalLimiters        = 10000
	localLimiterIdleTimeout = 10 * time.Minute
)

// ErrUnavailable is returned when Redis cannot be reached and the local fallback is disabled
var ErrUnavailable = errors.New("rate limiter unavailable")

// Decision is the outcome of a rate limit check
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether a request identified by a key may proceed
//
//go:generate mockgen -source=limiter.go -destination=../mocks/ratelimit_limiter.go -package=mocks -mock_names=Limiter=MockRateLimiter
type Limiter interface {
	// Allow consumes one request from the budget of key
	Allow(ctx context.Context, key string) (Decision, error)
}

// Config holds the limiter configuration
type Config struct {
	RequestsPerMinute   int
	Burst               int
	KeyPrefix           string
	EnableLocalFallback bool
	// MaxLocalKeys caps the number of in-process buckets, zero uses the default
	MaxLocalKeys int
}

type limiter struct {
	config Config
	redis  adapter.RedisClient
	clock  adapter.Clock

	redisAvailable atomic.Bool
	lastRedisCheck atomic.Int64

	mu     sync.Mutex
	locals map[string]*localLimiter
}

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a limiter backed by Redis with an optional in-process fallback.
// A nil Redis client makes the limiter purely local.
func NewLimiter(cfg Config, rc adapter.RedisClient, clock adapter.Clock) (Limiter, error) {
	if cfg.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("requests_per_minute must be positive")
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	if cfg.MaxLocalKeys <= 0 {
		cfg.MaxLocalKeys = maxLocalLimiters
	}
	if rc == nil && !cfg.EnableLocalFallback {
		return nil, fmt.Errorf("redis client is required when local fallback is disabled")
	}

	l := &limiter{
		config: cfg,
		redis:  rc,
		clock:  clock,
		locals: make(map[string]*localLimiter),
	}

	if rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := rc.Ping(ctx); err != nil {
			if !cfg.EnableLocalFallback {
				return nil, fmt.Errorf("redis unavailable and fallback disabled: %w", err)
			}
			logger.Warn("Redis unavailable, will use local fallback", zap.Error(err))
		} else {
			l.redisAvailable.Store(true)
		}
		l.lastRedisCheck.Store(clock.Now().UnixNano())
	}

	logger.Info("Rate limiter initialized",
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Int("burst", cfg.Burst),
		zap.Bool("redis", l.redisAvailable.Load()),
		zap.Bool("local_fallback", cfg.EnableLocalFallback))

	return l, nil
}

// Allow implements Limiter
func (l *limiter) Allow(ctx context.Context, key string) (Decision, error) {
	l.maybeRecheckRedis(ctx)

	if l.redisAvailable.Load() {
		decision, err := l.allowDistributed(ctx, key)
		if err == nil {
			return decision, nil
		}
		if ctx.Err() != nil {
			return Decision{}, ctx.Err()
		}

		l.redisAvailable.Store(false)
		l.lastRedisCheck.Store(l.clock.Now().UnixNano())

		if !l.config.EnableLocalFallback {
			return Decision{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		logger.WarnCtx(ctx, "Redis rate limiter error, falling back to local", zap.Error(err))
	}

	if !l.config.EnableLocalFallback {
		return Decision{}, ErrUnavailable
	}

	return l.allowLocal(key), nil
}

// allowDistributed checks the shared GCRA budget in Redis
func (l *limiter) allowDistributed(ctx context.Context, key string) (Decision, error) {
	limit := redis_rate.Limit{
		Rate:   l.config.RequestsPerMinute,
		Burst:  l.config.Burst,
		Period: time.Minute,
	}

	res, err := l.redis.RateLimiter().Allow(ctx, l.config.KeyPrefix+key, limit)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Allowed:    res.Allowed > 0,
		Limit:      limit.Burst,
		Remaining:  res.Remaining,
		RetryAfter: max(res.RetryAfter, 0),
	}, nil
}

// allowLocal checks an in-process token bucket per key
func (l *limiter) allowLocal(key string) Decision {
	now := l.clock.Now()

	l.mu.Lock()
	entry, ok := l.locals[key]
	if !ok {
		if len(l.locals) >= l.config.MaxLocalKeys {
			l.evictIdleLocked(now)
		}
		if len(l.locals) >= l.config.MaxLocalKeys {
			l.evictOldestLocked()
		}
		perSecond := rate.Limit(float64(l.config.RequestsPerMinute) / 60)
		entry = &localLimiter{limiter: rate.NewLimiter(perSecond, l.config.Burst)}
		l.locals[key] = entry
	}
	entry.lastSeen = now
	l.mu.Unlock()

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return Decision{Allowed: false, Limit: l.config.Burst}
	}

	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return Decision{Allowed: false, Limit: l.config.Burst, RetryAfter: delay}
	}

	return Decision{
		Allowed:   true,
		Limit:     l.config.Burst,
		Remaining: max(int(entry.limiter.TokensAt(now)), 0),
	}
}

// evictIdleLocked drops local limiters that have not been used recently
func (l *limiter) evictIdleLocked(now time.Time) {
	for key, entry := range l.locals {
		if now.Sub(entry.lastSeen) > localLimiterIdleTimeout {
			delete(l.locals, key)
		}
	}
}

// evictOldestLocked drops the least recently used local limiter
func (l *limiter) evictOldestLocked() {
	var (
		oldestKey  string
		oldestSeen time.Time
	)
	for key, entry := range l.locals {
		if oldestKey == "" || entry.lastSeen.Before(oldestSeen) {
			oldestKey, oldestSeen = key, entry.lastSeen
		}
	}
	delete(l.locals, oldestKey)
}

// maybeRecheckRedis pings Redis again once it has been unavailable for a while
func (l *limiter) maybeRecheckRedis(ctx context.Context) {
	if l.redis == nil || l.redisAvailable.Load() {
		return
	}

	last := time.Unix(0, l.lastRedisCheck.Load())
	if l.clock.Since(last) < redisRecheckInterval {
		return
	}
	l.lastRedisCheck.Store(l.clock.Now().UnixNano())

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := l.redis.Ping(pingCtx); err == nil {
		l.redisAvailable.Store(true)
		logger.InfoCtx(ctx, "Redis connection restored")
	}
}
