package ratelimit_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truesource/storefront/internal/logger"
	"github.com/truesource/storefront/internal/mocks"
	"github.com/truesource/storefront/internal/ratelimit"
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

type testLimiterMocks struct {
	ctrl             *gomock.Controller
	redisClient      *mocks.MockRedisClient
	redisRateLimiter *mocks.MockRedisRateLimiter
	clock            *mocks.MockClock
	now              time.Time
}

func setupTestLimiter(t *testing.T) *testLimiterMocks {
	ctrl := gomock.NewController(t)

	tm := &testLimiterMocks{
		ctrl:             ctrl,
		redisClient:      mocks.NewMockRedisClient(ctrl),
		redisRateLimiter: mocks.NewMockRedisRateLimiter(ctrl),
		clock:            mocks.NewMockClock(ctrl),
		now:              time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	tm.clock.EXPECT().Now().DoAndReturn(func() time.Time { return tm.now }).AnyTimes()
	tm.clock.EXPECT().Since(gomock.Any()).DoAndReturn(func(t time.Time) time.Duration { return tm.now.Sub(t) }).AnyTimes()
	tm.redisClient.EXPECT().RateLimiter().Return(tm.redisRateLimiter).AnyTimes()

	return tm
}

var testConfig = ratelimit.Config{
	RequestsPerMinute:   60,
	Burst:               2,
	KeyPrefix:           "test:",
	EnableLocalFallback: true,
}

func TestNewLimiter_InvalidConfig(t *testing.T) {
	tm := setupTestLimiter(t)

	_, err := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 0}, nil, tm.clock)
	assert.Error(t, err)

	_, err = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 10}, nil, tm.clock)
	assert.Error(t, err, "no redis and no fallback")
}

func TestNewLimiter_RedisDownWithoutFallback(t *testing.T) {
	tm := setupTestLimiter(t)
	tm.redisClient.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))

	cfg := testConfig
	cfg.EnableLocalFallback = false
	limiter, err := ratelimit.NewLimiter(cfg, tm.redisClient, tm.clock)

	assert.Error(t, err)
	assert.Nil(t, limiter)
}

func TestLimiter_Distributed(t *testing.T) {
	tm := setupTestLimiter(t)
	tm.redisClient.EXPECT().Ping(gomock.Any()).Return(nil)

	expectedLimit := redis_rate.Limit{Rate: 60, Burst: 2, Period: time.Minute}
	gomock.InOrder(
		tm.redisRateLimiter.EXPECT().
			Allow(gomock.Any(), "test:nft-history:10.0.0.1", expectedLimit).
			Return(&redis_rate.Result{Allowed: 1, Remaining: 1}, nil),
		tm.redisRateLimiter.EXPECT().
			Allow(gomock.Any(), "test:nft-history:10.0.0.1", expectedLimit).
			Return(&redis_rate.Result{Allowed: 0, Remaining: 0, RetryAfter: 800 * time.Millisecond}, nil),
	)

	limiter, err := ratelimit.NewLimiter(testConfig, tm.redisClient, tm.clock)
	require.NoError(t, err)

	decision, err := limiter.Allow(context.Background(), "nft-history:10.0.0.1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.Remaining)
	assert.Equal(t, 2, decision.Limit)

	decision, err = limiter.Allow(context.Background(), "nft-history:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, 800*time.Millisecond, decision.RetryAfter)
}

func TestLimiter_LocalOnly(t *testing.T) {
	tm := setupTestLimiter(t)

	limiter, err := ratelimit.NewLimiter(testConfig, nil, tm.clock)
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		decision, err := limiter.Allow(ctx, "client-a")
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "request %d within burst", i)
	}

	decision, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, time.Second, decision.RetryAfter)

	// Other keys have their own budget
	decision, err = limiter.Allow(ctx, "client-b")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// One token is refilled per second at 60 requests per minute
	tm.now = tm.now.Add(time.Second)
	decision, err = limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestLimiter_LocalKeysCapped(t *testing.T) {
	tm := setupTestLimiter(t)

	cfg := testConfig
	cfg.Burst = 1
	cfg.MaxLocalKeys = 2
	limiter, err := ratelimit.NewLimiter(cfg, nil, tm.clock)
	require.NoError(t, err)
	ctx := context.Background()

	decision, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	decision, err = limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	// All buckets are active, so the least recently used one is dropped
	for _, key := range []string{"client-b", "client-c"} {
		tm.now = tm.now.Add(time.Millisecond)
		decision, err = limiter.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	}

	// client-a starts over with a fresh bucket
	tm.now = tm.now.Add(time.Millisecond)
	decision, err = limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// client-b was evicted instead of client-c, which keeps its empty bucket
	tm.now = tm.now.Add(time.Millisecond)
	decision, err = limiter.Allow(ctx, "client-c")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestLimiter_FallsBackWhenRedisFails(t *testing.T) {
	tm := setupTestLimiter(t)
	tm.redisClient.EXPECT().Ping(gomock.Any()).Return(nil)
	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("i/o timeout")).
		Times(1)

	limiter, err := ratelimit.NewLimiter(testConfig, tm.redisClient, tm.clock)
	require.NoError(t, err)

	decision, err := limiter.Allow(context.Background(), "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// Redis is not retried until the recheck interval has passed
	decision, err = limiter.Allow(context.Background(), "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestLimiter_RedisRecovers(t *testing.T) {
	tm := setupTestLimiter(t)
	gomock.InOrder(
		tm.redisClient.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused")),
		tm.redisClient.EXPECT().Ping(gomock.Any()).Return(nil),
	)
	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&redis_rate.Result{Allowed: 1, Remaining: 5}, nil)

	limiter, err := ratelimit.NewLimiter(testConfig, tm.redisClient, tm.clock)
	require.NoError(t, err)

	decision, err := limiter.Allow(context.Background(), "client-a")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 1, decision.Remaining, "served by the local limiter")

	tm.now = tm.now.Add(11 * time.Second)
	decision, err = limiter.Allow(context.Background(), "client-a")
	require.NoError(t, err)
	assert.Equal(t, 5, decision.Remaining, "served by redis")
}

func TestLimiter_RedisErrorWithoutFallback(t *testing.T) {
	tm := setupTestLimiter(t)
	tm.redisClient.EXPECT().Ping(gomock.Any()).Return(nil)
	tm.redisRateLimiter.EXPECT().
		Allow(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("i/o timeout"))

	cfg := testConfig
	cfg.EnableLocalFallback = false
	limiter, err := ratelimit.NewLimiter(cfg, tm.redisClient, tm.clock)
	require.NoError(t, err)

	_, err = limiter.Allow(context.Background(), "client-a")
	assert.ErrorIs(t, err, ratelimit.ErrUnavailable)
}
