package sweeper_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truesource/storefront/internal/logger"
	"github.com/truesource/storefront/internal/mocks"
	"github.com/truesource/storefront/internal/sweeper"
)

var (
	testNow    = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	testCutoff = testNow.Add(-72 * time.Hour)
)

func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

// testSweeperMocks contains all the mocks needed for testing the sweeper
type testSweeperMocks struct {
	store   *mocks.MockStore
	clock   *mocks.MockClock
	sweeper sweeper.Sweeper
	// slept is signalled each time the sweeper goes to sleep
	slept chan time.Duration
}

// setupTestSweeper creates all the mocks and sweeper for testing
func setupTestSweeper(t *testing.T, batchSize int) *testSweeperMocks {
	ctrl := gomock.NewController(t)

	tm := &testSweeperMocks{
		store: mocks.NewMockStore(ctrl),
		clock: mocks.NewMockClock(ctrl),
		slept: make(chan time.Duration, 10),
	}

	tm.clock.EXPECT().Now().Return(testNow).AnyTimes()
	tm.clock.EXPECT().Since(gomock.Any()).Return(time.Millisecond).AnyTimes()
	tm.clock.EXPECT().After(gomock.Any()).DoAndReturn(func(d time.Duration) <-chan time.Time {
		tm.slept <- d
		return make(chan time.Time) // never fires
	}).AnyTimes()

	tm.sweeper = sweeper.NewCartRetentionSweeper(&sweeper.CartRetentionSweeperConfig{
		Retention:      72 * time.Hour,
		BatchSize:      batchSize,
		WorkerPoolSize: 2,
		Interval:       time.Hour,
	}, tm.store, tm.clock)

	return tm
}

// runUntilSleep starts the sweeper, waits for its first sleep and stops it
func runUntilSleep(t *testing.T, tm *testSweeperMocks) {
	done := make(chan error, 1)
	go func() {
		done <- tm.sweeper.Start(context.Background())
	}()

	select {
	case d := <-tm.slept:
		assert.Equal(t, time.Hour, d)
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not go to sleep")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tm.sweeper.Stop(ctx))
	require.NoError(t, <-done)
}

func TestCartRetentionSweeper_Name(t *testing.T) {
	tm := setupTestSweeper(t, 10)

	assert.Equal(t, "cart-retention-sweeper", tm.sweeper.Name())
}

func TestCartRetentionSweeper_DeletesStaleCarts(t *testing.T) {
	tm := setupTestSweeper(t, 10)

	tm.store.EXPECT().GetStaleCartIDs(gomock.Any(), testCutoff, 10).Return([]string{"a", "b"}, nil)
	tm.store.EXPECT().DeleteStaleCart(gomock.Any(), "a", testCutoff).Return(true, nil)
	// b was touched after the query
	tm.store.EXPECT().DeleteStaleCart(gomock.Any(), "b", testCutoff).Return(false, nil)

	runUntilSleep(t, tm)
}

func TestCartRetentionSweeper_FullBatchContinues(t *testing.T) {
	tm := setupTestSweeper(t, 2)

	gomock.InOrder(
		tm.store.EXPECT().GetStaleCartIDs(gomock.Any(), testCutoff, 2).Return([]string{"a", "b"}, nil),
		tm.store.EXPECT().GetStaleCartIDs(gomock.Any(), testCutoff, 2).Return([]string{"c"}, nil),
	)
	tm.store.EXPECT().DeleteStaleCart(gomock.Any(), gomock.Any(), testCutoff).Return(true, nil).Times(3)

	runUntilSleep(t, tm)
}

func TestCartRetentionSweeper_NothingStale(t *testing.T) {
	tm := setupTestSweeper(t, 10)

	tm.store.EXPECT().GetStaleCartIDs(gomock.Any(), testCutoff, 10).Return(nil, nil)
	tm.store.EXPECT().DeleteStaleCart(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	runUntilSleep(t, tm)
}

func TestCartRetentionSweeper_QueryError(t *testing.T) {
	tm := setupTestSweeper(t, 10)

	tm.store.EXPECT().GetStaleCartIDs(gomock.Any(), testCutoff, 10).Return(nil, errors.New("connection reset"))

	runUntilSleep(t, tm)
}

func TestCartRetentionSweeper_DeleteErrorSleeps(t *testing.T) {
	tm := setupTestSweeper(t, 2)

	// A full batch with failures must not spin
	tm.store.EXPECT().GetStaleCartIDs(gomock.Any(), testCutoff, 2).Return([]string{"a", "b"}, nil).Times(1)
	tm.store.EXPECT().DeleteStaleCart(gomock.Any(), "a", testCutoff).Return(true, nil)
	tm.store.EXPECT().DeleteStaleCart(gomock.Any(), "b", testCutoff).Return(false, errors.New("deadlock detected"))

	runUntilSleep(t, tm)
}

func TestCartRetentionSweeper_ContextCancel(t *testing.T) {
	tm := setupTestSweeper(t, 10)
	tm.store.EXPECT().GetStaleCartIDs(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- tm.sweeper.Start(ctx)
	}()

	<-tm.slept
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}

	// Stopping a finished sweeper is a no-op
	assert.NoError(t, tm.sweeper.Stop(context.Background()))
}
