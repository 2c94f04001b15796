package cart_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truesource/storefront/internal/cart"
	"github.com/truesource/storefront/internal/mocks"
)

type movingClock struct {
	*mocks.MockClock
	now time.Time
}

func newMovingClock(t *testing.T) *movingClock {
	c := &movingClock{MockClock: mocks.NewMockClock(gomock.NewController(t)), now: fixedNow}
	c.EXPECT().Now().DoAndReturn(func() time.Time { return c.now }).AnyTimes()
	return c
}

func TestMemoryPersister_Retention(t *testing.T) {
	clock := newMovingClock(t)
	persister := cart.NewMemoryPersister(cart.MemoryConfig{Retention: time.Hour}, clock)
	store := cart.NewStore(persister, clock)
	ctx := context.Background()

	_, err := store.Mutate(ctx, "old", func(c *cart.Cart) error {
		c.Add(jacket, 10, 3)
		return nil
	})
	require.NoError(t, err)

	clock.now = clock.now.Add(45 * time.Minute)
	_, err = store.Mutate(ctx, "fresh", func(c *cart.Cart) error {
		c.Add(boots, 11, 1)
		return nil
	})
	require.NoError(t, err)

	clock.now = clock.now.Add(30 * time.Minute)

	// Expired carts read as missing even before a sweep
	_, err = persister.Load(ctx, "old")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)
	loaded, err := store.Load(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, loaded.Items)

	assert.Equal(t, 1, persister.Sweep())
	assert.Equal(t, 1, persister.Len())

	loaded, err = store.Load(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.TotalItems())
}

func TestMemoryPersister_MaxCarts(t *testing.T) {
	clock := newMovingClock(t)
	persister := cart.NewMemoryPersister(cart.MemoryConfig{MaxCarts: 2}, clock)
	store := cart.NewStore(persister, clock)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		clock.now = clock.now.Add(time.Minute)
		_, err := store.Mutate(ctx, id, func(c *cart.Cart) error {
			c.Add(jacket, 10, 3)
			return nil
		})
		require.NoError(t, err)
	}

	// Updating a stored cart never evicts
	clock.now = clock.now.Add(time.Minute)
	_, err := store.Mutate(ctx, "a", func(c *cart.Cart) error {
		return c.Increment(jacket.ID)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, persister.Len())

	// A new cart replaces the least recently updated one
	clock.now = clock.now.Add(time.Minute)
	_, err = store.Mutate(ctx, "c", func(c *cart.Cart) error {
		c.Add(boots, 11, 1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, persister.Len())

	_, err = persister.Load(ctx, "b")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)

	loaded, err := persister.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.TotalItems())
}

func TestMemoryPersister_Unbounded(t *testing.T) {
	clock := newMovingClock(t)
	persister := cart.NewMemoryPersister(cart.MemoryConfig{}, clock)
	ctx := context.Background()

	require.NoError(t, persister.Save(ctx, cart.New("a")))
	clock.now = clock.now.Add(10000 * time.Hour)

	assert.Equal(t, 0, persister.Sweep())
	_, err := persister.Load(ctx, "a")
	assert.NoError(t, err)
}
