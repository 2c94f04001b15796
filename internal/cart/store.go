package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/truesource/storefront/internal/adapter"
	"github.com/truesource/storefront/internal/logger"
)

// Persister loads and saves carts
//
//go:generate mockgen -source=store.go -destination=../mocks/cart_persister.go -package=mocks -mock_names=Persister=MockCartPersister
type Persister interface {
	// Load returns the stored cart or ErrCartNotFound
	Load(ctx context.Context, id string) (*Cart, error)

	// Save stores the cart, replacing any previous version
	Save(ctx context.Context, cart *Cart) error
}

// Store is the only way carts are read and changed
type Store struct {
	persister Persister
	clock     adapter.Clock

	mu    sync.Mutex
	locks map[string]*cartLock
}

type cartLock struct {
	sync.Mutex
	refs int
}

// NewStore creates a cart store over a persister
func NewStore(persister Persister, clock adapter.Clock) *Store {
	return &Store{
		persister: persister,
		clock:     clock,
		locks:     make(map[string]*cartLock),
	}
}

// Load returns the cart with the given id, or an empty cart if none was saved
func (s *Store) Load(ctx context.Context, id string) (*Cart, error) {
	c, err := s.persister.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCartNotFound) {
			return New(id), nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return c, nil
}

// Save stores a cart as given
func (s *Store) Save(ctx context.Context, c *Cart) error {
	c.UpdatedAt = s.clock.Now()
	if err := s.persister.Save(ctx, c); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Mutate applies fn to the cart and saves the result.
// Mutations of the same cart are serialised; if fn fails nothing is saved.
func (s *Store) Mutate(ctx context.Context, id string, fn func(c *Cart) error) (*Cart, error) {
	unlock := s.lock(id)
	defer unlock()

	c, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(c); err != nil {
		return nil, err
	}

	if err := s.Save(ctx, c); err != nil {
		return nil, err
	}

	logger.DebugCtx(ctx, "Cart updated",
		zap.String("cartId", id),
		zap.Int("items", len(c.Items)),
		zap.Int("units", c.TotalItems()))

	return c, nil
}

// lock acquires the mutex of a cart id and returns its release function
func (s *Store) lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &cartLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}
