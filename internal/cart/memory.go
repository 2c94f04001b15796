package cart

import (
	"context"
	"sync"
	"time"

	"github.com/truesource/storefront/internal/adapter"
)

// MemoryConfig bounds the in-memory persister
type MemoryConfig struct {
	// Retention drops carts not updated for longer than this, zero keeps them forever
	Retention time.Duration
	// MaxCarts caps the number of stored carts, zero means unbounded.
	// When full, the least recently updated cart makes room for a new one.
	MaxCarts int
}

// MemoryPersister keeps carts in process memory
type MemoryPersister struct {
	config MemoryConfig
	clock  adapter.Clock

	mu    sync.RWMutex
	carts map[string]*Cart
}

// NewMemoryPersister creates an empty in-memory persister
func NewMemoryPersister(config MemoryConfig, clock adapter.Clock) *MemoryPersister {
	return &MemoryPersister{
		config: config,
		clock:  clock,
		carts:  make(map[string]*Cart),
	}
}

func (p *MemoryPersister) Load(_ context.Context, id string) (*Cart, error) {
	p.mu.RLock()
	c, ok := p.carts[id]
	p.mu.RUnlock()

	if !ok || p.expired(c, p.clock.Now()) {
		return nil, ErrCartNotFound
	}
	return c.Clone(), nil
}

func (p *MemoryPersister) Save(_ context.Context, c *Cart) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.carts[c.ID]; !ok && p.config.MaxCarts > 0 && len(p.carts) >= p.config.MaxCarts {
		p.evictExpiredLocked(p.clock.Now())
		if len(p.carts) >= p.config.MaxCarts {
			p.evictOldestLocked()
		}
	}

	p.carts[c.ID] = c.Clone()
	return nil
}

// Sweep drops every cart past retention and returns how many were removed
func (p *MemoryPersister) Sweep() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.evictExpiredLocked(p.clock.Now())
}

// Len returns the number of stored carts, expired ones included
func (p *MemoryPersister) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.carts)
}

func (p *MemoryPersister) expired(c *Cart, now time.Time) bool {
	return p.config.Retention > 0 && now.Sub(c.UpdatedAt) > p.config.Retention
}

func (p *MemoryPersister) evictExpiredLocked(now time.Time) int {
	removed := 0
	for id, c := range p.carts {
		if p.expired(c, now) {
			delete(p.carts, id)
			removed++
		}
	}
	return removed
}

func (p *MemoryPersister) evictOldestLocked() {
	var oldest *Cart
	for _, c := range p.carts {
		if oldest == nil || c.UpdatedAt.Before(oldest.UpdatedAt) {
			oldest = c
		}
	}
	if oldest != nil {
		delete(p.carts, oldest.ID)
	}
}
