package store

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/truesource/storefront/internal/cart"
	"github.com/truesource/storefront/internal/store/schema"
)

type cartPersister struct {
	store Store
}

// NewCartPersister returns a cart.Persister backed by the database
func NewCartPersister(store Store) cart.Persister {
	return &cartPersister{store: store}
}

func (p *cartPersister) Load(ctx context.Context, id string) (*cart.Cart, error) {
	row, err := p.store.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, cart.ErrCartNotFound
	}

	c := cart.New(row.ID)
	if err := json.Unmarshal(row.Items, &c.Items); err != nil {
		return nil, fmt.Errorf("failed to decode cart items: %w", err)
	}
	if c.Items == nil {
		c.Items = []cart.Item{}
	}
	c.UpdatedAt = row.UpdatedAt

	return c, nil
}

func (p *cartPersister) Save(ctx context.Context, c *cart.Cart) error {
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart items: %w", err)
	}

	return p.store.UpsertCart(ctx, &schema.Cart{
		ID:        c.ID,
		Items:     datatypes.JSON(data),
		UpdatedAt: c.UpdatedAt,
	})
}
