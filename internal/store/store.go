package store

import (
	"context"
	"time"

	"github.com/truesource/storefront/internal/store/schema"
)

// Store defines the interface for database operations
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// GetCart retrieves a cart by id, nil if it does not exist
	GetCart(ctx context.Context, id string) (*schema.Cart, error)
	// UpsertCart inserts or replaces a cart
	UpsertCart(ctx context.Context, cart *schema.Cart) error
	// DeleteStaleCart removes a cart only if it was last updated before the given time
	DeleteStaleCart(ctx context.Context, id string, updatedBefore time.Time) (bool, error)
	// GetStaleCartIDs returns up to limit ids of carts last updated before the given time, oldest first
	GetStaleCartIDs(ctx context.Context, updatedBefore time.Time, limit int) ([]string, error)
	// Ping checks the database connection
	Ping(ctx context.Context) error
}
