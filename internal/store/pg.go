package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/truesource/storefront/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// Zero values fall back to the defaults of NormalizeConnectionPoolSettings.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings.
//
// Defaults (when zero):
//   - MaxOpenConns: 10
//   - MaxIdleConns: 2
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	if maxIdleConns <= 0 {
		maxIdleConns = 2
	}
	if connMaxLifetime <= 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime <= 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// MaxIdleConns must not exceed MaxOpenConns
	maxIdleConns = min(maxIdleConns, maxOpenConns)

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// GetCart retrieves a cart by id
func (s *pgStore) GetCart(ctx context.Context, id string) (*schema.Cart, error) {
	var cart schema.Cart
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

// UpsertCart inserts a cart or replaces the items of an existing one
func (s *pgStore) UpsertCart(ctx context.Context, cart *schema.Cart) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"items", "updated_at"}),
		}).
		Create(cart).Error
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	return nil
}

// DeleteStaleCart removes a cart unless it was updated since updatedBefore.
// It reports whether a row was deleted.
func (s *pgStore) DeleteStaleCart(ctx context.Context, id string, updatedBefore time.Time) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("id = ? AND updated_at < ?", id, updatedBefore).
		Delete(&schema.Cart{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete stale cart: %w", result.Error)
	}

	return result.RowsAffected > 0, nil
}

// GetStaleCartIDs returns the ids of carts not updated since updatedBefore
func (s *pgStore) GetStaleCartIDs(ctx context.Context, updatedBefore time.Time, limit int) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&schema.Cart{}).
		Where("updated_at < ?", updatedBefore).
		Order("updated_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get stale carts: %w", err)
	}

	return ids, nil
}

// Ping checks the database connection
func (s *pgStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
