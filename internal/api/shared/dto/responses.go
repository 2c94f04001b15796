package dto

import (
	"time"

	"github.com/truesource/storefront/internal/cart"
)

// CartResponse represents a cart together with its totals
type CartResponse struct {
	ID         string      `json:"id"`
	Items      []cart.Item `json:"items"`
	TotalItems int         `json:"total_items"`
	TotalPrice float64     `json:"total_price"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
}

// NewCartResponse builds the response body of a cart
func NewCartResponse(c *cart.Cart) CartResponse {
	resp := CartResponse{
		ID:         c.ID,
		Items:      c.Items,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
	if resp.Items == nil {
		resp.Items = []cart.Item{}
	}
	if !c.UpdatedAt.IsZero() {
		updatedAt := c.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}
	return resp
}

// CreateCartResponse represents the response for creating a cart
type CreateCartResponse struct {
	ID string `json:"id"`
}

// HealthResponse represents the health status of the API
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Checks  map[string]string `json:"checks,omitempty"`
}
