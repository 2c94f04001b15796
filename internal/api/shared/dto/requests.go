package dto

import (
	"fmt"

	"github.com/truesource/storefront/internal/api/shared/constants"
	apierrors "github.com/truesource/storefront/internal/api/shared/errors"
	"github.com/truesource/storefront/internal/cart"
)

// AddCartItemRequest represents the request body for adding a product to a cart
type AddCartItemRequest struct {
	Product            cart.Product `json:"product"`
	ProductBatchID     int64        `json:"product_batch_id"`
	AvailableInventory int          `json:"available_inventory"`
}

// Validate validates the request body
func (r *AddCartItemRequest) Validate() error {
	// Validate: product must be identified
	if r.Product.ID <= 0 {
		return apierrors.NewValidationError("product.id must be a positive integer")
	}

	if r.Product.Price < 0 {
		return apierrors.NewValidationError("product.price must not be negative")
	}

	// Validate: there must be stock to put in the cart
	if r.AvailableInventory < 1 {
		return apierrors.NewValidationError("available_inventory must be at least 1")
	}

	if r.AvailableInventory > constants.MAX_ITEM_QUANTITY {
		return apierrors.NewValidationError(fmt.Sprintf("available_inventory must not exceed %d", constants.MAX_ITEM_QUANTITY))
	}

	return nil
}

// UpdateCartItemRequest represents the request body for setting the quantity of a cart item
type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

// Validate validates the request body
func (r *UpdateCartItemRequest) Validate() error {
	if r.Quantity == nil {
		return apierrors.NewValidationError("quantity is required")
	}

	if *r.Quantity > constants.MAX_ITEM_QUANTITY {
		return apierrors.NewValidationError(fmt.Sprintf("quantity must not exceed %d", constants.MAX_ITEM_QUANTITY))
	}

	return nil
}
