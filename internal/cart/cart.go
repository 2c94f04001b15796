package cart

import (
	"errors"
	"slices"
	"time"
)

var (
	// ErrItemNotFound is returned when a product is not in the cart
	ErrItemNotFound = errors.New("cart item not found")

	// ErrCartNotFound is returned by a Persister when no cart is stored under an id
	ErrCartNotFound = errors.New("cart not found")
)

// Product is the catalogue entry a cart item refers to
type Product struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Brand            string  `json:"brand"`
	Category         string  `json:"category,omitempty"`
	SubCategory      string  `json:"sub_category,omitempty"`
	Description      string  `json:"description,omitempty"`
	PlainDescription string  `json:"plain_description,omitempty"`
	Price            float64 `json:"price"`
}

// Item is a product in a cart with its quantity and the inventory it was added against
type Item struct {
	Product            Product `json:"product"`
	Quantity           int     `json:"quantity"`
	ProductBatchID     int64   `json:"product_batch_id"`
	AvailableInventory int     `json:"available_inventory"`
}

// Cart is the single source of truth for a shopper's selection
type Cart struct {
	ID        string    `json:"id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty cart
func New(id string) *Cart {
	return &Cart{ID: id, Items: []Item{}}
}

// Clone returns a deep copy of the cart
func (c *Cart) Clone() *Cart {
	clone := *c
	clone.Items = slices.Clone(c.Items)
	if clone.Items == nil {
		clone.Items = []Item{}
	}
	return &clone
}

func (c *Cart) indexOf(productID int64) int {
	return slices.IndexFunc(c.Items, func(item Item) bool {
		return item.Product.ID == productID
	})
}

// Add puts one unit of a product in the cart.
// An existing item gains one unit, capped at the available inventory, and takes the
// new inventory figure; a new item starts with a quantity of one.
func (c *Cart) Add(product Product, productBatchID int64, availableInventory int) {
	if i := c.indexOf(product.ID); i >= 0 {
		c.Items[i].Quantity = min(c.Items[i].Quantity+1, availableInventory)
		c.Items[i].AvailableInventory = availableInventory
		return
	}

	c.Items = append(c.Items, Item{
		Product:            product,
		Quantity:           1,
		ProductBatchID:     productBatchID,
		AvailableInventory: availableInventory,
	})
}

// Remove drops a product from the cart
func (c *Cart) Remove(productID int64) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items = slices.Delete(c.Items, i, i+1)
	return nil
}

// UpdateQuantity sets the quantity of an item, clamped to [0, available inventory].
// An item whose quantity becomes zero is removed.
func (c *Cart) UpdateQuantity(productID int64, quantity int) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}

	quantity = max(0, min(quantity, c.Items[i].AvailableInventory))
	if quantity == 0 {
		c.Items = slices.Delete(c.Items, i, i+1)
		return nil
	}
	c.Items[i].Quantity = quantity
	return nil
}

// Increment adds one unit to an item, capped at its available inventory
func (c *Cart) Increment(productID int64) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items[i].Quantity = min(c.Items[i].Quantity+1, c.Items[i].AvailableInventory)
	return nil
}

// Decrement removes one unit from an item, dropping it at zero
func (c *Cart) Decrement(productID int64) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrItemNotFound
	}

	c.Items[i].Quantity--
	if c.Items[i].Quantity <= 0 {
		c.Items = slices.Delete(c.Items, i, i+1)
	}
	return nil
}

// Item returns the cart entry of a product
func (c *Cart) Item(productID int64) (Item, bool) {
	i := c.indexOf(productID)
	if i < 0 {
		return Item{}, false
	}
	return c.Items[i], true
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = []Item{}
}

// TotalItems returns the number of units in the cart
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice returns the sum of price times quantity over all items
func (c *Cart) TotalPrice() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}
