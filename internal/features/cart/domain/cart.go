package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidQuantity is returned when a line or a mutation has quantity < 1.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// ErrDuplicateProduct is returned when a product appears on two lines.
var ErrDuplicateProduct = errors.New("product appears more than once in cart")

// Product is the catalog entry a cart line points at.
type Product struct {
	// ID is the backend product identifier.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// Price is the current catalog price.
	Price decimal.Decimal `json:"price"`
	// ImageURL is the product picture, may be empty.
	ImageURL string `json:"image_url,omitempty"`
}

// CartItem is one cart line.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns quantity × price.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is a transient copy of the backend cart. It is never mutated locally;
// every change is a backend call followed by a fresh fetch.
type Cart struct {
	// Items are the cart lines, one per product.
	Items []CartItem `json:"items"`
	// TotalPrice is the total as reported by the backend.
	TotalPrice decimal.Decimal `json:"total_price"`
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// ItemCount returns the sum of quantities, as shown on the header badge.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Quantities maps product id to quantity.
func (c *Cart) Quantities() map[string]int {
	quantities := make(map[string]int)
	if c == nil {
		return quantities
	}
	for _, item := range c.Items {
		quantities[item.Product.ID] = item.Quantity
	}
	return quantities
}

// ComputedTotal sums the line subtotals at current prices.
func (c *Cart) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	if c == nil {
		return total
	}
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Validate checks every line has quantity >= 1 and a distinct product.
func (c *Cart) Validate() error {
	if c == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(c.Items))
	for _, item := range c.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: product %s has quantity %d", ErrInvalidQuantity, item.Product.ID, item.Quantity)
		}
		if _, ok := seen[item.Product.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateProduct, item.Product.ID)
		}
		seen[item.Product.ID] = struct{}{}
	}
	return nil
}
