package storefront

import "github.com/shopspring/decimal"

// Product is the populated product reference the backend embeds in carts and
// orders. It is nil on the wire when the product has since been deleted.
type Product struct {
	ID       string          `json:"_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl"`
}
