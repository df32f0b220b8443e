package adapters

import (
	"context"
	"net/http"

	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/storefront"
	"storefront-checkout/internal/features/cart/domain"
	sessiondomain "storefront-checkout/internal/features/session/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StorefrontCartAdapter implements ports.CartProvider against the storefront backend.
type StorefrontCartAdapter struct {
	client *storefront.Client
}

// NewStorefrontCartAdapter creates a new StorefrontCartAdapter.
func NewStorefrontCartAdapter(client *storefront.Client) *StorefrontCartAdapter {
	return &StorefrontCartAdapter{client: client}
}

type cartResponse struct {
	Items []struct {
		Product  *storefront.Product `json:"product"`
		Quantity int                 `json:"quantity"`
	} `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

type itemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// FetchCart reads the session's cart via GET /cart.
func (a *StorefrontCartAdapter) FetchCart(ctx context.Context, sess *sessiondomain.Session) (*domain.Cart, error) {
	var resp cartResponse
	err := a.client.Do(ctx, storefront.Request{
		Op:     "fetch cart",
		Method: http.MethodGet,
		Path:   "/cart",
		Token:  sess.TokenOrEmpty(),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return mapToDomain(resp), nil
}

// AddItem adds quantity units of a product via POST /cart/add.
func (a *StorefrontCartAdapter) AddItem(ctx context.Context, sess *sessiondomain.Session, productID string, quantity int) error {
	return a.client.Do(ctx, storefront.Request{
		Op:     "add to cart",
		Method: http.MethodPost,
		Path:   "/cart/add",
		Token:  sess.TokenOrEmpty(),
		Body:   itemRequest{ProductID: productID, Quantity: quantity},
	}, nil)
}

// ReduceItem removes quantity units of a product via PUT /cart/reduce.
func (a *StorefrontCartAdapter) ReduceItem(ctx context.Context, sess *sessiondomain.Session, productID string, quantity int) error {
	return a.client.Do(ctx, storefront.Request{
		Op:     "reduce cart item",
		Method: http.MethodPut,
		Path:   "/cart/reduce",
		Token:  sess.TokenOrEmpty(),
		Body:   itemRequest{ProductID: productID, Quantity: quantity},
	}, nil)
}

// mapToDomain converts the backend cart into a domain Cart. Lines whose
// product has been deleted come back unpopulated and are dropped.
func mapToDomain(resp cartResponse) *domain.Cart {
	cart := &domain.Cart{
		Items:      make([]domain.CartItem, 0, len(resp.Items)),
		TotalPrice: resp.TotalPrice,
	}
	for _, item := range resp.Items {
		if item.Product == nil {
			logger.Get().Warn("Dropping cart line without product", zap.Int("quantity", item.Quantity))
			continue
		}
		cart.Items = append(cart.Items, domain.CartItem{
			Product: domain.Product{
				ID:       item.Product.ID,
				Name:     item.Product.Name,
				Price:    item.Product.Price,
				ImageURL: item.Product.ImageURL,
			},
			Quantity: item.Quantity,
		})
	}
	return cart
}
