package ports

import (
	"context"

	"storefront-checkout/internal/features/cart/domain"
	sessiondomain "storefront-checkout/internal/features/session/domain"
)

// CartProvider talks to the backend cart endpoints on behalf of a session.
// This is a Secondary Port (Driven Port).
type CartProvider interface {
	FetchCart(ctx context.Context, sess *sessiondomain.Session) (*domain.Cart, error)
	AddItem(ctx context.Context, sess *sessiondomain.Session, productID string, quantity int) error
	ReduceItem(ctx context.Context, sess *sessiondomain.Session, productID string, quantity int) error
}

// CartService is the primary port used by the cart handler.
type CartService interface {
	GetCart(ctx context.Context, sess *sessiondomain.Session) (*domain.Cart, error)
	AddItem(ctx context.Context, sess *sessiondomain.Session, productID string, quantity int) (*domain.Cart, error)
	ReduceItem(ctx context.Context, sess *sessiondomain.Session, productID string, quantity int) (*domain.Cart, error)
}
