package ports

import (
	"context"

	"storefront-checkout/internal/features/orders/domain"
	sessiondomain "storefront-checkout/internal/features/session/domain"
)

// OrderProvider defines the backend order operations.
// This is a Secondary Port (Driven Port).
type OrderProvider interface {
	// PlaceOrder converts the session's cart into an order. It is never retried.
	PlaceOrder(ctx context.Context, sess *sessiondomain.Session) (*domain.Order, error)
	// FetchOrder retrieves an order by its identifier.
	FetchOrder(ctx context.Context, sess *sessiondomain.Session, orderID string) (*domain.Order, error)
}

// OrderService is the primary port used by the order handler.
type OrderService interface {
	PlaceOrder(ctx context.Context, sess *sessiondomain.Session) (*domain.Order, error)
	GetOrder(ctx context.Context, sess *sessiondomain.Session, orderID string) (*domain.Order, error)
}
