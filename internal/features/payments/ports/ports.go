package ports

import (
	"context"
	"time"

	ordersdomain "storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/payments/domain"
	sessiondomain "storefront-checkout/internal/features/session/domain"
)

// PaymentGateway is the backend's payment API.
// This is a Secondary Port (Driven Port).
type PaymentGateway interface {
	// InitiatePayment creates the gateway order for orderID.
	InitiatePayment(ctx context.Context, sess *sessiondomain.Session, orderID string) (*domain.PaymentIntent, error)
	// ConfirmPayment submits a widget confirmation and returns the updated order.
	ConfirmPayment(ctx context.Context, sess *sessiondomain.Session, conf domain.PaymentConfirmation) (*ordersdomain.Order, error)
}

// OrderFetcher reads the backend's view of an order.
type OrderFetcher interface {
	FetchOrder(ctx context.Context, sess *sessiondomain.Session, orderID string) (*ordersdomain.Order, error)
}

// PaymentWidget is the external checkout widget. Open blocks until the user
// pays, dismisses the widget or the gateway fails, or ctx is done.
type PaymentWidget interface {
	Open(ctx context.Context, intent domain.PaymentIntent) (domain.WidgetResult, error)
}

// WidgetCallbacks receives widget results posted back by the front end.
type WidgetCallbacks interface {
	Deliver(orderID string, result domain.WidgetResult) error
}

// StatusStore keeps finished reconciliation statuses for later reads.
type StatusStore interface {
	Save(ctx context.Context, sessionID string, status domain.Status, ttl time.Duration) error
	// Get returns an error wrapping apierror.ErrNotFound when nothing is stored.
	Get(ctx context.Context, sessionID, orderID string) (*domain.Status, error)
}

// SessionInvalidator drops a session whose token the backend rejected.
type SessionInvalidator interface {
	Clear(ctx context.Context, id string) error
}

// CheckoutService is the primary port used by the payment handler.
type CheckoutService interface {
	// Start initiates payment for orderID and starts its reconciliation loop.
	Start(ctx context.Context, sess *sessiondomain.Session, orderID string) (domain.Status, error)
	// Deliver hands a widget result to the loop waiting for it.
	Deliver(ctx context.Context, sess *sessiondomain.Session, orderID string, result domain.WidgetResult) error
	// Retry resumes polling after a timeout.
	Retry(ctx context.Context, sess *sessiondomain.Session, orderID string) (domain.Status, error)
	// Status reports the live or last known reconciliation status.
	Status(ctx context.Context, sess *sessiondomain.Session, orderID string) (domain.Status, error)
	// Cancel stops the loop; afterwards nothing it started has any effect.
	Cancel(ctx context.Context, sess *sessiondomain.Session, orderID string) error
}
