package adapters

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/features/payments/domain"
)

// ErrWidgetBusy is returned when a widget is already open for the order.
var ErrWidgetBusy = errors.New("payment widget already open for order")

// CallbackWidget implements ports.PaymentWidget for a widget rendered by the
// front end. Open parks until the front end posts the widget's result back
// through Deliver.
type CallbackWidget struct {
	mu      sync.Mutex
	pending map[string]chan domain.WidgetResult
}

// NewCallbackWidget creates an empty CallbackWidget.
func NewCallbackWidget() *CallbackWidget {
	return &CallbackWidget{pending: make(map[string]chan domain.WidgetResult)}
}

// Open waits for the result of the widget opened for intent.OrderID.
func (w *CallbackWidget) Open(ctx context.Context, intent domain.PaymentIntent) (domain.WidgetResult, error) {
	ch := make(chan domain.WidgetResult, 1)

	w.mu.Lock()
	if _, exists := w.pending[intent.OrderID]; exists {
		w.mu.Unlock()
		return domain.WidgetResult{}, fmt.Errorf("%w: %s", ErrWidgetBusy, intent.OrderID)
	}
	w.pending[intent.OrderID] = ch
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		if w.pending[intent.OrderID] == ch {
			delete(w.pending, intent.OrderID)
		}
		w.mu.Unlock()
	}()

	select {
	case res := <-ch:
		return res, nil
	case <-ctx.Done():
		return domain.WidgetResult{}, ctx.Err()
	}
}

// Deliver resolves the open widget for orderID. Each open widget accepts one
// result; later deliveries fail with a not-found error.
func (w *CallbackWidget) Deliver(orderID string, result domain.WidgetResult) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("%w: %w", apierror.ErrInvalidInput, err)
	}

	w.mu.Lock()
	ch, ok := w.pending[orderID]
	if ok {
		delete(w.pending, orderID)
	}
	w.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: no payment widget open for order %s", apierror.ErrNotFound, orderID)
	}
	ch <- result
	return nil
}

// Pending reports whether a widget is waiting for orderID.
func (w *CallbackWidget) Pending(orderID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pending[orderID]
	return ok
}
