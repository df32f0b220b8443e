package domain

import (
	"errors"
	"fmt"

	"storefront-checkout/internal/core/apierror"
)

var (
	// ErrPaymentCancelled means the user closed the payment widget. The order
	// stays payable.
	ErrPaymentCancelled = fmt.Errorf("%w: payment cancelled by user", apierror.ErrConflict)
	// ErrPaymentFailed means the gateway or the backend reported a definitive failure.
	ErrPaymentFailed = fmt.Errorf("%w: payment failed", apierror.ErrConflict)
	// ErrReconciliationCancelled is the result of a loop stopped by Cancel.
	ErrReconciliationCancelled = fmt.Errorf("%w: reconciliation cancelled", apierror.ErrConflict)
)

// PaymentIntent is the gateway order created by the backend for one order.
// It is immutable and consumed once by the payment widget.
type PaymentIntent struct {
	// Reference is the gateway-assigned order reference.
	Reference string `json:"reference"`
	// Amount is in the currency's minor unit, as reported by the gateway.
	Amount int64 `json:"amount"`
	// Currency is the ISO 4217 code.
	Currency string `json:"currency"`
	// OrderID is the storefront order this intent pays for.
	OrderID string `json:"order_id"`
}

// PaymentConfirmation is the signed result handed over by the widget. It is
// forwarded verbatim to the backend and never interpreted locally.
type PaymentConfirmation struct {
	PaymentID      string `json:"razorpay_payment_id"`
	OrderReference string `json:"razorpay_order_id"`
	Signature      string `json:"razorpay_signature"`
}

// Complete reports whether every field is present.
func (c PaymentConfirmation) Complete() bool {
	return c.PaymentID != "" && c.OrderReference != "" && c.Signature != ""
}

// WidgetOutcome is how the payment widget was closed.
type WidgetOutcome string

const (
	// WidgetConfirmed means the user paid and the widget produced a confirmation.
	WidgetConfirmed WidgetOutcome = "confirmed"
	// WidgetCancelled means the user dismissed the widget.
	WidgetCancelled WidgetOutcome = "cancelled"
	// WidgetFailed means the gateway reported a payment failure.
	WidgetFailed WidgetOutcome = "failed"
)

// WidgetResult is what the payment widget reports back.
type WidgetResult struct {
	Outcome WidgetOutcome `json:"outcome"`
	// Confirmation is set when Outcome is WidgetConfirmed.
	Confirmation *PaymentConfirmation `json:"confirmation,omitempty"`
	// Reason is the gateway's description of a failure.
	Reason string `json:"reason,omitempty"`
}

// Validate checks the result is internally consistent.
func (r WidgetResult) Validate() error {
	switch r.Outcome {
	case WidgetConfirmed:
		if r.Confirmation == nil || !r.Confirmation.Complete() {
			return errors.New("confirmed widget result requires payment id, order reference and signature")
		}
	case WidgetCancelled, WidgetFailed:
	default:
		return errors.New("unknown widget outcome: " + string(r.Outcome))
	}
	return nil
}
