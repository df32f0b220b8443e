package adapters

import (
	"context"
	"net/http"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/storefront"
	orderadapter "storefront-checkout/internal/features/orders/adapters"
	ordersdomain "storefront-checkout/internal/features/orders/domain"
	"storefront-checkout/internal/features/payments/domain"
	sessiondomain "storefront-checkout/internal/features/session/domain"

	"github.com/shopspring/decimal"
)

// StorefrontPaymentAdapter implements ports.PaymentGateway against the storefront backend.
type StorefrontPaymentAdapter struct {
	client *storefront.Client
}

// NewStorefrontPaymentAdapter creates a new StorefrontPaymentAdapter.
func NewStorefrontPaymentAdapter(client *storefront.Client) *StorefrontPaymentAdapter {
	return &StorefrontPaymentAdapter{client: client}
}

type createOrderRequest struct {
	OrderID string `json:"orderId"`
}

// createOrderResponse carries the gateway order; its orderId is the gateway
// reference, not the storefront order id.
type createOrderResponse struct {
	OrderID  string          `json:"orderId"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

type confirmOrderRequest struct {
	PaymentID      string `json:"razorpayPaymentId"`
	OrderReference string `json:"razorpayOrderId"`
	Signature      string `json:"razorpaySignature"`
}

type confirmOrderResponse struct {
	Order *orderadapter.OrderPayload `json:"order"`
}

// InitiatePayment creates the gateway order via POST /payment/create-order.
func (a *StorefrontPaymentAdapter) InitiatePayment(ctx context.Context, sess *sessiondomain.Session, orderID string) (*domain.PaymentIntent, error) {
	var resp createOrderResponse
	err := a.client.Do(ctx, storefront.Request{
		Op:     "initiate payment",
		Method: http.MethodPost,
		Path:   "/payment/create-order",
		Token:  sess.TokenOrEmpty(),
		Body:   createOrderRequest{OrderID: orderID},
	}, &resp)
	if err != nil {
		switch apierror.KindOf(err) {
		case apierror.KindNotFound:
			return nil, storefront.Reclassify(err, apierror.ErrOrderNotFound)
		case apierror.KindConflict:
			if storefront.MessageContains(err, "already paid") {
				return nil, storefront.Reclassify(err, apierror.ErrOrderAlreadyPaid)
			}
		}
		return nil, err
	}
	if resp.OrderID == "" {
		return nil, &apierror.Error{Op: "initiate payment", Message: "response has no gateway order", Kind: apierror.ErrTransient}
	}

	return &domain.PaymentIntent{
		Reference: resp.OrderID,
		Amount:    resp.Amount.IntPart(),
		Currency:  resp.Currency,
		OrderID:   orderID,
	}, nil
}

// ConfirmPayment forwards the widget confirmation via POST /payment/confirm-order.
// Any definitive rejection other than "already paid" is a signature failure.
func (a *StorefrontPaymentAdapter) ConfirmPayment(ctx context.Context, sess *sessiondomain.Session, conf domain.PaymentConfirmation) (*ordersdomain.Order, error) {
	var resp confirmOrderResponse
	err := a.client.Do(ctx, storefront.Request{
		Op:     "confirm payment",
		Method: http.MethodPost,
		Path:   "/payment/confirm-order",
		Token:  sess.TokenOrEmpty(),
		Body: confirmOrderRequest{
			PaymentID:      conf.PaymentID,
			OrderReference: conf.OrderReference,
			Signature:      conf.Signature,
		},
	}, &resp)
	if err != nil {
		if apierror.KindOf(err) == apierror.KindConflict {
			if storefront.MessageContains(err, "already paid") {
				return nil, storefront.Reclassify(err, apierror.ErrOrderAlreadyPaid)
			}
			return nil, storefront.Reclassify(err, apierror.ErrSignatureInvalid)
		}
		return nil, err
	}
	if resp.Order == nil {
		return nil, &apierror.Error{Op: "confirm payment", Message: "response has no order", Kind: apierror.ErrTransient}
	}

	return orderadapter.MapToDomain(*resp.Order), nil
}
