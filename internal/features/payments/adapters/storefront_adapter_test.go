package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/config"
	"storefront-checkout/internal/core/storefront"
	"storefront-checkout/internal/features/payments/domain"
	sessiondomain "storefront-checkout/internal/features/session/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sess = &sessiondomain.Session{ID: "sess-1", Token: "jwt"}

func newPaymentAdapter(handler http.HandlerFunc) (*StorefrontPaymentAdapter, func()) {
	server := httptest.NewServer(handler)
	client := storefront.NewClient(config.StorefrontConfig{URL: server.URL, TimeoutSeconds: 2}, nil)
	return NewStorefrontPaymentAdapter(client), server.Close
}

func TestStorefrontPaymentAdapter_InitiatePayment(t *testing.T) {
	adapter, done := newPaymentAdapter(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment/create-order", r.URL.Path)

		var body createOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "O1", body.OrderID)

		w.Write([]byte(`{"orderId":"order_Gx1","amount":61900,"currency":"INR"}`))
	})
	defer done()

	intent, err := adapter.InitiatePayment(context.Background(), sess, "O1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentIntent{Reference: "order_Gx1", Amount: 61900, Currency: "INR", OrderID: "O1"}, *intent)
}

func TestStorefrontPaymentAdapter_InitiatePaymentErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"NotFound", http.StatusNotFound, `{"message":"Order not found"}`, apierror.ErrOrderNotFound},
		{"AlreadyPaid", http.StatusBadRequest, `{"message":"Order already paid"}`, apierror.ErrOrderAlreadyPaid},
		{"Unavailable", http.StatusServiceUnavailable, ``, apierror.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, done := newPaymentAdapter(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			defer done()

			_, err := adapter.InitiatePayment(context.Background(), sess, "O1")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStorefrontPaymentAdapter_ConfirmPayment(t *testing.T) {
	conf := domain.PaymentConfirmation{PaymentID: "pay_1", OrderReference: "order_Gx1", Signature: "sig"}

	t.Run("Paid", func(t *testing.T) {
		adapter, done := newPaymentAdapter(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/payment/confirm-order", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]string{
				"razorpayPaymentId": "pay_1",
				"razorpayOrderId":   "order_Gx1",
				"razorpaySignature": "sig",
			}, body)

			w.Write([]byte(`{"order":{"_id":"O1","items":[],"totalPrice":0,"paymentStatus":"Paid"}}`))
		})
		defer done()

		order, err := adapter.ConfirmPayment(context.Background(), sess, conf)
		require.NoError(t, err)
		assert.Equal(t, "O1", order.ID)
		assert.True(t, order.IsPaid())
	})

	t.Run("SignatureRejected", func(t *testing.T) {
		adapter, done := newPaymentAdapter(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"Invalid signature"}`))
		})
		defer done()

		_, err := adapter.ConfirmPayment(context.Background(), sess, conf)
		assert.ErrorIs(t, err, apierror.ErrSignatureInvalid)
		assert.False(t, apierror.IsTransient(err))
	})

	t.Run("AlreadyPaid", func(t *testing.T) {
		adapter, done := newPaymentAdapter(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"message":"Order already paid"}`))
		})
		defer done()

		_, err := adapter.ConfirmPayment(context.Background(), sess, conf)
		assert.ErrorIs(t, err, apierror.ErrOrderAlreadyPaid)
	})

	t.Run("Transient", func(t *testing.T) {
		adapter, done := newPaymentAdapter(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		defer done()

		_, err := adapter.ConfirmPayment(context.Background(), sess, conf)
		assert.True(t, apierror.IsTransient(err))
	})
}
