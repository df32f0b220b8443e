package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront-checkout/internal/core/apierror"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/storefront"
	"storefront-checkout/internal/features/orders/domain"
	sessiondomain "storefront-checkout/internal/features/session/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StorefrontOrderAdapter implements ports.OrderProvider against the storefront backend.
type StorefrontOrderAdapter struct {
	client *storefront.Client
}

// NewStorefrontOrderAdapter creates a new instance of StorefrontOrderAdapter.
func NewStorefrontOrderAdapter(client *storefront.Client) *StorefrontOrderAdapter {
	return &StorefrontOrderAdapter{client: client}
}

// OrderPayload is the order document as the backend serializes it.
type OrderPayload struct {
	ID             string          `json:"_id"`
	Items          []itemPayload   `json:"items"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	PaymentStatus  string          `json:"paymentStatus"`
	DeliveryStatus string          `json:"deliveryStatus"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type itemPayload struct {
	Product  productRef `json:"product"`
	Quantity int        `json:"quantity"`
	// Price is the snapshot stored on the line, when the backend records one.
	Price decimal.NullDecimal `json:"price"`
}

// productRef is either a populated product document or a bare product id.
type productRef struct {
	storefront.Product
}

func (p *productRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.ID)
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	return json.Unmarshal(data, &p.Product)
}

type orderEnvelope struct {
	Order *OrderPayload `json:"order"`
}

// PlaceOrder converts the session's cart into an order via POST /order/placeOrder.
// The call carries a fresh Idempotency-Key and is never retried here.
func (a *StorefrontOrderAdapter) PlaceOrder(ctx context.Context, sess *sessiondomain.Session) (*domain.Order, error) {
	header := http.Header{}
	header.Set("Idempotency-Key", uuid.NewString())

	var resp orderEnvelope
	err := a.client.Do(ctx, storefront.Request{
		Op:     "place order",
		Method: http.MethodPost,
		Path:   "/order/placeOrder",
		Token:  sess.TokenOrEmpty(),
		Header: header,
	}, &resp)
	if err != nil {
		if apierror.KindOf(err) == apierror.KindConflict && storefront.MessageContains(err, "empty") {
			return nil, storefront.Reclassify(err, apierror.ErrEmptyCart)
		}
		return nil, err
	}
	if resp.Order == nil {
		return nil, &apierror.Error{Op: "place order", Message: "response has no order", Kind: apierror.ErrTransient}
	}

	return MapToDomain(*resp.Order), nil
}

// FetchOrder retrieves an order via GET /order/{id}.
func (a *StorefrontOrderAdapter) FetchOrder(ctx context.Context, sess *sessiondomain.Session, orderID string) (*domain.Order, error) {
	var resp OrderPayload
	err := a.client.Do(ctx, storefront.Request{
		Op:     "fetch order",
		Method: http.MethodGet,
		Path:   "/order/" + url.PathEscape(orderID),
		Token:  sess.TokenOrEmpty(),
	}, &resp)
	if err != nil {
		if apierror.KindOf(err) == apierror.KindNotFound {
			return nil, storefront.Reclassify(err, apierror.ErrOrderNotFound)
		}
		return nil, err
	}
	if resp.ID == "" {
		resp.ID = orderID
	}

	return MapToDomain(resp), nil
}

// MapToDomain converts a backend order document into a domain Order. Lines
// without a stored price snapshot fall back to the populated product price.
func MapToDomain(p OrderPayload) *domain.Order {
	items := make([]domain.OrderItem, 0, len(p.Items))
	for _, item := range p.Items {
		price := item.Product.Price
		if item.Price.Valid {
			price = item.Price.Decimal
		}
		items = append(items, domain.OrderItem{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Picture:   item.Product.ImageURL,
			UnitPrice: price,
			Quantity:  item.Quantity,
		})
	}

	return &domain.Order{
		ID:             p.ID,
		Items:          items,
		TotalPrice:     p.TotalPrice,
		PaymentStatus:  mapPaymentStatus(p.PaymentStatus),
		DeliveryStatus: mapDeliveryStatus(p.DeliveryStatus),
		CreatedAt:      p.CreatedAt,
	}
}

// mapPaymentStatus normalizes the backend payment status. Unknown values are
// kept verbatim so they never read as Paid or Failed.
func mapPaymentStatus(status string) domain.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending", "":
		return domain.PaymentStatusPending
	case "paid":
		return domain.PaymentStatusPaid
	case "failed":
		return domain.PaymentStatusFailed
	default:
		logger.Get().Warn("Unknown payment status", zap.String("status", status))
		return domain.PaymentStatus(status)
	}
}

func mapDeliveryStatus(status string) domain.DeliveryStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "processing", "":
		return domain.DeliveryStatusProcessing
	case "shipped":
		return domain.DeliveryStatusShipped
	case "delivered":
		return domain.DeliveryStatusDelivered
	default:
		return domain.DeliveryStatus(status)
	}
}
