package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrTotalMismatch is returned when an order's total differs from the sum of
// its line snapshots.
var ErrTotalMismatch = errors.New("order total does not match its items")

// PaymentStatus is the backend-reported payment state of an order.
type PaymentStatus string

const (
	// PaymentStatusPending indicates the order has not been paid yet.
	PaymentStatusPending PaymentStatus = "Pending"
	// PaymentStatusPaid indicates the backend verified a payment.
	PaymentStatusPaid PaymentStatus = "Paid"
	// PaymentStatusFailed indicates the gateway reported a definitive failure.
	PaymentStatusFailed PaymentStatus = "Failed"
)

// DeliveryStatus is the fulfilment state of an order.
type DeliveryStatus string

const (
	// DeliveryStatusProcessing indicates the order is being prepared.
	DeliveryStatusProcessing DeliveryStatus = "Processing"
	// DeliveryStatusShipped indicates the order has been handed to the carrier.
	DeliveryStatusShipped DeliveryStatus = "Shipped"
	// DeliveryStatusDelivered indicates the order reached the customer.
	DeliveryStatusDelivered DeliveryStatus = "Delivered"
)

// Order represents a customer order as reported by the backend. The client
// never mutates it except to reflect a fresh backend response.
type Order struct {
	// ID is the unique identifier for the order.
	ID string `json:"order_id"`
	// Items contains the ordered lines with their price snapshots.
	Items []OrderItem `json:"items"`
	// TotalPrice is the total fixed at creation time.
	TotalPrice decimal.Decimal `json:"total_price"`
	// PaymentStatus is Pending, Paid or Failed.
	PaymentStatus PaymentStatus `json:"payment_status"`
	// DeliveryStatus is Processing, Shipped or Delivered.
	DeliveryStatus DeliveryStatus `json:"delivery_status"`
	// CreatedAt is the timestamp when the order was created.
	CreatedAt time.Time `json:"create_date,omitempty"`
}

// OrderItem represents an individual item within an order.
type OrderItem struct {
	// ProductID is the backend product identifier.
	ProductID string `json:"product_id"`
	// Name is the descriptive name of the product.
	Name string `json:"name"`
	// Picture is the URL to an image of the product.
	Picture string `json:"picture,omitempty"`
	// UnitPrice is the price snapshot taken when the order was placed.
	UnitPrice decimal.Decimal `json:"unit_price"`
	// Quantity is the number of units purchased.
	Quantity int `json:"quantity"`
}

// Subtotal returns quantity × unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputedTotal sums the line subtotals.
func (o *Order) ComputedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ValidateTotal checks TotalPrice against the line snapshots.
func (o *Order) ValidateTotal() error {
	computed := o.ComputedTotal()
	if !computed.Equal(o.TotalPrice) {
		return fmt.Errorf("%w: order %s reports %s, items sum to %s",
			ErrTotalMismatch, o.ID, o.TotalPrice.String(), computed.String())
	}
	return nil
}

// AwaitingPayment reports whether the order can still be paid.
func (o *Order) AwaitingPayment() bool {
	return o.PaymentStatus == PaymentStatusPending
}

// IsPaid reports whether the backend verified a payment.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// PaymentFailed reports whether the gateway definitively failed the payment.
func (o *Order) PaymentFailed() bool {
	return o.PaymentStatus == PaymentStatusFailed
}

// ConfirmationPath is the front-end route of the order detail view.
func ConfirmationPath(orderID string) string {
	return "/order/" + orderID
}
