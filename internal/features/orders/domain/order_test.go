package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() *Order {
	return &Order{
		ID: "O1",
		Items: []OrderItem{
			{ProductID: "p1", Name: "Mug", UnitPrice: decimal.RequireFromString("249.50"), Quantity: 2},
			{ProductID: "p2", Name: "Tea", UnitPrice: decimal.NewFromInt(120), Quantity: 1},
		},
		TotalPrice:     decimal.NewFromInt(619),
		PaymentStatus:  PaymentStatusPending,
		DeliveryStatus: DeliveryStatusProcessing,
	}
}

func TestOrder_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(sampleOrder())
	require.NoError(t, err)

	jsonString := string(data)
	assert.Contains(t, jsonString, `"order_id":"O1"`)
	assert.Contains(t, jsonString, `"payment_status":"Pending"`)
	assert.Contains(t, jsonString, `"delivery_status":"Processing"`)
	assert.Contains(t, jsonString, `"items":[{`)
}

func TestOrder_ValidateTotal(t *testing.T) {
	order := sampleOrder()
	assert.NoError(t, order.ValidateTotal())
	assert.True(t, order.ComputedTotal().Equal(decimal.NewFromInt(619)))

	order.TotalPrice = decimal.NewFromInt(600)
	assert.ErrorIs(t, order.ValidateTotal(), ErrTotalMismatch)
}

func TestOrder_Predicates(t *testing.T) {
	order := sampleOrder()
	assert.True(t, order.AwaitingPayment())
	assert.False(t, order.IsPaid())

	order.PaymentStatus = PaymentStatusPaid
	assert.True(t, order.IsPaid())
	assert.False(t, order.AwaitingPayment())

	order.PaymentStatus = PaymentStatusFailed
	assert.True(t, order.PaymentFailed())
}

func TestConfirmationPath(t *testing.T) {
	assert.Equal(t, "/order/O1", ConfirmationPath("O1"))
}
