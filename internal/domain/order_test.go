package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "surplus/internal/errors"
)

func newTestRestaurant() *Restaurant {
	return &Restaurant{
		ID:          "r-1",
		Name:        "Green Bistro",
		DeliveryFee: decimal.RequireFromString("2.50"),
		TaxRate:     decimal.RequireFromString("0.10"),
	}
}

func newTestOrder(fulfillment Fulfillment) *Order {
	return NewOrder(NewOrderParams{
		ID:          "o-1",
		Customer:    Customer{ID: "c-1", Name: "Jane", Email: "jane@example.com"},
		Restaurant:  newTestRestaurant(),
		Fulfillment: fulfillment,
		Items: []OrderItem{
			{PackageID: "p-1", Name: "Bread bag", UnitPrice: decimal.RequireFromString("3.00"), Quantity: 2},
			{PackageID: "p-2", Name: "Salad box", UnitPrice: decimal.RequireFromString("4.25"), Quantity: 1},
		},
		PaymentMethod: PaymentMethodCash,
		Now:           time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC),
	})
}

func TestNewOrder_Pricing(t *testing.T) {
	order := newTestOrder(FulfillmentDelivery)

	assert.Equal(t, "6", order.Items[0].LineTotal.String())
	assert.Equal(t, "4.25", order.Items[1].LineTotal.String())
	assert.Equal(t, "10.25", order.Pricing.Subtotal.String())
	assert.Equal(t, "2.5", order.Pricing.DeliveryFee.String())
	assert.Equal(t, "1.03", order.Pricing.Tax.String())
	assert.True(t, order.Pricing.Discount.IsZero())
	assert.Equal(t, "13.78", order.Pricing.Total.String())
}

func TestNewOrder_PickupHasNoDeliveryFee(t *testing.T) {
	order := newTestOrder(FulfillmentPickup)

	assert.True(t, order.Pricing.DeliveryFee.IsZero())
	assert.Equal(t, "11.28", order.Pricing.Total.String())
}

func TestNewOrder_InitialState(t *testing.T) {
	order := newTestOrder(FulfillmentPickup)

	assert.Equal(t, OrderStatusPending, order.Status)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, OrderStatusPending, order.StatusHistory[0].Status)
	assert.Equal(t, PaymentStatusPending, order.Payment.Status)
	assert.Equal(t, RestaurantRef{ID: "r-1", Name: "Green Bistro"}, order.Restaurant)
}

func TestNewPricing_TotalNeverNegative(t *testing.T) {
	p := NewPricing(decimal.NewFromInt(5), decimal.Zero, decimal.Zero, decimal.NewFromInt(8))
	assert.True(t, p.Total.IsZero())
}

func TestOrder_CloneIsDeep(t *testing.T) {
	order := newTestOrder(FulfillmentPickup)
	clone := order.Clone()

	clone.Items[0].Quantity = 99
	clone.StatusHistory[0].Note = "changed"

	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, "order placed", order.StatusHistory[0].Note)
}

func TestPaymentMethod_Valid(t *testing.T) {
	assert.True(t, PaymentMethodCash.Valid())
	assert.True(t, PaymentMethodCard.Valid())
	assert.True(t, PaymentMethodWallet.Valid())
	assert.False(t, PaymentMethod("bitcoin").Valid())
}

func TestOrderStatus_Transition_HappyPathDelivery(t *testing.T) {
	order := newTestOrder(FulfillmentDelivery)
	now := time.Date(2026, 1, 2, 13, 0, 0, 0, time.UTC)

	for _, status := range []OrderStatus{
		OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReady,
		OrderStatusDelivering, OrderStatusDelivered, OrderStatusCompleted,
	} {
		require.NoError(t, order.Transition(status, "", now))
	}

	assert.Equal(t, OrderStatusCompleted, order.Status)
	assert.Len(t, order.StatusHistory, 7)
	require.NotNil(t, order.ActualDeliveryTime)
	assert.Equal(t, now, *order.ActualDeliveryTime)
	assert.Equal(t, PaymentStatusPaid, order.Payment.Status)
}

func TestOrderStatus_Transition_PickupSkipsDelivering(t *testing.T) {
	order := newTestOrder(FulfillmentPickup)
	now := time.Now()

	require.NoError(t, order.Transition(OrderStatusConfirmed, "", now))
	require.NoError(t, order.Transition(OrderStatusPreparing, "", now))
	require.NoError(t, order.Transition(OrderStatusReady, "", now))

	err := order.Transition(OrderStatusDelivering, "", now)
	_, ok := apperrors.IsInvalidTransitionError(err)
	assert.True(t, ok)

	require.NoError(t, order.Transition(OrderStatusDelivered, "picked up", now))
	assert.NotNil(t, order.ActualDeliveryTime)
}

func TestOrderStatus_Transition_DeliveryCannotSkipDelivering(t *testing.T) {
	order := newTestOrder(FulfillmentDelivery)
	order.Status = OrderStatusReady

	err := order.Transition(OrderStatusDelivered, "", time.Now())

	_, ok := apperrors.IsInvalidTransitionError(err)
	assert.True(t, ok)
}

func TestOrderStatus_Transition_RejectsUnknownEdge(t *testing.T) {
	order := newTestOrder(FulfillmentDelivery)

	err := order.Transition(OrderStatusReady, "skip", time.Now())

	te, ok := apperrors.IsInvalidTransitionError(err)
	require.True(t, ok)
	assert.Equal(t, "pending", te.From)
	assert.Equal(t, "ready", te.To)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Len(t, order.StatusHistory, 1)
}

func TestOrderStatus_Transition_TerminalStatesAreFinal(t *testing.T) {
	for _, terminal := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled} {
		order := newTestOrder(FulfillmentDelivery)
		order.Status = terminal

		err := order.Transition(OrderStatusCancelled, "", time.Now())

		_, ok := apperrors.IsInvalidTransitionError(err)
		assert.True(t, ok, "transition out of %s must fail", terminal)
		assert.Len(t, order.StatusHistory, 1)
	}
}

func TestOrderStatus_CancelReachableFromEveryNonTerminalState(t *testing.T) {
	for from := range transitions {
		assert.True(t, CanTransition(from, OrderStatusCancelled, FulfillmentDelivery), "from %s", from)
	}
}

func TestReleasesStockOnCancel(t *testing.T) {
	assert.True(t, ReleasesStockOnCancel(OrderStatusPending))
	assert.True(t, ReleasesStockOnCancel(OrderStatusConfirmed))
	assert.False(t, ReleasesStockOnCancel(OrderStatusPreparing))
	assert.False(t, ReleasesStockOnCancel(OrderStatusReady))
	assert.False(t, ReleasesStockOnCancel(OrderStatusDelivering))
	assert.False(t, ReleasesStockOnCancel(OrderStatusDelivered))
}

func TestParseOrderStatus(t *testing.T) {
	status, ok := ParseOrderStatus("completed")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusCompleted, status)

	_, ok = ParseOrderStatus("shipped")
	assert.False(t, ok)
}
