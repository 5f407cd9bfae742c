package domain

import (
	"time"

	apperrors "surplus/internal/errors"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusPreparing  OrderStatus = "preparing"
	OrderStatusReady      OrderStatus = "ready"
	OrderStatusDelivering OrderStatus = "delivering"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing:  {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:      {OrderStatusDelivering, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivering: {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {OrderStatusCompleted, OrderStatusCancelled},
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(s)
	if _, ok := transitions[status]; ok {
		return status, true
	}
	if status.IsTerminal() {
		return status, true
	}
	return "", false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransition reports whether the edge from -> to exists for an order with
// the given fulfillment. From ready, delivery orders go out for delivery and
// pickup orders are handed over directly.
func CanTransition(from, to OrderStatus, fulfillment Fulfillment) bool {
	if from == OrderStatusReady {
		if to == OrderStatusDelivering && fulfillment != FulfillmentDelivery {
			return false
		}
		if to == OrderStatusDelivered && fulfillment != FulfillmentPickup {
			return false
		}
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ReleasesStockOnCancel reports whether cancelling from the given status
// returns the reserved packages to inventory. Once preparation has begun the
// food is committed and stock stays consumed.
func ReleasesStockOnCancel(from OrderStatus) bool {
	return from == OrderStatusPending || from == OrderStatusConfirmed
}

// Transition moves the order to a new status and appends to its history.
// On error the order is left untouched.
func (o *Order) Transition(to OrderStatus, note string, now time.Time) error {
	if o.Status.IsTerminal() || !CanTransition(o.Status, to, o.Fulfillment) {
		return apperrors.NewInvalidTransitionError(string(o.Status), string(to))
	}

	o.Status = to
	o.StatusHistory = append(o.StatusHistory, StatusEntry{
		Status:    to,
		Timestamp: now,
		Note:      note,
	})
	o.UpdatedAt = now

	switch to {
	case OrderStatusDelivered:
		o.ActualDeliveryTime = &now
	case OrderStatusCompleted:
		if o.Payment.Method == PaymentMethodCash && o.Payment.Status != PaymentStatusPaid {
			o.Payment.Status = PaymentStatusPaid
			o.Payment.PaidAt = &now
		}
	}

	return nil
}
