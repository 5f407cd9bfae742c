package notification

import (
	"time"

	"surplus/internal/domain"
)

type EventType string

const (
	EventNewOrder      EventType = "new_order"
	EventStatusChanged EventType = "status_changed"
)

// Event is what a restaurant session and downstream email/push workers
// receive about an order.
type Event struct {
	Type       EventType          `json:"type"`
	OrderID    string             `json:"orderId"`
	Status     domain.OrderStatus `json:"status"`
	Order      *domain.Order      `json:"order,omitempty"`
	OccurredAt time.Time          `json:"occurredAt"`
}

func NewOrderEvent(order *domain.Order) Event {
	return Event{
		Type:       EventNewOrder,
		OrderID:    order.ID,
		Status:     order.Status,
		Order:      order,
		OccurredAt: order.CreatedAt,
	}
}

func StatusChangedEvent(order *domain.Order) Event {
	return Event{
		Type:       EventStatusChanged,
		OrderID:    order.ID,
		Status:     order.Status,
		Order:      order,
		OccurredAt: order.UpdatedAt,
	}
}
