package dto

import (
	"time"

	"surplus/internal/domain"
	apperrors "surplus/internal/errors"
)

// OrderResult is what the admission pipeline hands back for a stored order.
// Replayed is set when an earlier submission with the same idempotency key
// already produced the order.
type OrderResult struct {
	OrderID  string
	Replayed bool
}

type SubmitOrderResponse struct {
	TraceID   string    `json:"traceId"`
	OrderID   string    `json:"orderId"`
	Replayed  bool      `json:"replayed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderResponse struct {
	TraceID string        `json:"traceId"`
	Order   *domain.Order `json:"order"`
}

type OrderListResponse struct {
	TraceID string          `json:"traceId"`
	Orders  []*domain.Order `json:"orders"`
}

type ErrorResponse struct {
	TraceID   string        `json:"traceId"`
	Status    int           `json:"status"`
	Message   string        `json:"message"`
	Code      string        `json:"code"`
	Details   *ErrorDetails `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type ErrorDetails struct {
	Shortages []apperrors.Shortage         `json:"shortages,omitempty"`
	Fields    []apperrors.ValidationDetail `json:"fields,omitempty"`
}
