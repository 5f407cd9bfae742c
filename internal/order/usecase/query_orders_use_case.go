package usecase

import (
	"context"
	"fmt"

	"surplus/internal/domain"
	apperrors "surplus/internal/errors"
)

type QueryOrdersUseCase struct {
	orders OrderStore
}

func NewQueryOrdersUseCase(orders OrderStore) *QueryOrdersUseCase {
	return &QueryOrdersUseCase{orders: orders}
}

func (uc *QueryOrdersUseCase) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return uc.orders.LoadOrder(ctx, orderID)
}

// ListByRestaurant returns the restaurant's orders, newest first. An empty
// status lists every order.
func (uc *QueryOrdersUseCase) ListByRestaurant(ctx context.Context, restaurantID, status string) ([]*domain.Order, error) {
	var filter domain.OrderStatus
	if status != "" {
		parsed, ok := domain.ParseOrderStatus(status)
		if !ok {
			msg := fmt.Sprintf("unknown status %q", status)
			return nil, apperrors.NewValidationError(msg, apperrors.ValidationDetail{
				Field:   "status",
				Message: msg,
			})
		}
		filter = parsed
	}

	orders, err := uc.orders.ListByRestaurant(ctx, restaurantID, filter)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}
