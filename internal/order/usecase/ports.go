package usecase

import (
	"context"

	"surplus/internal/domain"
	"surplus/internal/inventory"
	"surplus/internal/notification"
)

// OrderStore is the order half of the persistence port. UpdateOrder must
// fail with a ConflictError when order.Version is stale.
type OrderStore interface {
	SaveOrder(ctx context.Context, order *domain.Order) (string, error)
	LoadOrder(ctx context.Context, id string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, order *domain.Order) error
	FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	ListByRestaurant(ctx context.Context, restaurantID string, status domain.OrderStatus) ([]*domain.Order, error)
}

type Inventory interface {
	Reserve(ctx context.Context, restaurantID string, lines []inventory.Line) (*inventory.Receipt, error)
	Release(ctx context.Context, receipt *inventory.Receipt) error
}

// Notifier must not block; delivery failures stay inside the notifier.
type Notifier interface {
	Notify(ctx context.Context, restaurantID string, event notification.Event)
}

// IdempotencyCache is a best-effort lookup in front of the store's unique
// idempotency key.
type IdempotencyCache interface {
	Lookup(ctx context.Context, key string) (string, bool, error)
	Remember(ctx context.Context, key, orderID string) error
}
