// Package memory holds restaurant and order documents in process memory with
// the same versioning rules as the MySQL repositories. It backs the "memory"
// storage driver and the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"surplus/internal/domain"
	apperrors "surplus/internal/errors"
)

type restaurantDoc struct {
	restaurant *domain.Restaurant
	version    int64
}

type Store struct {
	mu             sync.RWMutex
	restaurants    map[string]restaurantDoc
	orders         map[string]*domain.Order
	idempotencyIdx map[string]string
}

func NewStore() *Store {
	return &Store{
		restaurants:    make(map[string]restaurantDoc),
		orders:         make(map[string]*domain.Order),
		idempotencyIdx: make(map[string]string),
	}
}

// PutRestaurant creates or replaces a restaurant document and bumps its
// version, invalidating any in-flight conditional write.
func (s *Store) PutRestaurant(r *domain.Restaurant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.restaurants[r.ID]
	s.restaurants[r.ID] = restaurantDoc{restaurant: r.Clone(), version: doc.version + 1}
}

func (s *Store) UpsertRestaurant(ctx context.Context, r *domain.Restaurant) error {
	s.PutRestaurant(r)
	return nil
}

func (s *Store) LoadRestaurant(ctx context.Context, id string) (*domain.Restaurant, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.restaurants[id]
	if !ok {
		return nil, 0, apperrors.NewNotFoundError(fmt.Sprintf("restaurant %s not found", id))
	}
	return doc.restaurant.Clone(), doc.version, nil
}

func (s *Store) SaveRestaurantIfVersion(ctx context.Context, r *domain.Restaurant, version int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.restaurants[r.ID]
	if !ok {
		return false, apperrors.NewNotFoundError(fmt.Sprintf("restaurant %s not found", r.ID))
	}
	if doc.version != version {
		return false, nil
	}
	s.restaurants[r.ID] = restaurantDoc{restaurant: r.Clone(), version: version + 1}
	return true, nil
}

func (s *Store) SaveOrder(ctx context.Context, order *domain.Order) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return "", fmt.Errorf("order %s already exists", order.ID)
	}
	if order.IdempotencyKey != "" {
		if _, used := s.idempotencyIdx[order.IdempotencyKey]; used {
			return "", apperrors.ErrDuplicateIdempotencyKey
		}
		s.idempotencyIdx[order.IdempotencyKey] = order.ID
	}

	order.Version = 1
	s.orders[order.ID] = order.Clone()
	return order.ID, nil
}

func (s *Store) LoadOrder(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	return order.Clone(), nil
}

// UpdateOrder writes the order only if nobody else updated it since it was
// loaded. On success order.Version is advanced.
func (s *Store) UpdateOrder(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.ID]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", order.ID))
	}
	if stored.Version != order.Version {
		return apperrors.NewConflictError(fmt.Sprintf("order %s was modified concurrently", order.ID))
	}

	order.Version++
	s.orders[order.ID] = order.Clone()
	return nil
}

func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.idempotencyIdx[key]
	if !ok {
		return nil, apperrors.NewNotFoundError("no order for idempotency key")
	}
	return s.orders[id].Clone(), nil
}

func (s *Store) ListByRestaurant(ctx context.Context, restaurantID string, status domain.OrderStatus) ([]*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orders []*domain.Order
	for _, o := range s.orders {
		if o.Restaurant.ID != restaurantID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		orders = append(orders, o.Clone())
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders, nil
}
