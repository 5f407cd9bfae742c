package restaurant

import (
	"context"

	"surplus/internal/domain"
)

type PackagesUseCase interface {
	ListPackages(ctx context.Context, req PackagesRequest) (*PackagesResponse, error)
}

type Service interface {
	GetPackages(ctx context.Context, restaurantID string, ids []string) (found []domain.Package, notFoundIDs []string, err error)
}

type Repository interface {
	LoadRestaurant(ctx context.Context, id string) (*domain.Restaurant, int64, error)
}

// Writer creates or replaces restaurant documents.
type Writer interface {
	UpsertRestaurant(ctx context.Context, r *domain.Restaurant) error
}
