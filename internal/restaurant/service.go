package restaurant

import (
	"context"

	"surplus/internal/domain"
)

type packageService struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &packageService{repo: repo}
}

// GetPackages returns the requested packages of a restaurant, or all of them
// when ids is empty. Unknown ids are reported separately.
func (s *packageService) GetPackages(ctx context.Context, restaurantID string, ids []string) ([]domain.Package, []string, error) {
	r, _, err := s.repo.LoadRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, nil, err
	}

	if len(ids) == 0 {
		return r.Packages, nil, nil
	}

	var (
		found       []domain.Package
		notFoundIDs []string
	)
	for _, id := range ids {
		pkg := r.FindPackage(id)
		if pkg == nil {
			notFoundIDs = append(notFoundIDs, id)
			continue
		}
		found = append(found, *pkg)
	}

	return found, notFoundIDs, nil
}
