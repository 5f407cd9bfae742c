package restaurant

import (
	"context"
)

type packagesUseCase struct {
	service Service
}

func NewPackagesUseCase(service Service) PackagesUseCase {
	return &packagesUseCase{service: service}
}

func (uc *packagesUseCase) ListPackages(ctx context.Context, req PackagesRequest) (*PackagesResponse, error) {
	found, notFoundIDs, err := uc.service.GetPackages(ctx, req.RestaurantID, req.PackageIDs)
	if err != nil {
		return nil, err
	}

	packages := make([]PackageDTO, 0, len(found))
	for _, p := range found {
		packages = append(packages, PackageDTO{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			Price:         p.Price,
			OriginalPrice: p.OriginalPrice,
			Quantity:      p.Quantity,
			Status:        string(p.Status),
			Reservable:    p.IsActive() && p.Quantity > 0,
		})
	}

	if notFoundIDs == nil {
		notFoundIDs = []string{}
	}

	return &PackagesResponse{
		RestaurantID: req.RestaurantID,
		Packages:     packages,
		NotFound:     notFoundIDs,
	}, nil
}
