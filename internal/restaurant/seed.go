package restaurant

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"surplus/internal/domain"
)

// LoadSeedFile reads a JSON array of restaurant documents.
func LoadSeedFile(path string) ([]*domain.Restaurant, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var restaurants []*domain.Restaurant
	if err := json.Unmarshal(data, &restaurants); err != nil {
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}
	return restaurants, nil
}

func Seed(ctx context.Context, w Writer, restaurants []*domain.Restaurant, logger *zap.Logger) error {
	for _, r := range restaurants {
		if r.ID == "" {
			return fmt.Errorf("seed restaurant %q has no id", r.Name)
		}
		if err := w.UpsertRestaurant(ctx, r); err != nil {
			return fmt.Errorf("seeding restaurant %s: %w", r.ID, err)
		}
		logger.Info("restaurant seeded",
			zap.String("restaurantId", r.ID),
			zap.Int("packages", len(r.Packages)),
		)
	}
	return nil
}
