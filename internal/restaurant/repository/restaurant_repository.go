package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"surplus/internal/domain"
	apperrors "surplus/internal/errors"
)

// MySQLRepository keeps a restaurant and its packages in one row. The
// packages live in a JSON column so a reservation touching several packages
// is a single conditional UPDATE guarded by the version column.
type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

func (r *MySQLRepository) LoadRestaurant(ctx context.Context, id string) (*domain.Restaurant, int64, error) {
	query := `
		SELECT id, name, delivery_fee, tax_rate, packages, version
		FROM restaurants
		WHERE id = ?
	`

	var (
		rest     domain.Restaurant
		packages []byte
		version  int64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rest.ID, &rest.Name, &rest.DeliveryFee, &rest.TaxRate, &packages, &version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, apperrors.NewNotFoundError(fmt.Sprintf("restaurant %s not found", id))
	}
	if err != nil {
		return nil, 0, fmt.Errorf("querying restaurant by id: %w", err)
	}

	if err := json.Unmarshal(packages, &rest.Packages); err != nil {
		return nil, 0, fmt.Errorf("decoding packages of restaurant %s: %w", id, err)
	}

	return &rest, version, nil
}

// SaveRestaurantIfVersion reports false when another writer got there first.
func (r *MySQLRepository) SaveRestaurantIfVersion(ctx context.Context, rest *domain.Restaurant, version int64) (bool, error) {
	packages, err := encodePackages(rest.Packages)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE restaurants
		SET name = ?, delivery_fee = ?, tax_rate = ?, packages = ?, version = version + 1
		WHERE id = ? AND version = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		rest.Name, rest.DeliveryFee, rest.TaxRate, packages, rest.ID, version,
	)
	if err != nil {
		return false, fmt.Errorf("updating restaurant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// UpsertRestaurant creates the restaurant or replaces it, bumping the version
// so in-flight reservations re-read.
func (r *MySQLRepository) UpsertRestaurant(ctx context.Context, rest *domain.Restaurant) error {
	packages, err := encodePackages(rest.Packages)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO restaurants (id, name, delivery_fee, tax_rate, packages, version)
		VALUES (?, ?, ?, ?, ?, 1)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			delivery_fee = VALUES(delivery_fee),
			tax_rate = VALUES(tax_rate),
			packages = VALUES(packages),
			version = version + 1
	`

	if _, err := r.db.ExecContext(ctx, query,
		rest.ID, rest.Name, rest.DeliveryFee, rest.TaxRate, packages,
	); err != nil {
		return fmt.Errorf("upserting restaurant: %w", err)
	}
	return nil
}

func encodePackages(packages []domain.Package) ([]byte, error) {
	if packages == nil {
		packages = []domain.Package{}
	}
	data, err := json.Marshal(packages)
	if err != nil {
		return nil, fmt.Errorf("encoding packages: %w", err)
	}
	return data, nil
}
