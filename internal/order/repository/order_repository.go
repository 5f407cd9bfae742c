package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"surplus/internal/domain"
	apperrors "surplus/internal/errors"
	"surplus/internal/infrastructure/mysql"
)

// MySQLOrderRepository stores each order as a JSON document. Status,
// restaurant and idempotency key are projected into columns for lookups.
type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func (r *MySQLOrderRepository) SaveOrder(ctx context.Context, order *domain.Order) (string, error) {
	stored := order.Clone()
	stored.Version = 1

	doc, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("marshaling order %s: %w", order.ID, err)
	}

	query := `
		INSERT INTO orders (id, restaurant_id, idempotency_key, status, document, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		stored.ID, stored.Restaurant.ID, nullableKey(stored.IdempotencyKey), string(stored.Status),
		doc, stored.Version, stored.CreatedAt, stored.UpdatedAt,
	)
	if err != nil {
		if mysql.IsDuplicateEntry(err) && order.IdempotencyKey != "" {
			return "", apperrors.ErrDuplicateIdempotencyKey
		}
		return "", fmt.Errorf("inserting order: %w", err)
	}

	order.Version = stored.Version
	return order.ID, nil
}

func (r *MySQLOrderRepository) LoadOrder(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT document, version FROM orders WHERE id = ?`

	order, err := r.scanOne(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}
	return order, nil
}

func (r *MySQLOrderRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	query := `SELECT document, version FROM orders WHERE idempotency_key = ?`

	order, err := r.scanOne(r.db.QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("no order for idempotency key")
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by idempotency key: %w", err)
	}
	return order, nil
}

// UpdateOrder rewrites the document only if the stored version still matches
// order.Version. On success order.Version is advanced.
func (r *MySQLOrderRepository) UpdateOrder(ctx context.Context, order *domain.Order) error {
	next := order.Clone()
	next.Version = order.Version + 1

	doc, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshaling order %s: %w", order.ID, err)
	}

	query := `
		UPDATE orders
		SET status = ?, document = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(next.Status), doc, next.Version, next.UpdatedAt, order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("updating order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, order.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError(fmt.Sprintf("order %s not found", order.ID))
		}
		if err != nil {
			return fmt.Errorf("checking order existence: %w", err)
		}
		return apperrors.NewConflictError(fmt.Sprintf("order %s was modified concurrently", order.ID))
	}

	order.Version = next.Version
	return nil
}

func (r *MySQLOrderRepository) ListByRestaurant(ctx context.Context, restaurantID string, status domain.OrderStatus) ([]*domain.Order, error) {
	query := `SELECT document, version FROM orders WHERE restaurant_id = ?`
	args := []interface{}{restaurantID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	return orders, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *MySQLOrderRepository) scanOne(row rowScanner) (*domain.Order, error) {
	var (
		doc     []byte
		version int64
	)
	if err := row.Scan(&doc, &version); err != nil {
		return nil, err
	}

	var order domain.Order
	if err := json.Unmarshal(doc, &order); err != nil {
		return nil, fmt.Errorf("decoding order document: %w", err)
	}
	order.Version = version
	return &order, nil
}

func nullableKey(key string) sql.NullString {
	return sql.NullString{String: key, Valid: key != ""}
}
