package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"surplus/internal/domain"
	"surplus/internal/dto"
	apperrors "surplus/internal/errors"
	"surplus/internal/inventory"
	"surplus/internal/notification"
)

// SubmitOrderUseCase is the single entry point that turns an order request
// into a stored order backed by reserved stock.
type SubmitOrderUseCase struct {
	orders   OrderStore
	ledger   Inventory
	notifier Notifier
	cache    IdempotencyCache
	logger   *zap.Logger
	tracer   trace.Tracer
	newID    func() string
	now      func() time.Time
}

// NewSubmitOrderUseCase accepts a nil cache; the store's unique key is then
// the only idempotency guard.
func NewSubmitOrderUseCase(
	orders OrderStore,
	ledger Inventory,
	notifier Notifier,
	cache IdempotencyCache,
	logger *zap.Logger,
) *SubmitOrderUseCase {
	return &SubmitOrderUseCase{
		orders:   orders,
		ledger:   ledger,
		notifier: notifier,
		cache:    cache,
		logger:   logger,
		tracer:   otel.Tracer("surplus/order"),
		newID:    func() string { return uuid.New().String() },
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (uc *SubmitOrderUseCase) Submit(ctx context.Context, req dto.OrderRequest) (*dto.OrderResult, error) {
	ctx, span := uc.tracer.Start(ctx, "order.submit", trace.WithAttributes(
		attribute.String("restaurant.id", req.RestaurantID),
		attribute.Int("order.items", len(req.Items)),
	))
	defer span.End()

	result, err := uc.submit(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("order.id", result.OrderID),
		attribute.Bool("order.replayed", result.Replayed),
	)
	return result, nil
}

func (uc *SubmitOrderUseCase) submit(ctx context.Context, req dto.OrderRequest) (*dto.OrderResult, error) {
	fulfillment, err := validateOrderRequest(&req)
	if err != nil {
		return nil, err
	}

	logger := uc.logger.With(
		zap.String("restaurantId", req.RestaurantID),
		zap.String("customerId", req.Customer.ID),
	)
	logger.Info("order submission started", zap.Int("itemCount", len(req.Items)))

	if req.IdempotencyKey != "" {
		orderID, found, err := uc.findByIdempotencyKey(ctx, logger, &req)
		if err != nil {
			return nil, err
		}
		if found {
			logger.Info("order submission replayed", zap.String("orderId", orderID))
			return &dto.OrderResult{OrderID: orderID, Replayed: true}, nil
		}
	}

	lines := make([]inventory.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = inventory.Line{PackageID: item.PackageID, Quantity: item.Quantity}
	}

	receipt, err := uc.ledger.Reserve(ctx, req.RestaurantID, lines)
	if err != nil {
		if se, ok := apperrors.IsStockError(err); ok {
			logger.Info("order rejected for stock", zap.Int("shortages", len(se.Shortages)))
		}
		return nil, err
	}

	// Stock is committed from here on; a caller that stops waiting must not
	// strand it or cut the compensation short.
	ctx = context.WithoutCancel(ctx)

	order := domain.NewOrder(domain.NewOrderParams{
		ID:             uc.newID(),
		IdempotencyKey: req.IdempotencyKey,
		Customer: domain.Customer{
			ID:    req.Customer.ID,
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Restaurant:    receipt.Restaurant,
		Fulfillment:   fulfillment,
		Items:         itemsFromReceipt(receipt),
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		Notes:         req.Notes,
		Now:           uc.now(),
	})

	if _, err := uc.orders.SaveOrder(ctx, order); err != nil {
		return uc.compensate(ctx, logger, receipt, &req, err)
	}

	if req.IdempotencyKey != "" && uc.cache != nil {
		if err := uc.cache.Remember(ctx, cacheKey(&req), order.ID); err != nil {
			logger.Warn("caching idempotency key failed", zap.Error(err))
		}
	}

	uc.notifier.Notify(ctx, order.Restaurant.ID, notification.NewOrderEvent(order))

	logger.Info("order placed",
		zap.String("orderId", order.ID),
		zap.String("total", order.Pricing.Total.StringFixed(2)),
	)
	return &dto.OrderResult{OrderID: order.ID}, nil
}

// compensate undoes the reservation after the order write failed. Losing a
// race on the idempotency key to the same requester is not a failure: the
// earlier order is returned.
func (uc *SubmitOrderUseCase) compensate(
	ctx context.Context,
	logger *zap.Logger,
	receipt *inventory.Receipt,
	req *dto.OrderRequest,
	saveErr error,
) (*dto.OrderResult, error) {
	releaseErr := uc.ledger.Release(ctx, receipt)
	if releaseErr != nil {
		logger.Error("releasing reservation failed, stock is held by no order",
			zap.Error(releaseErr),
			zap.Int("lineCount", len(receipt.Lines)),
		)
	}

	if errors.Is(saveErr, apperrors.ErrDuplicateIdempotencyKey) {
		existing, err := uc.orders.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, apperrors.NewPersistenceError("loading order for idempotency key", err)
		}
		if err := checkIdempotencyOwner(existing, req); err != nil {
			logger.Warn("idempotency key reused by another requester", zap.String("orderId", existing.ID))
			return nil, err
		}
		logger.Info("order submission replayed", zap.String("orderId", existing.ID))
		return &dto.OrderResult{OrderID: existing.ID, Replayed: true}, nil
	}

	logger.Error("saving order failed, reservation released", zap.Error(saveErr))
	if releaseErr != nil {
		saveErr = errors.Join(saveErr, releaseErr)
	}
	return nil, apperrors.NewPersistenceError("order could not be saved", saveErr)
}

// findByIdempotencyKey consults the cache, scoped to the requester, before the
// store. A key held by another restaurant or customer is a conflict.
func (uc *SubmitOrderUseCase) findByIdempotencyKey(ctx context.Context, logger *zap.Logger, req *dto.OrderRequest) (string, bool, error) {
	if uc.cache != nil {
		orderID, found, err := uc.cache.Lookup(ctx, cacheKey(req))
		if err != nil {
			logger.Warn("idempotency cache lookup failed", zap.Error(err))
		} else if found {
			return orderID, true, nil
		}
	}

	existing, err := uc.orders.FindByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return "", false, nil
		}
		return "", false, apperrors.NewPersistenceError("looking up idempotency key", err)
	}
	if err := checkIdempotencyOwner(existing, req); err != nil {
		logger.Warn("idempotency key reused by another requester", zap.String("orderId", existing.ID))
		return "", false, err
	}
	return existing.ID, true, nil
}

func cacheKey(req *dto.OrderRequest) string {
	return req.RestaurantID + ":" + req.Customer.ID + ":" + req.IdempotencyKey
}

func checkIdempotencyOwner(existing *domain.Order, req *dto.OrderRequest) error {
	if existing.Restaurant.ID != req.RestaurantID || existing.Customer.ID != req.Customer.ID {
		return apperrors.NewConflictError("idempotency key already used for a different order")
	}
	return nil
}

func itemsFromReceipt(receipt *inventory.Receipt) []domain.OrderItem {
	items := make([]domain.OrderItem, len(receipt.Lines))
	for i, line := range receipt.Lines {
		items[i] = domain.OrderItem{
			PackageID: line.PackageID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
		}
	}
	return items
}
