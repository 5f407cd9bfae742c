package usecase

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"surplus/internal/domain"
	apperrors "surplus/internal/errors"
	"surplus/internal/inventory"
	"surplus/internal/notification"
)

// UpdateStatusUseCase drives an order through its lifecycle and applies the
// side effects of each move.
type UpdateStatusUseCase struct {
	orders   OrderStore
	ledger   Inventory
	notifier Notifier
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

func NewUpdateStatusUseCase(orders OrderStore, ledger Inventory, notifier Notifier, logger *zap.Logger) *UpdateStatusUseCase {
	return &UpdateStatusUseCase{
		orders:   orders,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger,
		tracer:   otel.Tracer("surplus/order"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (uc *UpdateStatusUseCase) UpdateStatus(ctx context.Context, orderID, status, note string) (*domain.Order, error) {
	to, ok := domain.ParseOrderStatus(status)
	if !ok {
		msg := fmt.Sprintf("unknown status %q", status)
		return nil, apperrors.NewValidationError(msg, apperrors.ValidationDetail{
			Field:   "status",
			Message: msg,
		})
	}
	return uc.transition(ctx, orderID, to, note)
}

func (uc *UpdateStatusUseCase) Cancel(ctx context.Context, orderID, note string) (*domain.Order, error) {
	return uc.transition(ctx, orderID, domain.OrderStatusCancelled, note)
}

func (uc *UpdateStatusUseCase) transition(ctx context.Context, orderID string, to domain.OrderStatus, note string) (*domain.Order, error) {
	ctx, span := uc.tracer.Start(ctx, "order.transition", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status.to", string(to)),
	))
	defer span.End()

	order, err := uc.apply(ctx, orderID, to, note)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return order, nil
}

func (uc *UpdateStatusUseCase) apply(ctx context.Context, orderID string, to domain.OrderStatus, note string) (*domain.Order, error) {
	logger := uc.logger.With(zap.String("orderId", orderID))

	order, err := uc.orders.LoadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if err := order.Transition(to, note, uc.now()); err != nil {
		logger.Info("status change rejected",
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return nil, err
	}

	if err := uc.orders.UpdateOrder(ctx, order); err != nil {
		if _, ok := apperrors.IsConflictError(err); ok {
			logger.Info("status change lost a concurrent update", zap.String("to", string(to)))
			return nil, err
		}
		if _, ok := apperrors.IsNotFoundError(err); ok {
			return nil, err
		}
		return nil, apperrors.NewPersistenceError("order status could not be saved", err)
	}

	// The new status is stored; the rest must finish even if the caller leaves.
	ctx = context.WithoutCancel(ctx)

	if to == domain.OrderStatusCancelled && domain.ReleasesStockOnCancel(from) {
		if err := uc.ledger.Release(ctx, receiptFromOrder(order)); err != nil {
			logger.Error("order cancelled but stock was not released", zap.Error(err))
			return nil, apperrors.NewInternalError("order cancelled but stock could not be released", err)
		}
	}

	uc.notifier.Notify(ctx, order.Restaurant.ID, notification.StatusChangedEvent(order))

	logger.Info("order status changed",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return order, nil
}

func receiptFromOrder(order *domain.Order) *inventory.Receipt {
	lines := make([]inventory.ReceiptLine, len(order.Items))
	for i, item := range order.Items {
		lines[i] = inventory.ReceiptLine{
			PackageID: item.PackageID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
	}
	return &inventory.Receipt{
		RestaurantID: order.Restaurant.ID,
		Lines:        lines,
		ReservedAt:   order.CreatedAt,
	}
}
