package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"surplus/internal/domain"
	apperrors "surplus/internal/errors"
	"surplus/internal/inventory"
	"surplus/internal/notification"
)

func advance(t *testing.T, f *fixture, orderID string, statuses ...domain.OrderStatus) {
	t.Helper()
	for _, s := range statuses {
		_, err := f.status.UpdateStatus(context.Background(), orderID, string(s), "")
		require.NoError(t, err)
	}
}

func TestCancel_FromPendingRestoresStock(t *testing.T) {
	f := newFixture(t, pkg("p-1", "3.99", 2, domain.PackageStatusActive))
	orderID := f.place(t, orderRequest(item("p-1", 2)))
	require.Equal(t, domain.PackageStatusInactive, f.packageState(t, "p-1").Status)

	order, err := f.status.Cancel(context.Background(), orderID, "customer changed their mind")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
	require.Len(t, order.StatusHistory, 2)
	assert.Equal(t, "customer changed their mind", order.StatusHistory[1].Note)

	p1 := f.packageState(t, "p-1")
	assert.Equal(t, 2, p1.Quantity)
	assert.Equal(t, domain.PackageStatusActive, p1.Status)

	events := f.notifier.Events()
	require.Len(t, events, 2)
	assert.Equal(t, notification.EventStatusChanged, events[1].Type)
	assert.Equal(t, domain.OrderStatusCancelled, events[1].Status)
}

func TestCancel_FromConfirmedRestoresStock(t *testing.T) {
	f := newFixture(t, pkg("p-1", "3.99", 3, domain.PackageStatusActive))
	orderID := f.place(t, orderRequest(item("p-1", 1)))
	advance(t, f, orderID, domain.OrderStatusConfirmed)

	_, err := f.status.Cancel(context.Background(), orderID, "")

	require.NoError(t, err)
	assert.Equal(t, 3, f.packageState(t, "p-1").Quantity)
}

func TestCancel_FromPreparingKeepsStockConsumed(t *testing.T) {
	f := newFixture(t, pkg("p-1", "3.99", 3, domain.PackageStatusActive))
	orderID := f.place(t, orderRequest(item("p-1", 2)))
	advance(t, f, orderID, domain.OrderStatusConfirmed, domain.OrderStatusPreparing)

	order, err := f.status.Cancel(context.Background(), orderID, "kitchen closed")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
	assert.Len(t, order.StatusHistory, 4)
	assert.Equal(t, 1, f.packageState(t, "p-1").Quantity)
}

func TestCancel_TwiceReleasesOnce(t *testing.T) {
	f := newFixture(t, pkg("p-1", "3.99", 3, domain.PackageStatusActive))
	orderID := f.place(t, orderRequest(item("p-1", 2)))

	_, err := f.status.Cancel(context.Background(), orderID, "")
	require.NoError(t, err)
	_, err = f.status.Cancel(context.Background(), orderID, "")

	_, ok := apperrors.IsInvalidTransitionError(err)
	assert.True(t, ok)
	assert.Equal(t, 3, f.packageState(t, "p-1").Quantity)
}

func TestUpdateStatus_InvalidTransitionLeavesOrderUntouched(t *testing.T) {
	f := newFixture(t, pkg("p-1", "3.99", 3, domain.PackageStatusActive))
	orderID := f.place(t, orderRequest(item("p-1", 1)))

	_, err := f.status.UpdateStatus(context.Background(), orderID, "ready", "")

	te, ok := apperrors.IsInvalidTransitionError(err)
	require.True(t, ok, "expected InvalidTransitionError, got %T", err)
	assert.Equal(t, "pending", te.From)
	assert.Equal(t, "ready", te.To)

	stored, err := f.store.LoadOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, stored.Status)
	assert.Len(t, stored.StatusHistory, 1)
	assert.Len(t, f.notifier.Events(), 1)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.status.UpdateStatus(context.Background(), "o-1", "teleported", "")

	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestUpdateStatus_OrderNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.status.UpdateStatus(context.Background(), "o-missing", "confirmed", "")

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestUpdateStatus_PickupLifecycle(t *testing.T) {
	f := newFixture(t, pkg("p-1", "3.99", 3, domain.PackageStatusActive))
	req := orderRequest(item("p-1", 1))
	req.Fulfillment = "pickup"
	req.PaymentMethod = "cash"
	orderID := f.place(t, req)

	advance(t, f, orderID,
		domain.OrderStatusConfirmed,
		domain.OrderStatusPreparing,
		domain.OrderStatusReady,
		domain.OrderStatusDelivered,
	)
	order, err := f.status.UpdateStatus(context.Background(), orderID, "completed", "")

	require.NoError(t, err)
	require.NotNil(t, order.ActualDeliveryTime)
	assert.Equal(t, domain.PaymentStatusPaid, order.Payment.Status)
	assert.Len(t, order.StatusHistory, 6)
}

func TestUpdateStatus_DeliveryOrderCannotSkipDelivering(t *testing.T) {
	f := newFixture(t, pkg("p-1", "3.99", 3, domain.PackageStatusActive))
	orderID := f.place(t, orderRequest(item("p-1", 1)))
	advance(t, f, orderID, domain.OrderStatusConfirmed, domain.OrderStatusPreparing, domain.OrderStatusReady)

	_, err := f.status.UpdateStatus(context.Background(), orderID, "delivered", "")

	_, ok := apperrors.IsInvalidTransitionError(err)
	assert.True(t, ok)
}

func TestCancel_ConcurrentUpdateWinsAndStockIsNotReleased(t *testing.T) {
	f := newFixture(t, pkg("p-1", "3.99", 3, domain.PackageStatusActive))
	orderID := f.place(t, orderRequest(item("p-1", 2)))
	f.orders.UpdateOrderFunc = func(ctx context.Context, order *domain.Order) error {
		return apperrors.NewConflictError("order was modified concurrently")
	}

	_, err := f.status.Cancel(context.Background(), orderID, "")

	_, ok := apperrors.IsConflictError(err)
	assert.True(t, ok)
	assert.Equal(t, 1, f.packageState(t, "p-1").Quantity)
}

func TestUpdateStatus_StoreFailureIsPersistenceError(t *testing.T) {
	f := newFixture(t, pkg("p-1", "3.99", 3, domain.PackageStatusActive))
	orderID := f.place(t, orderRequest(item("p-1", 1)))
	f.orders.UpdateOrderFunc = func(ctx context.Context, order *domain.Order) error {
		return errors.New("lost connection")
	}

	_, err := f.status.UpdateStatus(context.Background(), orderID, "confirmed", "")

	_, ok := apperrors.IsPersistenceError(err)
	assert.True(t, ok)
}

func TestCancel_ReleaseFailureIsReported(t *testing.T) {
	f := newFixture(t, pkg("p-1", "3.99", 3, domain.PackageStatusActive))
	orderID := f.place(t, orderRequest(item("p-1", 1)))
	ledger := &mockInventory{
		ReleaseFunc: func(ctx context.Context, receipt *inventory.Receipt) error {
			assert.Equal(t, "r-1", receipt.RestaurantID)
			require.Len(t, receipt.Lines, 1)
			assert.Equal(t, 1, receipt.Lines[0].Quantity)
			return errors.New("restaurant locked")
		},
	}
	uc := NewUpdateStatusUseCase(f.orders, ledger, f.notifier, zap.NewNop())

	_, err := uc.Cancel(context.Background(), orderID, "")

	_, ok := apperrors.IsInternalError(err)
	assert.True(t, ok)
	stored, loadErr := f.store.LoadOrder(context.Background(), orderID)
	require.NoError(t, loadErr)
	assert.Equal(t, domain.OrderStatusCancelled, stored.Status)
}
