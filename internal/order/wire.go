package order

import (
	"go.uber.org/zap"

	"surplus/internal/config"
	"surplus/internal/inventory"
	"surplus/internal/order/controller"
	"surplus/internal/order/usecase"
)

// NewModule wires the order use cases over the given stores. cache may be
// nil when Redis is disabled.
func NewModule(
	orders usecase.OrderStore,
	restaurants inventory.RestaurantStore,
	notifier usecase.Notifier,
	cache usecase.IdempotencyCache,
	cfg *config.Config,
	logger *zap.Logger,
) *controller.OrderController {
	ledger := inventory.NewLedger(
		restaurants,
		logger,
		cfg.Order.MaxRetryAttempts,
		cfg.Order.RetryBaseDelay,
	)

	return controller.NewOrderController(
		usecase.NewSubmitOrderUseCase(orders, ledger, notifier, cache, logger),
		usecase.NewUpdateStatusUseCase(orders, ledger, notifier, logger),
		usecase.NewQueryOrdersUseCase(orders),
		logger,
	)
}
