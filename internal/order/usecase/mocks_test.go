package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"surplus/internal/domain"
	"surplus/internal/dto"
	"surplus/internal/inventory"
	"surplus/internal/notification"
	"surplus/internal/store/memory"
)

var fixedNow = time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC)

// Mock implementations

// mockOrderStore delegates to the in-memory store unless a Func is set.
type mockOrderStore struct {
	*memory.Store
	SaveOrderFunc            func(ctx context.Context, order *domain.Order) (string, error)
	UpdateOrderFunc          func(ctx context.Context, order *domain.Order) error
	FindByIdempotencyKeyFunc func(ctx context.Context, key string) (*domain.Order, error)
}

func (m *mockOrderStore) SaveOrder(ctx context.Context, order *domain.Order) (string, error) {
	if m.SaveOrderFunc != nil {
		return m.SaveOrderFunc(ctx, order)
	}
	return m.Store.SaveOrder(ctx, order)
}

func (m *mockOrderStore) UpdateOrder(ctx context.Context, order *domain.Order) error {
	if m.UpdateOrderFunc != nil {
		return m.UpdateOrderFunc(ctx, order)
	}
	return m.Store.UpdateOrder(ctx, order)
}

func (m *mockOrderStore) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	if m.FindByIdempotencyKeyFunc != nil {
		return m.FindByIdempotencyKeyFunc(ctx, key)
	}
	return m.Store.FindByIdempotencyKey(ctx, key)
}

type mockInventory struct {
	ReserveFunc func(ctx context.Context, restaurantID string, lines []inventory.Line) (*inventory.Receipt, error)
	ReleaseFunc func(ctx context.Context, receipt *inventory.Receipt) error
}

func (m *mockInventory) Reserve(ctx context.Context, restaurantID string, lines []inventory.Line) (*inventory.Receipt, error) {
	return m.ReserveFunc(ctx, restaurantID, lines)
}

func (m *mockInventory) Release(ctx context.Context, receipt *inventory.Receipt) error {
	return m.ReleaseFunc(ctx, receipt)
}

type mockNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (m *mockNotifier) Notify(ctx context.Context, restaurantID string, event notification.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *mockNotifier) Events() []notification.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.Event(nil), m.events...)
}

type mockCache struct {
	LookupFunc   func(ctx context.Context, key string) (string, bool, error)
	RememberFunc func(ctx context.Context, key, orderID string) error
}

func (m *mockCache) Lookup(ctx context.Context, key string) (string, bool, error) {
	return m.LookupFunc(ctx, key)
}

func (m *mockCache) Remember(ctx context.Context, key, orderID string) error {
	return m.RememberFunc(ctx, key, orderID)
}

// Fixtures

type fixture struct {
	store    *memory.Store
	orders   *mockOrderStore
	ledger   *inventory.Ledger
	notifier *mockNotifier
	submit   *SubmitOrderUseCase
	status   *UpdateStatusUseCase
}

func newFixture(t *testing.T, packages ...domain.Package) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.PutRestaurant(&domain.Restaurant{
		ID:          "r-1",
		Name:        "Green Bistro",
		DeliveryFee: decimal.RequireFromString("2.50"),
		TaxRate:     decimal.RequireFromString("0.0875"),
		Packages:    packages,
	})

	f := &fixture{
		store:    store,
		orders:   &mockOrderStore{Store: store},
		ledger:   inventory.NewLedger(store, zap.NewNop(), 5, time.Millisecond),
		notifier: &mockNotifier{},
	}
	f.submit = NewSubmitOrderUseCase(f.orders, f.ledger, f.notifier, nil, zap.NewNop())
	f.submit.now = func() time.Time { return fixedNow }
	f.status = NewUpdateStatusUseCase(f.orders, f.ledger, f.notifier, zap.NewNop())
	f.status.now = func() time.Time { return fixedNow.Add(time.Minute) }
	return f
}

func (f *fixture) packageState(t *testing.T, id string) domain.Package {
	t.Helper()
	r, _, err := f.store.LoadRestaurant(context.Background(), "r-1")
	require.NoError(t, err)
	pkg := r.FindPackage(id)
	require.NotNil(t, pkg)
	return *pkg
}

func (f *fixture) place(t *testing.T, req dto.OrderRequest) string {
	t.Helper()
	result, err := f.submit.Submit(context.Background(), req)
	require.NoError(t, err)
	return result.OrderID
}

func pkg(id string, price string, quantity int, status domain.PackageStatus) domain.Package {
	return domain.Package{
		ID:       id,
		Name:     "Package " + id,
		Price:    decimal.RequireFromString(price),
		Quantity: quantity,
		Status:   status,
	}
}

func orderRequest(items ...dto.OrderItemRequest) dto.OrderRequest {
	return dto.OrderRequest{
		Customer:      dto.CustomerRequest{ID: "c-1", Name: "Jane Doe", Email: "jane@example.com"},
		RestaurantID:  "r-1",
		Items:         items,
		PaymentMethod: "card",
	}
}

func item(packageID string, quantity int) dto.OrderItemRequest {
	return dto.OrderItemRequest{PackageID: packageID, Quantity: quantity}
}
