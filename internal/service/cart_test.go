package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/gupfee/greenhaus/internal/discount"
	"github.com/gupfee/greenhaus/internal/domain"
	"github.com/gupfee/greenhaus/internal/events"
	"github.com/gupfee/greenhaus/internal/pricing"
	"github.com/gupfee/greenhaus/internal/shipping"
	"github.com/gupfee/greenhaus/internal/storage"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockStorage implements storage.Store for testing
type mockStorage struct {
	mu      sync.Mutex
	saved   map[string]domain.CartSnapshot
	saves   int
	saveErr error
	loadErr error
}

func newMockStorage() *mockStorage {
	return &mockStorage{saved: make(map[string]domain.CartSnapshot)}
}

func (m *mockStorage) Save(ctx context.Context, key string, snap domain.CartSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[key] = snap
	return nil
}

func (m *mockStorage) Load(ctx context.Context, key string) (domain.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return domain.CartSnapshot{}, m.loadErr
	}
	snap, ok := m.saved[key]
	if !ok {
		return domain.CartSnapshot{}, storage.ErrNotFound
	}
	return snap, nil
}

func (m *mockStorage) Clear(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, key)
	return nil
}

func (m *mockStorage) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// recordingNotifier implements events.Notifier for testing
type recordingNotifier struct {
	mu      sync.Mutex
	updates []domain.CartUpdate
}

func (n *recordingNotifier) CartUpdated(ctx context.Context, update domain.CartUpdate) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, update)
	return nil
}

func (n *recordingNotifier) itemCounts() []int {
	n.mu.Lock()
	defer n.mu.Unlock()
	counts := make([]int, len(n.updates))
	for i, u := range n.updates {
		counts[i] = u.ItemCount
	}
	return counts
}

// ============================================================================
// Test Helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCalculator(t *testing.T) *pricing.Calculator {
	t.Helper()
	resolver, err := shipping.NewFlatRateResolver([]shipping.FlatRate{
		{TierID: "standard", Label: "Standard Shipping", Price: decimal.RequireFromString("5.99")},
	}, "standard", decimal.RequireFromString("75.00"))
	if err != nil {
		t.Fatalf("failed to build resolver: %v", err)
	}
	table := discount.NewStaticTable([]domain.DiscountCode{
		{Code: "WELCOME10", Kind: domain.DiscountPercentage, Value: decimal.NewFromInt(10)},
	})
	return pricing.NewCalculator(resolver, table)
}

func newTestController(t *testing.T, st storage.Store, notifier *recordingNotifier) *Controller {
	t.Helper()
	var n events.Notifier
	if notifier != nil {
		n = notifier
	}
	c := NewCartController(st, n, newTestCalculator(t), nil, testLogger(), ControllerConfig{
		CartKey: "cart:test",
	})
	t.Cleanup(c.Close)
	return c
}

func testProduct(id string, price string, stock int) domain.ProductSnapshot {
	return domain.ProductSnapshot{
		ProductID:      id,
		Name:           "Plant " + id,
		UnitPrice:      decimal.RequireFromString(price),
		AvailableStock: stock,
	}
}

// ============================================================================
// Tests
// ============================================================================

func TestCartController_MutationSequence(t *testing.T) {
	st := newMockStorage()
	notifier := &recordingNotifier{}
	c := newTestController(t, st, notifier)
	ctx := context.Background()

	snap, err := c.AddToCart(ctx, testProduct("monstera", "24.99", 10), 2)
	if err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if snap.ItemCount != 2 {
		t.Errorf("expected item count 2, got %d", snap.ItemCount)
	}

	snap, err = c.AddToCart(ctx, testProduct("fern", "12.50", 5), 1)
	if err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if snap.ItemCount != 3 {
		t.Errorf("expected item count 3, got %d", snap.ItemCount)
	}

	snap, err = c.UpdateQuantity(ctx, "monstera", 4)
	if err != nil {
		t.Fatalf("UpdateQuantity failed: %v", err)
	}
	if snap.ItemCount != 5 {
		t.Errorf("expected item count 5, got %d", snap.ItemCount)
	}

	snap, err = c.RemoveFromCart(ctx, "fern")
	if err != nil {
		t.Fatalf("RemoveFromCart failed: %v", err)
	}
	if snap.ItemCount != 4 {
		t.Errorf("expected item count 4, got %d", snap.ItemCount)
	}
	if c.IsInCart("fern") {
		t.Error("fern should no longer be in the cart")
	}

	snap, err = c.ClearCart(ctx)
	if err != nil {
		t.Fatalf("ClearCart failed: %v", err)
	}
	if !snap.IsEmpty() {
		t.Error("cart should be empty after clear")
	}

	counts := notifier.itemCounts()
	want := []int{2, 3, 5, 4, 0}
	if len(counts) != len(want) {
		t.Fatalf("expected %d notifications, got %d: %v", len(want), len(counts), counts)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("notification %d: expected item count %d, got %d", i, want[i], counts[i])
		}
	}
}

func TestCartController_PersistsAfterEachMutation(t *testing.T) {
	st := newMockStorage()
	c := newTestController(t, st, nil)
	ctx := context.Background()

	if _, err := c.AddToCart(ctx, testProduct("monstera", "24.99", 10), 1); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}
	if _, err := c.AddToCart(ctx, testProduct("monstera", "24.99", 10), 1); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}

	if st.saveCount() != 2 {
		t.Errorf("expected 2 snapshot saves, got %d", st.saveCount())
	}

	saved, err := st.Load(ctx, "cart:test")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if saved.ItemCount != 2 {
		t.Errorf("persisted snapshot should have item count 2, got %d", saved.ItemCount)
	}
}

func TestCartController_FailedMutationDoesNotPersist(t *testing.T) {
	st := newMockStorage()
	c := newTestController(t, st, nil)
	ctx := context.Background()

	_, err := c.AddToCart(ctx, testProduct("monstera", "24.99", 1), 5)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}
	if st.saveCount() != 0 {
		t.Errorf("failed mutation must not persist, got %d saves", st.saveCount())
	}
	if c.Snapshot().ItemCount != 0 {
		t.Error("failed mutation must not change the cart")
	}
}

func TestCartController_PersistenceFailureKeepsState(t *testing.T) {
	st := newMockStorage()
	st.saveErr = errors.New("disk on fire")
	notifier := &recordingNotifier{}
	c := newTestController(t, st, notifier)

	snap, err := c.AddToCart(context.Background(), testProduct("monstera", "24.99", 10), 2)
	if err == nil {
		t.Fatal("expected a persistence warning error")
	}
	if !domain.IsCode(err, domain.EPERSISTENCE) {
		t.Fatalf("expected EPERSISTENCE code, got %q", domain.ErrorCode(err))
	}
	if snap == nil {
		t.Fatal("persistence failure must still return the committed snapshot")
	}
	if snap.ItemCount != 2 {
		t.Errorf("expected item count 2, got %d", snap.ItemCount)
	}

	// The in-memory mutation survives; subsequent reads see it.
	if c.Snapshot().ItemCount != 2 {
		t.Error("in-memory state must be kept after a persistence failure")
	}

	// Consumers are still told about the change.
	if len(notifier.itemCounts()) != 1 {
		t.Error("change event should fire even when persistence fails")
	}
}

func TestCartController_ConcurrentIncrementsSerialize(t *testing.T) {
	st := newMockStorage()
	c := newTestController(t, st, nil)
	ctx := context.Background()
	p := testProduct("monstera", "24.99", 1000)

	const workers = 50
	var wg sync.WaitGroup
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.AddToCart(ctx, p, 1); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent AddToCart failed: %v", err)
	}

	if got := c.Snapshot().ItemCount; got != workers {
		t.Errorf("expected %d items after %d serialized increments, got %d", workers, workers, got)
	}
}

func TestCartController_Resync(t *testing.T) {
	st := newMockStorage()
	seed := newTestController(t, st, nil)
	if _, err := seed.AddToCart(context.Background(), testProduct("monstera", "24.99", 10), 3); err != nil {
		t.Fatalf("seeding failed: %v", err)
	}
	seed.Close()

	restored := newTestController(t, st, nil)
	snap, err := restored.Resync(context.Background())
	if err != nil {
		t.Fatalf("Resync failed: %v", err)
	}
	if snap.ItemCount != 3 {
		t.Errorf("expected restored item count 3, got %d", snap.ItemCount)
	}
	if !restored.IsInCart("monstera") {
		t.Error("restored cart should contain monstera")
	}
}

func TestCartController_ResyncMissingSnapshot(t *testing.T) {
	c := newTestController(t, newMockStorage(), nil)

	snap, err := c.Resync(context.Background())
	if err != nil {
		t.Fatalf("a missing snapshot must not be an error, got %v", err)
	}
	if !snap.IsEmpty() {
		t.Error("missing snapshot should yield an empty cart")
	}
}

func TestCartController_ResyncStorageFailure(t *testing.T) {
	st := newMockStorage()
	st.loadErr = errors.New("connection refused")
	c := newTestController(t, st, nil)

	snap, err := c.Resync(context.Background())
	if !domain.IsCode(err, domain.EPERSISTENCE) {
		t.Fatalf("expected EPERSISTENCE warning, got %v", err)
	}
	if snap == nil || !snap.IsEmpty() {
		t.Error("failed restore must fall back to an empty cart")
	}
}

func TestCartController_GetQuote(t *testing.T) {
	c := newTestController(t, newMockStorage(), nil)
	ctx := context.Background()

	if _, err := c.AddToCart(ctx, testProduct("monstera", "49.99", 10), 2); err != nil {
		t.Fatalf("AddToCart failed: %v", err)
	}

	quote, err := c.GetQuote(ctx, domain.QuoteRequest{
		ShippingTier: "standard",
		TaxRate:      decimal.RequireFromString("0.0725"),
	})
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}

	// 99.98 subtotal clears the 75.00 threshold, so shipping is free.
	if !quote.ShippingCost.IsZero() {
		t.Errorf("expected free shipping, got %s", quote.ShippingCost)
	}
	if want := decimal.RequireFromString("107.23"); !quote.Total.Equal(want) {
		t.Errorf("expected total %s, got %s", want, quote.Total)
	}
}

func TestCartController_GetQuoteUnknownTier(t *testing.T) {
	c := newTestController(t, newMockStorage(), nil)

	_, err := c.GetQuote(context.Background(), domain.QuoteRequest{ShippingTier: "overnight"})
	if !domain.IsCode(err, domain.ESHIPPINGTIER) {
		t.Fatalf("expected shipping tier error, got %v", err)
	}
}

func TestCartController_ClosedControllerRejectsMutations(t *testing.T) {
	c := NewCartController(newMockStorage(), nil, newTestCalculator(t), nil, testLogger(), ControllerConfig{})
	c.Close()

	_, err := c.AddToCart(context.Background(), testProduct("monstera", "24.99", 10), 1)
	if !errors.Is(err, ErrControllerClosed) {
		t.Fatalf("expected ErrControllerClosed, got %v", err)
	}
}
