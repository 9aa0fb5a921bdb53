package cart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront/internal/promotions"
)

func intPtr(v int) *int { return &v }

func product(id string, price string, stock *int) Product {
	return Product{ID: id, Name: "Product " + id, Price: decimal.RequireFromString(price), Stock: stock}
}

type recordingPersister struct {
	mu    sync.Mutex
	seed  Snapshot
	saves []Snapshot
}

func (p *recordingPersister) Load(context.Context, string) Snapshot {
	return p.seed
}

func (p *recordingPersister) Save(_ context.Context, _ string, snapshot Snapshot) {
	p.mu.Lock()
	p.saves = append(p.saves, snapshot)
	p.mu.Unlock()
}

func (p *recordingPersister) last() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves[len(p.saves)-1]
}

func (p *recordingPersister) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.saves)
}

func newTestStore(t *testing.T, persister Persister) *Store {
	t.Helper()
	if persister == nil {
		persister = &recordingPersister{}
	}
	store, err := NewStore(context.Background(), "cart-1", Deps{
		Persister: persister,
		Catalog:   promotions.DefaultCatalog(),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestNewStoreValidatesDeps(t *testing.T) {
	t.Parallel()

	if _, err := NewStore(context.Background(), "", Deps{Persister: &recordingPersister{}, Catalog: promotions.DefaultCatalog()}); err == nil {
		t.Fatal("expected error for empty cart id")
	}
	if _, err := NewStore(context.Background(), "c", Deps{Catalog: promotions.DefaultCatalog()}); err == nil {
		t.Fatal("expected error without persister")
	}
	if _, err := NewStore(context.Background(), "c", Deps{Persister: &recordingPersister{}}); err == nil {
		t.Fatal("expected error without catalog")
	}
}

func TestAddItemClampsToStock(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	line := store.AddItem(ctx, product("a", "10", intPtr(3)), 7)
	if line.Quantity != 3 {
		t.Fatalf("expected quantity clamped to 3, got %d", line.Quantity)
	}

	line = store.AddItem(ctx, product("b", "10", nil), 25)
	if line.Quantity != DefaultStockCeiling {
		t.Fatalf("expected default ceiling %d, got %d", DefaultStockCeiling, line.Quantity)
	}

	line = store.AddItem(ctx, product("c", "10", intPtr(0)), 4)
	if line.Quantity != 1 {
		t.Fatalf("zero stock should still allow one unit, got %d", line.Quantity)
	}

	line = store.AddItem(ctx, product("d", "10", nil), 0)
	if line.Quantity != 1 {
		t.Fatalf("non-positive quantity should count as one, got %d", line.Quantity)
	}
}

func TestAddItemMergeWithoutStockSumsQuantities(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	store.AddItem(ctx, product("p", "10", nil), 2)
	line := store.AddItem(ctx, product("p", "10", nil), 3)
	if line.Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", line.Quantity)
	}
	if lines := store.Lines(); len(lines) != 1 || lines[0].Quantity != 5 {
		t.Fatalf("expected a single line of 5, got %+v", lines)
	}
}

func TestAddItemMergeClampsToShrunkenStock(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	store.AddItem(ctx, product("p", "10", intPtr(10)), 8)
	line := store.AddItem(ctx, product("p", "10", intPtr(3)), 1)
	if line.Quantity != 3 || line.Stock == nil || *line.Stock != 3 {
		t.Fatalf("expected quantity 3 with stock 3, got quantity=%d stock=%v", line.Quantity, line.Stock)
	}
	for _, l := range store.Lines() {
		if l.Quantity > stockCeiling(l.Stock, DefaultStockCeiling) {
			t.Fatalf("line %s holds %d above its ceiling", l.ProductID, l.Quantity)
		}
	}
}

func TestAddItemMergesExistingLine(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	store.AddItem(ctx, product("a", "10", intPtr(5)), 2)
	line := store.AddItem(ctx, product("a", "10", intPtr(5)), 2)
	if line.Quantity != 4 {
		t.Fatalf("expected merged quantity 4, got %d", line.Quantity)
	}
	line = store.AddItem(ctx, product("a", "10", intPtr(5)), 3)
	if line.Quantity != 5 {
		t.Fatalf("expected merged quantity capped at 5, got %d", line.Quantity)
	}

	lines := store.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected one line per product, got %d", len(lines))
	}
	if store.ItemCount() != 5 {
		t.Fatalf("expected item count 5, got %d", store.ItemCount())
	}
}

func TestAddItemKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		store.AddItem(ctx, product(id, "1", nil), 1)
	}
	store.AddItem(ctx, product("a", "1", nil), 1)

	lines := store.Lines()
	got := []string{lines[0].ProductID, lines[1].ProductID, lines[2].ProductID}
	if got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestSetQuantityClampsAndIgnoresUnknown(t *testing.T) {
	t.Parallel()

	persister := &recordingPersister{}
	store := newTestStore(t, persister)
	ctx := context.Background()
	store.AddItem(ctx, product("a", "2.50", intPtr(4)), 1)

	if !store.SetQuantity(ctx, "a", 9) {
		t.Fatal("expected existing line to be updated")
	}
	if got := store.Lines()[0].Quantity; got != 4 {
		t.Fatalf("expected clamp to stock 4, got %d", got)
	}

	store.SetQuantity(ctx, "a", -3)
	if got := store.Lines()[0].Quantity; got != 1 {
		t.Fatalf("expected clamp to 1, got %d", got)
	}

	saves := persister.count()
	if store.SetQuantity(ctx, "missing", 2) {
		t.Fatal("expected unknown product to report false")
	}
	if persister.count() != saves {
		t.Fatal("unknown product should not persist")
	}
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	t.Parallel()

	persister := &recordingPersister{}
	store := newTestStore(t, persister)
	ctx := context.Background()
	store.AddItem(ctx, product("a", "1", nil), 1)
	store.AddItem(ctx, product("b", "1", nil), 1)

	store.RemoveItem(ctx, "a")
	first := store.Lines()
	store.RemoveItem(ctx, "a")
	second := store.Lines()

	if len(first) != 1 || len(second) != 1 || second[0].ProductID != "b" {
		t.Fatalf("unexpected lines after removals: %+v / %+v", first, second)
	}
	if got := len(persister.last().Items); got != 1 {
		t.Fatalf("expected persisted snapshot with one line, got %d", got)
	}
}

func TestClearResetsLinesAndPromotion(t *testing.T) {
	t.Parallel()

	persister := &recordingPersister{}
	store := newTestStore(t, persister)
	ctx := context.Background()
	store.AddItem(ctx, product("a", "30", nil), 2)
	if !store.ApplyPromotion(ctx, "save5") {
		t.Fatal("expected SAVE5 to apply")
	}

	store.Clear(ctx)

	if store.ItemCount() != 0 || !store.Subtotal().IsZero() || store.Promotion() != nil {
		t.Fatalf("expected empty cart, got count=%d subtotal=%s promo=%v", store.ItemCount(), store.Subtotal(), store.Promotion())
	}
	last := persister.last()
	if len(last.Items) != 0 || last.Promotion != nil {
		t.Fatalf("expected cleared snapshot, got %+v", last)
	}
}

func TestApplyPromotionReplaceOrClear(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	if !store.ApplyPromotion(ctx, "DISCOUNT10") {
		t.Fatal("expected DISCOUNT10 to apply")
	}
	if !store.ApplyPromotion(ctx, "welcome15") {
		t.Fatal("expected WELCOME15 to apply")
	}
	if promo := store.Promotion(); promo == nil || promo.Code != "WELCOME15" {
		t.Fatalf("expected WELCOME15 active, got %+v", promo)
	}

	if store.ApplyPromotion(ctx, "NOPE") {
		t.Fatal("expected unknown code to be rejected")
	}
	if promo := store.Promotion(); promo != nil {
		t.Fatalf("rejected code must clear the promotion, got %+v", promo)
	}
}

func TestApplyPromotionLookupErrorClears(t *testing.T) {
	t.Parallel()

	store, err := NewStore(context.Background(), "cart-1", Deps{
		Persister: &recordingPersister{seed: Snapshot{Promotion: &promotions.Promotion{Code: "SAVE5", Kind: promotions.KindFixed, Value: decimal.NewFromInt(5)}}},
		Catalog: promotions.CatalogFunc(func(context.Context, string) (*promotions.Promotion, error) {
			return nil, errors.New("db down")
		}),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if store.ApplyPromotion(context.Background(), "SAVE5") {
		t.Fatal("expected failed lookup to report false")
	}
	if store.Promotion() != nil {
		t.Fatal("expected promotion cleared after failed lookup")
	}
}

func TestRemovePromotion(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()
	store.ApplyPromotion(ctx, "SAVE5")
	store.RemovePromotion(ctx)
	if store.Promotion() != nil {
		t.Fatal("expected promotion removed")
	}
}

func TestViewPricing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()
	store.AddItem(ctx, product("a", "25", nil), 4)

	view := store.View()
	if !view.Subtotal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected subtotal 100, got %s", view.Subtotal)
	}
	if !view.Totals.GrandTotal.Equal(decimal.NewFromInt(108)) {
		t.Fatalf("expected grand total 108, got %s", view.Totals.GrandTotal)
	}

	store.Clear(ctx)
	store.AddItem(ctx, product("b", "20", nil), 2)
	store.ApplyPromotion(ctx, "SAVE5")
	if got := store.Totals().GrandTotal; !got.Equal(decimal.RequireFromString("44.19")) {
		t.Fatalf("expected grand total 44.19, got %s", got)
	}
}

func TestStoreSeedsFromPersister(t *testing.T) {
	t.Parallel()

	seed := Snapshot{
		Items:     []Line{{ProductID: "a", Name: "A", UnitPrice: decimal.NewFromInt(3), Quantity: 2}},
		Promotion: &promotions.Promotion{Code: "DISCOUNT10", Kind: promotions.KindPercentage, Value: decimal.NewFromInt(10)},
	}
	store := newTestStore(t, &recordingPersister{seed: seed})

	if store.ItemCount() != 2 || !store.Subtotal().Equal(decimal.NewFromInt(6)) {
		t.Fatalf("unexpected seeded state count=%d subtotal=%s", store.ItemCount(), store.Subtotal())
	}
	if promo := store.Promotion(); promo == nil || promo.Code != "DISCOUNT10" {
		t.Fatalf("expected seeded promotion, got %+v", promo)
	}
}

func TestStoreClampsSeededLines(t *testing.T) {
	t.Parallel()

	seed := Snapshot{Items: []Line{
		{ProductID: "a", UnitPrice: decimal.NewFromInt(1), Stock: intPtr(3), Quantity: 9},
		{ProductID: "b", UnitPrice: decimal.NewFromInt(1), Quantity: 40},
		{ProductID: "c", UnitPrice: decimal.NewFromInt(1), Stock: intPtr(5), Quantity: 2},
	}}
	store := newTestStore(t, &recordingPersister{seed: seed})

	lines := store.Lines()
	want := map[string]int{"a": 3, "b": DefaultStockCeiling, "c": 2}
	for _, line := range lines {
		if line.Quantity != want[line.ProductID] {
			t.Fatalf("line %s: expected %d, got %d", line.ProductID, want[line.ProductID], line.Quantity)
		}
	}
	if seed.Items[0].Quantity != 9 {
		t.Fatal("seeding must not mutate the loaded snapshot")
	}
}

func TestMutationsEmitEvents(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []EventKind
	)
	store, err := NewStore(context.Background(), "cart-1", Deps{
		Persister: &recordingPersister{},
		Catalog:   promotions.DefaultCatalog(),
		Notifier: NotifierFunc(func(_ context.Context, event Event) {
			mu.Lock()
			events = append(events, event.Kind)
			mu.Unlock()
		}),
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ctx, rec := WithRecorder(context.Background())
	store.AddItem(ctx, product("a", "1", nil), 1)
	store.RemoveItem(ctx, "a")
	store.RemoveItem(ctx, "a")
	store.ApplyPromotion(ctx, "BOGUS")
	store.Clear(ctx)

	want := []EventKind{EventItemAdded, EventItemRemoved, EventPromotionRejected, EventCartCleared}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
	recorded := rec.Events()
	if len(recorded) != len(want) || recorded[0].CartID != "cart-1" {
		t.Fatalf("expected recorder to capture events, got %+v", recorded)
	}
	if msg := recorded[0].Message(); msg != "Product a added to cart" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestConcurrentAddsSerialize(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.AddItem(ctx, product("a", "1", intPtr(100)), 1)
		}()
	}
	wg.Wait()

	if got := store.ItemCount(); got != 50 {
		t.Fatalf("expected 50 units after concurrent adds, got %d", got)
	}
}

func TestLinesReturnsCopies(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, nil)
	store.AddItem(context.Background(), product("a", "1", intPtr(5)), 1)

	lines := store.Lines()
	lines[0].Quantity = 99
	*lines[0].Stock = 99

	fresh := store.Lines()
	if fresh[0].Quantity != 1 || *fresh[0].Stock != 5 {
		t.Fatalf("store state leaked through Lines: %+v", fresh[0])
	}
}
