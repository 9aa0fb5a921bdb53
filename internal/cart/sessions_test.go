package cart

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/angelmondragon/storefront/internal/promotions"
)

type countingLoads struct {
	recordingPersister
	loads atomic.Int32
}

func (c *countingLoads) Load(ctx context.Context, key string) Snapshot {
	c.loads.Add(1)
	return c.recordingPersister.Load(ctx, key)
}

func TestRegistryLoadsOncePerSession(t *testing.T) {
	t.Parallel()

	persister := &countingLoads{}
	registry, err := NewRegistry(Deps{Persister: persister, Catalog: promotions.DefaultCatalog()}, 10)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	stores := make([]*Store, 20)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store, err := registry.Get(ctx, "cart-1")
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			stores[i] = store
		}(i)
	}
	wg.Wait()

	for _, store := range stores[1:] {
		if store != stores[0] {
			t.Fatal("expected every caller to share one store")
		}
	}
	if got := persister.loads.Load(); got != 1 {
		t.Fatalf("expected one load, got %d", got)
	}
}

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	persister := &countingLoads{}
	registry, err := NewRegistry(Deps{Persister: persister, Catalog: promotions.DefaultCatalog()}, 2)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	ctx := context.Background()

	first, _ := registry.Get(ctx, "a")
	registry.Get(ctx, "b")
	registry.Get(ctx, "a")
	registry.Get(ctx, "c")

	if registry.Len() != 2 {
		t.Fatalf("expected 2 resident stores, got %d", registry.Len())
	}
	again, _ := registry.Get(ctx, "a")
	if again != first {
		t.Fatal("recently used store should stay resident")
	}
	if got := persister.loads.Load(); got != 3 {
		t.Fatalf("expected one load per session, loads=%d", got)
	}
}

func TestRegistryReusesEvictedStoreStillInUse(t *testing.T) {
	t.Parallel()

	kv := NewMemoryStore()
	deps := Deps{Persister: NewKVPersister(kv, nil, nil), Catalog: promotions.DefaultCatalog()}
	registry, err := NewRegistry(deps, 1)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	ctx := context.Background()

	held, err := registry.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := registry.Get(ctx, "b"); err != nil {
		t.Fatalf("get: %v", err)
	}
	current, err := registry.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if current != held {
		t.Fatal("expected the held store to be handed out again after eviction")
	}

	held.AddItem(ctx, product("x", "1", nil), 1)
	current.AddItem(ctx, product("y", "1", nil), 1)

	fresh, err := NewRegistry(deps, 1)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	reloaded, err := fresh.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := len(reloaded.Lines()); got != 2 {
		t.Fatalf("expected both lines persisted, got %d", got)
	}
}

func TestRegistryRejectsEmptyID(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry(Deps{Persister: &recordingPersister{}, Catalog: promotions.DefaultCatalog()}, 0)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if _, err := registry.Get(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}
