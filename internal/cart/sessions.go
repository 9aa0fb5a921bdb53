package cart

import (
	"container/list"
	"context"
	"fmt"
	"runtime"
	"sync"
	"weak"

	"golang.org/x/sync/singleflight"
)

// DefaultSessionCacheSize bounds the number of live stores a Registry keeps.
const DefaultSessionCacheSize = 10000

// Registry hands out the live Store of each cart session. A store is seeded
// from the persister on first access only; evicting it loses nothing since
// every mutation has already been saved. A cart never has two live stores:
// an evicted store that a caller still holds is handed out again instead of
// being reloaded.
type Registry struct {
	deps     Deps
	capacity int

	mu      sync.Mutex
	order   *list.List
	entries map[string]*list.Element
	evicted map[string]weak.Pointer[Store]
	group   singleflight.Group
}

type evictedRef struct {
	id  string
	ptr weak.Pointer[Store]
}

type registryEntry struct {
	id    string
	store *Store
}

// NewRegistry validates deps once for every store it will build.
func NewRegistry(deps Deps, capacity int) (*Registry, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if capacity < 1 {
		capacity = DefaultSessionCacheSize
	}
	return &Registry{
		deps:     deps.withDefaults(),
		capacity: capacity,
		order:    list.New(),
		entries:  map[string]*list.Element{},
		evicted:  map[string]weak.Pointer[Store]{},
	}, nil
}

// Get returns the store for cartID, loading it when not resident.
func (r *Registry) Get(ctx context.Context, cartID string) (*Store, error) {
	if cartID == "" {
		return nil, fmt.Errorf("cart id required")
	}
	if store := r.lookup(cartID); store != nil {
		return store, nil
	}

	val, err, _ := r.group.Do(cartID, func() (any, error) {
		if store := r.lookup(cartID); store != nil {
			return store, nil
		}
		store, err := NewStore(ctx, cartID, r.deps)
		if err != nil {
			return nil, err
		}
		runtime.AddCleanup(store, r.forget, evictedRef{id: cartID, ptr: weak.Make(store)})
		r.insert(cartID, store)
		return store, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*Store), nil
}

// Len reports how many stores are resident.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}

func (r *Registry) lookup(cartID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if elem, ok := r.entries[cartID]; ok {
		r.order.MoveToFront(elem)
		return elem.Value.(*registryEntry).store
	}
	ptr, ok := r.evicted[cartID]
	if !ok {
		return nil
	}
	delete(r.evicted, cartID)
	store := ptr.Value()
	if store == nil {
		return nil
	}
	r.entries[cartID] = r.order.PushFront(&registryEntry{id: cartID, store: store})
	r.evictLocked()
	return store
}

func (r *Registry) insert(cartID string, store *Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[cartID] = r.order.PushFront(&registryEntry{id: cartID, store: store})
	r.evictLocked()
}

func (r *Registry) evictLocked() {
	for r.order.Len() > r.capacity {
		oldest := r.order.Back()
		r.order.Remove(oldest)
		entry := oldest.Value.(*registryEntry)
		delete(r.entries, entry.id)
		r.evicted[entry.id] = weak.Make(entry.store)
	}
}

// forget runs once a store has been collected.
func (r *Registry) forget(ref evictedRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.evicted[ref.id]; ok && cur == ref.ptr {
		delete(r.evicted, ref.id)
	}
}
