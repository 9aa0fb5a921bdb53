package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/angelmondragon/storefront/internal/promotions"
	"github.com/angelmondragon/storefront/pkg/logger"
)

// Snapshot is the persisted record of one cart session.
type Snapshot struct {
	Items     []Line                `json:"items"`
	Promotion *promotions.Promotion `json:"promotion"`
}

// KeyValueStore is the raw blob storage behind a Persister.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, payload []byte) error
}

// Persister loads and saves snapshots. Both operations fail open: Load
// yields an empty snapshot on any problem and Save swallows errors.
type Persister interface {
	Load(ctx context.Context, key string) Snapshot
	Save(ctx context.Context, key string, snapshot Snapshot)
}

// FailureCounter records persistence failures by operation.
type FailureCounter interface {
	IncPersistenceFailure(op string)
}

// KVPersister serializes snapshots as JSON into a KeyValueStore.
type KVPersister struct {
	kv       KeyValueStore
	logg     *logger.Logger
	failures FailureCounter
}

// NewKVPersister wraps kv. logg and failures may be nil.
func NewKVPersister(kv KeyValueStore, logg *logger.Logger, failures FailureCounter) *KVPersister {
	if logg == nil {
		logg = logger.Nop()
	}
	return &KVPersister{kv: kv, logg: logg, failures: failures}
}

func (p *KVPersister) Load(ctx context.Context, key string) Snapshot {
	payload, found, err := p.kv.Get(ctx, key)
	if err != nil {
		p.fail(ctx, "load", key, err)
		return Snapshot{}
	}
	if !found {
		return Snapshot{}
	}
	snapshot, err := DecodeSnapshot(payload)
	if err != nil {
		p.fail(ctx, "decode", key, err)
		return Snapshot{}
	}
	return snapshot
}

func (p *KVPersister) Save(ctx context.Context, key string, snapshot Snapshot) {
	payload, err := EncodeSnapshot(snapshot)
	if err != nil {
		p.fail(ctx, "encode", key, err)
		return
	}
	if err := p.kv.Put(ctx, key, payload); err != nil {
		p.fail(ctx, "save", key, err)
	}
}

func (p *KVPersister) fail(ctx context.Context, op, key string, err error) {
	if p.failures != nil {
		p.failures.IncPersistenceFailure(op)
	}
	ctx = p.logg.WithFields(ctx, map[string]any{
		"op":          op,
		"storage_key": key,
		"error":       err.Error(),
	})
	p.logg.Warn(ctx, "cart.persistence.failed")
}

// EncodeSnapshot renders the persisted blob.
func EncodeSnapshot(snapshot Snapshot) ([]byte, error) {
	if snapshot.Items == nil {
		snapshot.Items = []Line{}
	}
	return json.Marshal(snapshot)
}

// DecodeSnapshot parses a blob, rejecting shapes a Store could not have
// produced.
func DecodeSnapshot(payload []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode cart snapshot: %w", err)
	}
	if err := snapshot.validate(); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

var errMalformedSnapshot = errors.New("malformed cart snapshot")

func (s Snapshot) validate() error {
	seen := make(map[string]struct{}, len(s.Items))
	for _, line := range s.Items {
		if line.ProductID == "" {
			return fmt.Errorf("%w: line without product id", errMalformedSnapshot)
		}
		if _, dup := seen[line.ProductID]; dup {
			return fmt.Errorf("%w: duplicate line %q", errMalformedSnapshot, line.ProductID)
		}
		seen[line.ProductID] = struct{}{}
		if line.Quantity < 1 {
			return fmt.Errorf("%w: line %q has quantity %d", errMalformedSnapshot, line.ProductID, line.Quantity)
		}
		if line.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: line %q has a negative price", errMalformedSnapshot, line.ProductID)
		}
	}
	if s.Promotion != nil && (!s.Promotion.Kind.Valid() || s.Promotion.Code == "") {
		return fmt.Errorf("%w: invalid promotion", errMalformedSnapshot)
	}
	return nil
}

// MemoryStore is a process-local KeyValueStore.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	payload, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), payload...), true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), payload...)
	return nil
}
