package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront/internal/promotions"
	"github.com/angelmondragon/storefront/pkg/db/models"
)

type failingKV struct {
	getErr error
	putErr error
}

func (f failingKV) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, f.getErr
}

func (f failingKV) Put(context.Context, string, []byte) error {
	return f.putErr
}

type countingFailures struct {
	ops []string
}

func (c *countingFailures) IncPersistenceFailure(op string) {
	c.ops = append(c.ops, op)
}

func TestKVPersisterRoundTrip(t *testing.T) {
	kv := NewMemoryStore()
	persister := NewKVPersister(kv, nil, nil)
	ctx := context.Background()

	snapshot := Snapshot{
		Items: []Line{
			{ProductID: "a", Name: "A", UnitPrice: decimal.RequireFromString("19.99"), ImageURL: "https://img/a", Stock: intPtr(4), Quantity: 2},
			{ProductID: "b", Name: "B", UnitPrice: decimal.NewFromInt(5), Quantity: 1},
		},
		Promotion: &promotions.Promotion{Code: "SAVE5", Kind: promotions.KindFixed, Value: decimal.NewFromInt(5)},
	}
	persister.Save(ctx, "cart-1", snapshot)

	loaded := persister.Load(ctx, "cart-1")
	require.Len(t, loaded.Items, 2)
	require.Equal(t, "a", loaded.Items[0].ProductID)
	require.True(t, loaded.Items[0].UnitPrice.Equal(decimal.RequireFromString("19.99")))
	require.Equal(t, 4, *loaded.Items[0].Stock)
	require.Nil(t, loaded.Items[1].Stock)
	require.NotNil(t, loaded.Promotion)
	require.Equal(t, "SAVE5", loaded.Promotion.Code)
}

func TestKVPersisterLoadMissingIsEmpty(t *testing.T) {
	loaded := NewKVPersister(NewMemoryStore(), nil, nil).Load(context.Background(), "nobody")
	require.Empty(t, loaded.Items)
	require.Nil(t, loaded.Promotion)
}

func TestKVPersisterLoadCorruptIsEmpty(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"not json":       "{{{",
		"wrong shape":    `{"items":"nope"}`,
		"duplicate line": `{"items":[{"product_id":"a","quantity":1,"unit_price":"1"},{"product_id":"a","quantity":2,"unit_price":"1"}],"promotion":null}`,
		"zero quantity":  `{"items":[{"product_id":"a","quantity":0,"unit_price":"1"}],"promotion":null}`,
		"bad promo kind": `{"items":[],"promotion":{"code":"X","kind":"bogo","value":"1"}}`,
	}
	for name, blob := range cases {
		t.Run(name, func(t *testing.T) {
			kv := NewMemoryStore()
			require.NoError(t, kv.Put(ctx, "cart-1", []byte(blob)))
			failures := &countingFailures{}

			loaded := NewKVPersister(kv, nil, failures).Load(ctx, "cart-1")
			require.Empty(t, loaded.Items)
			require.Nil(t, loaded.Promotion)
			require.Equal(t, []string{"decode"}, failures.ops)
		})
	}
}

func TestKVPersisterFailsOpen(t *testing.T) {
	ctx := context.Background()
	failures := &countingFailures{}
	persister := NewKVPersister(failingKV{getErr: errors.New("read"), putErr: errors.New("write")}, nil, failures)

	loaded := persister.Load(ctx, "cart-1")
	require.Empty(t, loaded.Items)
	persister.Save(ctx, "cart-1", Snapshot{})
	require.Equal(t, []string{"load", "save"}, failures.ops)
}

func TestStoreSurvivesPersistenceFailure(t *testing.T) {
	persister := NewKVPersister(failingKV{getErr: errors.New("read"), putErr: errors.New("write")}, nil, nil)
	store, err := NewStore(context.Background(), "cart-1", Deps{Persister: persister, Catalog: promotions.DefaultCatalog()})
	require.NoError(t, err)

	store.AddItem(context.Background(), product("a", "1", nil), 2)
	require.Equal(t, 2, store.ItemCount())
}

func TestEncodeSnapshotEmptyCart(t *testing.T) {
	payload, err := EncodeSnapshot(Snapshot{})
	require.NoError(t, err)
	require.JSONEq(t, `{"items":[],"promotion":null}`, string(payload))
}

func newSnapshotDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&models.CartSnapshot{}))
	return conn
}

func TestSnapshotRepositoryUpsertAndExpiry(t *testing.T) {
	conn := newSnapshotDB(t)
	repo := NewSnapshotRepository(conn, time.Hour)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "cart-1", []byte(`{"items":[],"promotion":null}`)))
	require.NoError(t, repo.Put(ctx, "cart-1", []byte(`{"items":[{"product_id":"a","quantity":1,"unit_price":"1"}],"promotion":null}`)))

	payload, found, err := repo.Get(ctx, "cart-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Contains(t, string(payload), `"product_id":"a"`)

	var count int64
	require.NoError(t, conn.Model(&models.CartSnapshot{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	now = now.Add(2 * time.Hour)
	_, found, err = repo.Get(ctx, "cart-1")
	require.NoError(t, err)
	require.False(t, found)

	purged, err := repo.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, purged)
}

func TestSnapshotRepositoryBacksPersister(t *testing.T) {
	repo := NewSnapshotRepository(newSnapshotDB(t), 0)
	persister := NewKVPersister(repo, nil, nil)
	ctx := context.Background()

	persister.Save(ctx, "cart-1", Snapshot{Items: []Line{{ProductID: "a", UnitPrice: decimal.NewFromInt(2), Quantity: 3}}})
	loaded := persister.Load(ctx, "cart-1")
	require.Len(t, loaded.Items, 1)
	require.Equal(t, 3, loaded.Items[0].Quantity)
}
