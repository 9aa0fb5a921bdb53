package cart

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SnapshotRepository keeps cart snapshots in the cart_snapshots table.
type SnapshotRepository struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewSnapshotRepository binds the repository; ttl <= 0 never expires rows.
func NewSnapshotRepository(db *gorm.DB, ttl time.Duration) *SnapshotRepository {
	return &SnapshotRepository{db: db, ttl: ttl, now: time.Now}
}

// Get returns the unexpired snapshot stored under cartID.
func (r *SnapshotRepository) Get(ctx context.Context, cartID string) ([]byte, bool, error) {
	var row models.CartSnapshot
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Where("expires_at IS NULL OR expires_at > ?", r.now().UTC()).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(row.Payload), true, nil
}

// Put upserts the snapshot and pushes its expiry forward.
func (r *SnapshotRepository) Put(ctx context.Context, cartID string, payload []byte) error {
	now := r.now().UTC()
	row := models.CartSnapshot{
		CartID:    cartID,
		Payload:   string(payload),
		UpdatedAt: now,
	}
	if r.ttl > 0 {
		expires := now.Add(r.ttl)
		row.ExpiresAt = &expires
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "expires_at", "updated_at"}),
	}).Create(&row).Error
}

// PurgeExpired deletes snapshots whose expiry has passed.
func (r *SnapshotRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", r.now().UTC()).
		Delete(&models.CartSnapshot{})
	return res.RowsAffected, res.Error
}
