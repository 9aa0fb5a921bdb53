package promotions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/db/models"
	"gorm.io/gorm"
)

// Repository looks promotions up in the promotions table.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a repository to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Lookup matches active promotions case-insensitively.
func (r *Repository) Lookup(ctx context.Context, code string) (*Promotion, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, nil
	}

	var row models.Promotion
	err := r.db.WithContext(ctx).
		Where("LOWER(code) = ? AND active = ?", strings.ToLower(normalized), true).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup promotion: %w", err)
	}

	kind := Kind(row.Kind)
	if !kind.Valid() {
		return nil, fmt.Errorf("promotion %q has unknown kind %q", row.Code, row.Kind)
	}
	return &Promotion{Code: row.Code, Kind: kind, Value: row.Value}, nil
}
