package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Promotion is a redeemable discount code.
type Promotion struct {
	ID        uint            `gorm:"column:id;primaryKey;autoIncrement"`
	Code      string          `gorm:"column:code;not null;uniqueIndex"`
	Kind      string          `gorm:"column:kind;not null"`
	Value     decimal.Decimal `gorm:"column:value;type:numeric(12,2);not null"`
	Active    bool            `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Promotion) TableName() string {
	return "promotions"
}
