package models

import "time"

// CartSnapshot stores the serialized cart of one cart session.
type CartSnapshot struct {
	CartID    string     `gorm:"column:cart_id;primaryKey"`
	Payload   string     `gorm:"column:payload;type:text;not null"`
	ExpiresAt *time.Time `gorm:"column:expires_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
