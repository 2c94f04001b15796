package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Cart stores a shopper's cart with its items serialised as JSON
type Cart struct {
	ID        string         `gorm:"primaryKey;type:text"`
	Items     datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime:false"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
}

func (Cart) TableName() string {
	return "carts"
}
