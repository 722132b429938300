package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketSupply is the leftover of a confirmed crop offered for ad-hoc purchase.
// AvailableQty only decreases after creation.
type MarketSupply struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"`
	FarmID       uint64          `gorm:"column:farm_id;index;not null"`
	CropID       uint64          `gorm:"column:crop_id;uniqueIndex;not null"`
	ProductID    uint64          `gorm:"column:product_id;index;not null"`
	AvailableQty decimal.Decimal `gorm:"column:available_qty;type:decimal(12,2);not null;default:0"`
	Unit         string          `gorm:"column:unit;size:16;not null;default:kg"`
	Availability time.Time       `gorm:"column:availability;not null"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
}

func (MarketSupply) TableName() string {
	return "market_supplies"
}
