package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CropStatus int8

const (
	CropStatusPlanting  CropStatus = 0
	CropStatusHarvested CropStatus = 1
)

// Crop is a farm's produce batch. It is materialized when a vendor confirms
// the farm's offer and is sized to the full offered quantity.
type Crop struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement"`
	FarmID      uint64          `gorm:"column:farm_id;index;not null"`
	ProductID   uint64          `gorm:"column:product_id;index;not null"`
	Name        string          `gorm:"column:name;size:255;not null"`
	Qty         decimal.Decimal `gorm:"column:qty;type:decimal(12,2);not null;default:0"`
	Image       *string         `gorm:"column:image;size:512"`
	Status      CropStatus      `gorm:"column:status;not null;default:0"`
	HarvestDate *time.Time      `gorm:"column:harvest_date"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"`
}

func (Crop) TableName() string {
	return "crops"
}
