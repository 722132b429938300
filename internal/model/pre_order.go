package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// QtyScale is the number of fractional digits every quantity column keeps.
const QtyScale = 2

type PreOrderStatus string

const (
	PreOrderStatusPending            PreOrderStatus = "pending"
	PreOrderStatusPartiallyFulfilled PreOrderStatus = "partially_fulfilled"
	PreOrderStatusFulfilled          PreOrderStatus = "fulfilled"
	PreOrderStatusCancelled          PreOrderStatus = "cancelled"
)

type PreOrder struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement"`
	UserID       uint64          `gorm:"column:user_id;index;not null"`
	ProductID    uint64          `gorm:"column:product_id;index;not null"`
	Qty          decimal.Decimal `gorm:"column:qty;type:decimal(12,2);not null"`
	Location     string          `gorm:"column:location;size:255"`
	Note         string          `gorm:"column:note;type:text"`
	DeliveryDate *time.Time      `gorm:"column:delivery_date"`
	Status       PreOrderStatus  `gorm:"column:status;size:32;not null;default:pending;index"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
}

func (PreOrder) TableName() string {
	return "pre_orders"
}
