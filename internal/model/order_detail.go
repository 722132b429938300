package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferStatusPending   OfferStatus = "pending"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
	OfferStatusConfirmed OfferStatus = "confirmed"
	OfferStatusCancelled OfferStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s OfferStatus) Terminal() bool {
	switch s {
	case OfferStatusConfirmed, OfferStatusRejected, OfferStatusCancelled:
		return true
	}
	return false
}

// OrderDetail is a farm's offer against a pre-order. A farm offers at most
// once per pre-order; the pair is unique in storage.
type OrderDetail struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement"`
	PreOrderID     uint64          `gorm:"column:pre_order_id;not null;uniqueIndex:uk_order_details_pre_order_farm,priority:1"`
	FarmID         uint64          `gorm:"column:farm_id;not null;index;uniqueIndex:uk_order_details_pre_order_farm,priority:2"`
	ProductID      uint64          `gorm:"column:product_id;index"`
	CropID         *uint64         `gorm:"column:crop_id;index"`
	MarketSupplyID *uint64         `gorm:"column:market_supply_id;index"`
	FulfilledQty   decimal.Decimal `gorm:"column:fulfilled_qty;type:decimal(12,2);not null;default:0"`
	Description    string          `gorm:"column:description;size:255"`
	OfferStatus    OfferStatus     `gorm:"column:offer_status;size:16;not null;default:pending;index"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
}

func (OrderDetail) TableName() string {
	return "order_details"
}
