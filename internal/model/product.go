package model

import "time"

const DefaultUnit = "kg"

type Product struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID     uint64    `gorm:"column:owner_id;index;not null"`
	Name        string    `gorm:"column:name;size:120;not null"`
	Unit        string    `gorm:"column:unit;size:16;not null;default:kg"`
	Image       *string   `gorm:"column:image;size:512"`
	Description string    `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

// UnitOrDefault falls back to kilograms for legacy rows without a unit.
func (p Product) UnitOrDefault() string {
	if p.Unit == "" {
		return DefaultUnit
	}
	return p.Unit
}
