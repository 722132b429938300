package model

import "time"

type Vendor struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID   uint64    `gorm:"column:owner_id;index;not null"`
	Name      string    `gorm:"column:name;size:255;not null"`
	Address   string    `gorm:"column:address;size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Vendor) TableName() string {
	return "vendors"
}
