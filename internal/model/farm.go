package model

import "time"

type Farm struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	OwnerID   uint64    `gorm:"column:owner_id;index;not null"`
	Name      string    `gorm:"column:name;size:255;not null"`
	Location  string    `gorm:"column:location;size:255"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Farm) TableName() string {
	return "farms"
}
