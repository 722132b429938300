package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleConsumer Role = "consumer"
	RoleFarmer   Role = "farmer"
	RoleVendor   Role = "vendor"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	FirebaseUID string    `gorm:"column:firebase_uid;size:128;uniqueIndex;not null"`
	FirstName   string    `gorm:"column:first_name;size:120"`
	LastName    string    `gorm:"column:last_name;size:120"`
	Email       string    `gorm:"column:email;size:255"`
	Phone       string    `gorm:"column:phone;size:32"`
	Role        Role      `gorm:"column:role;size:16;not null;default:consumer"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
