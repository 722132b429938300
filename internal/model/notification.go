package model

import "time"

type NotificationType string

const (
	NotificationTypePreOrder   NotificationType = "pre_order"
	NotificationTypeAcceptance NotificationType = "acceptance"
	NotificationTypeRejection  NotificationType = "rejection"
	NotificationTypeOffer      NotificationType = "offer"
)

// Notification rows are immutable apart from ReadStatus. At most one row
// exists per (pre_order_id, recipient_id, type).
type Notification struct {
	ID          uint64           `gorm:"primaryKey;autoIncrement"`
	RecipientID uint64           `gorm:"column:recipient_id;not null;index;uniqueIndex:uk_notifications_dedup,priority:2"`
	ActorID     uint64           `gorm:"column:actor_id;not null"`
	FarmID      *uint64          `gorm:"column:farm_id;index"`
	PreOrderID  uint64           `gorm:"column:pre_order_id;not null;uniqueIndex:uk_notifications_dedup,priority:1"`
	ReferenceID *uint64          `gorm:"column:reference_id;index"`
	Type        NotificationType `gorm:"column:type;size:32;not null;uniqueIndex:uk_notifications_dedup,priority:3"`
	Message     string           `gorm:"column:message;type:text;not null"`
	ReadStatus  bool             `gorm:"column:read_status;not null;default:false"`
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
}

func (Notification) TableName() string {
	return "notifications"
}
