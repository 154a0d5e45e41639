package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mariagarzap/festeja-backend/pkg/enums"
)

// ClientNotification stores in-app notification payloads scoped to users.
// Rows are append-only; only the read marker is mutated afterwards.
type ClientNotification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Type      enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Message   string                 `gorm:"column:message;not null"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
