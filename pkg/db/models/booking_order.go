package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mariagarzap/festeja-backend/pkg/enums"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

// BookingOrder is a client booking against a vendor for a single event day.
// The availability engine never mutates orders; it only aggregates their line
// items while an order sits in an active status.
type BookingOrder struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID uuid.UUID         `gorm:"column:business_id;type:uuid;not null;index"`
	ClientID   uuid.UUID         `gorm:"column:client_id;type:uuid;not null;index"`
	EventDay   types.Date        `gorm:"column:event_day;type:date;not null;index"`
	Status     enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	TotalCents int               `gorm:"column:total_cents;not null;default:0"`
	Items      []BookingLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
