package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mariagarzap/festeja-backend/pkg/enums"
)

// BookingLineItem captures the snapshot of each booked item within an order.
// It references the catalog item by (item_id, item_type) only; the join to
// availability rows happens at query time.
type BookingLineItem struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index"`
	ItemID         uuid.UUID      `gorm:"column:item_id;type:uuid;not null;index:idx_booking_line_item"`
	ItemType       enums.ItemType `gorm:"column:item_type;type:text;not null;index:idx_booking_line_item"`
	ItemName       string         `gorm:"column:item_name;not null"`
	Qty            int            `gorm:"column:qty;not null"`
	UnitPriceCents int            `gorm:"column:unit_price_cents;not null;default:0"`
	TotalCents     int            `gorm:"column:total_cents;not null;default:0"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
}
