package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mariagarzap/festeja-backend/pkg/enums"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

// ItemAvailability tracks, per bookable item and calendar day, how many units a
// vendor will accept bookings for. One row per (item_id, item_type, day); the
// row is the sole authority for date-scoped stock.
type ItemAvailability struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID    uuid.UUID        `gorm:"column:business_id;type:uuid;not null;index"`
	ItemID        uuid.UUID        `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_item_availability_key,priority:1"`
	ItemType      enums.ItemType   `gorm:"column:item_type;type:text;not null;uniqueIndex:idx_item_availability_key,priority:2"`
	Day           types.Date       `gorm:"column:day;type:date;not null;uniqueIndex:idx_item_availability_key,priority:3"`
	AvailableQty  int              `gorm:"column:available_qty;not null;default:0"`
	IsAvailable   bool             `gorm:"column:is_available;not null;default:true"`
	PriceOverride *decimal.Decimal `gorm:"column:price_override;type:numeric(12,2)"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// Bookable reports whether the day accepts any bookings at all. A zero
// quantity is treated as exhausted regardless of the flag.
func (a ItemAvailability) Bookable() bool {
	return a.IsAvailable && a.AvailableQty > 0
}
