package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mariagarzap/festeja-backend/pkg/enums"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

// StockSubscription records a client's standing request to be told when an
// item comes back in stock. One row per (user_id, item_id, item_type);
// re-subscribing re-arms an already-notified row instead of duplicating it.
type StockSubscription struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	UserID       uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_stock_subscription_key,priority:1"`
	ItemID       uuid.UUID      `gorm:"column:item_id;type:uuid;not null;uniqueIndex:idx_stock_subscription_key,priority:2"`
	ItemType     enums.ItemType `gorm:"column:item_type;type:text;not null;uniqueIndex:idx_stock_subscription_key,priority:3"`
	ItemName     string         `gorm:"column:item_name;not null"`
	BusinessID   uuid.UUID      `gorm:"column:business_id;type:uuid;not null"`
	RequestedDay *types.Date    `gorm:"column:requested_day;type:date"`
	Notified     bool           `gorm:"column:notified;not null;default:false"`
	NotifiedAt   *time.Time     `gorm:"column:notified_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
}
