package booking

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariagarzap/festeja-backend/pkg/db/models"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

// Ledger aggregates how many units of an item are committed to orders on a
// given day. The figure is derived from order line items on every call, never
// cached: bookings can change between availability reads.
type Ledger interface {
	CountBooked(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date) (int, error)
}

type ledgerImpl struct {
	db *gorm.DB
}

// NewLedger returns a booking ledger bound to the provided database.
func NewLedger(db *gorm.DB) Ledger {
	return &ledgerImpl{db: db}
}

// CountBooked sums line-item quantities for (item, day) across orders in an
// active status. A missing aggregate counts as zero.
func (l *ledgerImpl) CountBooked(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date) (int, error) {
	var total int64
	err := l.db.WithContext(ctx).
		Model(&models.BookingLineItem{}).
		Joins("JOIN booking_orders ON booking_orders.id = booking_line_items.order_id").
		Where("booking_line_items.item_id = ?", itemID).
		Where("booking_line_items.item_type = ?", itemType).
		Where("booking_orders.event_day = ?", day).
		Where("booking_orders.status IN ?", enums.ActiveOrderStatuses()).
		Select("COALESCE(SUM(booking_line_items.qty), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}
