package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mariagarzap/festeja-backend/pkg/db/models"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

func TestCountBookedSumsActiveOrdersOnly(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	itemID := uuid.New()
	day := types.NewDate(2025, time.June, 1)

	seedOrder(t, db, day, enums.OrderStatusConfirmed, itemID, 2)
	seedOrder(t, db, day, enums.OrderStatusPreparing, itemID, 3)
	seedOrder(t, db, day, enums.OrderStatusPending, itemID, 10)
	seedOrder(t, db, day, enums.OrderStatusCanceled, itemID, 10)
	seedOrder(t, db, day, enums.OrderStatusDelivered, itemID, 10)

	booked, err := ledger.CountBooked(ctx, itemID, enums.ItemTypePlate, day)
	require.NoError(t, err)
	assert.Equal(t, 5, booked)
}

func TestCountBookedScopesByItemAndDay(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	itemID := uuid.New()
	otherItem := uuid.New()
	day := types.NewDate(2025, time.June, 1)
	otherDay := day.AddDays(1)

	seedOrder(t, db, day, enums.OrderStatusConfirmed, itemID, 4)
	seedOrder(t, db, otherDay, enums.OrderStatusConfirmed, itemID, 7)
	seedOrder(t, db, day, enums.OrderStatusConfirmed, otherItem, 9)

	booked, err := ledger.CountBooked(ctx, itemID, enums.ItemTypePlate, day)
	require.NoError(t, err)
	assert.Equal(t, 4, booked)
}

func TestCountBookedMissingAggregateIsZero(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ledger := NewLedger(db)

	booked, err := ledger.CountBooked(context.Background(), uuid.New(), enums.ItemTypeTheme, types.NewDate(2025, time.June, 1))
	require.NoError(t, err)
	assert.Zero(t, booked)
}

func TestCountBookedDistinguishesItemType(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ledger := NewLedger(db)
	ctx := context.Background()

	itemID := uuid.New()
	day := types.NewDate(2025, time.June, 1)

	order := models.BookingOrder{
		ID:         uuid.New(),
		BusinessID: uuid.New(),
		ClientID:   uuid.New(),
		EventDay:   day,
		Status:     enums.OrderStatusConfirmed,
	}
	require.NoError(t, db.Create(&order).Error)
	for _, itemType := range []enums.ItemType{enums.ItemTypePlate, enums.ItemTypeDish} {
		line := models.BookingLineItem{
			ID:       uuid.New(),
			OrderID:  order.ID,
			ItemID:   itemID,
			ItemType: itemType,
			ItemName: "tasting menu",
			Qty:      3,
		}
		require.NoError(t, db.Create(&line).Error)
	}

	booked, err := ledger.CountBooked(ctx, itemID, enums.ItemTypeDish, day)
	require.NoError(t, err)
	assert.Equal(t, 3, booked)
}

func seedOrder(t *testing.T, db *gorm.DB, day types.Date, status enums.OrderStatus, itemID uuid.UUID, qty int) {
	t.Helper()
	order := models.BookingOrder{
		ID:         uuid.New(),
		BusinessID: uuid.New(),
		ClientID:   uuid.New(),
		EventDay:   day,
		Status:     status,
	}
	require.NoError(t, db.Create(&order).Error)
	line := models.BookingLineItem{
		ID:       uuid.New(),
		OrderID:  order.ID,
		ItemID:   itemID,
		ItemType: enums.ItemTypePlate,
		ItemName: "party plate",
		Qty:      qty,
	}
	require.NoError(t, db.Create(&line).Error)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:booking_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.BookingOrder{}, &models.BookingLineItem{}))
	return db
}
