package stocknotify

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mariagarzap/festeja-backend/pkg/db/models"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

func TestSubscribeIsIdempotentPerUserAndItem(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	registry := NewRegistry(db)
	ctx := context.Background()

	userID := uuid.New()
	itemID := uuid.New()

	first, err := registry.Subscribe(ctx, SubscribeParams{
		UserID:     userID,
		ItemID:     itemID,
		ItemType:   enums.ItemTypeTheme,
		ItemName:   "Pirate Cove",
		BusinessID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	day := types.NewDate(2025, time.June, 21)
	second, err := registry.Subscribe(ctx, SubscribeParams{
		UserID:       userID,
		ItemID:       itemID,
		ItemType:     enums.ItemTypeTheme,
		ItemName:     "Pirate Cove Deluxe",
		BusinessID:   first.BusinessID,
		RequestedDay: &day,
	})
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row, got %s and %s", first.ID, second.ID)
	}
	if second.ItemName != "Pirate Cove Deluxe" {
		t.Fatalf("expected refreshed item name, got %q", second.ItemName)
	}
	if second.RequestedDay == nil || !second.RequestedDay.Equal(day) {
		t.Fatalf("expected requested day %s, got %v", day, second.RequestedDay)
	}

	var count int64
	if err := db.Model(&models.StockSubscription{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one subscription row, got %d", count)
	}
}

func TestResubscribeReArmsNotifiedRow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	registry := NewRegistry(db)
	ctx := context.Background()

	userID := uuid.New()
	itemID := uuid.New()

	sub, err := registry.Subscribe(ctx, SubscribeParams{
		UserID:     userID,
		ItemID:     itemID,
		ItemType:   enums.ItemTypeDish,
		ItemName:   "Mole Poblano",
		BusinessID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	claimed, err := registry.MarkNotified(ctx, sub.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("mark notified: %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}

	rearmed, err := registry.Subscribe(ctx, SubscribeParams{
		UserID:     userID,
		ItemID:     itemID,
		ItemType:   enums.ItemTypeDish,
		ItemName:   "Mole Poblano",
		BusinessID: sub.BusinessID,
	})
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if rearmed.Notified {
		t.Fatal("expected resubscribe to reset notified flag")
	}
	if rearmed.NotifiedAt != nil {
		t.Fatal("expected resubscribe to clear notified timestamp")
	}
}

func TestMarkNotifiedClaimsOnlyOnce(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	registry := NewRegistry(db)
	ctx := context.Background()

	sub, err := registry.Subscribe(ctx, SubscribeParams{
		UserID:     uuid.New(),
		ItemID:     uuid.New(),
		ItemType:   enums.ItemTypePlate,
		ItemName:   "Taco Bar",
		BusinessID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	now := time.Now().UTC()
	claimed, err := registry.MarkNotified(ctx, sub.ID, now)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}

	claimed, err = registry.MarkNotified(ctx, sub.ID, now)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Fatal("expected second claim to lose")
	}
}

func TestListPendingExcludesNotifiedSubscribers(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	registry := NewRegistry(db)
	ctx := context.Background()

	itemID := uuid.New()
	businessID := uuid.New()

	waiting, err := registry.Subscribe(ctx, SubscribeParams{
		UserID:     uuid.New(),
		ItemID:     itemID,
		ItemType:   enums.ItemTypeInventory,
		ItemName:   "Bounce House",
		BusinessID: businessID,
	})
	if err != nil {
		t.Fatalf("subscribe waiting: %v", err)
	}
	done, err := registry.Subscribe(ctx, SubscribeParams{
		UserID:     uuid.New(),
		ItemID:     itemID,
		ItemType:   enums.ItemTypeInventory,
		ItemName:   "Bounce House",
		BusinessID: businessID,
	})
	if err != nil {
		t.Fatalf("subscribe done: %v", err)
	}
	if _, err := registry.MarkNotified(ctx, done.ID, time.Now().UTC()); err != nil {
		t.Fatalf("mark notified: %v", err)
	}

	pending, err := registry.ListPendingForItem(ctx, itemID, enums.ItemTypeInventory)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending subscriber, got %d", len(pending))
	}
	if pending[0].ID != waiting.ID {
		t.Fatalf("expected subscriber %s, got %s", waiting.ID, pending[0].ID)
	}
}

func TestUnsubscribeReportsRemoval(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	registry := NewRegistry(db)
	ctx := context.Background()

	userID := uuid.New()
	itemID := uuid.New()
	if _, err := registry.Subscribe(ctx, SubscribeParams{
		UserID:     userID,
		ItemID:     itemID,
		ItemType:   enums.ItemTypeTheme,
		ItemName:   "Dinosaur Park",
		BusinessID: uuid.New(),
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	removed, err := registry.Unsubscribe(ctx, userID, itemID, enums.ItemTypeTheme)
	if err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if !removed {
		t.Fatal("expected removal")
	}

	removed, err = registry.Unsubscribe(ctx, userID, itemID, enums.ItemTypeTheme)
	if err != nil {
		t.Fatalf("unsubscribe again: %v", err)
	}
	if removed {
		t.Fatal("expected second unsubscribe to be a no-op")
	}

	subscribed, err := registry.IsSubscribed(ctx, userID, itemID, enums.ItemTypeTheme)
	if err != nil {
		t.Fatalf("is subscribed: %v", err)
	}
	if subscribed {
		t.Fatal("expected subscription to be gone")
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stocknotify_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	tables := []any{
		&models.StockSubscription{},
		&models.ClientNotification{},
	}
	if err := db.AutoMigrate(tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
