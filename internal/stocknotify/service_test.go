package stocknotify

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/mariagarzap/festeja-backend/internal/catalog"
	"github.com/mariagarzap/festeja-backend/pkg/db/models"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
	pkgerrors "github.com/mariagarzap/festeja-backend/pkg/errors"
)

func TestSubscribeBackfillsItemNameFromCatalog(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.AutoMigrate(&models.Plate{}); err != nil {
		t.Fatalf("migrate plates: %v", err)
	}
	plate := models.Plate{ID: uuid.New(), BusinessID: uuid.New(), Name: "Fiesta Platter"}
	if err := db.Create(&plate).Error; err != nil {
		t.Fatalf("seed plate: %v", err)
	}

	svc, err := NewService(NewRegistry(db), catalog.NewNameResolver(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	sub, err := svc.Subscribe(context.Background(), SubscribeParams{
		UserID:     uuid.New(),
		ItemID:     plate.ID,
		ItemType:   enums.ItemTypePlate,
		BusinessID: plate.BusinessID,
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sub.ItemName != "Fiesta Platter" {
		t.Fatalf("expected backfilled name, got %q", sub.ItemName)
	}
}

func TestSubscribeRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	svc, err := NewService(NewRegistry(newTestDB(t)), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	_, err = svc.Subscribe(ctx, SubscribeParams{ItemID: uuid.New(), ItemType: enums.ItemTypeTheme})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing user, got %v", err)
	}

	_, err = svc.Subscribe(ctx, SubscribeParams{UserID: uuid.New(), ItemID: uuid.New(), ItemType: "balloon"})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad item type, got %v", err)
	}
}

func TestUnsubscribeMissingReturnsNotFound(t *testing.T) {
	t.Parallel()

	svc, err := NewService(NewRegistry(newTestDB(t)), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.Unsubscribe(context.Background(), uuid.New(), uuid.New(), enums.ItemTypeDish)
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
