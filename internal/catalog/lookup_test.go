package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mariagarzap/festeja-backend/pkg/db/models"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
)

func TestResolveItemNamePerCatalog(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	resolver := NewNameResolver(db)
	ctx := context.Background()

	businessID := uuid.New()
	theme := models.Theme{ID: uuid.New(), BusinessID: businessID, Name: "Tropical Luau"}
	rental := models.RentalItem{ID: uuid.New(), BusinessID: businessID, Name: "Folding Chair"}
	plate := models.Plate{ID: uuid.New(), BusinessID: businessID, Name: "Paella Valenciana"}
	dish := models.Dish{ID: uuid.New(), BusinessID: businessID, Name: "Churros"}
	for _, seed := range []any{&theme, &rental, &plate, &dish} {
		if err := db.Create(seed).Error; err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}

	tests := []struct {
		itemID   uuid.UUID
		itemType enums.ItemType
		want     string
	}{
		{theme.ID, enums.ItemTypeTheme, "Tropical Luau"},
		{rental.ID, enums.ItemTypeInventory, "Folding Chair"},
		{plate.ID, enums.ItemTypePlate, "Paella Valenciana"},
		{dish.ID, enums.ItemTypeDish, "Churros"},
	}
	for _, tt := range tests {
		name, found, err := resolver.ResolveItemName(ctx, tt.itemID, tt.itemType)
		if err != nil {
			t.Fatalf("resolve %s: %v", tt.itemType, err)
		}
		if !found {
			t.Fatalf("expected %s to be found", tt.itemType)
		}
		if name != tt.want {
			t.Fatalf("expected name %q, got %q", tt.want, name)
		}
	}
}

func TestResolveItemNameMissingIsNotAnError(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	resolver := NewNameResolver(db)

	name, found, err := resolver.ResolveItemName(context.Background(), uuid.New(), enums.ItemTypeTheme)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if found || name != "" {
		t.Fatalf("expected missing item, got %q found=%v", name, found)
	}
}

func TestResolveItemNameUnknownTypeIsNotFound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	resolver := NewNameResolver(db)

	_, found, err := resolver.ResolveItemName(context.Background(), uuid.New(), enums.ItemType("balloon"))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if found {
		t.Fatalf("expected unknown type to resolve to not found")
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Theme{}, &models.RentalItem{}, &models.Plate{}, &models.Dish{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
