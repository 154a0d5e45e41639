package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariagarzap/festeja-backend/pkg/db/models"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
)

// NameResolver resolves the display name of a bookable item from whichever
// catalog table owns it. The availability engine only needs names for
// notification copy; the catalogs' CRUD lives elsewhere.
type NameResolver interface {
	ResolveItemName(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) (string, bool, error)
}

type resolverImpl struct {
	db *gorm.DB
}

// NewNameResolver returns a resolver bound to the provided database.
func NewNameResolver(db *gorm.DB) NameResolver {
	return &resolverImpl{db: db}
}

// ResolveItemName returns the item name and whether the item exists. Unknown
// ids are not an error; the caller falls back to whatever name it has.
func (r *resolverImpl) ResolveItemName(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) (string, bool, error) {
	var model any
	switch itemType {
	case enums.ItemTypeTheme:
		model = &models.Theme{}
	case enums.ItemTypeInventory:
		model = &models.RentalItem{}
	case enums.ItemTypePlate:
		model = &models.Plate{}
	case enums.ItemTypeDish:
		model = &models.Dish{}
	default:
		return "", false, nil
	}

	var name string
	err := r.db.WithContext(ctx).
		Model(model).
		Select("name").
		Where("id = ?", itemID).
		Take(&name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}
