package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mariagarzap/festeja-backend/pkg/db/models"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

// Repository exposes persistence helpers for per-day item availability. The
// row keyed by (item_id, item_type, day) is the single mutable resource of
// the engine; every quantity mutation below is a single guarded UPDATE so
// concurrent writers cannot oversell through interleaved read-modify-write.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Find(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date) (*models.ItemAvailability, error)
	FindRange(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, start, end types.Date) ([]models.ItemAvailability, error)
	FindByItem(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) ([]models.ItemAvailability, error)
	FindByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.ItemAvailability, error)
	Upsert(ctx context.Context, record *models.ItemAvailability) (*models.ItemAvailability, error)
	DecrementQty(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date, qty int) error
	IncrementQty(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date, qty int) (bool, error)
	DeleteOne(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date) (bool, error)
	DeleteAll(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an availability repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Find(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date) (*models.ItemAvailability, error) {
	var record models.ItemAvailability
	err := r.keyed(r.db.WithContext(ctx), itemID, itemType).
		Where("day = ?", day).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repositoryImpl) FindRange(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, start, end types.Date) ([]models.ItemAvailability, error) {
	var records []models.ItemAvailability
	err := r.keyed(r.db.WithContext(ctx), itemID, itemType).
		Where("day >= ? AND day <= ?", start, end).
		Order("day ASC").
		Find(&records).Error
	return records, err
}

func (r *repositoryImpl) FindByItem(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) ([]models.ItemAvailability, error) {
	var records []models.ItemAvailability
	err := r.keyed(r.db.WithContext(ctx), itemID, itemType).
		Order("day ASC").
		Find(&records).Error
	return records, err
}

func (r *repositoryImpl) FindByBusiness(ctx context.Context, businessID uuid.UUID) ([]models.ItemAvailability, error) {
	var records []models.ItemAvailability
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("day ASC").
		Find(&records).Error
	return records, err
}

// Upsert inserts the record or, when the natural key already exists, replaces
// capacity, flag and price override in place. The stored row is returned.
func (r *repositoryImpl) Upsert(ctx context.Context, record *models.ItemAvailability) (*models.ItemAvailability, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "item_id"}, {Name: "item_type"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"business_id", "available_qty", "is_available", "price_override", "updated_at",
			}),
		}).
		Create(record).Error
	if err != nil {
		return nil, err
	}
	return r.Find(ctx, record.ItemID, record.ItemType, record.Day)
}

// DecrementQty subtracts qty from the day's capacity, clamping at zero and
// dropping the availability flag once exhausted. A missing row is a no-op.
func (r *repositoryImpl) DecrementQty(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date, qty int) error {
	now := time.Now().UTC()
	db := r.db.WithContext(ctx)

	guarded := r.keyed(db.Model(&models.ItemAvailability{}), itemID, itemType).
		Where("day = ?", day).
		Where("available_qty >= ?", qty).
		UpdateColumns(map[string]any{
			"available_qty": gorm.Expr("available_qty - ?", qty),
			"updated_at":    now,
		})
	if guarded.Error != nil {
		return guarded.Error
	}
	if guarded.RowsAffected == 0 {
		clamp := r.keyed(db.Model(&models.ItemAvailability{}), itemID, itemType).
			Where("day = ?", day).
			Where("available_qty > 0").
			UpdateColumns(map[string]any{
				"available_qty": 0,
				"updated_at":    now,
			})
		if clamp.Error != nil {
			return clamp.Error
		}
	}

	exhausted := r.keyed(db.Model(&models.ItemAvailability{}), itemID, itemType).
		Where("day = ?", day).
		Where("available_qty = 0").
		Where("is_available = ?", true).
		UpdateColumns(map[string]any{
			"is_available": false,
			"updated_at":   now,
		})
	return exhausted.Error
}

// IncrementQty adds qty back to the day's capacity and restores the
// availability flag. Returns false when no row exists for the key.
func (r *repositoryImpl) IncrementQty(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date, qty int) (bool, error) {
	result := r.keyed(r.db.WithContext(ctx).Model(&models.ItemAvailability{}), itemID, itemType).
		Where("day = ?", day).
		UpdateColumns(map[string]any{
			"available_qty": gorm.Expr("available_qty + ?", qty),
			"is_available":  true,
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) DeleteOne(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date) (bool, error) {
	result := r.keyed(r.db.WithContext(ctx), itemID, itemType).
		Where("day = ?", day).
		Delete(&models.ItemAvailability{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) DeleteAll(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) (int64, error) {
	result := r.keyed(r.db.WithContext(ctx), itemID, itemType).
		Delete(&models.ItemAvailability{})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) keyed(db *gorm.DB, itemID uuid.UUID, itemType enums.ItemType) *gorm.DB {
	return db.Where("item_id = ? AND item_type = ?", itemID, itemType)
}
