package stocknotify

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

// Registry persists back-in-stock subscriptions. One row per
// (user, item, item type); subscribing again re-arms a row that already
// fired instead of inserting a duplicate.
type Registry interface {
	WithTx(tx *gorm.DB) Registry
	Subscribe(ctx context.Context, params SubscribeParams) (*models.StockSubscription, error)
	Unsubscribe(ctx context.Context, userID, itemID uuid.UUID, itemType enums.ItemType) (bool, error)
	IsSubscribed(ctx context.Context, userID, itemID uuid.UUID, itemType enums.ItemType) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.StockSubscription, error)
	ListPendingForItem(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) ([]models.StockSubscription, error)
	MarkNotified(ctx context.Context, subscriptionID uuid.UUID, now time.Time) (bool, error)
}

// SubscribeParams carries a subscription request.
type SubscribeParams struct {
	UserID       uuid.UUID
	ItemID       uuid.UUID
	ItemType     enums.ItemType
	ItemName     string
	BusinessID   uuid.UUID
	RequestedDay *types.Date
}

type registryImpl struct {
	db *gorm.DB
}

// NewRegistry returns a subscription registry bound to the provided database.
func NewRegistry(db *gorm.DB) Registry {
	return &registryImpl{db: db}
}

func (r *registryImpl) WithTx(tx *gorm.DB) Registry {
	if tx == nil {
		return r
	}
	return &registryImpl{db: tx}
}

func (r *registryImpl) Subscribe(ctx context.Context, params SubscribeParams) (*models.StockSubscription, error) {
	row := &models.StockSubscription{
		ID:           uuid.New(),
		UserID:       params.UserID,
		ItemID:       params.ItemID,
		ItemType:     params.ItemType,
		ItemName:     params.ItemName,
		BusinessID:   params.BusinessID,
		RequestedDay: params.RequestedDay,
		Notified:     false,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "item_id"}, {Name: "item_type"}},
		DoUpdates: clause.Assignments(map[string]any{
			"item_name":     params.ItemName,
			"business_id":   params.BusinessID,
			"requested_day": params.RequestedDay,
			"notified":      false,
			"notified_at":   nil,
		}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}

	var stored models.StockSubscription
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ? AND item_type = ?", params.UserID, params.ItemID, params.ItemType).
		Take(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *registryImpl) Unsubscribe(ctx context.Context, userID, itemID uuid.UUID, itemType enums.ItemType) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ? AND item_type = ?", userID, itemID, itemType).
		Delete(&models.StockSubscription{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *registryImpl) IsSubscribed(ctx context.Context, userID, itemID uuid.UUID, itemType enums.ItemType) (bool, error) {
	var row models.StockSubscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ? AND item_type = ?", userID, itemID, itemType).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *registryImpl) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.StockSubscription, error) {
	var rows []models.StockSubscription
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListPendingForItem returns subscribers still waiting on the item, oldest
// first so long-waiting clients are notified ahead of recent ones.
func (r *registryImpl) ListPendingForItem(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) ([]models.StockSubscription, error) {
	var rows []models.StockSubscription
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND item_type = ? AND notified = ?", itemID, itemType, false).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// MarkNotified flips the notified flag, guarded on notified = false so a
// concurrent dispatcher claiming the same subscriber loses cleanly.
func (r *registryImpl) MarkNotified(ctx context.Context, subscriptionID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.StockSubscription{}).
		Where("id = ? AND notified = ?", subscriptionID, false).
		UpdateColumns(map[string]any{
			"notified":    true,
			"notified_at": now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
