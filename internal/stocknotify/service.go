package stocknotify

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mariagarzap/festeja-backend/internal/catalog"
	"github.com/mariagarzap/festeja-backend/pkg/db/models"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
	pkgerrors "github.com/mariagarzap/festeja-backend/pkg/errors"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

// Service exposes the client-facing subscription operations.
type Service interface {
	Subscribe(ctx context.Context, params SubscribeParams) (*Subscription, error)
	Unsubscribe(ctx context.Context, userID, itemID uuid.UUID, itemType enums.ItemType) error
	IsSubscribed(ctx context.Context, userID, itemID uuid.UUID, itemType enums.ItemType) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]Subscription, error)
}

// Subscription is the API view of a stored subscription row.
type Subscription struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"userId"`
	ItemID       uuid.UUID      `json:"itemId"`
	ItemType     enums.ItemType `json:"itemType"`
	ItemName     string         `json:"itemName"`
	BusinessID   uuid.UUID      `json:"businessId"`
	RequestedDay *types.Date    `json:"requestedDate,omitempty"`
	Notified     bool           `json:"notified"`
	NotifiedAt   *time.Time     `json:"notifiedAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

type service struct {
	registry Registry
	names    catalog.NameResolver
}

// NewService wires the subscription service.
func NewService(registry Registry, names catalog.NameResolver) (Service, error) {
	if registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscription registry required")
	}
	return &service{registry: registry, names: names}, nil
}

// Subscribe registers (or re-arms) the caller's interest in the item. An
// empty item name is backfilled from the catalog so dispatch never has to
// chase the name later.
func (s *service) Subscribe(ctx context.Context, params SubscribeParams) (*Subscription, error) {
	if err := validateSubscriptionKey(params.UserID, params.ItemID, params.ItemType); err != nil {
		return nil, err
	}

	if params.ItemName == "" && s.names != nil {
		name, found, err := s.names.ResolveItemName(ctx, params.ItemID, params.ItemType)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve item name")
		}
		if found {
			params.ItemName = name
		}
	}

	stored, err := s.registry.Subscribe(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save subscription")
	}
	view := subscriptionFromModel(*stored)
	return &view, nil
}

func (s *service) Unsubscribe(ctx context.Context, userID, itemID uuid.UUID, itemType enums.ItemType) error {
	if err := validateSubscriptionKey(userID, itemID, itemType); err != nil {
		return err
	}
	removed, err := s.registry.Unsubscribe(ctx, userID, itemID, itemType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove subscription")
	}
	if !removed {
		return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	return nil
}

func (s *service) IsSubscribed(ctx context.Context, userID, itemID uuid.UUID, itemType enums.ItemType) (bool, error) {
	if err := validateSubscriptionKey(userID, itemID, itemType); err != nil {
		return false, err
	}
	subscribed, err := s.registry.IsSubscribed(ctx, userID, itemID, itemType)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check subscription")
	}
	return subscribed, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Subscription, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.registry.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}
	views := make([]Subscription, 0, len(rows))
	for _, row := range rows {
		views = append(views, subscriptionFromModel(row))
	}
	return views, nil
}

func validateSubscriptionKey(userID, itemID uuid.UUID, itemType enums.ItemType) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if !itemType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid item type")
	}
	return nil
}

func subscriptionFromModel(row models.StockSubscription) Subscription {
	return Subscription{
		ID:           row.ID,
		UserID:       row.UserID,
		ItemID:       row.ItemID,
		ItemType:     row.ItemType,
		ItemName:     row.ItemName,
		BusinessID:   row.BusinessID,
		RequestedDay: row.RequestedDay,
		Notified:     row.Notified,
		NotifiedAt:   row.NotifiedAt,
		CreatedAt:    row.CreatedAt,
	}
}
