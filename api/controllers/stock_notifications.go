package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mariagarzap/festeja-backend/api/middleware"
	"github.com/mariagarzap/festeja-backend/api/responses"
	"github.com/mariagarzap/festeja-backend/api/validators"
	"github.com/mariagarzap/festeja-backend/internal/stocknotify"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
	pkgerrors "github.com/mariagarzap/festeja-backend/pkg/errors"
	"github.com/mariagarzap/festeja-backend/pkg/logger"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

type subscribeRequest struct {
	ItemID        uuid.UUID   `json:"itemId" validate:"required"`
	ItemType      string      `json:"itemType" validate:"required"`
	ItemName      string      `json:"itemName,omitempty"`
	BusinessID    uuid.UUID   `json:"businessId" validate:"required"`
	RequestedDate *types.Date `json:"requestedDate,omitempty"`
}

// SubscribeStockNotification registers the caller for a back-in-stock alert.
func SubscribeStockNotification(svc stocknotify.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body subscribeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemType, err := enums.ParseItemType(body.ItemType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type"))
			return
		}

		sub, err := svc.Subscribe(r.Context(), stocknotify.SubscribeParams{
			UserID:       userID,
			ItemID:       body.ItemID,
			ItemType:     itemType,
			ItemName:     validators.SanitizeString(body.ItemName, 200),
			BusinessID:   body.BusinessID,
			RequestedDay: body.RequestedDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

// UnsubscribeStockNotification removes the caller's alert for the item.
func UnsubscribeStockNotification(svc stocknotify.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, itemID, itemType, err := subscriptionKeyFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Unsubscribe(r.Context(), userID, itemID, itemType); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "unsubscribed"})
	}
}

// CheckStockSubscription reports whether the caller already has an alert.
func CheckStockSubscription(svc stocknotify.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, itemID, itemType, err := subscriptionKeyFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subscribed, err := svc.IsSubscribed(r.Context(), userID, itemID, itemType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"subscribed": subscribed})
	}
}

// ListStockSubscriptions returns the user's standing alerts. Callers may read
// only their own list unless they are admins.
func ListStockSubscriptions(svc stocknotify.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := requireSelfOrAdmin(r, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subs, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, subs)
	}
}

func subscriptionKeyFromQuery(r *http.Request) (uuid.UUID, uuid.UUID, enums.ItemType, error) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, "", err
	}

	itemID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("itemId")))
	if err != nil {
		return uuid.Nil, uuid.Nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid item id").WithDetails(map[string]any{"field": "itemId"})
	}
	itemType, err := enums.ParseItemType(r.URL.Query().Get("itemType"))
	if err != nil {
		return uuid.Nil, uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type").WithDetails(map[string]any{"field": "itemType"})
	}
	return userID, itemID, itemType, nil
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return userID, nil
}

func requireSelfOrAdmin(r *http.Request, userID uuid.UUID) error {
	if middleware.RoleFromContext(r.Context()) == middleware.RoleAdmin {
		return nil
	}
	caller, err := userIDFromRequest(r)
	if err != nil {
		return err
	}
	if caller != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot access another user's subscriptions")
	}
	return nil
}
