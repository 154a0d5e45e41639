package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mariagarzap/festeja-backend/api/middleware"
	"github.com/mariagarzap/festeja-backend/api/responses"
	"github.com/mariagarzap/festeja-backend/api/validators"
	"github.com/mariagarzap/festeja-backend/internal/availability"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
	pkgerrors "github.com/mariagarzap/festeja-backend/pkg/errors"
	"github.com/mariagarzap/festeja-backend/pkg/logger"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

type upsertAvailabilityRequest struct {
	ItemID        uuid.UUID        `json:"itemId" validate:"required"`
	ItemType      string           `json:"itemType" validate:"required"`
	Date          types.Date       `json:"date" validate:"required"`
	AvailableQty  int              `json:"availableQuantity" validate:"min=0"`
	IsAvailable   bool             `json:"isAvailable"`
	PriceOverride *decimal.Decimal `json:"priceOverride,omitempty"`
}

// UpsertAvailability creates or replaces the (item, date) availability record
// for the caller's business.
func UpsertAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body upsertAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		itemType, err := enums.ParseItemType(body.ItemType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type"))
			return
		}

		businessID, err := businessIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.CreateOrUpdate(r.Context(), availability.UpsertParams{
			BusinessID:    businessID,
			ItemID:        body.ItemID,
			ItemType:      itemType,
			Day:           body.Date,
			AvailableQty:  body.AvailableQty,
			IsAvailable:   body.IsAvailable,
			PriceOverride: body.PriceOverride,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// GetAvailability returns the single (item, date) record or 404.
func GetAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, itemType, err := itemKeyFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		day, err := validators.ParseDateParam(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Get(r.Context(), itemID, itemType, day)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// ListItemAvailability returns every dated record for the item.
func ListItemAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, itemType, err := itemKeyFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListByItem(r.Context(), itemID, itemType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// ListItemAvailabilityRange returns the item's records between startDate and
// endDate inclusive.
func ListItemAvailabilityRange(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, itemType, err := itemKeyFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		start, err := validators.ParseDateQuery(r, "startDate", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		end, err := validators.ParseDateQuery(r, "endDate", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListRange(r.Context(), itemID, itemType, start, end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// ListBusinessAvailability returns every record owned by the business.
func ListBusinessAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID, err := validators.ParseUUIDParam(r, "businessId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.ListByBusiness(r.Context(), businessID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

type checkAvailabilityRequest struct {
	ItemID   uuid.UUID  `json:"itemId" validate:"required"`
	ItemType string     `json:"itemType" validate:"required"`
	Date     types.Date `json:"date" validate:"required"`
	Quantity int        `json:"quantity" validate:"min=0"`
}

// CheckAvailability answers the coarse declared-capacity check. It does not
// subtract booked quantity; use the quantity endpoint to size a sale.
func CheckAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body checkAvailabilityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemType, err := enums.ParseItemType(body.ItemType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type"))
			return
		}

		available, err := svc.CheckAvailability(r.Context(), body.ItemID, itemType, body.Date, body.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"available": available})
	}
}

// GetAvailableQuantity returns declared capacity minus active bookings.
func GetAvailableQuantity(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, itemType, err := itemKeyFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		day, err := validators.ParseDateParam(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		qty, err := svc.GetAvailableQuantity(r.Context(), itemID, itemType, day)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"availableQuantity": qty})
	}
}

type adjustQuantityRequest struct {
	ItemID   uuid.UUID  `json:"itemId" validate:"required"`
	ItemType string     `json:"itemType" validate:"required"`
	Date     types.Date `json:"date" validate:"required"`
	Quantity int        `json:"quantity" validate:"required,min=1"`
}

// DecrementAvailability consumes capacity when an order is placed.
func DecrementAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return adjustQuantity(svc.Decrement, logg)
}

// IncrementAvailability releases capacity when an order is canceled.
func IncrementAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return adjustQuantity(svc.Increment, logg)
}

func adjustQuantity(apply func(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date, qty int) error, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body adjustQuantityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemType, err := enums.ParseItemType(body.ItemType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type"))
			return
		}

		if err := apply(r.Context(), body.ItemID, itemType, body.Date, body.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "applied"})
	}
}

// DeleteAvailability removes a single (item, date) record.
func DeleteAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, itemType, err := itemKeyFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		day, err := validators.ParseDateParam(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), itemID, itemType, day); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// DeleteItemAvailability removes every dated record for the item.
func DeleteItemAvailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, itemType, err := itemKeyFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		removed, err := svc.DeleteAllForItem(r.Context(), itemID, itemType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"deleted": removed})
	}
}

func itemKeyFromPath(r *http.Request) (uuid.UUID, enums.ItemType, error) {
	itemID, err := validators.ParseUUIDParam(r, "itemId")
	if err != nil {
		return uuid.Nil, "", err
	}
	itemType, err := validators.ParseItemTypeParam(r, "itemType")
	if err != nil {
		return uuid.Nil, "", err
	}
	return itemID, itemType, nil
}

func businessIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.BusinessIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "business context missing")
	}
	businessID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid business id")
	}
	return businessID, nil
}
