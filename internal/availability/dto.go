package availability

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mariagarzap/festeja-backend/pkg/db/models"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

// UpsertParams carries a vendor's availability declaration for one item/day.
type UpsertParams struct {
	BusinessID    uuid.UUID
	ItemID        uuid.UUID
	ItemType      enums.ItemType
	Day           types.Date
	AvailableQty  int
	IsAvailable   bool
	PriceOverride *decimal.Decimal
}

// Record is the availability row shape returned to API callers.
type Record struct {
	ID            uuid.UUID        `json:"id"`
	BusinessID    uuid.UUID        `json:"business_id"`
	ItemID        uuid.UUID        `json:"item_id"`
	ItemType      enums.ItemType   `json:"item_type"`
	Day           types.Date       `json:"date"`
	AvailableQty  int              `json:"available_qty"`
	IsAvailable   bool             `json:"is_available"`
	PriceOverride *decimal.Decimal `json:"price_override,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func recordFromModel(m models.ItemAvailability) Record {
	return Record{
		ID:            m.ID,
		BusinessID:    m.BusinessID,
		ItemID:        m.ItemID,
		ItemType:      m.ItemType,
		Day:           m.Day,
		AvailableQty:  m.AvailableQty,
		IsAvailable:   m.IsAvailable,
		PriceOverride: m.PriceOverride,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func recordsFromModels(rows []models.ItemAvailability) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, recordFromModel(row))
	}
	return records
}
