package models

import (
	"time"

	"github.com/google/uuid"
)

// The catalog tables below hold the vendor-listed items clients can book.
// Their metadata CRUD lives outside the availability engine; this module only
// resolves display names from them. None of them carry a quantity column --
// per-day stock belongs to ItemAvailability alone.

// Theme is a decoration/party theme listing.
type Theme struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	PriceCents int       `gorm:"column:price_cents;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// RentalItem is a physical inventory piece (tables, chairs, sound gear).
type RentalItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	PriceCents int       `gorm:"column:price_cents;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Plate is a catering plate listing.
type Plate struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	PriceCents int       `gorm:"column:price_cents;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Dish is a single dish listing offered outside of full plates.
type Dish struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID uuid.UUID `gorm:"column:business_id;type:uuid;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	PriceCents int       `gorm:"column:price_cents;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
