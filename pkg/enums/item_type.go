package enums

import (
	"fmt"
	"strings"
)

// ItemType identifies which catalog a bookable item belongs to. It is carried
// explicitly through the API instead of re-comparing raw strings in business
// logic; parse raw input once at the boundary with ParseItemType.
type ItemType string

const (
	ItemTypeTheme     ItemType = "theme"
	ItemTypeInventory ItemType = "inventory"
	ItemTypePlate     ItemType = "plate"
	ItemTypeDish      ItemType = "dish"
)

var validItemTypes = []ItemType{
	ItemTypeTheme,
	ItemTypeInventory,
	ItemTypePlate,
	ItemTypeDish,
}

// String implements fmt.Stringer.
func (i ItemType) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemType.
func (i ItemType) IsValid() bool {
	for _, candidate := range validItemTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemType converts raw input into an ItemType. Matching is
// case-insensitive; the canonical form is lowercase.
func ParseItemType(value string) (ItemType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validItemTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item type %q", value)
}
