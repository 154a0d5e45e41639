package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mariagarzap/festeja-backend/pkg/enums"
	pkgerrors "github.com/mariagarzap/festeja-backend/pkg/errors"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

// ParseUUIDParam reads a path parameter as a UUID.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

// ParseItemTypeParam reads a path parameter as an ItemType, case-insensitively.
func ParseItemTypeParam(r *http.Request, key string) (enums.ItemType, error) {
	raw := chi.URLParam(r, key)
	itemType, err := enums.ParseItemType(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item type").WithDetails(map[string]any{"field": key})
	}
	return itemType, nil
}

// ParseDateParam reads a path parameter as a YYYY-MM-DD calendar date.
func ParseDateParam(r *http.Request, key string) (types.Date, error) {
	raw := chi.URLParam(r, key)
	day, err := types.ParseDate(raw)
	if err != nil {
		return types.Date{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date").WithDetails(map[string]any{"field": key})
	}
	return day, nil
}

// ParseDateQuery reads an optional query parameter as a calendar date. A
// missing value returns the zero date with required=false errors left to the
// caller.
func ParseDateQuery(r *http.Request, key string, required bool) (types.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		if required {
			return types.Date{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter required").WithDetails(map[string]any{"field": key})
		}
		return types.Date{}, nil
	}
	day, err := types.ParseDate(raw)
	if err != nil {
		return types.Date{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date").WithDetails(map[string]any{"field": key})
	}
	return day, nil
}
