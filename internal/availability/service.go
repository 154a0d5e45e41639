package availability

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariagarzap/festeja-backend/internal/booking"
	"github.com/mariagarzap/festeja-backend/internal/catalog"
	"github.com/mariagarzap/festeja-backend/pkg/db/models"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
	pkgerrors "github.com/mariagarzap/festeja-backend/pkg/errors"
	"github.com/mariagarzap/festeja-backend/pkg/logger"
	"github.com/mariagarzap/festeja-backend/pkg/metrics"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

// Service orchestrates per-day availability: vendor upserts, effective
// quantity reads, booking decrements/increments, and restock transition
// detection.
//
// Two read paths coexist on purpose and answer different questions:
// CheckAvailability is the coarse "does the vendor accept >= qty bookings"
// check against declared capacity only, while GetAvailableQuantity nets out
// quantity already committed to active orders. Callers selling units must use
// GetAvailableQuantity.
type Service interface {
	CreateOrUpdate(ctx context.Context, params UpsertParams) (*Record, error)
	Get(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date) (*Record, error)
	ListByItem(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) ([]Record, error)
	ListRange(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, start, end types.Date) ([]Record, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]Record, error)
	CheckAvailability(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date, qty int) (bool, error)
	GetAvailableQuantity(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date) (int, error)
	Decrement(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date, qty int) error
	Increment(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date, qty int) error
	Delete(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date) error
	DeleteAllForItem(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) (int64, error)
}

// TxRunner executes fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RestockNotifier fans a back-in-stock notice out to pending subscribers.
type RestockNotifier interface {
	NotifySubscribers(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, itemName string, day *types.Date) error
}

// ServiceParams wires the availability service dependencies.
type ServiceParams struct {
	Tx       TxRunner
	Repo     Repository
	Ledger   booking.Ledger
	Names    catalog.NameResolver
	Notifier RestockNotifier
	Logger   *logger.Logger
	Metrics  *metrics.DispatchMetrics
}

type service struct {
	tx       TxRunner
	repo     Repository
	ledger   booking.Ledger
	names    catalog.NameResolver
	notifier RestockNotifier
	logg     *logger.Logger
	metrics  *metrics.DispatchMetrics
}

// NewService validates and wires the availability dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tx runner required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "availability repository required")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "booking ledger required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "restock notifier required")
	}
	return &service{
		tx:       params.Tx,
		repo:     params.Repo,
		ledger:   params.Ledger,
		names:    params.Names,
		notifier: params.Notifier,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// CreateOrUpdate upserts the (item, day) record and, when the write moves the
// day from unavailable to bookable, notifies pending stock subscribers. A day
// with no record counts as unavailable, so the first upsert with stock also
// triggers the notice.
func (s *service) CreateOrUpdate(ctx context.Context, params UpsertParams) (*Record, error) {
	if err := validateKey(params.ItemID, params.ItemType, params.Day); err != nil {
		return nil, err
	}
	if params.BusinessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	if params.AvailableQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "available quantity cannot be negative")
	}

	var prior *models.ItemAvailability
	var stored *models.ItemAvailability
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var txErr error
		prior, txErr = repo.Find(ctx, params.ItemID, params.ItemType, params.Day)
		if txErr != nil {
			return txErr
		}

		record := &models.ItemAvailability{
			BusinessID:    params.BusinessID,
			ItemID:        params.ItemID,
			ItemType:      params.ItemType,
			Day:           params.Day,
			AvailableQty:  params.AvailableQty,
			IsAvailable:   params.IsAvailable,
			PriceOverride: params.PriceOverride,
		}
		if prior != nil {
			record.ID = prior.ID
		}
		stored, txErr = repo.Upsert(ctx, record)
		return txErr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert availability")
	}

	wasUnavailable := prior == nil || !prior.Bookable()
	if wasUnavailable && stored.Bookable() {
		day := stored.Day
		s.fireRestockNotice(ctx, stored.ItemID, stored.ItemType, &day)
	}

	record := recordFromModel(*stored)
	return &record, nil
}

// Get returns the single-day record or NotFound.
func (s *service) Get(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date) (*Record, error) {
	if err := validateKey(itemID, itemType, day); err != nil {
		return nil, err
	}
	row, err := s.repo.Find(ctx, itemID, itemType, day)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find availability")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "availability not found")
	}
	record := recordFromModel(*row)
	return &record, nil
}

func (s *service) ListByItem(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) ([]Record, error) {
	rows, err := s.repo.FindByItem(ctx, itemID, itemType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list availability")
	}
	return recordsFromModels(rows), nil
}

func (s *service) ListRange(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, start, end types.Date) ([]Record, error) {
	if start.IsZero() || end.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "start and end dates required")
	}
	if end.Before(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end date precedes start date")
	}
	rows, err := s.repo.FindRange(ctx, itemID, itemType, start, end)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list availability range")
	}
	return recordsFromModels(rows), nil
}

func (s *service) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]Record, error) {
	if businessID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business id required")
	}
	rows, err := s.repo.FindByBusiness(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list business availability")
	}
	return recordsFromModels(rows), nil
}

// CheckAvailability reports whether the vendor accepts at least qty bookings
// for the day. Declared capacity only; booked units are not subtracted here.
func (s *service) CheckAvailability(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date, qty int) (bool, error) {
	if err := validateKey(itemID, itemType, day); err != nil {
		return false, err
	}
	if qty < 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if qty == 0 {
		qty = 1
	}
	row, err := s.repo.Find(ctx, itemID, itemType, day)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check availability")
	}
	if row == nil {
		return false, nil
	}
	return row.IsAvailable && row.AvailableQty >= qty, nil
}

// GetAvailableQuantity returns declared capacity minus quantity already
// committed to active orders, floored at zero. This is the sell-side check.
func (s *service) GetAvailableQuantity(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date) (int, error) {
	if err := validateKey(itemID, itemType, day); err != nil {
		return 0, err
	}
	row, err := s.repo.Find(ctx, itemID, itemType, day)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find availability")
	}
	if row == nil || !row.IsAvailable {
		return 0, nil
	}
	booked, err := s.ledger.CountBooked(ctx, itemID, itemType, day)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count booked quantity")
	}
	remaining := row.AvailableQty - booked
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Decrement consumes capacity on order placement. The quantity never goes
// negative; hitting zero drops the availability flag. Missing rows no-op.
func (s *service) Decrement(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date, qty int) error {
	if err := validateKey(itemID, itemType, day); err != nil {
		return err
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).DecrementQty(ctx, itemID, itemType, day, qty)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement availability")
	}
	return nil
}

// Increment releases capacity on order cancellation and, when the day was
// exhausted before the release, notifies pending stock subscribers.
func (s *service) Increment(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date, qty int) error {
	if err := validateKey(itemID, itemType, day); err != nil {
		return err
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	var prior *models.ItemAvailability
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var txErr error
		prior, txErr = repo.Find(ctx, itemID, itemType, day)
		if txErr != nil {
			return txErr
		}
		if prior == nil {
			return nil
		}
		_, txErr = repo.IncrementQty(ctx, itemID, itemType, day, qty)
		return txErr
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment availability")
	}

	if prior != nil && !prior.Bookable() {
		s.fireRestockNotice(ctx, itemID, itemType, nil)
	}
	return nil
}

// Delete removes one day's record. Missing rows no-op; bookings never delete
// availability implicitly.
func (s *service) Delete(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day types.Date) error {
	if err := validateKey(itemID, itemType, day); err != nil {
		return err
	}
	if _, err := s.repo.DeleteOne(ctx, itemID, itemType, day); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete availability")
	}
	return nil
}

// DeleteAllForItem removes every record for the item across all days.
func (s *service) DeleteAllForItem(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType) (int64, error) {
	if itemID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if !itemType.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid item type")
	}
	removed, err := s.repo.DeleteAll(ctx, itemID, itemType)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete item availability")
	}
	return removed, nil
}

// fireRestockNotice resolves the item's display name and fans out the
// back-in-stock notice. Dispatch failures are logged and swallowed: the
// availability write that detected the transition must not be affected.
func (s *service) fireRestockNotice(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, day *types.Date) {
	s.metrics.IncTransition(itemType.String())

	itemName := ""
	if s.names != nil {
		name, found, err := s.names.ResolveItemName(ctx, itemID, itemType)
		if err != nil && s.logg != nil {
			s.logg.Error(ctx, "restock.name_lookup_failed", err)
		}
		if found {
			itemName = name
		}
	}

	if err := s.notifier.NotifySubscribers(ctx, itemID, itemType, itemName, day); err != nil && s.logg != nil {
		fields := map[string]any{"item_id": itemID.String(), "item_type": itemType.String()}
		s.logg.Error(s.logg.WithFields(ctx, fields), "restock.notify_failed", err)
	}
}

func validateKey(itemID uuid.UUID, itemType enums.ItemType, day types.Date) error {
	if itemID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if !itemType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid item type")
	}
	if day.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "date required")
	}
	return nil
}

// GormTxRunner adapts a raw gorm connection to the TxRunner surface.
func GormTxRunner(db *gorm.DB) TxRunner {
	return gormTxRunner{db: db}
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
