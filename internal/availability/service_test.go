package availability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mariagarzap/festeja-backend/internal/booking"
	"github.com/mariagarzap/festeja-backend/internal/catalog"
	"github.com/mariagarzap/festeja-backend/pkg/db/models"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
	pkgerrors "github.com/mariagarzap/festeja-backend/pkg/errors"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

type notifierCall struct {
	itemID   uuid.UUID
	itemType enums.ItemType
	itemName string
	day      *types.Date
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
}

func (f *fakeNotifier) NotifySubscribers(_ context.Context, itemID uuid.UUID, itemType enums.ItemType, itemName string, day *types.Date) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, notifierCall{itemID: itemID, itemType: itemType, itemName: itemName, day: day})
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestService(t *testing.T) (Service, *gorm.DB, *fakeNotifier) {
	t.Helper()
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc, err := NewService(ServiceParams{
		Tx:       GormTxRunner(db),
		Repo:     NewRepository(db),
		Ledger:   booking.NewLedger(db),
		Names:    catalog.NewNameResolver(db),
		Notifier: notifier,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db, notifier
}

func TestCreateOrUpdateNotifiesOnFirstBookableWrite(t *testing.T) {
	t.Parallel()

	svc, db, notifier := newTestService(t)
	ctx := context.Background()

	theme := models.Theme{ID: uuid.New(), BusinessID: uuid.New(), Name: "Jungle Safari"}
	if err := db.Create(&theme).Error; err != nil {
		t.Fatalf("seed theme: %v", err)
	}

	day := types.NewDate(2025, time.June, 15)
	record, err := svc.CreateOrUpdate(ctx, UpsertParams{
		BusinessID:   theme.BusinessID,
		ItemID:       theme.ID,
		ItemType:     enums.ItemTypeTheme,
		Day:          day,
		AvailableQty: 2,
		IsAvailable:  true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if record.AvailableQty != 2 {
		t.Fatalf("expected qty 2, got %d", record.AvailableQty)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one restock notice, got %d", notifier.count())
	}
	call := notifier.calls[0]
	if call.itemName != "Jungle Safari" {
		t.Fatalf("expected resolved item name, got %q", call.itemName)
	}
	if call.day == nil || !call.day.Equal(day) {
		t.Fatalf("expected notice for %s, got %v", day, call.day)
	}
}

func TestCreateOrUpdateNotifiesOnlyOnTransition(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	businessID := uuid.New()
	itemID := uuid.New()
	day := types.NewDate(2025, time.June, 20)

	upsert := func(qty int, available bool) {
		t.Helper()
		_, err := svc.CreateOrUpdate(ctx, UpsertParams{
			BusinessID:   businessID,
			ItemID:       itemID,
			ItemType:     enums.ItemTypeInventory,
			Day:          day,
			AvailableQty: qty,
			IsAvailable:  available,
		})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	// Zero capacity is not bookable even with the flag on, so no notice yet.
	upsert(0, true)
	if notifier.count() != 0 {
		t.Fatalf("expected no notice for zero capacity, got %d", notifier.count())
	}

	upsert(5, true)
	if notifier.count() != 1 {
		t.Fatalf("expected one notice on restock, got %d", notifier.count())
	}

	// Staying bookable must not re-fire.
	upsert(7, true)
	if notifier.count() != 1 {
		t.Fatalf("expected still one notice, got %d", notifier.count())
	}

	// Going dark and coming back fires again.
	upsert(7, false)
	upsert(7, true)
	if notifier.count() != 2 {
		t.Fatalf("expected second notice after re-restock, got %d", notifier.count())
	}
}

func TestGetReturnsNotFoundForMissingDay(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), uuid.New(), enums.ItemTypePlate, types.NewDate(2025, time.June, 1))
	if err == nil {
		t.Fatal("expected error")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found code, got %s", pkgerrors.As(err).Code())
	}
}

func TestGetAvailableQuantityNetsOutActiveBookings(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	ctx := context.Background()

	itemID := uuid.New()
	businessID := uuid.New()
	day := types.NewDate(2025, time.July, 10)

	_, err := svc.CreateOrUpdate(ctx, UpsertParams{
		BusinessID:   businessID,
		ItemID:       itemID,
		ItemType:     enums.ItemTypePlate,
		Day:          day,
		AvailableQty: 10,
		IsAvailable:  true,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	seedBookedQty(t, db, businessID, itemID, enums.ItemTypePlate, day, 4)

	remaining, err := svc.GetAvailableQuantity(ctx, itemID, enums.ItemTypePlate, day)
	if err != nil {
		t.Fatalf("get quantity: %v", err)
	}
	if remaining != 6 {
		t.Fatalf("expected 6 remaining, got %d", remaining)
	}

	// More booked than declared floors at zero rather than going negative.
	seedBookedQty(t, db, businessID, itemID, enums.ItemTypePlate, day, 20)
	remaining, err = svc.GetAvailableQuantity(ctx, itemID, enums.ItemTypePlate, day)
	if err != nil {
		t.Fatalf("get quantity: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 remaining, got %d", remaining)
	}
}

func TestGetAvailableQuantityZeroWhenAbsentOrDisabled(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	itemID := uuid.New()
	day := types.NewDate(2025, time.July, 11)

	remaining, err := svc.GetAvailableQuantity(ctx, itemID, enums.ItemTypeDish, day)
	if err != nil {
		t.Fatalf("get quantity: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 for missing day, got %d", remaining)
	}

	_, err = svc.CreateOrUpdate(ctx, UpsertParams{
		BusinessID:   uuid.New(),
		ItemID:       itemID,
		ItemType:     enums.ItemTypeDish,
		Day:          day,
		AvailableQty: 5,
		IsAvailable:  false,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	remaining, err = svc.GetAvailableQuantity(ctx, itemID, enums.ItemTypeDish, day)
	if err != nil {
		t.Fatalf("get quantity: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected 0 for disabled day, got %d", remaining)
	}
}

func TestCheckAvailabilityIgnoresBookings(t *testing.T) {
	t.Parallel()

	svc, db, _ := newTestService(t)
	ctx := context.Background()

	itemID := uuid.New()
	businessID := uuid.New()
	day := types.NewDate(2025, time.August, 2)

	ok, err := svc.CheckAvailability(ctx, itemID, enums.ItemTypeTheme, day, 1)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if ok {
		t.Fatal("expected missing day to be unavailable")
	}

	_, err = svc.CreateOrUpdate(ctx, UpsertParams{
		BusinessID:   businessID,
		ItemID:       itemID,
		ItemType:     enums.ItemTypeTheme,
		Day:          day,
		AvailableQty: 3,
		IsAvailable:  true,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	seedBookedQty(t, db, businessID, itemID, enums.ItemTypeTheme, day, 3)

	// Declared capacity only; the committed bookings above do not count here.
	ok, err = svc.CheckAvailability(ctx, itemID, enums.ItemTypeTheme, day, 3)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !ok {
		t.Fatal("expected declared capacity to satisfy the check")
	}

	ok, err = svc.CheckAvailability(ctx, itemID, enums.ItemTypeTheme, day, 4)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if ok {
		t.Fatal("expected qty above declared capacity to fail")
	}

	// An omitted qty defaults to one.
	ok, err = svc.CheckAvailability(ctx, itemID, enums.ItemTypeTheme, day, 0)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !ok {
		t.Fatal("expected default qty of one to pass")
	}

	// An explicit negative qty is a caller bug, not a default.
	_, err = svc.CheckAvailability(ctx, itemID, enums.ItemTypeTheme, day, -1)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative qty, got %v", err)
	}
}

func TestDecrementThenIncrementRoundTrip(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	itemID := uuid.New()
	day := types.NewDate(2025, time.September, 3)

	_, err := svc.CreateOrUpdate(ctx, UpsertParams{
		BusinessID:   uuid.New(),
		ItemID:       itemID,
		ItemType:     enums.ItemTypeInventory,
		Day:          day,
		AvailableQty: 2,
		IsAvailable:  true,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	baseline := notifier.count()

	if err := svc.Decrement(ctx, itemID, enums.ItemTypeInventory, day, 2); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	record, err := svc.Get(ctx, itemID, enums.ItemTypeInventory, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.AvailableQty != 0 || record.IsAvailable {
		t.Fatalf("expected exhausted day, got qty %d available=%v", record.AvailableQty, record.IsAvailable)
	}

	if err := svc.Increment(ctx, itemID, enums.ItemTypeInventory, day, 1); err != nil {
		t.Fatalf("increment: %v", err)
	}
	record, err = svc.Get(ctx, itemID, enums.ItemTypeInventory, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.AvailableQty != 1 || !record.IsAvailable {
		t.Fatalf("expected restocked day, got qty %d available=%v", record.AvailableQty, record.IsAvailable)
	}
	if notifier.count() != baseline+1 {
		t.Fatalf("expected restock notice from increment, got %d", notifier.count()-baseline)
	}
}

func TestIncrementMissingRowDoesNotNotify(t *testing.T) {
	t.Parallel()

	svc, _, notifier := newTestService(t)

	err := svc.Increment(context.Background(), uuid.New(), enums.ItemTypePlate, types.NewDate(2025, time.September, 4), 1)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if notifier.count() != 0 {
		t.Fatalf("expected no notice for missing row, got %d", notifier.count())
	}
}

func TestDecrementPastZeroClamps(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	itemID := uuid.New()
	day := types.NewDate(2025, time.September, 5)

	_, err := svc.CreateOrUpdate(ctx, UpsertParams{
		BusinessID:   uuid.New(),
		ItemID:       itemID,
		ItemType:     enums.ItemTypeDish,
		Day:          day,
		AvailableQty: 1,
		IsAvailable:  true,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := svc.Decrement(ctx, itemID, enums.ItemTypeDish, day, 5); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	record, err := svc.Get(ctx, itemID, enums.ItemTypeDish, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.AvailableQty != 0 {
		t.Fatalf("expected clamp at zero, got %d", record.AvailableQty)
	}
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	t.Parallel()

	svc, db, notifier := newTestService(t)
	ctx := context.Background()

	// sqlite allows a single writer; cap the pool so racing callers queue at
	// the driver instead of failing with lock errors.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	itemID := uuid.New()
	day := types.NewDate(2025, time.September, 6)
	seedAvailability(t, db, itemID, enums.ItemTypePlate, day, 10, true)

	const callers = 8
	const perCall = 3 // 8*3 = 24 demanded against a capacity of 10

	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.Decrement(ctx, itemID, enums.ItemTypePlate, day, perCall)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("decrement: %v", err)
		}
	}

	record, err := svc.Get(ctx, itemID, enums.ItemTypePlate, day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if record.AvailableQty != 0 {
		t.Fatalf("expected exhausted capacity to land at exactly 0, got %d", record.AvailableQty)
	}
	if record.IsAvailable {
		t.Fatal("expected availability flag dropped once exhausted")
	}
	if notifier.count() != 0 {
		t.Fatalf("decrement must never notify, got %d notices", notifier.count())
	}
}

func TestValidationRejectsBadKeys(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	day := types.NewDate(2025, time.October, 1)

	_, err := svc.Get(ctx, uuid.Nil, enums.ItemTypeTheme, day)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for nil item id, got %v", err)
	}

	_, err = svc.Get(ctx, uuid.New(), enums.ItemType("castle"), day)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad item type, got %v", err)
	}

	_, err = svc.Get(ctx, uuid.New(), enums.ItemTypeTheme, types.Date{})
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero date, got %v", err)
	}

	err = svc.Decrement(ctx, uuid.New(), enums.ItemTypeTheme, day, 0)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for zero qty, got %v", err)
	}

	_, err = svc.ListRange(ctx, uuid.New(), enums.ItemTypeTheme, day.AddDays(3), day)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}
}

func TestDeleteAllForItemRemovesEveryDay(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	itemID := uuid.New()
	businessID := uuid.New()
	start := types.NewDate(2025, time.November, 1)
	for offset := 0; offset < 3; offset++ {
		_, err := svc.CreateOrUpdate(ctx, UpsertParams{
			BusinessID:   businessID,
			ItemID:       itemID,
			ItemType:     enums.ItemTypeInventory,
			Day:          start.AddDays(offset),
			AvailableQty: 1,
			IsAvailable:  true,
		})
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	removed, err := svc.DeleteAllForItem(ctx, itemID, enums.ItemTypeInventory)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}

	rows, err := svc.ListByItem(ctx, itemID, enums.ItemTypeInventory)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows left, got %d", len(rows))
	}
}

func seedBookedQty(t *testing.T, db *gorm.DB, businessID, itemID uuid.UUID, itemType enums.ItemType, day types.Date, qty int) {
	t.Helper()
	order := models.BookingOrder{
		ID:         uuid.New(),
		BusinessID: businessID,
		ClientID:   uuid.New(),
		EventDay:   day,
		Status:     enums.OrderStatusConfirmed,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	line := models.BookingLineItem{
		ID:       uuid.New(),
		OrderID:  order.ID,
		ItemID:   itemID,
		ItemType: itemType,
		ItemName: "booked item",
		Qty:      qty,
	}
	if err := db.Create(&line).Error; err != nil {
		t.Fatalf("seed line item: %v", err)
	}
}
