package stocknotify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/mariagarzap/festeja-backend/internal/notifications"
	"github.com/mariagarzap/festeja-backend/pkg/db/models"
	"github.com/mariagarzap/festeja-backend/pkg/enums"
	pkgerrors "github.com/mariagarzap/festeja-backend/pkg/errors"
	"github.com/mariagarzap/festeja-backend/pkg/logger"
	"github.com/mariagarzap/festeja-backend/pkg/metrics"
	"github.com/mariagarzap/festeja-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Dispatcher fans a restock event out to every pending subscriber. Each
// subscriber gets its own transaction pairing the notification row with the
// notified flag flip, so one bad subscriber never blocks the rest and a crash
// mid fan-out leaves already-claimed subscribers notified exactly once.
type Dispatcher struct {
	tx       txRunner
	registry Registry
	sink     notifications.Repository
	logg     *logger.Logger
	metrics  *metrics.DispatchMetrics
}

// DispatcherParams wires dispatcher dependencies.
type DispatcherParams struct {
	Tx       txRunner
	Registry Registry
	Sink     notifications.Repository
	Logger   *logger.Logger
	Metrics  *metrics.DispatchMetrics
}

// NewDispatcher validates and wires the fan-out dependencies.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tx runner required")
	}
	if params.Registry == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscription registry required")
	}
	if params.Sink == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification sink required")
	}
	return &Dispatcher{
		tx:       params.Tx,
		registry: params.Registry,
		sink:     params.Sink,
		logg:     params.Logger,
		metrics:  params.Metrics,
	}, nil
}

// NotifySubscribers delivers a back-in-stock notice to every subscriber still
// waiting on the item. Per-subscriber failures are aggregated and returned
// after the full pass; successes are never rolled back by later failures.
func (d *Dispatcher) NotifySubscribers(ctx context.Context, itemID uuid.UUID, itemType enums.ItemType, itemName string, day *types.Date) error {
	started := time.Now()
	defer func() {
		d.metrics.ObserveDuration(itemType.String(), time.Since(started))
	}()

	pending, err := d.registry.ListPendingForItem(ctx, itemID, itemType)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending subscribers")
	}
	if len(pending) == 0 {
		return nil
	}

	title, message := restockMessage(itemName, day)

	var dispatchErr error
	notified := 0
	for _, subscription := range pending {
		if err := d.notifyOne(ctx, subscription, title, message); err != nil {
			d.metrics.IncFailed(itemType.String())
			dispatchErr = multierr.Append(dispatchErr, fmt.Errorf("subscriber %s: %w", subscription.UserID, err))
			continue
		}
		d.metrics.IncNotified(itemType.String())
		notified++
	}

	if d.logg != nil {
		fields := map[string]any{
			"item_id":   itemID.String(),
			"item_type": itemType.String(),
			"pending":   len(pending),
			"notified":  notified,
		}
		d.logg.Info(d.logg.WithFields(ctx, fields), "stocknotify.dispatched")
	}
	if dispatchErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, dispatchErr, "notify subscribers")
	}
	return nil
}

// notifyOne claims the subscriber and writes the notification in one
// transaction. Losing the notified-flag claim means another dispatcher got
// there first; that is a clean skip, not a failure.
func (d *Dispatcher) notifyOne(ctx context.Context, subscription models.StockSubscription, title, message string) error {
	return d.tx.WithTx(ctx, func(tx *gorm.DB) error {
		claimed, err := d.registry.WithTx(tx).MarkNotified(ctx, subscription.ID, time.Now().UTC())
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}
		return d.sink.WithTx(tx).Create(ctx, &models.ClientNotification{
			ID:      uuid.New(),
			UserID:  subscription.UserID,
			Type:    enums.NotificationTypeStockAvailable,
			Title:   title,
			Message: message,
		})
	})
}

func restockMessage(itemName string, day *types.Date) (string, string) {
	name := itemName
	if name == "" {
		name = "An item you follow"
	}
	message := fmt.Sprintf("%s is now back in stock.", name)
	if day != nil {
		message = fmt.Sprintf("%s is now back in stock for %s.", name, day.String())
	}
	return "Back in stock", message
}
