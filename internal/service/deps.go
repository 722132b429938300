package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shinyyama/harvest-market-backend/internal/dispatch"
	"github.com/shinyyama/harvest-market-backend/internal/ledger"
	"github.com/shinyyama/harvest-market-backend/internal/lock"
	"github.com/shinyyama/harvest-market-backend/internal/logger"
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shinyyama/harvest-market-backend/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps wires the fulfillment services. Locker and Publisher are optional.
type Deps struct {
	Tx        repository.TxManager
	PreOrders repository.PreOrderRepository
	Details   repository.OrderDetailRepository
	Products  repository.ProductRepository
	Supply    SupplyService
	Notifier  NotificationService
	Status    *StatusAggregator
	Locker    lock.Locker
	Publisher dispatch.Publisher
	Logger    *logrus.Logger
}

func (d Deps) log() *logrus.Logger {
	if d.Logger == nil {
		return logger.Discard()
	}
	return d.Logger
}

// acquire takes the keyed lock when a locker is configured. Failing to get it
// is logged and ignored: the row locks taken inside the transaction still
// serialize the critical section.
func (d Deps) acquire(ctx context.Context, key string) func() {
	if d.Locker == nil {
		return func() {}
	}
	release, err := d.Locker.Acquire(ctx, key)
	if err != nil {
		logger.FromContext(ctx, d.log()).WithField("key", key).WithError(err).Warn("keyed lock unavailable, relying on row lock")
		return func() {}
	}
	return release
}

// checkScale rejects quantities finer than the storage columns can hold.
func checkScale(field string, qty decimal.Decimal) error {
	if !qty.Equal(qty.Truncate(model.QtyScale)) {
		return validationf("%s must have at most %d decimal places", field, model.QtyScale)
	}
	return nil
}

func preOrderKey(id uint64) string { return fmt.Sprintf("preorder:%d", id) }

func supplyKey(id uint64) string { return fmt.Sprintf("supply:%d", id) }

// StatusAggregator is the only writer of a pre-order's derived status.
type StatusAggregator struct {
	preOrders repository.PreOrderRepository
	details   repository.OrderDetailRepository
}

func NewStatusAggregator(preOrders repository.PreOrderRepository, details repository.OrderDetailRepository) *StatusAggregator {
	return &StatusAggregator{preOrders: preOrders, details: details}
}

// Recompute derives the status from the confirmed offers currently stored
// and persists it when it changed. Cancelled pre-orders are left alone.
func (a *StatusAggregator) Recompute(ctx context.Context, tx *gorm.DB, preOrderID uint64) (model.PreOrderStatus, error) {
	preOrders, details := a.preOrders, a.details
	if tx != nil {
		preOrders, details = preOrders.WithTx(tx), details.WithTx(tx)
	}
	p, err := preOrders.FindByID(ctx, preOrderID)
	if err != nil {
		return "", notFoundOr(err)
	}
	if p.Status == model.PreOrderStatusCancelled {
		return p.Status, nil
	}
	list, err := details.ListByPreOrder(ctx, preOrderID)
	if err != nil {
		return "", err
	}
	status := ledger.DeriveStatus(ledger.ConfirmedTotal(list, p.Qty), p.Qty)
	if status != p.Status {
		if err := preOrders.UpdateStatus(ctx, preOrderID, status); err != nil {
			return "", err
		}
	}
	return status, nil
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
