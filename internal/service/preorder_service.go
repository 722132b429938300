package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shinyyama/harvest-market-backend/internal/harvest"
	"github.com/shinyyama/harvest-market-backend/internal/identity"
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shinyyama/harvest-market-backend/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SubmitPreOrderInput struct {
	ProductID    uint64
	Qty          decimal.Decimal
	DeliveryDate *time.Time
	Location     string
	Note         string
}

// UpdatePreOrderInput is a partial update; nil fields are left unchanged.
type UpdatePreOrderInput struct {
	ProductID    *uint64
	Qty          *decimal.Decimal
	DeliveryDate *time.Time
	Location     *string
	Note         *string
}

type StoreFromSurplusInput struct {
	MarketSupplyID uint64
	Qty            decimal.Decimal
	Unit           string
	DeliveryDate   *time.Time
	Location       string
	Note           string
}

type PreOrderFilter struct {
	Status         model.PreOrderStatus
	ExcludePending bool
	Limit          int
	Offset         int
}

type TrendingItem struct {
	Product       model.Product
	PreOrderCount int64
	Percentage    decimal.Decimal
}

// SurplusPurchase is the result of buying straight from a market supply.
type SurplusPurchase struct {
	PreOrder    model.PreOrder
	OrderDetail model.OrderDetail
	Supply      model.MarketSupply
}

type PreOrderService interface {
	RecomputeStatus(ctx context.Context, tx *gorm.DB, preOrderID uint64) (model.PreOrderStatus, error)
	SubmitPreOrder(ctx context.Context, vendor identity.Vendor, in SubmitPreOrderInput) (*model.PreOrder, error)
	UpdatePreOrder(ctx context.Context, vendor identity.Vendor, id uint64, in UpdatePreOrderInput) (*model.PreOrder, error)
	CancelPreOrder(ctx context.Context, vendor identity.Vendor, id uint64) (*model.PreOrder, error)
	GetPreOrder(ctx context.Context, actor identity.Actor, id uint64) (*model.PreOrder, error)
	ListPreOrders(ctx context.Context, actor identity.Actor, f PreOrderFilter) ([]model.PreOrder, int64, error)
	TrendingProducts(ctx context.Context, limit int) ([]TrendingItem, error)
	StoreFromSurplus(ctx context.Context, vendor identity.Vendor, in StoreFromSurplusInput) (*SurplusPurchase, error)
}

type preOrderService struct {
	Deps
	now func() time.Time
}

func NewPreOrderService(d Deps) PreOrderService {
	return &preOrderService{Deps: d, now: time.Now}
}

func (s *preOrderService) RecomputeStatus(ctx context.Context, tx *gorm.DB, preOrderID uint64) (model.PreOrderStatus, error) {
	if tx != nil {
		return s.Status.Recompute(ctx, tx, preOrderID)
	}
	var status model.PreOrderStatus
	err := s.Tx.Do(ctx, func(tx *gorm.DB) error {
		var err error
		status, err = s.Status.Recompute(ctx, tx, preOrderID)
		return err
	})
	return status, err
}

// checkDeliveryDate rejects dates in the past and dates before a crop
// planted today could be harvested.
func (s *preOrderService) checkDeliveryDate(product *model.Product, date *time.Time) error {
	if date == nil {
		return nil
	}
	now := s.now()
	day := startOfDay(date.In(now.Location()))
	if day.Before(startOfDay(now)) {
		return validationf("delivery date must not be in the past")
	}
	earliest := harvest.Estimate(product.Name, now)
	if day.Before(earliest) {
		return validationf("delivery date must be on or after %s for %s", earliest.Format("2006-01-02"), product.Name)
	}
	return nil
}

func checkPreOrderQty(qty decimal.Decimal) error {
	if qty.LessThan(decimal.NewFromInt(1)) {
		return validationf("quantity must be at least 1")
	}
	return checkScale("quantity", qty)
}

func (s *preOrderService) SubmitPreOrder(ctx context.Context, vendor identity.Vendor, in SubmitPreOrderInput) (*model.PreOrder, error) {
	if err := checkPreOrderQty(in.Qty); err != nil {
		return nil, err
	}
	product, err := s.Products.FindByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, validationf("product %d does not exist", in.ProductID)
		}
		return nil, err
	}
	if err := s.checkDeliveryDate(product, in.DeliveryDate); err != nil {
		return nil, err
	}

	p := &model.PreOrder{
		UserID:       vendor.ID,
		ProductID:    product.ID,
		Qty:          in.Qty,
		Location:     in.Location,
		Note:         in.Note,
		DeliveryDate: in.DeliveryDate,
		Status:       model.PreOrderStatusPending,
	}
	var created []model.Notification
	err = s.Tx.Do(ctx, func(tx *gorm.DB) error {
		if err := s.PreOrders.WithTx(tx).Create(ctx, p); err != nil {
			return err
		}
		var err error
		created, err = s.Notifier.NotifyFarmers(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	publishCommitted(ctx, s.Publisher, s.log(), created)
	return p, nil
}

func (s *preOrderService) UpdatePreOrder(ctx context.Context, vendor identity.Vendor, id uint64, in UpdatePreOrderInput) (*model.PreOrder, error) {
	var (
		p       *model.PreOrder
		created []model.Notification
	)
	err := s.Tx.Do(ctx, func(tx *gorm.DB) error {
		var err error
		p, err = s.lockOwned(ctx, tx, vendor, id)
		if err != nil {
			return err
		}
		if p.Status != model.PreOrderStatusPending {
			return fmt.Errorf("%w: pre-order is %s", ErrPreOrderLocked, p.Status)
		}
		if in.ProductID != nil {
			p.ProductID = *in.ProductID
		}
		if in.Qty != nil {
			if err := checkPreOrderQty(*in.Qty); err != nil {
				return err
			}
			p.Qty = *in.Qty
		}
		if in.Location != nil {
			p.Location = *in.Location
		}
		if in.Note != nil {
			p.Note = *in.Note
		}
		if in.DeliveryDate != nil {
			p.DeliveryDate = in.DeliveryDate
		}
		product, err := s.Products.WithTx(tx).FindByID(ctx, p.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return validationf("product %d does not exist", p.ProductID)
			}
			return err
		}
		if in.DeliveryDate != nil || in.ProductID != nil {
			if err := s.checkDeliveryDate(product, p.DeliveryDate); err != nil {
				return err
			}
		}
		if err := s.PreOrders.WithTx(tx).Update(ctx, p); err != nil {
			return err
		}
		created, err = s.Notifier.NotifyFarmers(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	publishCommitted(ctx, s.Publisher, s.log(), created)
	return p, nil
}

func (s *preOrderService) CancelPreOrder(ctx context.Context, vendor identity.Vendor, id uint64) (*model.PreOrder, error) {
	var p *model.PreOrder
	err := s.Tx.Do(ctx, func(tx *gorm.DB) error {
		var err error
		p, err = s.lockOwned(ctx, tx, vendor, id)
		if err != nil {
			return err
		}
		if p.Status == model.PreOrderStatusCancelled {
			return nil
		}
		if err := s.PreOrders.WithTx(tx).UpdateStatus(ctx, p.ID, model.PreOrderStatusCancelled); err != nil {
			return err
		}
		p.Status = model.PreOrderStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// lockOwned locks a vendor's pre-order that has not received any offer yet.
func (s *preOrderService) lockOwned(ctx context.Context, tx *gorm.DB, vendor identity.Vendor, id uint64) (*model.PreOrder, error) {
	p, err := s.PreOrders.WithTx(tx).FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if p.UserID != vendor.ID {
		return nil, forbiddenf("pre-order %d belongs to another vendor", id)
	}
	cnt, err := s.Details.WithTx(tx).CountByPreOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if cnt > 0 {
		return nil, fmt.Errorf("%w: pre-order already has offers", ErrPreOrderLocked)
	}
	return p, nil
}

func (s *preOrderService) GetPreOrder(ctx context.Context, actor identity.Actor, id uint64) (*model.PreOrder, error) {
	p, err := s.PreOrders.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	switch a := actor.(type) {
	case identity.Vendor:
		if p.UserID != a.ID {
			return nil, forbiddenf("pre-order %d belongs to another vendor", id)
		}
	case identity.Farmer, identity.Admin:
	default:
		return nil, forbiddenf("role %s cannot view pre-orders", actor.Role())
	}
	return p, nil
}

// ListPreOrders shows a farmer the open pre-orders its farm has not answered,
// a vendor its own pre-orders and an admin everything.
func (s *preOrderService) ListPreOrders(ctx context.Context, actor identity.Actor, f PreOrderFilter) ([]model.PreOrder, int64, error) {
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch a := actor.(type) {
	case identity.Farmer:
		farmID, err := a.Farm()
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrForbidden, err)
		}
		return s.PreOrders.ListOpenForFarm(ctx, farmID, f.Limit, f.Offset)
	case identity.Vendor:
		return s.PreOrders.List(ctx, repository.PreOrderFilter{
			VendorID:       a.ID,
			Status:         f.Status,
			ExcludePending: f.ExcludePending,
			Limit:          f.Limit,
			Offset:         f.Offset,
		})
	case identity.Admin:
		return s.PreOrders.List(ctx, repository.PreOrderFilter{
			Status:         f.Status,
			ExcludePending: f.ExcludePending,
			Limit:          f.Limit,
			Offset:         f.Offset,
		})
	}
	return nil, 0, forbiddenf("role %s cannot list pre-orders", actor.Role())
}

func (s *preOrderService) TrendingProducts(ctx context.Context, limit int) ([]TrendingItem, error) {
	rows, total, err := s.PreOrders.Trending(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]TrendingItem, 0, len(rows))
	for _, r := range rows {
		product, err := s.Products.FindByID(ctx, r.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		pct := decimal.Zero
		if total > 0 {
			pct = decimal.NewFromInt(r.PreOrderCount).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(total)).Round(2)
		}
		items = append(items, TrendingItem{Product: *product, PreOrderCount: r.PreOrderCount, Percentage: pct})
	}
	return items, nil
}

// StoreFromSurplus buys directly from a market supply. It records a pre-order
// that is fulfilled on creation by a confirmed offer pointing at the supply.
func (s *preOrderService) StoreFromSurplus(ctx context.Context, vendor identity.Vendor, in StoreFromSurplusInput) (*SurplusPurchase, error) {
	if !in.Qty.IsPositive() {
		return nil, validationf("quantity must be greater than zero")
	}
	if err := checkScale("quantity", in.Qty); err != nil {
		return nil, err
	}
	if in.DeliveryDate != nil && startOfDay(*in.DeliveryDate).Before(startOfDay(s.now())) {
		return nil, validationf("delivery date must not be in the past")
	}
	release := s.acquire(ctx, supplyKey(in.MarketSupplyID))
	defer release()

	var (
		out     SurplusPurchase
		created []model.Notification
	)
	err := s.Tx.Do(ctx, func(tx *gorm.DB) error {
		ms, err := s.Supply.ConsumeSupply(ctx, tx, in.MarketSupplyID, in.Qty)
		if err != nil {
			return err
		}
		if in.Unit != "" && in.Unit != ms.Unit {
			return validationf("unit %q does not match supply unit %q", in.Unit, ms.Unit)
		}
		delivery := in.DeliveryDate
		if delivery == nil {
			at := ms.Availability
			delivery = &at
		}
		p := model.PreOrder{
			UserID:       vendor.ID,
			ProductID:    ms.ProductID,
			Qty:          in.Qty,
			Location:     in.Location,
			Note:         in.Note,
			DeliveryDate: delivery,
			Status:       model.PreOrderStatusPending,
		}
		if err := s.PreOrders.WithTx(tx).Create(ctx, &p); err != nil {
			return err
		}
		supplyID := ms.ID
		d := model.OrderDetail{
			PreOrderID:     p.ID,
			FarmID:         ms.FarmID,
			ProductID:      ms.ProductID,
			MarketSupplyID: &supplyID,
			FulfilledQty:   in.Qty,
			Description:    "Purchased from surplus",
			OfferStatus:    model.OfferStatusConfirmed,
		}
		if err := s.Details.WithTx(tx).Create(ctx, &d); err != nil {
			return err
		}
		msg := fmt.Sprintf("A vendor ordered %s %s from your surplus (pre-order #%d).", in.Qty, ms.Unit, p.ID)
		created, err = s.Notifier.NotifyFarm(ctx, tx, &d, msg)
		if err != nil {
			return err
		}
		status, err := s.Status.Recompute(ctx, tx, p.ID)
		if err != nil {
			return err
		}
		p.Status = status
		out = SurplusPurchase{PreOrder: p, OrderDetail: d, Supply: *ms}
		return nil
	})
	if err != nil {
		return nil, err
	}
	publishCommitted(ctx, s.Publisher, s.log(), created)
	return &out, nil
}
