package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shinyyama/harvest-market-backend/internal/identity"
	"github.com/shinyyama/harvest-market-backend/internal/ledger"
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shinyyama/harvest-market-backend/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SubmitOfferInput struct {
	PreOrderID   uint64
	FulfilledQty decimal.Decimal
	Status       model.OfferStatus
	Description  string
}

type OfferFilter struct {
	Status model.OfferStatus
	Limit  int
	Offset int
}

// OfferService drives an OrderDetail through
// pending/accepted -> confirmed|rejected|cancelled.
type OfferService interface {
	SubmitOffer(ctx context.Context, farmer identity.Farmer, in SubmitOfferInput) (*model.OrderDetail, error)
	ConfirmOffer(ctx context.Context, vendor identity.Vendor, orderDetailID uint64, decision model.OfferStatus) (*model.OrderDetail, error)
	CancelOffer(ctx context.Context, actor identity.Actor, orderDetailID uint64) (*model.OrderDetail, error)
	ListOffersForPreOrder(ctx context.Context, vendor identity.Vendor, preOrderID uint64) ([]model.OrderDetail, error)
	FilterOffers(ctx context.Context, actor identity.Actor, f OfferFilter) ([]model.OrderDetail, int64, error)
}

type offerService struct {
	Deps
	now func() time.Time
}

func NewOfferService(d Deps) OfferService {
	return &offerService{Deps: d, now: time.Now}
}

func (s *offerService) SubmitOffer(ctx context.Context, farmer identity.Farmer, in SubmitOfferInput) (*model.OrderDetail, error) {
	farmID, err := farmer.Farm()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForbidden, err)
	}
	if err := checkScale("fulfilled quantity", in.FulfilledQty); err != nil {
		return nil, err
	}
	switch in.Status {
	case model.OfferStatusAccepted:
		if !in.FulfilledQty.IsPositive() {
			return nil, validationf("fulfilled quantity must be greater than zero")
		}
	case model.OfferStatusRejected:
		if in.FulfilledQty.IsNegative() {
			return nil, validationf("fulfilled quantity must not be negative")
		}
	default:
		return nil, validationf("offer status must be accepted or rejected")
	}

	var (
		d       *model.OrderDetail
		created []model.Notification
	)
	err = s.Tx.Do(ctx, func(tx *gorm.DB) error {
		p, err := s.PreOrders.WithTx(tx).FindByIDForUpdate(ctx, in.PreOrderID)
		if err != nil {
			return notFoundOr(err)
		}
		if p.Status == model.PreOrderStatusCancelled || p.Status == model.PreOrderStatusFulfilled {
			return fmt.Errorf("%w: pre-order is %s", ErrPreOrderLocked, p.Status)
		}
		details := s.Details.WithTx(tx)
		if _, err := details.FindByPreOrderAndFarm(ctx, p.ID, farmID); err == nil {
			return ErrDuplicateOffer
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		d = &model.OrderDetail{
			PreOrderID:   p.ID,
			FarmID:       farmID,
			ProductID:    p.ProductID,
			FulfilledQty: in.FulfilledQty,
			Description:  in.Description,
			OfferStatus:  in.Status,
		}
		if err := details.Create(ctx, d); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateOffer
			}
			return err
		}
		created, err = s.Notifier.NotifyVendor(ctx, tx, d)
		return err
	})
	if err != nil {
		return nil, err
	}
	publishCommitted(ctx, s.Publisher, s.log(), created)
	return d, nil
}

// ConfirmOffer applies the vendor's decision. A confirmation materializes the
// farm's crop, allocates as much as the pre-order still needs, publishes the
// rest as surplus and, once the pre-order is satisfied, rejects every other
// offer still waiting. All of it commits or none of it does.
func (s *offerService) ConfirmOffer(ctx context.Context, vendor identity.Vendor, orderDetailID uint64, decision model.OfferStatus) (*model.OrderDetail, error) {
	if decision != model.OfferStatusConfirmed && decision != model.OfferStatusRejected {
		return nil, validationf("decision must be confirmed or rejected")
	}
	probe, err := s.Details.FindByID(ctx, orderDetailID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	release := s.acquire(ctx, preOrderKey(probe.PreOrderID))
	defer release()

	var (
		result  *model.OrderDetail
		created []model.Notification
	)
	err = s.Tx.Do(ctx, func(tx *gorm.DB) error {
		p, err := s.PreOrders.WithTx(tx).FindByIDForUpdate(ctx, probe.PreOrderID)
		if err != nil {
			return notFoundOr(err)
		}
		if p.UserID != vendor.ID {
			return forbiddenf("pre-order %d belongs to another vendor", p.ID)
		}
		details := s.Details.WithTx(tx)
		d, err := details.FindByID(ctx, orderDetailID)
		if err != nil {
			return notFoundOr(err)
		}
		if d.OfferStatus.Terminal() {
			return fmt.Errorf("%w: offer is %s", ErrOfferAlreadyHandled, d.OfferStatus)
		}
		if p.Status == model.PreOrderStatusCancelled {
			return fmt.Errorf("%w: pre-order is cancelled", ErrPreOrderLocked)
		}

		if decision == model.OfferStatusRejected {
			d.OfferStatus = model.OfferStatusRejected
			if err := details.Update(ctx, d); err != nil {
				return err
			}
			ns, err := s.Notifier.NotifyFarm(ctx, tx, d, "")
			if err != nil {
				return err
			}
			created = append(created, ns...)
			if _, err := s.Status.Recompute(ctx, tx, p.ID); err != nil {
				return err
			}
			result = d
			return nil
		}

		all, err := details.ListByPreOrder(ctx, p.ID)
		if err != nil {
			return err
		}
		already := ledger.ConfirmedTotalExcluding(all, p.Qty, d.ID)
		alloc := ledger.Allocate(d.FulfilledQty, already, p.Qty)

		product, err := s.Products.WithTx(tx).FindByID(ctx, p.ProductID)
		if err != nil {
			return notFoundOr(err)
		}
		crop, err := s.Supply.ConfirmCrop(ctx, tx, d.FarmID, product, d.FulfilledQty, s.now())
		if err != nil {
			return err
		}
		d.CropID = &crop.ID
		d.FulfilledQty = alloc.Allocated
		d.OfferStatus = model.OfferStatusConfirmed
		if err := details.Update(ctx, d); err != nil {
			return err
		}

		override := ""
		if alloc.Surplus.IsPositive() {
			unit := product.UnitOrDefault()
			if _, err := s.Supply.PublishSurplus(ctx, tx, crop, alloc.Surplus, unit); err != nil {
				return err
			}
			override = fmt.Sprintf("Your offer for pre-order #%d was confirmed: %s %s allocated, %s %s listed as surplus.",
				p.ID, alloc.Allocated, unit, alloc.Surplus, unit)
		}
		ns, err := s.Notifier.NotifyFarm(ctx, tx, d, override)
		if err != nil {
			return err
		}
		created = append(created, ns...)

		if ledger.Satisfied(already.Add(alloc.Allocated), p.Qty) {
			for i := range all {
				other := all[i]
				if other.ID == d.ID || other.OfferStatus != model.OfferStatusAccepted {
					continue
				}
				other.OfferStatus = model.OfferStatusRejected
				if err := details.Update(ctx, &other); err != nil {
					return err
				}
				msg := fmt.Sprintf("Pre-order #%d has been fully supplied; your offer was closed.", p.ID)
				ns, err := s.Notifier.NotifyFarm(ctx, tx, &other, msg)
				if err != nil {
					return err
				}
				created = append(created, ns...)
			}
		}

		if _, err := s.Status.Recompute(ctx, tx, p.ID); err != nil {
			return err
		}
		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	publishCommitted(ctx, s.Publisher, s.log(), created)
	return result, nil
}

// CancelOffer withdraws an offer that has not been decided yet. The farm may
// withdraw its own offer and the vendor may drop an offer on its pre-order;
// the other side is told.
func (s *offerService) CancelOffer(ctx context.Context, actor identity.Actor, orderDetailID uint64) (*model.OrderDetail, error) {
	probe, err := s.Details.FindByID(ctx, orderDetailID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	release := s.acquire(ctx, preOrderKey(probe.PreOrderID))
	defer release()

	var (
		result  *model.OrderDetail
		created []model.Notification
	)
	err = s.Tx.Do(ctx, func(tx *gorm.DB) error {
		p, err := s.PreOrders.WithTx(tx).FindByIDForUpdate(ctx, probe.PreOrderID)
		if err != nil {
			return notFoundOr(err)
		}
		details := s.Details.WithTx(tx)
		d, err := details.FindByID(ctx, orderDetailID)
		if err != nil {
			return notFoundOr(err)
		}
		byFarmer := false
		switch a := actor.(type) {
		case identity.Farmer:
			if !a.Owns(d.FarmID) {
				return forbiddenf("offer %d belongs to another farm", d.ID)
			}
			byFarmer = true
		case identity.Vendor:
			if p.UserID != a.ID {
				return forbiddenf("pre-order %d belongs to another vendor", p.ID)
			}
		default:
			return forbiddenf("role %s cannot cancel offers", actor.Role())
		}
		if d.OfferStatus != model.OfferStatusPending && d.OfferStatus != model.OfferStatusAccepted {
			return fmt.Errorf("%w: offer is %s", ErrOfferAlreadyHandled, d.OfferStatus)
		}
		d.OfferStatus = model.OfferStatusCancelled
		if err := details.Update(ctx, d); err != nil {
			return err
		}
		var ns []model.Notification
		if byFarmer {
			ns, err = s.Notifier.NotifyVendor(ctx, tx, d)
		} else {
			ns, err = s.Notifier.NotifyFarm(ctx, tx, d, "")
		}
		if err != nil {
			return err
		}
		created = ns
		if _, err := s.Status.Recompute(ctx, tx, p.ID); err != nil {
			return err
		}
		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	publishCommitted(ctx, s.Publisher, s.log(), created)
	return result, nil
}

func (s *offerService) ListOffersForPreOrder(ctx context.Context, vendor identity.Vendor, preOrderID uint64) ([]model.OrderDetail, error) {
	p, err := s.PreOrders.FindByID(ctx, preOrderID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if p.UserID != vendor.ID {
		return nil, forbiddenf("pre-order %d belongs to another vendor", p.ID)
	}
	return s.Details.ListByPreOrder(ctx, preOrderID)
}

var filterableOfferStatuses = map[model.OfferStatus]bool{
	model.OfferStatusPending:   true,
	model.OfferStatusAccepted:  true,
	model.OfferStatusRejected:  true,
	model.OfferStatusConfirmed: true,
	model.OfferStatusCancelled: true,
}

// FilterOffers lists a farmer's own offers, or the offers made on a
// vendor's pre-orders.
func (s *offerService) FilterOffers(ctx context.Context, actor identity.Actor, f OfferFilter) ([]model.OrderDetail, int64, error) {
	if f.Status != "" && !filterableOfferStatuses[f.Status] {
		return nil, 0, validationf("unknown offer status %q", f.Status)
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	filter := repository.OrderDetailFilter{Status: f.Status, Limit: f.Limit, Offset: f.Offset}
	switch a := actor.(type) {
	case identity.Farmer:
		farmID, err := a.Farm()
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrForbidden, err)
		}
		filter.FarmID = farmID
	case identity.Vendor:
		filter.VendorID = a.ID
	default:
		return nil, 0, forbiddenf("role %s has no offers", actor.Role())
	}
	return s.Details.List(ctx, filter)
}
