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

// SupplyService owns crops and the surplus pool. The mutating calls run in
// the caller's transaction.
type SupplyService interface {
	ConfirmCrop(ctx context.Context, tx *gorm.DB, farmID uint64, product *model.Product, qty decimal.Decimal, now time.Time) (*model.Crop, error)
	PublishSurplus(ctx context.Context, tx *gorm.DB, crop *model.Crop, surplus decimal.Decimal, unit string) (*model.MarketSupply, error)
	ConsumeSupply(ctx context.Context, tx *gorm.DB, supplyID uint64, qty decimal.Decimal) (*model.MarketSupply, error)
	ListAvailable(ctx context.Context, limit, offset int) ([]model.MarketSupply, int64, error)
	ListFarmCrops(ctx context.Context, farmer identity.Farmer) ([]model.Crop, error)
}

type supplyService struct {
	crops    repository.CropRepository
	supplies repository.MarketSupplyRepository
}

func NewSupplyService(crops repository.CropRepository, supplies repository.MarketSupplyRepository) SupplyService {
	return &supplyService{crops: crops, supplies: supplies}
}

// ConfirmCrop records the batch a farm commits to when its offer is
// confirmed. The crop carries the full offered quantity; the part the
// pre-order cannot absorb is published separately as surplus.
func (s *supplyService) ConfirmCrop(ctx context.Context, tx *gorm.DB, farmID uint64, product *model.Product, qty decimal.Decimal, now time.Time) (*model.Crop, error) {
	if product == nil {
		return nil, validationf("product is required")
	}
	if qty.IsNegative() {
		return nil, validationf("crop quantity must not be negative")
	}
	harvestAt := harvest.Estimate(product.Name, now)
	c := &model.Crop{
		FarmID:      farmID,
		ProductID:   product.ID,
		Name:        product.Name,
		Qty:         qty,
		Image:       product.Image,
		Status:      model.CropStatusPlanting,
		HarvestDate: &harvestAt,
	}
	if err := s.crops.WithTx(tx).Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// PublishSurplus lists the unallocated part of a crop. Nothing is written
// when surplus is not positive.
func (s *supplyService) PublishSurplus(ctx context.Context, tx *gorm.DB, crop *model.Crop, surplus decimal.Decimal, unit string) (*model.MarketSupply, error) {
	if !surplus.IsPositive() {
		return nil, nil
	}
	if surplus.GreaterThan(crop.Qty) {
		return nil, validationf("surplus %s exceeds crop quantity %s", surplus, crop.Qty)
	}
	if unit == "" {
		unit = model.DefaultUnit
	}
	availability := time.Now()
	if crop.HarvestDate != nil {
		availability = *crop.HarvestDate
	}
	ms := &model.MarketSupply{
		FarmID:       crop.FarmID,
		CropID:       crop.ID,
		ProductID:    crop.ProductID,
		AvailableQty: surplus,
		Unit:         unit,
		Availability: availability,
	}
	if err := s.supplies.WithTx(tx).Create(ctx, ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// ConsumeSupply takes qty out of a market supply. The row stays locked until
// tx ends, and the decrement itself is guarded so the pool never goes negative.
func (s *supplyService) ConsumeSupply(ctx context.Context, tx *gorm.DB, supplyID uint64, qty decimal.Decimal) (*model.MarketSupply, error) {
	if !qty.IsPositive() {
		return nil, validationf("quantity must be greater than zero")
	}
	if err := checkScale("quantity", qty); err != nil {
		return nil, err
	}
	repo := s.supplies.WithTx(tx)
	ms, err := repo.FindByIDForUpdate(ctx, supplyID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if qty.GreaterThan(ms.AvailableQty) {
		return nil, fmt.Errorf("%w: requested %s, available %s", ErrInsufficientSupply, qty, ms.AvailableQty)
	}
	if err := repo.Deduct(ctx, supplyID, qty); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsufficientSupply
		}
		return nil, err
	}
	ms.AvailableQty = ms.AvailableQty.Sub(qty)
	return ms, nil
}

func (s *supplyService) ListAvailable(ctx context.Context, limit, offset int) ([]model.MarketSupply, int64, error) {
	if offset < 0 {
		offset = 0
	}
	return s.supplies.ListAvailable(ctx, limit, offset)
}

func (s *supplyService) ListFarmCrops(ctx context.Context, farmer identity.Farmer) ([]model.Crop, error) {
	crops := []model.Crop{}
	for _, farmID := range farmer.FarmIDs {
		list, err := s.crops.ListByFarm(ctx, farmID)
		if err != nil {
			return nil, err
		}
		crops = append(crops, list...)
	}
	return crops, nil
}
