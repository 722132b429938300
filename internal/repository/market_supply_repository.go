package repository

import (
	"context"

	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MarketSupplyRepository interface {
	Create(ctx context.Context, s *model.MarketSupply) error
	FindByID(ctx context.Context, id uint64) (*model.MarketSupply, error)
	FindByIDForUpdate(ctx context.Context, id uint64) (*model.MarketSupply, error)
	Deduct(ctx context.Context, id uint64, qty decimal.Decimal) error
	ListAvailable(ctx context.Context, limit, offset int) ([]model.MarketSupply, int64, error)
	WithTx(tx *gorm.DB) MarketSupplyRepository
	SetDB(db *gorm.DB)
}

type marketSupplyRepository struct {
	db *gorm.DB
}

func NewMarketSupplyRepository(db *gorm.DB) MarketSupplyRepository {
	return &marketSupplyRepository{db: db}
}

func (r *marketSupplyRepository) Create(ctx context.Context, s *model.MarketSupply) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *marketSupplyRepository) FindByID(ctx context.Context, id uint64) (*model.MarketSupply, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var s model.MarketSupply
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *marketSupplyRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*model.MarketSupply, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var s model.MarketSupply
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// Deduct decrements available_qty only when enough is left. It returns
// gorm.ErrRecordNotFound when the guard rejects the update.
func (r *marketSupplyRepository) Deduct(ctx context.Context, id uint64, qty decimal.Decimal) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.MarketSupply{}).
		Where("id = ? AND available_qty >= ?", id, qty).
		Update("available_qty", gorm.Expr("available_qty - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *marketSupplyRepository) ListAvailable(ctx context.Context, limit, offset int) ([]model.MarketSupply, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		list  []model.MarketSupply
		total int64
	)
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.MarketSupply{}).Where("available_qty > 0")
	}
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := base().Order("id DESC").
		Limit(normalizeLimit(limit, 20, 100)).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *marketSupplyRepository) WithTx(tx *gorm.DB) MarketSupplyRepository {
	return &marketSupplyRepository{db: tx}
}

func (r *marketSupplyRepository) SetDB(db *gorm.DB) {
	r.db = db
}
