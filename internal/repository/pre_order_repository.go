package repository

import (
	"context"

	"github.com/shinyyama/harvest-market-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PreOrderFilter struct {
	VendorID       uint64
	Status         model.PreOrderStatus
	ExcludePending bool
	Limit          int
	Offset         int
}

type TrendingProduct struct {
	ProductID     uint64
	PreOrderCount int64
}

type PreOrderRepository interface {
	Create(ctx context.Context, p *model.PreOrder) error
	FindByID(ctx context.Context, id uint64) (*model.PreOrder, error)
	FindByIDForUpdate(ctx context.Context, id uint64) (*model.PreOrder, error)
	Update(ctx context.Context, p *model.PreOrder) error
	UpdateStatus(ctx context.Context, id uint64, status model.PreOrderStatus) error
	List(ctx context.Context, f PreOrderFilter) ([]model.PreOrder, int64, error)
	ListOpenForFarm(ctx context.Context, farmID uint64, limit, offset int) ([]model.PreOrder, int64, error)
	Trending(ctx context.Context, limit int) ([]TrendingProduct, int64, error)
	WithTx(tx *gorm.DB) PreOrderRepository
	SetDB(db *gorm.DB)
}

type preOrderRepository struct {
	db *gorm.DB
}

func NewPreOrderRepository(db *gorm.DB) PreOrderRepository {
	return &preOrderRepository{db: db}
}

func (r *preOrderRepository) Create(ctx context.Context, p *model.PreOrder) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *preOrderRepository) FindByID(ctx context.Context, id uint64) (*model.PreOrder, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.PreOrder
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByIDForUpdate takes the pre-order row lock that serializes confirmations
// of its offers.
func (r *preOrderRepository) FindByIDForUpdate(ctx context.Context, id uint64) (*model.PreOrder, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var p model.PreOrder
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *preOrderRepository) Update(ctx context.Context, p *model.PreOrder) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *preOrderRepository) UpdateStatus(ctx context.Context, id uint64, status model.PreOrderStatus) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.PreOrder{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *preOrderRepository) List(ctx context.Context, f PreOrderFilter) ([]model.PreOrder, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		list  []model.PreOrder
		total int64
	)
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.PreOrder{})
		if f.VendorID != 0 {
			q = q.Where("user_id = ?", f.VendorID)
		}
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.ExcludePending {
			q = q.Where("status <> ?", model.PreOrderStatusPending)
		}
		return q
	}
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := base().
		Order("created_at DESC").
		Order("id DESC").
		Limit(normalizeLimit(f.Limit, 20, 100)).
		Offset(f.Offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ListOpenForFarm returns pre-orders still collecting offers that farmID has
// not answered yet.
func (r *preOrderRepository) ListOpenForFarm(ctx context.Context, farmID uint64, limit, offset int) ([]model.PreOrder, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		list  []model.PreOrder
		total int64
	)
	base := func() *gorm.DB {
		answered := r.db.Model(&model.OrderDetail{}).
			Select("pre_order_id").
			Where("farm_id = ?", farmID)
		return r.db.WithContext(ctx).
			Model(&model.PreOrder{}).
			Where("status IN ?", []model.PreOrderStatus{model.PreOrderStatusPending, model.PreOrderStatusPartiallyFulfilled}).
			Where("id NOT IN (?)", answered)
	}
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := base().
		Order("created_at DESC").
		Order("id DESC").
		Limit(normalizeLimit(limit, 20, 100)).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Trending returns the most pre-ordered products and the overall pre-order count.
func (r *preOrderRepository) Trending(ctx context.Context, limit int) ([]TrendingProduct, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.PreOrder{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []TrendingProduct
	if err := r.db.WithContext(ctx).
		Model(&model.PreOrder{}).
		Select("product_id, COUNT(*) AS pre_order_count").
		Group("product_id").
		Order("pre_order_count DESC").
		Order("product_id ASC").
		Limit(normalizeLimit(limit, 3, 20)).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *preOrderRepository) WithTx(tx *gorm.DB) PreOrderRepository {
	return &preOrderRepository{db: tx}
}

func (r *preOrderRepository) SetDB(db *gorm.DB) {
	r.db = db
}
