package repository

import (
	"context"

	"github.com/shinyyama/harvest-market-backend/internal/model"
	"gorm.io/gorm"
)

// OrderDetailFilter scopes a listing either to a farm (farmer view) or to
// the pre-orders of a vendor.
type OrderDetailFilter struct {
	FarmID   uint64
	VendorID uint64
	Status   model.OfferStatus
	Limit    int
	Offset   int
}

type OrderDetailRepository interface {
	Create(ctx context.Context, d *model.OrderDetail) error
	FindByID(ctx context.Context, id uint64) (*model.OrderDetail, error)
	FindByPreOrderAndFarm(ctx context.Context, preOrderID, farmID uint64) (*model.OrderDetail, error)
	ListByPreOrder(ctx context.Context, preOrderID uint64) ([]model.OrderDetail, error)
	CountByPreOrder(ctx context.Context, preOrderID uint64) (int64, error)
	Update(ctx context.Context, d *model.OrderDetail) error
	List(ctx context.Context, f OrderDetailFilter) ([]model.OrderDetail, int64, error)
	WithTx(tx *gorm.DB) OrderDetailRepository
	SetDB(db *gorm.DB)
}

type orderDetailRepository struct {
	db *gorm.DB
}

func NewOrderDetailRepository(db *gorm.DB) OrderDetailRepository {
	return &orderDetailRepository{db: db}
}

// Create fails with gorm.ErrDuplicatedKey when the farm already offered on
// the pre-order.
func (r *orderDetailRepository) Create(ctx context.Context, d *model.OrderDetail) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *orderDetailRepository) FindByID(ctx context.Context, id uint64) (*model.OrderDetail, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var d model.OrderDetail
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *orderDetailRepository) FindByPreOrderAndFarm(ctx context.Context, preOrderID, farmID uint64) (*model.OrderDetail, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var d model.OrderDetail
	if err := r.db.WithContext(ctx).
		Where("pre_order_id = ? AND farm_id = ?", preOrderID, farmID).
		First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *orderDetailRepository) ListByPreOrder(ctx context.Context, preOrderID uint64) ([]model.OrderDetail, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.OrderDetail
	if err := r.db.WithContext(ctx).
		Where("pre_order_id = ?", preOrderID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderDetailRepository) CountByPreOrder(ctx context.Context, preOrderID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.OrderDetail{}).
		Where("pre_order_id = ?", preOrderID).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *orderDetailRepository) Update(ctx context.Context, d *model.OrderDetail) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *orderDetailRepository) List(ctx context.Context, f OrderDetailFilter) ([]model.OrderDetail, int64, error) {
	if r.db == nil {
		return nil, 0, ErrDBNotReady
	}
	var (
		list  []model.OrderDetail
		total int64
	)
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&model.OrderDetail{})
		if f.FarmID != 0 {
			q = q.Where("farm_id = ?", f.FarmID)
		}
		if f.VendorID != 0 {
			owned := r.db.Model(&model.PreOrder{}).Select("id").Where("user_id = ?", f.VendorID)
			q = q.Where("pre_order_id IN (?)", owned)
		}
		if f.Status != "" {
			q = q.Where("offer_status = ?", f.Status)
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

func (r *orderDetailRepository) WithTx(tx *gorm.DB) OrderDetailRepository {
	return &orderDetailRepository{db: tx}
}

func (r *orderDetailRepository) SetDB(db *gorm.DB) {
	r.db = db
}
