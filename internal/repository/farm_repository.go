package repository

import (
	"context"

	"github.com/shinyyama/harvest-market-backend/internal/model"
	"gorm.io/gorm"
)

type FarmRepository interface {
	Create(ctx context.Context, f *model.Farm) error
	FindByID(ctx context.Context, id uint64) (*model.Farm, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Farm, error)
	ListAll(ctx context.Context) ([]model.Farm, error)
	WithTx(tx *gorm.DB) FarmRepository
	SetDB(db *gorm.DB)
}

type farmRepository struct {
	db *gorm.DB
}

func NewFarmRepository(db *gorm.DB) FarmRepository {
	return &farmRepository{db: db}
}

func (r *farmRepository) Create(ctx context.Context, f *model.Farm) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *farmRepository) FindByID(ctx context.Context, id uint64) (*model.Farm, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var f model.Farm
	if err := r.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *farmRepository) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Farm, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Farm
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListAll returns every farm; the pre-order fan-out resolves its recipients
// from this snapshot once per call.
func (r *farmRepository) ListAll(ctx context.Context) ([]model.Farm, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Farm
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *farmRepository) WithTx(tx *gorm.DB) FarmRepository {
	return &farmRepository{db: tx}
}

func (r *farmRepository) SetDB(db *gorm.DB) {
	r.db = db
}
