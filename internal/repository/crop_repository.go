package repository

import (
	"context"

	"github.com/shinyyama/harvest-market-backend/internal/model"
	"gorm.io/gorm"
)

type CropRepository interface {
	Create(ctx context.Context, c *model.Crop) error
	FindByID(ctx context.Context, id uint64) (*model.Crop, error)
	ListByFarm(ctx context.Context, farmID uint64) ([]model.Crop, error)
	WithTx(tx *gorm.DB) CropRepository
	SetDB(db *gorm.DB)
}

type cropRepository struct {
	db *gorm.DB
}

func NewCropRepository(db *gorm.DB) CropRepository {
	return &cropRepository{db: db}
}

func (r *cropRepository) Create(ctx context.Context, c *model.Crop) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cropRepository) FindByID(ctx context.Context, id uint64) (*model.Crop, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var c model.Crop
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cropRepository) ListByFarm(ctx context.Context, farmID uint64) ([]model.Crop, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Crop
	if err := r.db.WithContext(ctx).
		Where("farm_id = ?", farmID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *cropRepository) WithTx(tx *gorm.DB) CropRepository {
	return &cropRepository{db: tx}
}

func (r *cropRepository) SetDB(db *gorm.DB) {
	r.db = db
}
