package repository

import (
	"context"

	"github.com/shinyyama/harvest-market-backend/internal/model"
	"gorm.io/gorm"
)

type VendorRepository interface {
	Create(ctx context.Context, v *model.Vendor) error
	FindByOwner(ctx context.Context, ownerID uint64) (*model.Vendor, error)
	SetDB(db *gorm.DB)
}

type vendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) Create(ctx context.Context, v *model.Vendor) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *vendorRepository) FindByOwner(ctx context.Context, ownerID uint64) (*model.Vendor, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var v model.Vendor
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("id ASC").
		First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vendorRepository) SetDB(db *gorm.DB) {
	r.db = db
}
