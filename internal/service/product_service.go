package service

import (
	"context"
	"strings"

	"github.com/shinyyama/harvest-market-backend/internal/identity"
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shinyyama/harvest-market-backend/internal/repository"
)

type ProductInput struct {
	Name        string
	Unit        string
	Image       *string
	Description string
}

type ProductService interface {
	Create(ctx context.Context, actor identity.Actor, in ProductInput) (*model.Product, error)
	Update(ctx context.Context, actor identity.Actor, id uint64, in ProductInput) (*model.Product, error)
	Get(ctx context.Context, id uint64) (*model.Product, error)
	List(ctx context.Context, ownerID uint64, limit, offset int) ([]model.Product, int64, error)
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func normalizeProduct(in ProductInput) (ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || len(in.Name) > 120 {
		return in, validationf("name must be 1 to 120 characters")
	}
	if in.Unit == "" {
		in.Unit = model.DefaultUnit
	}
	if in.Image != nil && strings.HasPrefix(strings.TrimSpace(*in.Image), "data:") {
		return in, validationf("image must be a URL, not a data URI")
	}
	return in, nil
}

func canManageProducts(actor identity.Actor) bool {
	switch actor.(type) {
	case identity.Farmer, identity.Vendor, identity.Admin:
		return true
	}
	return false
}

func (s *productService) Create(ctx context.Context, actor identity.Actor, in ProductInput) (*model.Product, error) {
	if !canManageProducts(actor) {
		return nil, forbiddenf("role %s cannot create products", actor.Role())
	}
	in, err := normalizeProduct(in)
	if err != nil {
		return nil, err
	}
	p := &model.Product{
		OwnerID:     actor.UserID(),
		Name:        in.Name,
		Unit:        in.Unit,
		Image:       in.Image,
		Description: in.Description,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update edits product metadata. Only the owner, or an admin, may do so.
func (s *productService) Update(ctx context.Context, actor identity.Actor, id uint64, in ProductInput) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if _, admin := actor.(identity.Admin); !admin && p.OwnerID != actor.UserID() {
		return nil, forbiddenf("product %d belongs to another user", id)
	}
	in, err = normalizeProduct(in)
	if err != nil {
		return nil, err
	}
	p.Name = in.Name
	p.Unit = in.Unit
	p.Description = in.Description
	if in.Image != nil {
		p.Image = in.Image
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *productService) Get(ctx context.Context, id uint64) (*model.Product, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, ownerID uint64, limit, offset int) ([]model.Product, int64, error) {
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, ownerID, limit, offset)
}
