package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/shinyyama/harvest-market-backend/internal/repository"
	"gorm.io/gorm"
)

var ErrUnknownUser = errors.New("unknown user")

// Resolver loads the user behind an auth uid and its role profile.
type Resolver struct {
	users   repository.UserRepository
	farms   repository.FarmRepository
	vendors repository.VendorRepository
}

func NewResolver(users repository.UserRepository, farms repository.FarmRepository, vendors repository.VendorRepository) *Resolver {
	return &Resolver{users: users, farms: farms, vendors: vendors}
}

func (r *Resolver) Resolve(ctx context.Context, firebaseUID string) (Actor, error) {
	u, err := r.users.FindByFirebaseUID(ctx, firebaseUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}
	return r.FromUser(ctx, u)
}

func (r *Resolver) FromUser(ctx context.Context, u *model.User) (Actor, error) {
	switch u.Role {
	case model.RoleFarmer:
		farms, err := r.farms.ListByOwner(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		ids := make([]uint64, 0, len(farms))
		for _, f := range farms {
			ids = append(ids, f.ID)
		}
		return Farmer{ID: u.ID, FarmIDs: ids}, nil
	case model.RoleVendor:
		v := Vendor{ID: u.ID}
		profile, err := r.vendors.FindByOwner(ctx, u.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if profile != nil {
			v.VendorID = profile.ID
		}
		return v, nil
	case model.RoleAdmin:
		return Admin{ID: u.ID}, nil
	case model.RoleConsumer, "":
		return Consumer{ID: u.ID}, nil
	default:
		return nil, fmt.Errorf("unsupported role %q", u.Role)
	}
}
