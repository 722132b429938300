// Package identity turns an authenticated user into a capability set.
// Each role is its own type, so an operation that needs a vendor takes a
// Vendor and cannot be handed a farmer.
package identity

import (
	"errors"

	"github.com/shinyyama/harvest-market-backend/internal/model"
)

var (
	ErrNoFarm        = errors.New("you do not own a farm")
	ErrAmbiguousFarm = errors.New("you own more than one farm")
)

type Actor interface {
	UserID() uint64
	Role() model.Role
}

type Farmer struct {
	ID      uint64
	FarmIDs []uint64
}

func (f Farmer) UserID() uint64   { return f.ID }
func (f Farmer) Role() model.Role { return model.RoleFarmer }

// Farm returns the single farm a farmer acts for.
func (f Farmer) Farm() (uint64, error) {
	switch len(f.FarmIDs) {
	case 0:
		return 0, ErrNoFarm
	case 1:
		return f.FarmIDs[0], nil
	default:
		return 0, ErrAmbiguousFarm
	}
}

// Owns reports whether farmID belongs to the farmer.
func (f Farmer) Owns(farmID uint64) bool {
	for _, id := range f.FarmIDs {
		if id == farmID {
			return true
		}
	}
	return false
}

type Vendor struct {
	ID       uint64
	VendorID uint64
}

func (v Vendor) UserID() uint64   { return v.ID }
func (v Vendor) Role() model.Role { return model.RoleVendor }

type Admin struct {
	ID uint64
}

func (a Admin) UserID() uint64   { return a.ID }
func (a Admin) Role() model.Role { return model.RoleAdmin }

type Consumer struct {
	ID uint64
}

func (c Consumer) UserID() uint64   { return c.ID }
func (c Consumer) Role() model.Role { return model.RoleConsumer }
