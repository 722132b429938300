package service

import (
	"context"
	"testing"

	"github.com/shinyyama/harvest-market-backend/internal/identity"
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"github.com/stretchr/testify/require"
)

func TestProductCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProductService(env.products)
	ctx := context.Background()
	farmer := env.farmer(t, "f1", "Farm One")
	dataURI := "data:image/png;base64,AAAA"

	tests := []struct {
		name  string
		actor identity.Actor
		in    ProductInput
		err   error
	}{
		{name: "blank name", actor: farmer, in: ProductInput{Name: "  "}, err: ErrValidation},
		{name: "inline image", actor: farmer, in: ProductInput{Name: "Corn", Image: &dataURI}, err: ErrValidation},
		{name: "consumer", actor: identity.Consumer{ID: 99}, in: ProductInput{Name: "Corn"}, err: ErrForbidden},
		{name: "ok", actor: farmer, in: ProductInput{Name: " Corn ", Description: "yellow"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.Create(ctx, tt.actor, tt.in)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "Corn", p.Name)
			require.Equal(t, model.DefaultUnit, p.Unit)
			require.Equal(t, farmer.ID, p.OwnerID)
		})
	}
}

func TestProductUpdateOwnership(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProductService(env.products)
	ctx := context.Background()
	owner := env.farmer(t, "f1", "Farm One")
	other := env.vendor(t, "v1")

	p, err := svc.Create(ctx, owner, ProductInput{Name: "Carrot", Unit: "bunch"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, other, p.ID, ProductInput{Name: "Parsnip"})
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.Update(ctx, identity.Admin{ID: 1}, p.ID, ProductInput{Name: "Purple Carrot", Unit: "bunch"})
	require.NoError(t, err)
	require.Equal(t, "Purple Carrot", updated.Name)

	_, err = svc.Update(ctx, owner, 404, ProductInput{Name: "x"})
	require.ErrorIs(t, err, ErrNotFound)

	list, total, err := svc.List(ctx, owner.ID, 0, -5)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Purple Carrot", list[0].Name)
}
