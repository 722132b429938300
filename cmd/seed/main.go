package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shinyyama/harvest-market-backend/internal/config"
	"github.com/shinyyama/harvest-market-backend/internal/db"
	"github.com/shinyyama/harvest-market-backend/internal/model"
	"gorm.io/gorm"
)

type seedAccount struct {
	UID      string
	First    string
	Last     string
	Role     model.Role
	Business string
	Place    string
}

type seedProduct struct {
	Name        string
	Unit        string
	Description string
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("users already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var adminID uint64
		for _, a := range seedAccounts() {
			u := model.User{FirebaseUID: a.UID, FirstName: a.First, LastName: a.Last, Role: a.Role}
			if err := tx.Where(model.User{FirebaseUID: a.UID}).FirstOrCreate(&u).Error; err != nil {
				return fmt.Errorf("upsert user %s: %w", a.UID, err)
			}
			switch a.Role {
			case model.RoleFarmer:
				farm := model.Farm{OwnerID: u.ID, Name: a.Business, Location: a.Place}
				if err := tx.Where(model.Farm{OwnerID: u.ID, Name: a.Business}).FirstOrCreate(&farm).Error; err != nil {
					return fmt.Errorf("upsert farm %s: %w", a.Business, err)
				}
			case model.RoleVendor:
				v := model.Vendor{OwnerID: u.ID, Name: a.Business, Address: a.Place}
				if err := tx.Where(model.Vendor{OwnerID: u.ID}).FirstOrCreate(&v).Error; err != nil {
					return fmt.Errorf("upsert vendor %s: %w", a.Business, err)
				}
			case model.RoleAdmin:
				adminID = u.ID
			}
		}

		for idx, p := range seedProducts() {
			image := picsumURL(p.Name, idx+1)
			prod := model.Product{OwnerID: adminID, Name: p.Name, Unit: p.Unit, Image: &image, Description: p.Description}
			if err := tx.Where(model.Product{Name: p.Name}).FirstOrCreate(&prod).Error; err != nil {
				return fmt.Errorf("upsert product %s: %w", p.Name, err)
			}
		}
		log.Printf("seeded %d accounts and %d products", len(seedAccounts()), len(seedProducts()))
		return nil
	})
}

func seedAccounts() []seedAccount {
	return []seedAccount{
		{UID: "dev-admin", First: "Ayaka", Last: "Mori", Role: model.RoleAdmin},
		{UID: "dev-farmer-1", First: "Kenji", Last: "Sato", Role: model.RoleFarmer, Business: "Sato Family Farm", Place: "Chiba"},
		{UID: "dev-farmer-2", First: "Yui", Last: "Tanaka", Role: model.RoleFarmer, Business: "Green Ridge", Place: "Ibaraki"},
		{UID: "dev-farmer-3", First: "Haruto", Last: "Ito", Role: model.RoleFarmer, Business: "Ito Orchard", Place: "Nagano"},
		{UID: "dev-vendor-1", First: "Mei", Last: "Kobayashi", Role: model.RoleVendor, Business: "Kobayashi Market", Place: "Shibuya, Tokyo"},
		{UID: "dev-vendor-2", First: "Ren", Last: "Watanabe", Role: model.RoleVendor, Business: "Corner Greengrocer", Place: "Yokohama"},
		{UID: "dev-consumer", First: "Sora", Last: "Yamamoto", Role: model.RoleConsumer},
	}
}

func seedProducts() []seedProduct {
	return []seedProduct{
		{Name: "Tomato", Unit: "kg", Description: "Field-grown slicing tomatoes."},
		{Name: "Cherry Tomato", Unit: "kg", Description: "Sweet cherry tomatoes, mixed colors."},
		{Name: "Cucumber", Unit: "kg", Description: "Japanese cucumbers."},
		{Name: "Eggplant", Unit: "kg", Description: "Long eggplants."},
		{Name: "Sweet Corn", Unit: "kg", Description: "Bicolor sweet corn."},
		{Name: "Carrot", Unit: "kg", Description: "Winter carrots."},
		{Name: "Spinach", Unit: "kg", Description: "Leafy spinach bunches."},
	}
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	var count int64
	if err := gdb.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	force := os.Getenv("FORCE_SEED")
	return count == 0 || strings.EqualFold(force, "true"), nil
}

func picsumURL(name string, idx int) string {
	seed := strings.ReplaceAll(strings.ToLower(name), " ", "-")
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d/600/600", seed, idx)
}
