package database

import (
	"log"

	"gorm.io/gorm"

	"github.com/example/tandoor/internal/models"
	"github.com/example/tandoor/internal/utils"
)

// Seed creates the initial admin account and a starter menu on an empty
// database. Existing data is never touched.
func Seed(conn *gorm.DB) {
	seedAdmin(conn)
	seedCatalog(conn)
}

func seedAdmin(conn *gorm.DB) {
	var count int64
	if err := conn.Model(&models.User{}).Count(&count).Error; err != nil {
		log.Printf("[Seed] counting users failed: %v", err)
		return
	}
	if count > 0 {
		return
	}

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		log.Printf("[Seed] hashing admin password failed: %v", err)
		return
	}

	admin := models.User{
		Username:     "admin",
		FullName:     "Administrator",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := conn.Create(&admin).Error; err != nil {
		log.Printf("[Seed] creating admin failed: %v", err)
		return
	}

	log.Println("[Seed] created default admin account (change the password)")
}

func seedCatalog(conn *gorm.DB) {
	var count int64
	if err := conn.Model(&models.Category{}).Count(&count).Error; err != nil {
		log.Printf("[Seed] counting categories failed: %v", err)
		return
	}
	if count > 0 {
		return
	}

	bbq := models.Category{Name: "BBQ", SortOrder: 1}
	drinks := models.Category{Name: "Drinks", SortOrder: 2}
	for _, category := range []*models.Category{&bbq, &drinks} {
		if err := conn.Create(category).Error; err != nil {
			log.Printf("[Seed] creating category failed: %v", err)
			return
		}
	}

	tikka := models.MenuItem{
		CategoryID: bbq.ID,
		Name:       "Chicken Tikka",
		BasePrice:  45000,
		Variants: []models.Variant{
			{
				Name:     "Portion",
				Mode:     models.SelectionSingle,
				Required: true,
				Options: []models.VariantOption{
					{Name: "Half", PriceModifier: 0, SortOrder: 1},
					{Name: "Full", PriceModifier: 30000, SortOrder: 2},
				},
			},
			{
				Name: "Extras",
				Mode: models.SelectionMultiple,
				Options: []models.VariantOption{
					{Name: "Extra Raita", PriceModifier: 5000, SortOrder: 1},
					{Name: "Extra Naan", PriceModifier: 7000, SortOrder: 2},
				},
			},
		},
	}
	cola := models.MenuItem{
		CategoryID: drinks.ID,
		Name:       "Soft Drink",
		BasePrice:  12000,
		Variants: []models.Variant{
			{
				Name:     "Size",
				Mode:     models.SelectionSingle,
				Required: true,
				Options: []models.VariantOption{
					{Name: "Regular", PriceModifier: 0, SortOrder: 1},
					{Name: "Large", PriceModifier: 5000, SortOrder: 2},
				},
			},
		},
	}
	for _, item := range []*models.MenuItem{&tikka, &cola} {
		if err := conn.Create(item).Error; err != nil {
			log.Printf("[Seed] creating menu item failed: %v", err)
			return
		}
	}

	deal := models.Deal{
		CategoryID: bbq.ID,
		Name:       "Tikka Combo",
		Price:      52000,
		Items: []models.DealItem{
			{MenuItemID: tikka.ID, Quantity: 1},
			{MenuItemID: cola.ID, Quantity: 1},
		},
		Variants: []models.Variant{
			{
				Name:     "Drink Size",
				Mode:     models.SelectionSingle,
				Required: true,
				Options: []models.VariantOption{
					{Name: "Regular", PriceModifier: 0, SortOrder: 1},
					{Name: "Large", PriceModifier: 5000, SortOrder: 2},
				},
			},
		},
	}
	if err := conn.Create(&deal).Error; err != nil {
		log.Printf("[Seed] creating deal failed: %v", err)
		return
	}

	log.Println("[Seed] created starter catalog")
}
