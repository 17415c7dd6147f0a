package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/models"
)

// CatalogResolver supplies catalog data to the pricing engine. The
// engine consumes prices and variant definitions; catalog CRUD lives
// outside the engine.
type CatalogResolver interface {
	MenuItem(id uuid.UUID) (*models.MenuItem, error)
	Deal(id uuid.UUID) (*models.Deal, error)
}

type gormCatalog struct {
	db *gorm.DB
}

// NewCatalogResolver returns the GORM-backed resolver.
func NewCatalogResolver(db *gorm.DB) CatalogResolver {
	return &gormCatalog{db: db}
}

func (c *gormCatalog) MenuItem(id uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	err := c.db.
		Preload("Category").
		Preload("Variants.Options").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, apperr.FromDB(err, "menu item")
	}
	return &item, nil
}

func (c *gormCatalog) Deal(id uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	err := c.db.
		Preload("Category").
		Preload("Variants.Options").
		Preload("Items.MenuItem.Variants.Options").
		First(&deal, "id = ?", id).Error
	if err != nil {
		return nil, apperr.FromDB(err, "deal")
	}
	return &deal, nil
}
