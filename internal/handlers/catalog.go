package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/models"
	"github.com/example/tandoor/internal/utils"
)

// CatalogHandler manages menu catalog resources: categories, menu items
// with their variant groups, and deals. The pricing engine only ever
// reads this data through the catalog resolver.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

// ListCategories returns paginated categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	var categories []models.Category
	var total int64

	if err := h.db.Model(&models.Category{}).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Order("sort_order asc, name asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&categories).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    categories,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetCategory returns a single category with its items and deals.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.Preload("MenuItems.Variants.Options").Preload("Deals").
		First(&category, "id = ?", id).Error; err != nil {
		return domainError(apperr.FromDB(err, "category"))
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var payload models.Category
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if payload.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return domainError(apperr.FromDB(err, "category"))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateCategory updates an existing category.
func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var category models.Category
	if err := h.db.First(&category, "id = ?", id).Error; err != nil {
		return domainError(apperr.FromDB(err, "category"))
	}

	var payload models.Category
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	payload.ID = category.ID
	if err := h.db.Model(&category).Updates(payload).Error; err != nil {
		return domainError(apperr.FromDB(err, "category"))
	}

	return c.JSON(fiber.Map{"success": true, "data": category})
}

// DeleteCategory removes a category.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
		return domainError(apperr.FromDB(err, "category"))
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListMenuItems returns paginated menu items, filterable by category.
func (h *CatalogHandler) ListMenuItems(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.MenuItem{})

	if category := c.Query("category"); category != "" {
		id, err := uuid.Parse(category)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid category id")
		}
		query = query.Where("category_id = ?", id)
	}
	if available := c.Query("available"); available != "" {
		query = query.Where("is_available = ?", available == "true")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var items []models.MenuItem
	if err := query.Preload("Variants.Options").
		Order("name asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetMenuItem returns a single menu item with its variant groups.
func (h *CatalogHandler) GetMenuItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.MenuItem
	if err := h.db.Preload("Variants.Options").
		First(&item, "id = ?", id).Error; err != nil {
		return domainError(apperr.FromDB(err, "menu item"))
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

// CreateMenuItem persists a menu item together with nested variant
// groups and options.
func (h *CatalogHandler) CreateMenuItem(c *fiber.Ctx) error {
	var payload models.MenuItem
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if payload.Name == "" || payload.CategoryID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "name and category_id are required")
	}
	if payload.BasePrice < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "base_price must not be negative")
	}
	for _, v := range payload.Variants {
		if !v.Mode.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid variant selection mode")
		}
		if len(v.Options) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "variant requires at least one option")
		}
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return domainError(apperr.FromDB(err, "menu item"))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// UpdateMenuItem updates a menu item's own fields. Variant edits are
// rejected here so that existing order lines keep pointing at stable
// option rows.
func (h *CatalogHandler) UpdateMenuItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var item models.MenuItem
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		return domainError(apperr.FromDB(err, "menu item"))
	}

	var payload models.MenuItem
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if payload.BasePrice < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "base_price must not be negative")
	}

	payload.ID = item.ID
	payload.Variants = nil
	if err := h.db.Model(&item).Updates(payload).Error; err != nil {
		return domainError(apperr.FromDB(err, "menu item"))
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

// DeleteMenuItem removes a menu item.
func (h *CatalogHandler) DeleteMenuItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.MenuItem{}, "id = ?", id).Error; err != nil {
		return domainError(apperr.FromDB(err, "menu item"))
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListDeals returns paginated deals with their composition.
func (h *CatalogHandler) ListDeals(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	var deals []models.Deal
	var total int64

	if err := h.db.Model(&models.Deal{}).Count(&total).Error; err != nil {
		return err
	}

	if err := h.db.Preload("Items.MenuItem").Preload("Variants.Options").
		Order("name asc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&deals).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    deals,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetDeal returns a single deal with its sub-items and variant groups.
func (h *CatalogHandler) GetDeal(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var deal models.Deal
	if err := h.db.Preload("Items.MenuItem").Preload("Variants.Options").
		First(&deal, "id = ?", id).Error; err != nil {
		return domainError(apperr.FromDB(err, "deal"))
	}

	return c.JSON(fiber.Map{"success": true, "data": deal})
}

// CreateDeal persists a deal with nested sub-items and variant groups.
func (h *CatalogHandler) CreateDeal(c *fiber.Ctx) error {
	var payload models.Deal
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if payload.Name == "" || payload.CategoryID == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "name and category_id are required")
	}
	if payload.Price < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "price must not be negative")
	}
	if len(payload.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "a deal requires at least one item")
	}
	for _, di := range payload.Items {
		if di.MenuItemID == uuid.Nil || di.Quantity < 1 {
			return fiber.NewError(fiber.StatusBadRequest, "deal items require menu_item_id and quantity >= 1")
		}
	}
	for _, v := range payload.Variants {
		if !v.Mode.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "invalid variant selection mode")
		}
	}

	if err := h.db.Create(&payload).Error; err != nil {
		return domainError(apperr.FromDB(err, "deal"))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": payload})
}

// DeleteDeal removes a deal.
func (h *CatalogHandler) DeleteDeal(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Deal{}, "id = ?", id).Error; err != nil {
		return domainError(apperr.FromDB(err, "deal"))
	}

	return c.SendStatus(fiber.StatusNoContent)
}
