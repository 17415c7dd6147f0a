package models

import "github.com/google/uuid"

// SelectionMode controls how many options of a variant may be chosen.
type SelectionMode string

const (
	SelectionSingle   SelectionMode = "single"
	SelectionMultiple SelectionMode = "multiple"
	SelectionAll      SelectionMode = "all"
)

// Valid reports whether the mode is one of the known selection modes.
func (m SelectionMode) Valid() bool {
	switch m {
	case SelectionSingle, SelectionMultiple, SelectionAll:
		return true
	}
	return false
}

// Category is a major menu section. KOT station splitting groups order
// items by their category name.
type Category struct {
	BaseModel
	Name      string `gorm:"uniqueIndex" json:"name"`
	SortOrder int    `json:"sort_order"`
	MenuItems []MenuItem `json:"menu_items,omitempty"`
	Deals     []Deal     `json:"deals,omitempty"`
}

// MenuItem is a sellable dish. BasePrice is in minor currency units.
type MenuItem struct {
	BaseModel
	CategoryID  uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category `json:"category,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BasePrice   int64     `json:"base_price"`
	IsAvailable bool      `gorm:"default:true" json:"is_available"`
	Variants    []Variant `gorm:"foreignKey:MenuItemID" json:"variants,omitempty"`
}

// Deal is a fixed-price bundle of menu items. The deal's own Price is the
// line unit price; sub-item composition never changes it.
type Deal struct {
	BaseModel
	CategoryID  uuid.UUID  `gorm:"type:uuid;index" json:"category_id"`
	Category    *Category  `json:"category,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       int64      `json:"price"`
	IsAvailable bool       `gorm:"default:true" json:"is_available"`
	Items       []DealItem `json:"items,omitempty"`
	Variants    []Variant  `gorm:"foreignKey:DealID" json:"variants,omitempty"`
}

// DealItem is one component of a deal bundle.
type DealItem struct {
	BaseModel
	DealID     uuid.UUID `gorm:"type:uuid;index" json:"deal_id"`
	MenuItemID uuid.UUID `gorm:"type:uuid" json:"menu_item_id"`
	MenuItem   *MenuItem `json:"menu_item,omitempty"`
	Quantity   int       `gorm:"default:1" json:"quantity"`
}

// Variant is a customizable attribute of a menu item or deal (size,
// spice level, add-ons). Exactly one of MenuItemID/DealID is set.
type Variant struct {
	BaseModel
	MenuItemID *uuid.UUID      `gorm:"type:uuid;index" json:"menu_item_id,omitempty"`
	DealID     *uuid.UUID      `gorm:"type:uuid;index" json:"deal_id,omitempty"`
	Name       string          `json:"name"`
	Mode       SelectionMode   `gorm:"type:varchar(16)" json:"mode"`
	Required   bool            `json:"required"`
	Options    []VariantOption `json:"options,omitempty"`
}

// VariantOption is one selectable value of a variant. PriceModifier is in
// minor units and may be negative.
type VariantOption struct {
	BaseModel
	VariantID     uuid.UUID `gorm:"type:uuid;index" json:"variant_id"`
	Name          string    `json:"name"`
	PriceModifier int64     `json:"price_modifier"`
	SortOrder     int       `json:"sort_order"`
}
