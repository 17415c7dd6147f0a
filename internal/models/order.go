package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderType distinguishes how the order is fulfilled.
type OrderType string

const (
	OrderDineIn   OrderType = "dine_in"
	OrderTakeAway OrderType = "take_away"
	OrderDelivery OrderType = "delivery"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderDineIn, OrderTakeAway, OrderDelivery:
		return true
	}
	return false
}

// OrderStatus is the order state machine: open is initial, completed and
// cancelled are terminal.
type OrderStatus string

const (
	StatusOpen      OrderStatus = "open"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// DeliveryStatus is the loose delivery sub-status. Any value may follow
// any other; it is not a strict state machine.
type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "pending"
	DeliveryPreparing      DeliveryStatus = "preparing"
	DeliveryReady          DeliveryStatus = "ready"
	DeliveryOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
)

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryPreparing, DeliveryReady, DeliveryOutForDelivery, DeliveryDelivered:
		return true
	}
	return false
}

// DiscountType selects how DiscountValue is interpreted.
type DiscountType string

const (
	DiscountNone       DiscountType = ""
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// ItemType distinguishes menu-item lines from deal lines.
type ItemType string

const (
	ItemMenuItem ItemType = "menu_item"
	ItemDeal     ItemType = "deal"
)

// Order is the aggregate root of the engine. All monetary fields are in
// minor currency units. Invariant, kept by every mutation:
// Total == max(0, Subtotal-DiscountAmount) + DeliveryCharge, and
// DeliveryCharge is nonzero only for delivery orders.
type Order struct {
	BaseModel
	OrderNumber    string         `gorm:"uniqueIndex" json:"order_number"`
	OrderType      OrderType      `gorm:"type:varchar(16);index" json:"order_type"`
	Status         OrderStatus    `gorm:"type:varchar(16);index" json:"status"`
	DeliveryStatus DeliveryStatus `gorm:"type:varchar(24)" json:"delivery_status,omitempty"`
	IsPaid         bool           `json:"is_paid"`

	Subtotal       int64        `json:"subtotal"`
	DiscountType   DiscountType `gorm:"type:varchar(16)" json:"discount_type"`
	DiscountValue  int64        `json:"discount_value"`
	DiscountAmount int64        `json:"discount_amount"`
	DeliveryCharge int64        `json:"delivery_charge"`
	Total          int64        `json:"total"`

	RegisterSessionID uuid.UUID  `gorm:"type:uuid;index" json:"register_session_id"`
	CustomerID        *uuid.UUID `gorm:"type:uuid" json:"customer_id,omitempty"`
	TableID           *uuid.UUID `gorm:"type:uuid" json:"table_id,omitempty"`
	WaiterID          *uuid.UUID `gorm:"type:uuid" json:"waiter_id,omitempty"`
	RiderID           *uuid.UUID `gorm:"type:uuid" json:"rider_id,omitempty"`

	CustomerName    string `json:"customer_name,omitempty"`
	CustomerPhone   string `json:"customer_phone,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty"`

	CreatedByID   uuid.UUID  `gorm:"type:uuid" json:"created_by_id"`
	CompletedByID *uuid.UUID `gorm:"type:uuid" json:"completed_by_id,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CancelReason  string     `json:"cancel_reason,omitempty"`

	KOTPrintCount    int        `json:"kot_print_count"`
	LastKOTPrintedAt *time.Time `json:"last_kot_printed_at,omitempty"`

	Items    []OrderItem      `json:"items,omitempty"`
	Payments []Payment        `json:"payments,omitempty"`
	Prints   []KOTPrintRecord `json:"prints,omitempty"`
}

// Open reports whether the order still accepts mutations.
func (o *Order) Open() bool {
	return o.Status == StatusOpen
}

// OrderItem is one priced line. Exactly one of MenuItemID/DealID is set
// according to ItemType. Invariant: TotalPrice == UnitPrice * Quantity.
type OrderItem struct {
	BaseModel
	OrderID    uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	ItemType   ItemType   `gorm:"type:varchar(16)" json:"item_type"`
	MenuItemID *uuid.UUID `gorm:"type:uuid" json:"menu_item_id,omitempty"`
	DealID     *uuid.UUID `gorm:"type:uuid" json:"deal_id,omitempty"`

	// Snapshots taken at add time so kitchen tickets and receipts stay
	// stable even if the catalog changes afterwards.
	Name    string `json:"name"`
	Station string `json:"station"`

	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	TotalPrice int64  `json:"total_price"`
	Notes      string `json:"notes,omitempty"`

	Selections    []VariantSelection `gorm:"foreignKey:OrderItemID" json:"selections,omitempty"`
	DealBreakdown []DealSubItem      `gorm:"foreignKey:OrderItemID" json:"deal_breakdown,omitempty"`

	AddedAt       time.Time  `json:"added_at"`
	LastPrintedAt *time.Time `json:"last_printed_at,omitempty"`
}

// DealSubItem records one component of a deal line, purely for kitchen
// display and audit. It never affects the line price.
type DealSubItem struct {
	BaseModel
	OrderItemID uuid.UUID          `gorm:"type:uuid;index" json:"order_item_id"`
	MenuItemID  uuid.UUID          `gorm:"type:uuid" json:"menu_item_id"`
	Name        string             `json:"name"`
	Quantity    int                `gorm:"default:1" json:"quantity"`
	Selections  []VariantSelection `gorm:"foreignKey:DealSubItemID" json:"selections,omitempty"`
}

// VariantSelection is the choice made for one variant of a line item.
// Mode tags which shape is live: single-select uses the OptionID/
// OptionName/PriceModifier columns, multiple and "all" use Options.
type VariantSelection struct {
	BaseModel
	OrderItemID   *uuid.UUID    `gorm:"type:uuid;index" json:"order_item_id,omitempty"`
	DealSubItemID *uuid.UUID    `gorm:"type:uuid;index" json:"deal_sub_item_id,omitempty"`
	VariantID     uuid.UUID     `gorm:"type:uuid" json:"variant_id"`
	VariantName   string        `json:"variant_name"`
	Mode          SelectionMode `gorm:"type:varchar(16)" json:"mode"`

	OptionID      *uuid.UUID `gorm:"type:uuid" json:"option_id,omitempty"`
	OptionName    string     `json:"option_name,omitempty"`
	PriceModifier int64      `json:"price_modifier"`

	Options []SelectedOption `gorm:"foreignKey:VariantSelectionID" json:"options,omitempty"`
}

// SelectedOption is one chosen option of a multiple/"all" selection.
type SelectedOption struct {
	BaseModel
	VariantSelectionID uuid.UUID `gorm:"type:uuid;index" json:"variant_selection_id"`
	OptionID           uuid.UUID `gorm:"type:uuid" json:"option_id"`
	OptionName         string    `json:"option_name"`
	PriceModifier      int64     `json:"price_modifier"`
}
