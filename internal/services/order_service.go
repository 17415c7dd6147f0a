package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/models"
)

// Broadcaster notifies connected clients after a successful mutation so
// they can refresh. Fire-and-forget: a failed notification never fails
// the mutation.
type Broadcaster interface {
	OrderChanged(eventType string, orderID uuid.UUID, orderNumber string)
}

// OrderService owns the order state machine: open orders accept item,
// discount and status mutations; completed and cancelled orders are
// terminal and immutable for pricing purposes. Every mutation recomputes
// the aggregates from the live item set inside one transaction and
// writes an audit row.
type OrderService struct {
	db        *gorm.DB
	catalog   CatalogResolver
	audit     *AuditService
	seq       *SequenceService
	payments  *PaymentService
	broadcast Broadcaster
	telegram  *TelegramService
}

// NewOrderService constructs OrderService. broadcast and telegram may be
// nil.
func NewOrderService(db *gorm.DB, catalog CatalogResolver, audit *AuditService, seq *SequenceService, payments *PaymentService, broadcast Broadcaster, telegram *TelegramService) *OrderService {
	return &OrderService{
		db:        db,
		catalog:   catalog,
		audit:     audit,
		seq:       seq,
		payments:  payments,
		broadcast: broadcast,
		telegram:  telegram,
	}
}

// CustomerInfo optionally links an order to a customer record and
// snapshots contact details onto the order.
type CustomerInfo struct {
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	Name       string     `json:"name,omitempty"`
	Phone      string     `json:"phone,omitempty"`
}

// DeliveryInfo carries the delivery-specific fields of a new order.
type DeliveryInfo struct {
	Phone   string     `json:"phone"`
	Address string     `json:"address"`
	RiderID *uuid.UUID `json:"rider_id,omitempty"`
	Charge  int64      `json:"charge"`
}

// CreateOrderInput is the createOrder request.
type CreateOrderInput struct {
	OrderType         models.OrderType `json:"order_type"`
	RegisterSessionID uuid.UUID        `json:"register_session_id"`
	TableID           *uuid.UUID       `json:"table_id,omitempty"`
	WaiterID          *uuid.UUID       `json:"waiter_id,omitempty"`
	Customer          *CustomerInfo    `json:"customer,omitempty"`
	Delivery          *DeliveryInfo    `json:"delivery,omitempty"`
}

// validateCreateOrder rejects bad input before any storage round-trip.
func validateCreateOrder(in CreateOrderInput) error {
	if !in.OrderType.Valid() {
		return apperr.Validation("invalid order type %q", in.OrderType)
	}
	if in.RegisterSessionID == uuid.Nil {
		return apperr.Validation("register session is required")
	}
	if in.OrderType == models.OrderDelivery {
		if in.Delivery == nil || in.Delivery.Phone == "" {
			return apperr.Validation("delivery orders require a phone number")
		}
	}
	return nil
}

// ensureOpen guards every mutation of the state machine: no transition
// or edit leaves a terminal state.
func ensureOpen(order *models.Order, action string) error {
	if order.Open() {
		return nil
	}
	return apperr.State("cannot %s: order %s is %s", action, order.OrderNumber, order.Status)
}

// CreateOrder opens a new order in the open state with zero totals. The
// register session must exist and be open; linked records are checked
// before anything is written.
func (s *OrderService) CreateOrder(in CreateOrderInput, actor Actor) (*models.Order, error) {
	if err := validateCreateOrder(in); err != nil {
		return nil, err
	}

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var session models.RegisterSession
		if err := tx.First(&session, "id = ?", in.RegisterSessionID).Error; err != nil {
			return apperr.FromDB(err, "register session")
		}
		if !session.Open() {
			return apperr.State("register session is closed")
		}

		if err := exists(tx, &models.User{}, actor.ID, "creating user"); err != nil {
			return err
		}
		if in.TableID != nil {
			if err := exists(tx, &models.DiningTable{}, *in.TableID, "table"); err != nil {
				return err
			}
		}
		if in.WaiterID != nil {
			if err := exists(tx, &models.User{}, *in.WaiterID, "waiter"); err != nil {
				return err
			}
		}

		number, err := s.seq.NextOrderNumber(tx)
		if err != nil {
			return err
		}

		order = models.Order{
			OrderNumber:       number,
			OrderType:         in.OrderType,
			Status:            models.StatusOpen,
			RegisterSessionID: in.RegisterSessionID,
			TableID:           in.TableID,
			WaiterID:          in.WaiterID,
			CreatedByID:       actor.ID,
		}

		if in.Customer != nil {
			if in.Customer.CustomerID != nil {
				if err := exists(tx, &models.Customer{}, *in.Customer.CustomerID, "customer"); err != nil {
					return err
				}
				order.CustomerID = in.Customer.CustomerID
			}
			order.CustomerName = in.Customer.Name
			order.CustomerPhone = in.Customer.Phone
		}

		if in.OrderType == models.OrderDelivery {
			order.DeliveryStatus = models.DeliveryPending
			order.CustomerPhone = in.Delivery.Phone
			order.DeliveryAddress = in.Delivery.Address
			if in.Delivery.RiderID != nil {
				if err := exists(tx, &models.Rider{}, *in.Delivery.RiderID, "rider"); err != nil {
					return err
				}
				order.RiderID = in.Delivery.RiderID
			}
			if in.Delivery.Charge > 0 {
				order.DeliveryCharge = in.Delivery.Charge
			}
		}

		if err := tx.Create(&order).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		return s.audit.Record(tx, actor.ID, "create_order", "orders", order.ID.String(),
			nil, &order, fmt.Sprintf("created %s order %s", order.OrderType, order.OrderNumber))
	})
	if err != nil {
		return nil, err
	}

	s.notify("order_created", &order)
	return &order, nil
}

// DealSubItemInput selects one sub-item of a deal line along with its
// variant choices, for the kitchen breakdown.
type DealSubItemInput struct {
	MenuItemID uuid.UUID        `json:"menu_item_id"`
	Selections []SelectionInput `json:"selections,omitempty"`
}

// AddItemInput is the addItem request.
type AddItemInput struct {
	ItemType   models.ItemType    `json:"item_type"`
	MenuItemID *uuid.UUID         `json:"menu_item_id,omitempty"`
	DealID     *uuid.UUID         `json:"deal_id,omitempty"`
	Quantity   int                `json:"quantity"`
	Notes      string             `json:"notes,omitempty"`
	Selections []SelectionInput   `json:"selections,omitempty"`
	SubItems   []DealSubItemInput `json:"sub_items,omitempty"`
}

// AddItem prices and appends one line to an open order, then recomputes
// the aggregates. Validation and pricing complete before anything is
// written; a failed add leaves the order untouched.
func (s *OrderService) AddItem(orderID uuid.UUID, in AddItemInput, actor Actor) (*models.OrderItem, error) {
	if in.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be a positive integer")
	}

	var item models.OrderItem
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		if err := ensureOpen(&order, "add item"); err != nil {
			return err
		}

		var err error
		switch in.ItemType {
		case models.ItemMenuItem:
			item, err = s.buildMenuItemLine(in)
		case models.ItemDeal:
			item, err = s.buildDealLine(in)
		default:
			err = apperr.Validation("invalid item type %q", in.ItemType)
		}
		if err != nil {
			return err
		}

		item.OrderID = order.ID
		item.Quantity = in.Quantity
		item.Notes = in.Notes
		item.AddedAt = time.Now()

		item.TotalPrice, err = lineTotal(item.UnitPrice, item.Quantity)
		if err != nil {
			return err
		}

		if err := tx.Create(&item).Error; err != nil {
			return apperr.FromDB(err, "order item")
		}

		if err := s.recalcTx(tx, &order); err != nil {
			return err
		}

		return s.audit.Record(tx, actor.ID, "add_item", "order_items", item.ID.String(),
			nil, &item, fmt.Sprintf("added %dx %s to order %s", item.Quantity, item.Name, order.OrderNumber))
	})
	if err != nil {
		return nil, err
	}

	s.notify("order_items_changed", &order)
	return &item, nil
}

// buildMenuItemLine resolves and prices a menu-item line: catalog base
// price plus the selected variant-option modifiers.
func (s *OrderService) buildMenuItemLine(in AddItemInput) (models.OrderItem, error) {
	if in.MenuItemID == nil {
		return models.OrderItem{}, apperr.Validation("menu_item_id is required for menu item lines")
	}

	mi, err := s.catalog.MenuItem(*in.MenuItemID)
	if err != nil {
		return models.OrderItem{}, err
	}
	if !mi.IsAvailable {
		return models.OrderItem{}, apperr.Validation("menu item %q is not available", mi.Name)
	}

	selections, err := ResolveSelections(mi.Variants, in.Selections)
	if err != nil {
		return models.OrderItem{}, err
	}

	unit, err := UnitPrice(mi.BasePrice, selections)
	if err != nil {
		return models.OrderItem{}, err
	}

	item := models.OrderItem{
		ItemType:   models.ItemMenuItem,
		MenuItemID: &mi.ID,
		Name:       mi.Name,
		UnitPrice:  unit,
		Selections: selections,
	}
	if mi.Category != nil {
		item.Station = mi.Category.Name
	}
	return item, nil
}

// buildDealLine resolves a deal line. The deal's own price is the base;
// deal-level variant choices adjust it, while the sub-item breakdown is
// recorded for kitchen display only and never affects price.
func (s *OrderService) buildDealLine(in AddItemInput) (models.OrderItem, error) {
	if in.DealID == nil {
		return models.OrderItem{}, apperr.Validation("deal_id is required for deal lines")
	}

	deal, err := s.catalog.Deal(*in.DealID)
	if err != nil {
		return models.OrderItem{}, err
	}
	if !deal.IsAvailable {
		return models.OrderItem{}, apperr.Validation("deal %q is not available", deal.Name)
	}

	selections, err := ResolveSelections(deal.Variants, in.Selections)
	if err != nil {
		return models.OrderItem{}, err
	}

	unit, err := UnitPrice(deal.Price, selections)
	if err != nil {
		return models.OrderItem{}, err
	}

	breakdown, err := buildDealBreakdown(deal, in.SubItems)
	if err != nil {
		return models.OrderItem{}, err
	}

	item := models.OrderItem{
		ItemType:      models.ItemDeal,
		DealID:        &deal.ID,
		Name:          deal.Name,
		UnitPrice:     unit,
		Selections:    selections,
		DealBreakdown: breakdown,
	}
	if deal.Category != nil {
		item.Station = deal.Category.Name
	}
	return item, nil
}

func buildDealBreakdown(deal *models.Deal, subItems []DealSubItemInput) ([]models.DealSubItem, error) {
	components := make(map[uuid.UUID]*models.DealItem, len(deal.Items))
	for i := range deal.Items {
		components[deal.Items[i].MenuItemID] = &deal.Items[i]
	}

	out := make([]models.DealSubItem, 0, len(subItems))
	for _, sub := range subItems {
		component, ok := components[sub.MenuItemID]
		if !ok {
			return nil, apperr.Validation("deal %q does not include the selected sub-item", deal.Name)
		}
		if component.MenuItem == nil {
			return nil, apperr.NotFound("deal sub-item not found")
		}

		selections, err := ResolveSelections(component.MenuItem.Variants, sub.Selections)
		if err != nil {
			return nil, err
		}

		out = append(out, models.DealSubItem{
			MenuItemID: component.MenuItemID,
			Name:       component.MenuItem.Name,
			Quantity:   component.Quantity,
			Selections: selections,
		})
	}
	return out, nil
}

// UpdateItemInput carries the partial fields of updateItem. A non-nil
// Selections replaces all of the line's variant choices and reprices it.
type UpdateItemInput struct {
	Quantity   *int              `json:"quantity,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
	Selections *[]SelectionInput `json:"selections,omitempty"`
}

// UpdateItem edits a line of an open order and recomputes the
// aggregates.
func (s *OrderService) UpdateItem(orderID, itemID uuid.UUID, in UpdateItemInput, actor Actor) (*models.OrderItem, error) {
	var item models.OrderItem
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		if err := ensureOpen(&order, "update item"); err != nil {
			return err
		}

		if err := tx.Preload("Selections.Options").
			First(&item, "id = ? AND order_id = ?", itemID, orderID).Error; err != nil {
			return apperr.FromDB(err, "order item")
		}
		before := item

		if in.Quantity != nil {
			if *in.Quantity <= 0 {
				return apperr.Validation("quantity must be a positive integer")
			}
			item.Quantity = *in.Quantity
		}
		if in.Notes != nil {
			item.Notes = *in.Notes
		}

		if in.Selections != nil {
			selections, unit, err := s.repriceLine(&item, *in.Selections)
			if err != nil {
				return err
			}

			if err := deleteLineSelections(tx, item.ID); err != nil {
				return err
			}
			for i := range selections {
				selections[i].OrderItemID = &item.ID
			}
			if len(selections) > 0 {
				if err := tx.Create(&selections).Error; err != nil {
					return apperr.FromDB(err, "variant selections")
				}
			}
			item.Selections = selections
			item.UnitPrice = unit
		}

		total, err := lineTotal(item.UnitPrice, item.Quantity)
		if err != nil {
			return err
		}
		item.TotalPrice = total

		if err := tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).Updates(map[string]any{
			"quantity":    item.Quantity,
			"notes":       item.Notes,
			"unit_price":  item.UnitPrice,
			"total_price": item.TotalPrice,
		}).Error; err != nil {
			return apperr.FromDB(err, "order item")
		}

		if err := s.recalcTx(tx, &order); err != nil {
			return err
		}

		return s.audit.Record(tx, actor.ID, "update_item", "order_items", item.ID.String(),
			&before, &item, fmt.Sprintf("updated item %s on order %s", item.Name, order.OrderNumber))
	})
	if err != nil {
		return nil, err
	}

	s.notify("order_items_changed", &order)
	return &item, nil
}

// repriceLine revalidates the replacement selections against the
// catalog and returns the new unit price.
func (s *OrderService) repriceLine(item *models.OrderItem, inputs []SelectionInput) ([]models.VariantSelection, int64, error) {
	switch item.ItemType {
	case models.ItemMenuItem:
		mi, err := s.catalog.MenuItem(*item.MenuItemID)
		if err != nil {
			return nil, 0, err
		}
		selections, err := ResolveSelections(mi.Variants, inputs)
		if err != nil {
			return nil, 0, err
		}
		unit, err := UnitPrice(mi.BasePrice, selections)
		if err != nil {
			return nil, 0, err
		}
		return selections, unit, nil
	case models.ItemDeal:
		deal, err := s.catalog.Deal(*item.DealID)
		if err != nil {
			return nil, 0, err
		}
		selections, err := ResolveSelections(deal.Variants, inputs)
		if err != nil {
			return nil, 0, err
		}
		unit, err := UnitPrice(deal.Price, selections)
		if err != nil {
			return nil, 0, err
		}
		return selections, unit, nil
	default:
		return nil, 0, apperr.Validation("invalid item type %q", item.ItemType)
	}
}

// RemoveItem deletes a line (and its selection rows) from an open order
// and recomputes the aggregates.
func (s *OrderService) RemoveItem(orderID, itemID uuid.UUID, actor Actor) error {
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		if err := ensureOpen(&order, "remove item"); err != nil {
			return err
		}

		var item models.OrderItem
		if err := tx.First(&item, "id = ? AND order_id = ?", itemID, orderID).Error; err != nil {
			return apperr.FromDB(err, "order item")
		}
		before := item

		if err := deleteItemRows(tx, item.ID); err != nil {
			return err
		}

		if err := s.recalcTx(tx, &order); err != nil {
			return err
		}

		return s.audit.Record(tx, actor.ID, "remove_item", "order_items", item.ID.String(),
			&before, nil, fmt.Sprintf("removed item %s from order %s", item.Name, order.OrderNumber))
	})
	if err != nil {
		return err
	}

	s.notify("order_items_changed", &order)
	return nil
}

// deleteLineSelections removes the item-level selection rows (and their
// chosen options), leaving any deal breakdown untouched.
func deleteLineSelections(tx *gorm.DB, itemID uuid.UUID) error {
	if err := tx.Exec(`DELETE FROM selected_options WHERE variant_selection_id IN
		(SELECT id FROM variant_selections WHERE order_item_id = ?)`, itemID).Error; err != nil {
		return apperr.FromDB(err, "selected options")
	}
	if err := tx.Where("order_item_id = ?", itemID).Delete(&models.VariantSelection{}).Error; err != nil {
		return apperr.FromDB(err, "variant selections")
	}
	return nil
}

// deleteItemRows removes a line and every dependent row: selections and
// their options at both the item and deal-sub-item level.
func deleteItemRows(tx *gorm.DB, itemID uuid.UUID) error {
	if err := tx.Exec(`DELETE FROM selected_options WHERE variant_selection_id IN
		(SELECT id FROM variant_selections WHERE order_item_id = ?
		 OR deal_sub_item_id IN (SELECT id FROM deal_sub_items WHERE order_item_id = ?))`,
		itemID, itemID).Error; err != nil {
		return apperr.FromDB(err, "selected options")
	}
	if err := tx.Exec(`DELETE FROM variant_selections WHERE order_item_id = ?
		OR deal_sub_item_id IN (SELECT id FROM deal_sub_items WHERE order_item_id = ?)`,
		itemID, itemID).Error; err != nil {
		return apperr.FromDB(err, "variant selections")
	}
	if err := tx.Where("order_item_id = ?", itemID).Delete(&models.DealSubItem{}).Error; err != nil {
		return apperr.FromDB(err, "deal sub items")
	}
	if err := tx.Delete(&models.OrderItem{}, "id = ?", itemID).Error; err != nil {
		return apperr.FromDB(err, "order item")
	}
	return nil
}

// ApplyDiscount sets the order's discount and recalculates. The
// surrounding access-control layer authorizes the actor; the engine
// re-validates the permission before touching financial fields.
func (s *OrderService) ApplyDiscount(orderID uuid.UUID, discountType models.DiscountType, value int64, reference string, actor Actor) (*models.Order, error) {
	if !actor.Role.CanDiscount() {
		return nil, apperr.Forbidden("role %q cannot grant discounts", actor.Role)
	}
	if discountType != models.DiscountPercentage && discountType != models.DiscountFixed {
		return nil, apperr.Validation("invalid discount type %q", discountType)
	}
	if value < 0 {
		return nil, apperr.Validation("discount value must not be negative")
	}

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		if err := ensureOpen(&order, "apply discount"); err != nil {
			return err
		}
		before := order

		order.DiscountType = discountType
		order.DiscountValue = value
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"discount_type":  discountType,
			"discount_value": value,
		}).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		if err := s.recalcTx(tx, &order); err != nil {
			return err
		}

		desc := fmt.Sprintf("applied %s discount of %d to order %s", discountType, value, order.OrderNumber)
		if reference != "" {
			desc += " (ref: " + reference + ")"
		}
		return s.audit.Record(tx, actor.ID, "apply_discount", "orders", order.ID.String(), &before, &order, desc)
	})
	if err != nil {
		return nil, err
	}

	s.notify("order_updated", &order)
	return &order, nil
}

// RemoveDiscount resets the discount fields to neutral and recalculates.
func (s *OrderService) RemoveDiscount(orderID uuid.UUID, actor Actor) (*models.Order, error) {
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		if err := ensureOpen(&order, "remove discount"); err != nil {
			return err
		}
		before := order

		order.DiscountType = models.DiscountNone
		order.DiscountValue = 0
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"discount_type":  models.DiscountNone,
			"discount_value": 0,
		}).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		if err := s.recalcTx(tx, &order); err != nil {
			return err
		}

		return s.audit.Record(tx, actor.ID, "remove_discount", "orders", order.ID.String(),
			&before, &order, fmt.Sprintf("removed discount from order %s", order.OrderNumber))
	})
	if err != nil {
		return nil, err
	}

	s.notify("order_updated", &order)
	return &order, nil
}

// SetDeliveryStatus updates the loose delivery sub-status. Only valid on
// delivery orders; no ordering is enforced between the values.
func (s *OrderService) SetDeliveryStatus(orderID uuid.UUID, status models.DeliveryStatus, actor Actor) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("invalid delivery status %q", status)
	}

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		if order.OrderType != models.OrderDelivery {
			return apperr.State("order %s is not a delivery order", order.OrderNumber)
		}
		before := order

		order.DeliveryStatus = status
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("delivery_status", status).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		return s.audit.Record(tx, actor.ID, "set_delivery_status", "orders", order.ID.String(),
			&before, &order, fmt.Sprintf("order %s delivery status set to %s", order.OrderNumber, status))
	})
	if err != nil {
		return nil, err
	}

	s.notify("order_updated", &order)
	return &order, nil
}

// Complete transitions an open order to the terminal completed state.
// With isPaid set, any outstanding balance is settled through the
// payment reconciler in the same transaction; the order row is locked so
// a concurrent settlement cannot double-record the balance. Completion
// of a customer-linked order bumps that customer's order counter.
func (s *OrderService) Complete(orderID uuid.UUID, isPaid bool, method models.PaymentMethod, tendered int64, reference string, actor Actor) (*models.Order, error) {
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", orderID).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		if err := ensureOpen(&order, "complete"); err != nil {
			return err
		}
		before := order

		now := time.Now()
		order.Status = models.StatusCompleted
		order.CompletedAt = &now
		order.CompletedByID = &actor.ID

		if isPaid {
			if _, err := s.payments.settle(tx, &order, method, reference, actor); err != nil {
				return err
			}
			order.IsPaid = true
		}

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"status":          order.Status,
			"completed_at":    order.CompletedAt,
			"completed_by_id": order.CompletedByID,
			"is_paid":         order.IsPaid,
		}).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		if order.CustomerID != nil {
			if err := tx.Model(&models.Customer{}).Where("id = ?", *order.CustomerID).Updates(map[string]any{
				"order_count":   gorm.Expr("order_count + 1"),
				"last_order_at": now,
			}).Error; err != nil {
				return apperr.FromDB(err, "customer")
			}
		}

		return s.audit.Record(tx, actor.ID, "complete_order", "orders", order.ID.String(),
			&before, &order, fmt.Sprintf("completed order %s", order.OrderNumber))
	})
	if err != nil {
		return nil, err
	}

	s.notify("order_completed", &order)
	if s.telegram != nil {
		go s.telegram.NotifyOrderCompleted(&order)
	}
	return &order, nil
}

// Cancel transitions an open order to the terminal cancelled state. The
// reason is required and stored verbatim; financial fields are left
// untouched.
func (s *OrderService) Cancel(orderID uuid.UUID, reason string, actor Actor) (*models.Order, error) {
	if reason == "" {
		return nil, apperr.Validation("a cancellation reason is required")
	}

	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		if err := ensureOpen(&order, "cancel"); err != nil {
			return err
		}
		before := order

		order.Status = models.StatusCancelled
		order.CancelReason = reason
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"status":        models.StatusCancelled,
			"cancel_reason": reason,
		}).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		return s.audit.Record(tx, actor.ID, "cancel_order", "orders", order.ID.String(),
			&before, &order, fmt.Sprintf("cancelled order %s: %s", order.OrderNumber, reason))
	})
	if err != nil {
		return nil, err
	}

	s.notify("order_cancelled", &order)
	if s.telegram != nil {
		go s.telegram.NotifyOrderCancelled(&order)
	}
	return &order, nil
}

// Get loads one order with its lines, payments and print history, and
// opportunistically repairs legacy rows whose aggregates were never
// written.
func (s *OrderService) Get(orderID uuid.UUID, actor Actor) (*models.Order, error) {
	var order models.Order
	err := s.db.
		Preload("Items.Selections.Options").
		Preload("Items.DealBreakdown.Selections.Options").
		Preload("Payments").
		Preload("Prints").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}

	if order.Subtotal == 0 && len(order.Items) > 0 {
		repaired, err := s.RepairAggregates(order.ID, actor)
		if err != nil {
			return nil, err
		}
		order.Subtotal = repaired.Subtotal
		order.DiscountAmount = repaired.DiscountAmount
		order.DeliveryCharge = repaired.DeliveryCharge
		order.Total = repaired.Total
	}

	return &order, nil
}

// notify fires the broadcast hook; failures must never fail the
// mutation, so the hub itself drops events it cannot deliver.
func (s *OrderService) notify(eventType string, order *models.Order) {
	if s.broadcast != nil {
		s.broadcast.OrderChanged(eventType, order.ID, order.OrderNumber)
	}
}

// exists is the referential-integrity check consumed before mutations:
// unknown references are rejected, never silently substituted.
func exists(tx *gorm.DB, model any, id uuid.UUID, entity string) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return apperr.FromDB(err, entity)
	}
	if n == 0 {
		return apperr.NotFound("%s not found", entity)
	}
	return nil
}
