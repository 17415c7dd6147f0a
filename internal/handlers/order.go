package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tandoor/internal/middleware"
	"github.com/example/tandoor/internal/models"
	"github.com/example/tandoor/internal/services"
	"github.com/example/tandoor/internal/utils"
)

// OrderHandler exposes the order lifecycle and pricing engine over HTTP.
type OrderHandler struct {
	db       *gorm.DB
	orders   *services.OrderService
	payments *services.PaymentService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB, orders *services.OrderService, payments *services.PaymentService) *OrderHandler {
	return &OrderHandler{db: db, orders: orders, payments: payments}
}

func currentActor(c *fiber.Ctx) (uuid.UUID, models.Role, error) {
	userID, role, ok := middleware.CurrentUser(c)
	if !ok {
		return uuid.Nil, "", fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}
	return userID, role, nil
}

func (h *OrderHandler) actor(c *fiber.Ctx) (services.Actor, error) {
	userID, role, err := currentActor(c)
	if err != nil {
		return services.Actor{}, err
	}
	return services.Actor{ID: userID, Role: role}, nil
}

func orderID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid order id")
	}
	return id, nil
}

// CreateOrder opens a new order against an open register session.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}

	var req services.CreateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.CreateOrder(req, actor)
	if err != nil {
		return domainError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": order})
}

// ListOrders returns paginated orders, filterable by status and type.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if orderType := c.Query("type"); orderType != "" {
		query = query.Where("order_type = ?", orderType)
	}
	if session := c.Query("session"); session != "" {
		id, err := uuid.Parse(session)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
		}
		query = query.Where("register_session_id = ?", id)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns one order with items, payments and print history.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.orders.Get(id, actor)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// AddItem appends a priced line to an open order.
func (h *OrderHandler) AddItem(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req services.AddItemInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.orders.AddItem(id, req, actor)
	if err != nil {
		return domainError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": item})
}

// UpdateItem edits a line of an open order.
func (h *OrderHandler) UpdateItem(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}
	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}

	var req services.UpdateItemInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	item, err := h.orders.UpdateItem(id, itemID, req, actor)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": item})
}

// RemoveItem deletes a line from an open order.
func (h *OrderHandler) RemoveItem(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}
	itemID, err := uuid.Parse(c.Params("itemId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}

	if err := h.orders.RemoveItem(id, itemID, actor); err != nil {
		return domainError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type applyDiscountRequest struct {
	Type      models.DiscountType `json:"type"`
	Value     int64               `json:"value"`
	Reference string              `json:"reference,omitempty"`
}

// ApplyDiscount sets the order's discount. Requires a discount-granting
// role.
func (h *OrderHandler) ApplyDiscount(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req applyDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.ApplyDiscount(id, req.Type, req.Value, req.Reference, actor)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// RemoveDiscount resets the order's discount fields.
func (h *OrderHandler) RemoveDiscount(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.orders.RemoveDiscount(id, actor)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type deliveryStatusRequest struct {
	Status models.DeliveryStatus `json:"status"`
}

// UpdateDeliveryStatus sets the delivery sub-status of a delivery order.
func (h *OrderHandler) UpdateDeliveryStatus(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req deliveryStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.SetDeliveryStatus(id, req.Status, actor)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type completeOrderRequest struct {
	IsPaid        bool                 `json:"is_paid"`
	PaymentMethod models.PaymentMethod `json:"payment_method,omitempty"`
	PaymentAmount int64                `json:"payment_amount,omitempty"`
	Reference     string               `json:"reference,omitempty"`
}

// CompleteOrder finalizes an open order, optionally settling its balance.
func (h *OrderHandler) CompleteOrder(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req completeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.Complete(id, req.IsPaid, req.PaymentMethod, req.PaymentAmount, req.Reference, actor)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type markPaidRequest struct {
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	PaymentAmount int64                `json:"payment_amount,omitempty"`
	Reference     string               `json:"reference,omitempty"`
}

// MarkOrderAsPaid settles an open order's outstanding balance.
func (h *OrderHandler) MarkOrderAsPaid(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req markPaidRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.payments.MarkPaid(id, req.PaymentMethod, req.PaymentAmount, req.Reference, actor)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder voids an open order with a mandatory reason.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	var req cancelOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.Cancel(id, req.Reason, actor)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}

// RepairOrder recomputes aggregates for a legacy order whose stored
// subtotal was never written. A no-op for healthy orders.
func (h *OrderHandler) RepairOrder(c *fiber.Ctx) error {
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	id, err := orderID(c)
	if err != nil {
		return err
	}

	order, err := h.orders.RepairAggregates(id, actor)
	if err != nil {
		return domainError(err)
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}
