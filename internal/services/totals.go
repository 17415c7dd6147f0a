package services

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/models"
)

// Totals are the derived aggregate fields of an order, in minor units.
type Totals struct {
	Subtotal       int64
	DiscountAmount int64
	DeliveryCharge int64
	Total          int64
}

// CalculateTotals derives the order aggregates from the live item set.
// It is a pure function and idempotent: recalculating from the same
// inputs always yields the same result, so blind retries are safe.
//
// Items with negative stored totals (legacy/corrupt rows) count as zero.
// The delivery charge is clamped to zero for non-delivery orders and for
// negative values. Total never goes below zero.
func CalculateTotals(items []models.OrderItem, discountType models.DiscountType, discountValue int64, orderType models.OrderType, deliveryCharge int64) Totals {
	var subtotal int64
	for _, it := range items {
		if it.TotalPrice > 0 {
			subtotal += it.TotalPrice
		}
	}

	var discount int64
	switch discountType {
	case models.DiscountPercentage:
		discount = percentOf(subtotal, discountValue)
	case models.DiscountFixed:
		discount = discountValue
	}
	if discount < 0 {
		discount = 0
	}

	var charge int64
	if orderType == models.OrderDelivery && deliveryCharge > 0 {
		charge = deliveryCharge
	}

	net := subtotal - discount
	if net < 0 {
		net = 0
	}

	total := net + charge
	if total < 0 {
		total = 0
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		DeliveryCharge: charge,
		Total:          total,
	}
}

// percentOf computes pct% of amount in minor units, rounding half away
// from zero at the single place division occurs.
func percentOf(amount, pct int64) int64 {
	return decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(pct)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// recalcTx rereads the live item list and writes the derived aggregates
// back onto the order row. Always called inside the mutation's
// transaction so a failed mutation leaves the aggregates untouched.
func (s *OrderService) recalcTx(tx *gorm.DB, order *models.Order) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return apperr.FromDB(err, "order items")
	}

	t := CalculateTotals(items, order.DiscountType, order.DiscountValue, order.OrderType, order.DeliveryCharge)

	order.Subtotal = t.Subtotal
	order.DiscountAmount = t.DiscountAmount
	order.DeliveryCharge = t.DeliveryCharge
	order.Total = t.Total

	err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
		"subtotal":        t.Subtotal,
		"discount_amount": t.DiscountAmount,
		"delivery_charge": t.DeliveryCharge,
		"total":           t.Total,
	}).Error
	return apperr.FromDB(err, "order")
}

// RepairAggregates self-heals an order whose stored subtotal is zero
// while items exist (legacy or partially written rows). The repair is an
// explicit, audited operation; item rows are never altered. Orders whose
// recomputed aggregates match the stored values, including orders whose
// items legitimately net to zero, are returned unchanged with no write
// and no audit row.
func (s *OrderService) RepairAggregates(orderID uuid.UUID, actor Actor) (*models.Order, error) {
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
			return apperr.FromDB(err, "order items")
		}

		if order.Subtotal != 0 || len(items) == 0 {
			return nil
		}

		t := CalculateTotals(items, order.DiscountType, order.DiscountValue, order.OrderType, order.DeliveryCharge)
		if t.Subtotal == order.Subtotal && t.DiscountAmount == order.DiscountAmount &&
			t.DeliveryCharge == order.DeliveryCharge && t.Total == order.Total {
			return nil
		}

		before := order
		order.Subtotal = t.Subtotal
		order.DiscountAmount = t.DiscountAmount
		order.DeliveryCharge = t.DeliveryCharge
		order.Total = t.Total

		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"subtotal":        t.Subtotal,
			"discount_amount": t.DiscountAmount,
			"delivery_charge": t.DeliveryCharge,
			"total":           t.Total,
		}).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		return s.audit.Record(tx, actor.ID, "repair_totals", "orders", order.ID.String(),
			&before, &order, "recomputed aggregates for order with zero subtotal and live items")
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
