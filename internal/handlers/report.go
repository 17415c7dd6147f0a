package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tandoor/internal/config"
	"github.com/example/tandoor/internal/models"
	"github.com/example/tandoor/internal/utils"
)

// ReportHandler serves end-of-day sales summaries computed from the
// stored order aggregates.
type ReportHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(db *gorm.DB, cfg *config.Config) *ReportHandler {
	return &ReportHandler{db: db, cfg: cfg}
}

type methodRow struct {
	Method models.PaymentMethod `json:"method"`
	Count  int64                `json:"count"`
	Amount int64                `json:"amount"`
}

type typeRow struct {
	OrderType models.OrderType `json:"order_type"`
	Count     int64            `json:"count"`
	Amount    int64            `json:"amount"`
}

// DailySales summarizes one calendar day: completed order totals,
// discount and delivery charge sums, payment method and order type
// breakdowns, plus the cancelled count. Date defaults to today, in the
// server's local zone.
func (h *ReportHandler) DailySales(c *fiber.Ctx) error {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		day = parsed
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 0, 1)

	completed := h.db.Model(&models.Order{}).
		Where("status = ? AND completed_at >= ? AND completed_at < ?", models.StatusCompleted, from, to)

	var summary struct {
		Orders         int64
		Gross          int64
		Subtotal       int64
		Discounts      int64
		DeliveryCharge int64
	}
	if err := completed.Select(
		"COUNT(*) AS orders, " +
			"COALESCE(SUM(total), 0) AS gross, " +
			"COALESCE(SUM(subtotal), 0) AS subtotal, " +
			"COALESCE(SUM(discount_amount), 0) AS discounts, " +
			"COALESCE(SUM(delivery_charge), 0) AS delivery_charge").
		Scan(&summary).Error; err != nil {
		return err
	}

	var cancelled int64
	if err := h.db.Model(&models.Order{}).
		Where("status = ? AND updated_at >= ? AND updated_at < ?", models.StatusCancelled, from, to).
		Count(&cancelled).Error; err != nil {
		return err
	}

	var byMethod []methodRow
	if err := h.db.Model(&models.Payment{}).
		Select("method, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Where("received_at >= ? AND received_at < ?", from, to).
		Group("method").
		Order("method asc").
		Scan(&byMethod).Error; err != nil {
		return err
	}

	var byType []typeRow
	if err := h.db.Model(&models.Order{}).
		Select("order_type, COUNT(*) AS count, COALESCE(SUM(total), 0) AS amount").
		Where("status = ? AND completed_at >= ? AND completed_at < ?", models.StatusCompleted, from, to).
		Group("order_type").
		Order("order_type asc").
		Scan(&byType).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"date":             from.Format("2006-01-02"),
			"completed_orders": summary.Orders,
			"cancelled_orders": cancelled,
			"subtotal":         summary.Subtotal,
			"discounts":        summary.Discounts,
			"delivery_charges": summary.DeliveryCharge,
			"gross_sales":      summary.Gross,
			"gross_formatted":  utils.FormatMinor(summary.Gross, h.cfg.Currency),
			"by_method":        byMethod,
			"by_type":          byType,
		},
	})
}
