package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/tandoor/internal/models"
)

func lines(totals ...int64) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(totals))
	for _, total := range totals {
		out = append(out, models.OrderItem{TotalPrice: total})
	}
	return out
}

func TestCalculateTotalsNoDiscount(t *testing.T) {
	got := CalculateTotals(lines(45000, 12000), models.DiscountNone, 0, models.OrderDineIn, 0)

	assert.Equal(t, int64(57000), got.Subtotal)
	assert.Equal(t, int64(0), got.DiscountAmount)
	assert.Equal(t, int64(0), got.DeliveryCharge)
	assert.Equal(t, int64(57000), got.Total)
}

func TestCalculateTotalsPercentageDiscount(t *testing.T) {
	got := CalculateTotals(lines(100000), models.DiscountPercentage, 15, models.OrderTakeAway, 0)

	assert.Equal(t, int64(15000), got.DiscountAmount)
	assert.Equal(t, int64(85000), got.Total)
}

func TestCalculateTotalsPercentageRounding(t *testing.T) {
	// 15% of 333 minor units is 49.95, rounded half away from zero to 50.
	got := CalculateTotals(lines(333), models.DiscountPercentage, 15, models.OrderDineIn, 0)

	assert.Equal(t, int64(50), got.DiscountAmount)
	assert.Equal(t, int64(283), got.Total)
}

func TestCalculateTotalsFixedDiscount(t *testing.T) {
	got := CalculateTotals(lines(50000), models.DiscountFixed, 20000, models.OrderDineIn, 0)

	assert.Equal(t, int64(20000), got.DiscountAmount)
	assert.Equal(t, int64(30000), got.Total)
}

func TestCalculateTotalsFixedDiscountExceedsSubtotal(t *testing.T) {
	got := CalculateTotals(lines(10000), models.DiscountFixed, 25000, models.OrderDineIn, 0)

	assert.Equal(t, int64(25000), got.DiscountAmount)
	assert.Equal(t, int64(0), got.Total)
}

func TestCalculateTotalsDeliveryChargeAfterDiscount(t *testing.T) {
	got := CalculateTotals(lines(10000), models.DiscountFixed, 25000, models.OrderDelivery, 15000)

	// The discount floors the net at zero; the charge is added on top.
	assert.Equal(t, int64(15000), got.DeliveryCharge)
	assert.Equal(t, int64(15000), got.Total)
}

func TestCalculateTotalsChargeClampedForNonDelivery(t *testing.T) {
	got := CalculateTotals(lines(50000), models.DiscountNone, 0, models.OrderDineIn, 15000)

	assert.Equal(t, int64(0), got.DeliveryCharge)
	assert.Equal(t, int64(50000), got.Total)
}

func TestCalculateTotalsNegativeChargeClamped(t *testing.T) {
	got := CalculateTotals(lines(50000), models.DiscountNone, 0, models.OrderDelivery, -500)

	assert.Equal(t, int64(0), got.DeliveryCharge)
	assert.Equal(t, int64(50000), got.Total)
}

func TestCalculateTotalsNegativeLineCountsAsZero(t *testing.T) {
	got := CalculateTotals(lines(45000, -999), models.DiscountNone, 0, models.OrderDineIn, 0)

	assert.Equal(t, int64(45000), got.Subtotal)
	assert.Equal(t, int64(45000), got.Total)
}

func TestCalculateTotalsEmptyOrder(t *testing.T) {
	got := CalculateTotals(nil, models.DiscountPercentage, 10, models.OrderDelivery, 5000)

	assert.Equal(t, int64(0), got.Subtotal)
	assert.Equal(t, int64(0), got.DiscountAmount)
	assert.Equal(t, int64(5000), got.Total)
}

func TestCalculateTotalsIdempotent(t *testing.T) {
	items := lines(45000, 12000, 8000)

	first := CalculateTotals(items, models.DiscountPercentage, 10, models.OrderDelivery, 15000)
	second := CalculateTotals(items, models.DiscountPercentage, 10, models.OrderDelivery, 15000)

	assert.Equal(t, first, second)
}

func TestPercentOf(t *testing.T) {
	cases := []struct {
		amount int64
		pct    int64
		want   int64
	}{
		{100000, 15, 15000},
		{333, 15, 50},
		{1, 50, 1},
		{0, 100, 0},
		{99999, 100, 99999},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, percentOf(tc.amount, tc.pct), "percentOf(%d, %d)", tc.amount, tc.pct)
	}
}
