package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tandoor/internal/models"
)

func kotItem(station string, added time.Time, printed *time.Time) models.OrderItem {
	return models.OrderItem{
		BaseModel:     models.BaseModel{ID: uuid.New()},
		Station:       station,
		AddedAt:       added,
		LastPrintedAt: printed,
	}
}

func TestNewItemsSinceNeverPrinted(t *testing.T) {
	now := time.Now()
	order := &models.Order{}
	items := []models.OrderItem{
		kotItem("BBQ", now, nil),
		kotItem("Drinks", now, nil),
	}

	assert.Len(t, newItemsSince(order, items), 2)
}

func TestNewItemsSinceExcludesPrinted(t *testing.T) {
	base := time.Now()
	lastPrint := base.Add(5 * time.Minute)
	order := &models.Order{LastKOTPrintedAt: &lastPrint}

	printed := kotItem("BBQ", base, &lastPrint)
	fresh := kotItem("BBQ", lastPrint.Add(time.Minute), nil)

	got := newItemsSince(order, []models.OrderItem{printed, fresh})
	require.Len(t, got, 1)
	assert.Equal(t, fresh.ID, got[0].ID)
}

func TestNewItemsSinceAddedAfterLastPrint(t *testing.T) {
	base := time.Now()
	lastPrint := base.Add(5 * time.Minute)
	order := &models.Order{LastKOTPrintedAt: &lastPrint}

	// Stamped by an earlier print but re-added afterwards: still new.
	stale := base
	late := kotItem("BBQ", lastPrint.Add(time.Minute), &stale)

	got := newItemsSince(order, []models.OrderItem{late})
	require.Len(t, got, 1)
	assert.Equal(t, late.ID, got[0].ID)
}

func TestNewItemsSinceEmpty(t *testing.T) {
	base := time.Now()
	lastPrint := base.Add(5 * time.Minute)
	order := &models.Order{LastKOTPrintedAt: &lastPrint}

	got := newItemsSince(order, []models.OrderItem{
		kotItem("BBQ", base, &lastPrint),
	})
	assert.Empty(t, got)
}

func TestSplitByStationPartition(t *testing.T) {
	now := time.Now()
	items := []models.OrderItem{
		kotItem("BBQ", now, nil),
		kotItem("Drinks", now, nil),
		kotItem("BBQ", now, nil),
	}

	tickets := splitByStation(items)
	require.Len(t, tickets, 2)

	// Stations appear in order of first appearance.
	assert.Equal(t, "BBQ", tickets[0].Station)
	assert.Equal(t, "Drinks", tickets[1].Station)
	assert.Len(t, tickets[0].Items, 2)
	assert.Len(t, tickets[1].Items, 1)

	// Every item lands in exactly one ticket.
	seen := make(map[uuid.UUID]int)
	for _, ticket := range tickets {
		for _, it := range ticket.Items {
			seen[it.ID]++
		}
	}
	require.Len(t, seen, len(items))
	for id, n := range seen {
		assert.Equal(t, 1, n, "item %s duplicated across tickets", id)
	}
}

func TestSplitByStationFallback(t *testing.T) {
	now := time.Now()
	tickets := splitByStation([]models.OrderItem{kotItem("", now, nil)})

	require.Len(t, tickets, 1)
	assert.Equal(t, fallbackStation, tickets[0].Station)
}

func TestSplitByStationEmpty(t *testing.T) {
	assert.Empty(t, splitByStation(nil))
}
