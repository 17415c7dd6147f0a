package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/models"
)

func TestValidateCreateOrder(t *testing.T) {
	session := uuid.New()

	cases := []struct {
		name    string
		in      CreateOrderInput
		wantErr bool
	}{
		{
			name: "dine in",
			in:   CreateOrderInput{OrderType: models.OrderDineIn, RegisterSessionID: session},
		},
		{
			name: "take away",
			in:   CreateOrderInput{OrderType: models.OrderTakeAway, RegisterSessionID: session},
		},
		{
			name: "delivery with phone",
			in: CreateOrderInput{
				OrderType:         models.OrderDelivery,
				RegisterSessionID: session,
				Delivery:          &DeliveryInfo{Phone: "+923001234567"},
			},
		},
		{
			name:    "invalid type",
			in:      CreateOrderInput{OrderType: "drive_thru", RegisterSessionID: session},
			wantErr: true,
		},
		{
			name:    "missing session",
			in:      CreateOrderInput{OrderType: models.OrderDineIn},
			wantErr: true,
		},
		{
			name: "delivery without delivery info",
			in: CreateOrderInput{
				OrderType:         models.OrderDelivery,
				RegisterSessionID: session,
			},
			wantErr: true,
		},
		{
			name: "delivery without phone",
			in: CreateOrderInput{
				OrderType:         models.OrderDelivery,
				RegisterSessionID: session,
				Delivery:          &DeliveryInfo{Address: "Street 1"},
			},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateCreateOrder(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestEnsureOpen(t *testing.T) {
	open := &models.Order{OrderNumber: "ORD-000001", Status: models.StatusOpen}
	assert.NoError(t, ensureOpen(open, "add item"))

	for _, status := range []models.OrderStatus{models.StatusCompleted, models.StatusCancelled} {
		order := &models.Order{OrderNumber: "ORD-000002", Status: status}
		err := ensureOpen(order, "add item")
		require.Error(t, err)
		assert.Equal(t, apperr.KindState, apperr.KindOf(err))
		assert.Contains(t, err.Error(), string(status))
		assert.Contains(t, err.Error(), "ORD-000002")
	}
}

func TestBuildDealBreakdown(t *testing.T) {
	tikka := models.MenuItem{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Name:      "Chicken Tikka",
	}
	deal := &models.Deal{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Name:      "Tikka Combo",
		Items: []models.DealItem{
			{MenuItemID: tikka.ID, MenuItem: &tikka, Quantity: 2},
		},
	}

	breakdown, err := buildDealBreakdown(deal, []DealSubItemInput{
		{MenuItemID: tikka.ID},
	})
	require.NoError(t, err)
	require.Len(t, breakdown, 1)
	assert.Equal(t, "Chicken Tikka", breakdown[0].Name)
	assert.Equal(t, 2, breakdown[0].Quantity)
}

func TestBuildDealBreakdownRejectsForeignSubItem(t *testing.T) {
	deal := &models.Deal{
		BaseModel: models.BaseModel{ID: uuid.New()},
		Name:      "Tikka Combo",
	}

	_, err := buildDealBreakdown(deal, []DealSubItemInput{
		{MenuItemID: uuid.New()},
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
