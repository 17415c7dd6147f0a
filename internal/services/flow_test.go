package services

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/models"
)

// testDB connects to the database named by TEST_DATABASE_URL, migrates
// the schema and wipes all rows. Tests needing storage skip when the
// variable is unset.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	for _, m := range []any{
		&models.User{}, &models.Customer{}, &models.DiningTable{}, &models.Rider{},
		&models.RegisterSession{}, &models.Category{}, &models.MenuItem{}, &models.Deal{},
		&models.DealItem{}, &models.Variant{}, &models.VariantOption{}, &models.Order{},
		&models.OrderItem{}, &models.DealSubItem{}, &models.VariantSelection{},
		&models.SelectedOption{}, &models.Payment{}, &models.KOTPrintRecord{},
		&models.AuditLog{}, &models.OrderSequence{},
	} {
		require.NoError(t, db.AutoMigrate(m))
	}

	require.NoError(t, db.Exec(`TRUNCATE TABLE
		selected_options, variant_selections, deal_sub_items, kot_print_records,
		payments, order_items, orders, order_sequences, audit_logs,
		deal_items, variant_options, variants, deals, menu_items, categories,
		register_sessions, riders, dining_tables, customers, users
		RESTART IDENTITY CASCADE`).Error)

	return db
}

type engineFixture struct {
	db       *gorm.DB
	orders   *OrderService
	payments *PaymentService
	kot      *KOTService
	actor    Actor
	session  models.RegisterSession
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	db := testDB(t)
	audit := NewAuditService()
	f := &engineFixture{
		db:       db,
		payments: NewPaymentService(db, audit),
		kot:      NewKOTService(db, audit),
	}
	f.orders = NewOrderService(db, NewCatalogResolver(db), audit,
		NewSequenceService(db), f.payments, nil, nil)

	user := models.User{Username: "shift-manager", PasswordHash: "x", Role: models.RoleManager, IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	f.actor = Actor{ID: user.ID, Role: user.Role}

	f.session = models.RegisterSession{OpenedByID: user.ID, OpenedAt: time.Now()}
	require.NoError(t, db.Create(&f.session).Error)

	return f
}

func (f *engineFixture) menuItem(t *testing.T, category string, price int64) models.MenuItem {
	t.Helper()

	var cat models.Category
	require.NoError(t, f.db.FirstOrCreate(&cat, models.Category{Name: category}).Error)

	item := models.MenuItem{
		CategoryID:  cat.ID,
		Name:        category + " Special",
		BasePrice:   price,
		IsAvailable: true,
	}
	require.NoError(t, f.db.Create(&item).Error)
	return item
}

func (f *engineFixture) openOrder(t *testing.T, orderType models.OrderType) *models.Order {
	t.Helper()

	order, err := f.orders.CreateOrder(CreateOrderInput{
		OrderType:         orderType,
		RegisterSessionID: f.session.ID,
	}, f.actor)
	require.NoError(t, err)
	return order
}

func TestOrderFlowDiscountedCashSettlement(t *testing.T) {
	f := newEngineFixture(t)
	item := f.menuItem(t, "BBQ", 30000)

	order := f.openOrder(t, models.OrderTakeAway)
	assert.Equal(t, "ORD-000001", order.OrderNumber)

	_, err := f.orders.AddItem(order.ID, AddItemInput{
		ItemType:   models.ItemMenuItem,
		MenuItemID: &item.ID,
		Quantity:   2,
	}, f.actor)
	require.NoError(t, err)

	order, err = f.orders.ApplyDiscount(order.ID, models.DiscountPercentage, 10, "", f.actor)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), order.Subtotal)
	assert.Equal(t, int64(6000), order.DiscountAmount)
	assert.Equal(t, int64(54000), order.Total)

	// Customer tenders 60000; only the outstanding 54000 may be recorded.
	order, err = f.orders.Complete(order.ID, true, models.PayCash, 60000, "", f.actor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, order.Status)
	assert.True(t, order.IsPaid)
	require.NotNil(t, order.CompletedAt)

	var payments []models.Payment
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(54000), payments[0].Amount)
	assert.Equal(t, models.PayCash, payments[0].Method)

	// Terminal orders reject further mutations.
	_, err = f.orders.AddItem(order.ID, AddItemInput{
		ItemType:   models.ItemMenuItem,
		MenuItemID: &item.ID,
		Quantity:   1,
	}, f.actor)
	require.Error(t, err)
	assert.Equal(t, apperr.KindState, apperr.KindOf(err))
}

func TestMarkPaidTwiceRejected(t *testing.T) {
	f := newEngineFixture(t)
	item := f.menuItem(t, "BBQ", 30000)

	order := f.openOrder(t, models.OrderDineIn)
	_, err := f.orders.AddItem(order.ID, AddItemInput{
		ItemType:   models.ItemMenuItem,
		MenuItemID: &item.ID,
		Quantity:   1,
	}, f.actor)
	require.NoError(t, err)

	order, err = f.payments.MarkPaid(order.ID, models.PayCard, 0, "", f.actor)
	require.NoError(t, err)
	assert.True(t, order.IsPaid)

	_, err = f.payments.MarkPaid(order.ID, models.PayCard, 0, "", f.actor)
	require.Error(t, err)
	assert.Equal(t, apperr.KindState, apperr.KindOf(err))

	var payments []models.Payment
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(30000), payments[0].Amount)
}

func TestMarkPaidConcurrentKeepsPaymentBound(t *testing.T) {
	f := newEngineFixture(t)
	item := f.menuItem(t, "BBQ", 30000)

	order := f.openOrder(t, models.OrderDineIn)
	_, err := f.orders.AddItem(order.ID, AddItemInput{
		ItemType:   models.ItemMenuItem,
		MenuItemID: &item.ID,
		Quantity:   1,
	}, f.actor)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.payments.MarkPaid(order.ID, models.PayCash, 0, "", f.actor)
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	var paid int64
	require.NoError(t, f.db.Model(&models.Payment{}).
		Where("order_id = ?", order.ID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error)
	assert.Equal(t, int64(30000), paid)
}

func TestPrintKOTStationSplitCommits(t *testing.T) {
	f := newEngineFixture(t)
	bbq := f.menuItem(t, "BBQ", 30000)
	drink := f.menuItem(t, "Drinks", 12000)

	order := f.openOrder(t, models.OrderDineIn)
	for _, mi := range []*models.MenuItem{&bbq, &drink} {
		_, err := f.orders.AddItem(order.ID, AddItemInput{
			ItemType:   models.ItemMenuItem,
			MenuItemID: &mi.ID,
			Quantity:   1,
		}, f.actor)
		require.NoError(t, err)
	}

	batch, err := f.kot.PrintKOT(order.ID, true, false, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.PrintNumber)
	require.Len(t, batch.Tickets, 2)

	// One record per station, sharing the print number.
	var records []models.KOTPrintRecord
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Find(&records).Error)
	require.Len(t, records, 2)
	stations := map[string]bool{}
	for _, record := range records {
		assert.Equal(t, 1, record.PrintNumber)
		assert.Len(t, record.ItemIDs, 1)
		stations[record.Station] = true
	}
	assert.Equal(t, map[string]bool{"BBQ": true, "Drinks": true}, stations)

	var reloaded models.Order
	require.NoError(t, f.db.First(&reloaded, "id = ?", order.ID).Error)
	assert.Equal(t, 1, reloaded.KOTPrintCount)
	require.NotNil(t, reloaded.LastKOTPrintedAt)

	var unstamped int64
	require.NoError(t, f.db.Model(&models.OrderItem{}).
		Where("order_id = ? AND last_printed_at IS NULL", order.ID).
		Count(&unstamped).Error)
	assert.Zero(t, unstamped)

	// Nothing new since the print.
	_, err = f.kot.PrintKOT(order.ID, true, false, f.actor)
	require.ErrorIs(t, err, apperr.ErrNothingToPrint)

	// A fresh item goes out alone on the next print.
	_, err = f.orders.AddItem(order.ID, AddItemInput{
		ItemType:   models.ItemMenuItem,
		MenuItemID: &bbq.ID,
		Quantity:   1,
	}, f.actor)
	require.NoError(t, err)

	batch, err = f.kot.PrintKOT(order.ID, true, false, f.actor)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.PrintNumber)
	require.Len(t, batch.Tickets, 1)
	assert.Equal(t, "BBQ", batch.Tickets[0].Station)
	assert.Len(t, batch.Tickets[0].Items, 1)
}

func TestRepairAggregatesSkipsGenuinelyZeroOrders(t *testing.T) {
	f := newEngineFixture(t)
	free := f.menuItem(t, "Promos", 0)

	order := f.openOrder(t, models.OrderTakeAway)
	_, err := f.orders.AddItem(order.ID, AddItemInput{
		ItemType:   models.ItemMenuItem,
		MenuItemID: &free.ID,
		Quantity:   1,
	}, f.actor)
	require.NoError(t, err)

	// A zero subtotal with live items is the repair trigger, but these
	// items really do net to zero: reads must not write or audit.
	for i := 0; i < 3; i++ {
		got, err := f.orders.Get(order.ID, f.actor)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Total)
	}

	var repairs int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).
		Where("action = ?", "repair_totals").
		Count(&repairs).Error)
	assert.Zero(t, repairs)
}

func TestRepairAggregatesHealsZeroedRow(t *testing.T) {
	f := newEngineFixture(t)
	item := f.menuItem(t, "BBQ", 30000)

	order := f.openOrder(t, models.OrderTakeAway)
	_, err := f.orders.AddItem(order.ID, AddItemInput{
		ItemType:   models.ItemMenuItem,
		MenuItemID: &item.ID,
		Quantity:   2,
	}, f.actor)
	require.NoError(t, err)

	// Simulate a legacy row whose aggregates were never written.
	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
		"subtotal": 0,
		"total":    0,
	}).Error)

	repaired, err := f.orders.RepairAggregates(order.ID, f.actor)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), repaired.Subtotal)
	assert.Equal(t, int64(60000), repaired.Total)

	var repairs int64
	require.NoError(t, f.db.Model(&models.AuditLog{}).
		Where("action = ? AND record_id = ?", "repair_totals", order.ID.String()).
		Count(&repairs).Error)
	assert.Equal(t, int64(1), repairs)

	// Healthy again: a second repair is a no-op.
	_, err = f.orders.RepairAggregates(order.ID, f.actor)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.AuditLog{}).
		Where("action = ? AND record_id = ?", "repair_totals", order.ID.String()).
		Count(&repairs).Error)
	assert.Equal(t, int64(1), repairs)
}
