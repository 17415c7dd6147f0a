package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/models"
)

// PaymentService reconciles amounts paid against an order. Payment rows
// are append-only; only the outstanding balance is ever recorded, never
// the tendered amount, so Σ payments can never exceed the order total.
type PaymentService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(db *gorm.DB, audit *AuditService) *PaymentService {
	return &PaymentService{db: db, audit: audit}
}

// settlementAmount is the amount a new payment row would carry: the
// unpaid remainder of the total, floored at zero.
func settlementAmount(total, paidSoFar int64) int64 {
	outstanding := total - paidSoFar
	if outstanding < 0 {
		return 0
	}
	return outstanding
}

// paidSoFar sums the order's existing payment rows inside tx.
func (s *PaymentService) paidSoFar(tx *gorm.DB, orderID uuid.UUID) (int64, error) {
	var paid int64
	err := tx.Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&paid).Error
	if err != nil {
		return 0, apperr.FromDB(err, "payments")
	}
	return paid, nil
}

// settle records the outstanding balance of the order as one payment row
// inside tx. A zero balance writes nothing and returns nil. A nonzero
// balance requires a valid method. The caller-supplied tendered amount is
// deliberately not a parameter here: change-tendering amounts are never
// recorded as revenue.
func (s *PaymentService) settle(tx *gorm.DB, order *models.Order, method models.PaymentMethod, reference string, actor Actor) (*models.Payment, error) {
	paid, err := s.paidSoFar(tx, order.ID)
	if err != nil {
		return nil, err
	}

	outstanding := settlementAmount(order.Total, paid)
	if outstanding == 0 {
		return nil, nil
	}

	if !method.Valid() {
		return nil, apperr.Validation("a payment method is required while a balance is outstanding")
	}

	payment := models.Payment{
		OrderID:      order.ID,
		Amount:       outstanding,
		Method:       method,
		Reference:    reference,
		ReceivedAt:   time.Now(),
		RecordedByID: actor.ID,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return nil, apperr.FromDB(err, "payment")
	}

	if err := s.audit.Record(tx, actor.ID, "record_payment", "payments", payment.ID.String(),
		nil, &payment, "settled outstanding balance"); err != nil {
		return nil, err
	}

	return &payment, nil
}

// MarkPaid settles an open order's outstanding balance and flags it paid.
// The tendered amount is accepted for change-making display only and is
// never persisted. The order row is locked for the duration of the
// transaction so concurrent settlements serialize instead of both
// recording the full balance.
func (s *PaymentService) MarkPaid(orderID uuid.UUID, method models.PaymentMethod, tendered int64, reference string, actor Actor) (*models.Order, error) {
	var order models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", orderID).Error; err != nil {
			return apperr.FromDB(err, "order")
		}
		if !order.Open() {
			return apperr.State("only open orders can be marked paid")
		}
		if order.IsPaid {
			return apperr.State("order is already marked paid")
		}

		before := order

		if _, err := s.settle(tx, &order, method, reference, actor); err != nil {
			return err
		}

		order.IsPaid = true
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("is_paid", true).Error; err != nil {
			return apperr.FromDB(err, "order")
		}

		return s.audit.Record(tx, actor.ID, "mark_paid", "orders", order.ID.String(),
			&before, &order, "order marked paid")
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
