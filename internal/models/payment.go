package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod enumerates how an order balance was settled.
type PaymentMethod string

const (
	PayCash   PaymentMethod = "cash"
	PayCard   PaymentMethod = "card"
	PayOnline PaymentMethod = "online"
	PayOther  PaymentMethod = "other"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayCard, PayOnline, PayOther:
		return true
	}
	return false
}

// Payment is an append-only audit row. Invariant: the sum of a single
// order's payment amounts never exceeds that order's total, because only
// the outstanding balance is ever recorded, never the tendered amount.
type Payment struct {
	BaseModel
	OrderID      uuid.UUID     `gorm:"type:uuid;index" json:"order_id"`
	Amount       int64         `json:"amount"`
	Method       PaymentMethod `gorm:"type:varchar(16)" json:"method"`
	Reference    string        `json:"reference,omitempty"`
	ReceivedAt   time.Time     `json:"received_at"`
	RecordedByID uuid.UUID     `gorm:"type:uuid" json:"recorded_by_id"`
}
