package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// KOTPrintRecord is the durable evidence of one kitchen ticket: which
// items went to which station and when. Created once per ticket, never
// mutated or deleted. A station-split print writes one record per
// station, all sharing the same PrintNumber.
type KOTPrintRecord struct {
	BaseModel
	OrderID     uuid.UUID      `gorm:"type:uuid;index" json:"order_id"`
	PrintNumber int            `json:"print_number"`
	Station     string         `json:"station,omitempty"`
	ItemIDs     pq.StringArray `gorm:"type:text[]" json:"item_ids"`
	PrintedByID uuid.UUID      `gorm:"type:uuid" json:"printed_by_id"`
	PrintedAt   time.Time      `json:"printed_at"`
}
