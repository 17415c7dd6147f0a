package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tandoor/internal/apperr"
)

const orderSequenceName = "orders"

// SequenceService allocates order numbers from a dedicated sequence row
// with an atomic increment. Numbers are never derived from the highest
// existing order, so concurrent creation cannot allocate duplicates.
// Allocation inside an aborted transaction leaves a gap; gaps are fine.
type SequenceService struct {
	db *gorm.DB
}

// NewSequenceService constructs SequenceService.
func NewSequenceService(db *gorm.DB) *SequenceService {
	return &SequenceService{db: db}
}

// NextOrderNumber bumps the sequence inside tx and formats the result.
func (s *SequenceService) NextOrderNumber(tx *gorm.DB) (string, error) {
	var value int64
	err := tx.Raw(`
		INSERT INTO order_sequences (id, name, value, created_at, updated_at)
		VALUES (?, ?, 1, now(), now())
		ON CONFLICT (name) DO UPDATE
		SET value = order_sequences.value + 1, updated_at = now()
		RETURNING value`,
		uuid.New(), orderSequenceName).Scan(&value).Error
	if err != nil {
		return "", apperr.FromDB(err, "order sequence")
	}
	return FormatOrderNumber(value), nil
}

// FormatOrderNumber renders the human-readable order number.
func FormatOrderNumber(n int64) string {
	return fmt.Sprintf("ORD-%06d", n)
}
