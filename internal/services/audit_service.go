package services

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tandoor/internal/apperr"
	"github.com/example/tandoor/internal/models"
)

// Actor identifies the staff member performing an operation, along with
// the role the surrounding access-control layer authenticated.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

// AuditService writes append-only audit rows for every mutating engine
// operation. Records are written inside the caller's transaction so an
// aborted mutation leaves no audit trace.
type AuditService struct{}

// NewAuditService constructs AuditService.
func NewAuditService() *AuditService {
	return &AuditService{}
}

// Record persists one audit row. Before/after may be nil; non-nil values
// are JSON-encoded snapshots.
func (s *AuditService) Record(tx *gorm.DB, actorID uuid.UUID, action, table, recordID string, before, after any, description string) error {
	entry := models.AuditLog{
		ActorID:     actorID,
		Action:      action,
		TableName:   table,
		RecordID:    recordID,
		Description: description,
	}

	if before != nil {
		if data, err := json.Marshal(before); err == nil {
			entry.Before = string(data)
		} else {
			log.Printf("[Audit] failed to encode before snapshot for %s/%s: %v", table, recordID, err)
		}
	}
	if after != nil {
		if data, err := json.Marshal(after); err == nil {
			entry.After = string(data)
		} else {
			log.Printf("[Audit] failed to encode after snapshot for %s/%s: %v", table, recordID, err)
		}
	}

	return apperr.FromDB(tx.Create(&entry).Error, "audit log")
}
