package models

import (
	"time"

	"github.com/google/uuid"
)

// Role gates privileged operations. Managers and admins may grant
// discounts.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleCashier Role = "cashier"
	RoleWaiter  Role = "waiter"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleCashier, RoleWaiter:
		return true
	}
	return false
}

// CanDiscount reports whether the role holds the discount permission.
func (r Role) CanDiscount() bool {
	return r == RoleAdmin || r == RoleManager
}

// User is a staff member operating the POS.
type User struct {
	BaseModel
	Username     string `gorm:"uniqueIndex" json:"username"`
	FullName     string `json:"full_name"`
	PasswordHash string `json:"-"`
	Role         Role   `gorm:"type:varchar(16)" json:"role"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
}

// Customer is an optional link target for orders; completion bumps the
// order counter and last-order timestamp.
type Customer struct {
	BaseModel
	Name        string     `json:"name"`
	Phone       string     `gorm:"uniqueIndex" json:"phone"`
	Address     string     `json:"address,omitempty"`
	OrderCount  int        `json:"order_count"`
	LastOrderAt *time.Time `json:"last_order_at,omitempty"`
}

// DiningTable is a physical table for dine-in orders.
type DiningTable struct {
	BaseModel
	Number   int    `gorm:"uniqueIndex" json:"number"`
	Name     string `json:"name,omitempty"`
	Capacity int    `json:"capacity"`
}

// Rider delivers delivery orders.
type Rider struct {
	BaseModel
	Name     string `json:"name"`
	Phone    string `gorm:"uniqueIndex" json:"phone"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}

// RegisterSession is one cash-register shift. Orders can only be created
// against an open session.
type RegisterSession struct {
	BaseModel
	OpenedByID   uuid.UUID  `gorm:"type:uuid" json:"opened_by_id"`
	OpenedAt     time.Time  `json:"opened_at"`
	ClosedByID   *uuid.UUID `gorm:"type:uuid" json:"closed_by_id,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	OpeningFloat int64      `json:"opening_float"`
}

// Open reports whether the session still accepts orders.
func (s *RegisterSession) Open() bool {
	return s.ClosedAt == nil
}

// AuditLog captures actor, before/after snapshots and a human-readable
// description for every mutating engine operation. Append-only.
type AuditLog struct {
	BaseModel
	ActorID     uuid.UUID `gorm:"type:uuid;index" json:"actor_id"`
	Action      string    `json:"action"`
	TableName   string    `json:"table_name"`
	RecordID    string    `gorm:"index" json:"record_id"`
	Before      string    `gorm:"type:text" json:"before,omitempty"`
	After       string    `gorm:"type:text" json:"after,omitempty"`
	Description string    `json:"description"`
}

// OrderSequence backs order-number allocation. A single row per sequence
// name, bumped atomically; never derived from the highest existing order.
type OrderSequence struct {
	BaseModel
	Name  string `gorm:"uniqueIndex" json:"name"`
	Value int64  `json:"value"`
}
