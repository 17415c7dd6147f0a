package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Kind classifies a domain failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindState
	KindNotFound
	KindConflict
	KindArithmetic
	KindForbidden
	KindInternal
)

// Error is a structured domain failure: a kind plus a caller-facing message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation rejects bad input before any mutation.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// State rejects an operation not allowed in the record's current state.
func State(format string, args ...any) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// NotFound rejects a reference to a record that does not exist.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict maps unique-constraint style failures to a domain condition.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Arithmetic aborts a mutation whose computed amounts are not usable.
func Arithmetic(format string, args ...any) *Error {
	return &Error{Kind: KindArithmetic, Message: fmt.Sprintf(format, args...)}
}

// Forbidden rejects an actor lacking the permission a privileged
// operation re-validates.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// ErrNothingToPrint is the benign "no new items since last KOT" condition.
// Callers may treat it as a no-op rather than a hard failure.
var ErrNothingToPrint = &Error{Kind: KindState, Message: "nothing new to print"}

// KindOf extracts the Kind of err, or KindUnknown for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// FromDB translates storage-layer errors into the domain taxonomy.
// gorm's not-found stays a NotFound; postgres unique violations become
// Conflicts so callers see "already exists" instead of a raw driver error.
func FromDB(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound("%s not found", entity)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return Conflict("%s already exists", entity)
	}
	return &Error{Kind: KindInternal, Message: "storage error", Err: err}
}

// HTTPStatus maps a domain error onto the transport status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindState, KindConflict:
		return fiber.StatusConflict
	case KindNotFound:
		return fiber.StatusNotFound
	case KindArithmetic:
		return fiber.StatusUnprocessableEntity
	case KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}
