package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindState, KindOf(State("not open")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("no")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("context: %w", Arithmetic("overflow"))
	assert.Equal(t, KindArithmetic, KindOf(wrapped))
}

func TestFromDB(t *testing.T) {
	assert.NoError(t, FromDB(nil, "order"))

	err := FromDB(gorm.ErrRecordNotFound, "order")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "order not found", err.Error())

	err = FromDB(&pq.Error{Code: "23505"}, "category")
	assert.Equal(t, KindConflict, KindOf(err))

	err = FromDB(errors.New("connection refused"), "order")
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad"), fiber.StatusBadRequest},
		{State("closed"), fiber.StatusConflict},
		{Conflict("dup"), fiber.StatusConflict},
		{NotFound("gone"), fiber.StatusNotFound},
		{Arithmetic("overflow"), fiber.StatusUnprocessableEntity},
		{Forbidden("no"), fiber.StatusForbidden},
		{errors.New("plain"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HTTPStatus(tc.err))
	}
}

func TestErrNothingToPrintIsState(t *testing.T) {
	assert.Equal(t, KindState, KindOf(ErrNothingToPrint))
	assert.True(t, errors.Is(ErrNothingToPrint, ErrNothingToPrint))
}
