package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatOrderNumber(t *testing.T) {
	assert.Equal(t, "ORD-000001", FormatOrderNumber(1))
	assert.Equal(t, "ORD-000042", FormatOrderNumber(42))
	assert.Equal(t, "ORD-123456", FormatOrderNumber(123456))
	assert.Equal(t, "ORD-1234567", FormatOrderNumber(1234567))
}
