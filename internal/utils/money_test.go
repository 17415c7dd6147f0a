package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMinor(t *testing.T) {
	cases := []struct {
		amount   int64
		currency string
		want     string
	}{
		{0, "PKR", "0.00 PKR"},
		{5, "PKR", "0.05 PKR"},
		{45000, "PKR", "450.00 PKR"},
		{123456789, "PKR", "1,234,567.89 PKR"},
		{-45050, "PKR", "-450.50 PKR"},
		{100000, "", "1,000.00 PKR"},
		{100000, "USD", "1,000.00 USD"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatMinor(tc.amount, tc.currency))
	}
}
