package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMinor renders an amount held in minor currency units for
// receipts and notifications, with thousand separators in the integer
// part, e.g. 123456789 -> "1,234,567.89 PKR". Money stays an int64
// everywhere else; decimal is used only at this formatting boundary.
func FormatMinor(amount int64, currency string) string {
	if currency == "" {
		currency = "PKR"
	}

	d := decimal.New(amount, -2)
	fixed := d.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	intPart := parts[0]

	var result strings.Builder
	if neg {
		result.WriteString("-")
	}
	length := len(intPart)
	for i, digit := range intPart {
		if i > 0 && (length-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(digit)
	}

	return result.String() + "." + parts[1] + " " + currency
}
