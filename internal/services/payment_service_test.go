package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettlementAmount(t *testing.T) {
	cases := []struct {
		name  string
		total int64
		paid  int64
		want  int64
	}{
		{"nothing paid", 57000, 0, 57000},
		{"partially paid", 57000, 20000, 37000},
		{"exactly paid", 57000, 57000, 0},
		{"overpaid never goes negative", 57000, 60000, 0},
		{"zero total", 0, 0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, settlementAmount(tc.total, tc.paid))
		})
	}
}

func TestSettlementNeverExceedsOutstanding(t *testing.T) {
	// Recording settlements sequentially can never push the paid sum past
	// the total, regardless of how many times settlement is attempted.
	total := int64(57000)
	var paid int64
	for i := 0; i < 5; i++ {
		paid += settlementAmount(total, paid)
		assert.LessOrEqual(t, paid, total)
	}
	assert.Equal(t, total, paid)
}
