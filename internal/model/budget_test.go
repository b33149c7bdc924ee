package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBudgetState_Status(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		total   string
		want    BudgetStatus
		reached bool
		over    bool
		remain  string
	}{
		{"no target", "0", "28.02", StatusUnconstrained, false, false, "-28.02"},
		{"under", "100", "28.02", StatusUnder, false, false, "71.98"},
		{"exactly reached", "30", "30.00", StatusReached, true, false, "0"},
		{"over", "20", "28.02", StatusOver, true, true, "-8.02"},
		{"empty selection", "50", "0", StatusUnder, false, false, "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BudgetState{Target: dec(tt.target), Total: dec(tt.total)}
			assert.Equal(t, tt.want, b.Status())
			assert.Equal(t, tt.reached, b.Reached())
			assert.Equal(t, tt.over, b.OverBudget())
			assert.True(t, dec(tt.remain).Equal(b.Remaining()), "remaining = %s", b.Remaining())
		})
	}
}

func TestBudgetState_OverImpliesReached(t *testing.T) {
	targets := []string{"0", "0.01", "20", "30", "56.04"}
	totals := []string{"0", "20", "28.02", "30", "56.04", "84.06"}

	for _, tg := range targets {
		for _, tt := range totals {
			b := BudgetState{Target: dec(tg), Total: dec(tt)}
			if b.OverBudget() {
				assert.True(t, b.Reached(), "target=%s total=%s over but not reached", tg, tt)
			}
			if b.Reached() {
				assert.True(t, b.Total.GreaterThanOrEqual(b.Target), "target=%s total=%s", tg, tt)
			}
		}
	}
}

func TestPriceRecordKey(t *testing.T) {
	a := PriceRecord{Location: "KL", Unit: "1l", Name: "Wine", Price: dec("28.02")}
	b := PriceRecord{Location: "KL", Unit: "1l", Name: "Wine", Price: dec("10")}
	c := PriceRecord{Location: "KL-1l", Unit: "", Name: "Wine"}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key(), "delimiter-shaped values must not collide")
}
