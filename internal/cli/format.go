// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"

	"github.com/shopspring/decimal"
)

// CurrencyPrefix is prepended to every rendered amount.
const CurrencyPrefix = "RM "

// Empty-state messages shared by the CLI and the dashboard.
const (
	MsgNoItems    = "No items for this location/unit combination"
	MsgNoSelected = "No items selected yet"
)

// FormatMoney renders an amount with two decimals.
// e.g., 28.015 -> "RM 28.02", -2.5 -> "RM -2.50"
func FormatMoney(d decimal.Decimal) string {
	return CurrencyPrefix + d.StringFixed(2)
}

// FormatUnit renders a unit label, substituting a dash for the empty unit.
func FormatUnit(unit string) string {
	if unit == "" {
		return "-"
	}
	return unit
}

// FormatCount renders a selection count badge.
// e.g., 0 -> "0 items", 1 -> "1 item"
func FormatCount(n int) string {
	if n == 1 {
		return "1 item"
	}
	return strconv.Itoa(n) + " items"
}

// BudgetBanner returns the status line for a budget, or "" when no target is set.
func BudgetBanner(b model.BudgetState) string {
	switch b.Status() {
	case model.StatusOver:
		return fmt.Sprintf("OVER BUDGET! Total (%s) exceeds budget by %s",
			FormatMoney(b.Total), FormatMoney(b.Total.Sub(b.Target)))
	case model.StatusReached:
		return "Budget Reached! Selection complete"
	case model.StatusUnder:
		return "Budget Remaining: " + FormatMoney(b.Remaining())
	default:
		return ""
	}
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// UsageRatio returns total/target as a float, or 0 when unconstrained.
func UsageRatio(b model.BudgetState) float64 {
	if !b.Constrained() {
		return 0
	}
	f, _ := b.Total.Div(b.Target).Float64()
	return f
}

// Truncate shortens s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
