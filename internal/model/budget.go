package model

import "github.com/shopspring/decimal"

// BudgetStatus classifies a total against its target.
type BudgetStatus int

const (
	// StatusUnconstrained means no target is set; no banner is shown.
	StatusUnconstrained BudgetStatus = iota
	// StatusUnder means the total is below a positive target.
	StatusUnder
	// StatusReached means the total equals the target exactly.
	StatusReached
	// StatusOver means the total exceeds the target.
	StatusOver
)

func (s BudgetStatus) String() string {
	switch s {
	case StatusUnder:
		return "under"
	case StatusReached:
		return "reached"
	case StatusOver:
		return "over"
	default:
		return "unconstrained"
	}
}

// BudgetState holds the target and the running total of the current selection.
// A zero target means no budget is set.
type BudgetState struct {
	Target decimal.Decimal
	Total  decimal.Decimal
}

// Constrained reports whether a positive target is set.
func (b BudgetState) Constrained() bool {
	return b.Target.IsPositive()
}

// Remaining is target minus total. It goes negative when over budget.
func (b BudgetState) Remaining() decimal.Decimal {
	return b.Target.Sub(b.Total)
}

// OverBudget reports total > target with a positive target.
func (b BudgetState) OverBudget() bool {
	return b.Constrained() && b.Total.GreaterThan(b.Target)
}

// Reached reports total >= target with a positive target. Over implies reached.
func (b BudgetState) Reached() bool {
	return b.Constrained() && b.Total.GreaterThanOrEqual(b.Target)
}

// Status returns the mutually exclusive classification.
func (b BudgetState) Status() BudgetStatus {
	switch {
	case !b.Constrained():
		return StatusUnconstrained
	case b.OverBudget():
		return StatusOver
	case b.Reached():
		return StatusReached
	default:
		return StatusUnder
	}
}
