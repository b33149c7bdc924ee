// Package selection implements the filter, selection, and budget evaluation
// state for one user session over a read-only catalog.
package selection

import (
	"errors"
	"strings"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/catalog"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"

	"github.com/shopspring/decimal"
)

var (
	// ErrOverBudget is returned by Select when adding the record would exceed the target.
	ErrOverBudget = errors.New("selection: item would exceed budget")
	// ErrNotVisible is returned when a record is not part of the current filter.
	ErrNotVisible = errors.New("selection: item not in current filter")
)

// Engine tracks the active (location, unit) filter, the selected records, and
// the budget target. Totals and classification are derived on every read.
//
// An Engine is not safe for concurrent use; it models a single UI session.
type Engine struct {
	src       catalog.Source
	locations []string
	units     []string

	location string
	unit     string
	visible  []model.PriceRecord
	selected map[model.SelectionKey]struct{}

	target decimal.Decimal
}

// New creates an engine over src and selects the first available location and
// unit, mirroring a fresh page load.
func New(src catalog.Source) *Engine {
	e := &Engine{
		src:       src,
		locations: catalog.Locations(src),
		units:     catalog.Units(src),
		selected:  make(map[model.SelectionKey]struct{}),
	}

	var loc, unit string
	if len(e.locations) > 0 {
		loc = e.locations[0]
	}
	if len(e.units) > 0 {
		unit = e.units[0]
	}
	e.SetFilter(loc, unit)
	return e
}

// Source returns the catalog the engine reads from.
func (e *Engine) Source() catalog.Source {
	return e.src
}

// Locations returns the location facet values in ascending order.
func (e *Engine) Locations() []string {
	return append([]string(nil), e.locations...)
}

// Units returns the unit facet values in ascending order.
func (e *Engine) Units() []string {
	return append([]string(nil), e.units...)
}

// Filter returns the current location and unit.
func (e *Engine) Filter() (location, unit string) {
	return e.location, e.unit
}

// SetLocation changes the location filter and clears the selection.
func (e *Engine) SetLocation(location string) {
	e.SetFilter(location, e.unit)
}

// SetUnit changes the unit filter and clears the selection.
func (e *Engine) SetUnit(unit string) {
	e.SetFilter(e.location, unit)
}

// SetFilter applies both filter values, recomputes the visible records, and
// empties the selection regardless of its prior contents.
func (e *Engine) SetFilter(location, unit string) {
	e.location = location
	e.unit = unit
	e.visible = catalog.Filter(e.src, location, unit)
	e.selected = make(map[model.SelectionKey]struct{})
}

// Visible returns the records matching the current filter in catalog order.
func (e *Engine) Visible() []model.PriceRecord {
	return append([]model.PriceRecord(nil), e.visible...)
}

// Find returns the first visible record with the given name.
func (e *Engine) Find(name string) (model.PriceRecord, bool) {
	for _, r := range e.visible {
		if r.Name == name {
			return r, true
		}
	}
	return model.PriceRecord{}, false
}

// Lookup returns the visible record identified by key.
func (e *Engine) Lookup(key model.SelectionKey) (model.PriceRecord, bool) {
	for _, r := range e.visible {
		if r.Key() == key {
			return r, true
		}
	}
	return model.PriceRecord{}, false
}

// Toggle flips the selection state of rec and reports whether it is now selected.
// It does not consult the budget policy; callers gate additions with IsDisabled.
func (e *Engine) Toggle(rec model.PriceRecord) bool {
	key := rec.Key()
	if _, ok := e.selected[key]; ok {
		delete(e.selected, key)
		return false
	}
	e.selected[key] = struct{}{}
	return true
}

// Select adds rec to the selection, enforcing visibility and the budget policy.
// Selecting an already selected record is a no-op.
func (e *Engine) Select(rec model.PriceRecord) error {
	if !e.isVisible(rec.Key()) {
		return ErrNotVisible
	}
	if e.IsSelected(rec) {
		return nil
	}
	if e.IsDisabled(rec) {
		return ErrOverBudget
	}
	e.selected[rec.Key()] = struct{}{}
	return nil
}

// Clear empties the selection without changing the filter.
func (e *Engine) Clear() {
	e.selected = make(map[model.SelectionKey]struct{})
}

// IsSelected reports whether rec's key is in the selection.
func (e *Engine) IsSelected(rec model.PriceRecord) bool {
	_, ok := e.selected[rec.Key()]
	return ok
}

// IsDisabled reports whether rec may not be newly added: it is unselected, a
// positive target is set, and adding its price would strictly exceed the target.
// Selected records are never disabled so they can always be removed.
//
// The check is greedy and per item against the current total; it does not
// search for a best-fitting subset.
func (e *Engine) IsDisabled(rec model.PriceRecord) bool {
	if e.IsSelected(rec) {
		return false
	}
	if !e.target.IsPositive() {
		return false
	}
	return e.Total().Add(rec.Price).GreaterThan(e.target)
}

// Selected returns the visible records that are selected, in catalog order.
func (e *Engine) Selected() []model.PriceRecord {
	var out []model.PriceRecord
	for _, r := range e.visible {
		if _, ok := e.selected[r.Key()]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Total sums the prices of selected records within the visible list.
func (e *Engine) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range e.Selected() {
		total = total.Add(r.Price)
	}
	return total
}

// Target returns the budget target; zero means unconstrained.
func (e *Engine) Target() decimal.Decimal {
	return e.target
}

// SetTarget sets the budget target. Negative values become zero.
func (e *Engine) SetTarget(target decimal.Decimal) {
	if target.IsNegative() {
		target = decimal.Zero
	}
	e.target = target
}

// SetTargetInput parses free-form budget text and applies it. Empty,
// non-numeric, or negative input is coerced to zero rather than rejected.
// It returns the target that was applied.
func (e *Engine) SetTargetInput(input string) decimal.Decimal {
	e.SetTarget(ParseAmount(input))
	return e.target
}

// Budget returns the current target and total.
func (e *Engine) Budget() model.BudgetState {
	return model.BudgetState{Target: e.target, Total: e.Total()}
}

// Amounts outside these bounds coerce to zero. Arithmetic on a decimal with a
// huge exponent rescales to a bigint of that many digits.
const (
	minAmountExponent = -18
	maxAmountExponent = 18
)

// MaxAmount is the largest budget ParseAmount accepts.
var MaxAmount = decimal.New(1, 15)

// ParseAmount converts user text to a non-negative amount, returning zero for
// anything that does not parse or falls outside [0, MaxAmount].
func ParseAmount(input string) decimal.Decimal {
	s := strings.TrimSpace(input)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	if exp := d.Exponent(); exp < minAmountExponent || exp > maxAmountExponent {
		return decimal.Zero
	}
	if d.GreaterThan(MaxAmount) {
		return decimal.Zero
	}
	return d
}

func (e *Engine) isVisible(key model.SelectionKey) bool {
	for _, r := range e.visible {
		if r.Key() == key {
			return true
		}
	}
	return false
}
