package selection

import (
	"testing"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/catalog"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func rec(loc, unit, name, price string) model.PriceRecord {
	return model.PriceRecord{Location: loc, Unit: unit, Name: name, Price: dec(price)}
}

func newEngine(records ...model.PriceRecord) *Engine {
	return New(catalog.New(records))
}

func TestNew_AutoSelectsFirstFacets(t *testing.T) {
	e := newEngine(
		rec("Selangor", "1l", "Milk", "7.50"),
		rec("KL", "", "Cream", "28.02"),
		rec("KL", "1l", "Wine", "28.02"),
	)

	loc, unit := e.Filter()
	assert.Equal(t, "KL", loc)
	assert.Equal(t, "", unit)
	require.Len(t, e.Visible(), 1)
	assert.Equal(t, "Cream", e.Visible()[0].Name)
}

func TestNew_EmptyCatalog(t *testing.T) {
	e := newEngine()
	assert.Empty(t, e.Locations())
	assert.Empty(t, e.Units())
	assert.Empty(t, e.Visible())
	assert.True(t, e.Total().IsZero())
	assert.Equal(t, model.StatusUnconstrained, e.Budget().Status())
}

func TestToggle_Idempotent(t *testing.T) {
	cream := rec("KL", "", "Cream", "28.02")
	e := newEngine(cream, rec("KL", "", "Tissue", "3.00"))

	assert.True(t, e.Toggle(cream))
	assert.True(t, e.IsSelected(cream))
	assert.False(t, e.Toggle(cream))
	assert.False(t, e.IsSelected(cream))
	assert.Empty(t, e.Selected())
}

func TestFilterChange_ClearsSelection(t *testing.T) {
	cream := rec("KL", "", "Cream", "28.02")
	wine := rec("KL", "1l", "Wine", "28.02")
	e := newEngine(cream, wine, rec("Selangor", "", "Milk", "5"))

	e.Toggle(cream)
	require.Len(t, e.Selected(), 1)

	e.SetUnit("1l")
	assert.Empty(t, e.Selected())
	assert.True(t, e.Total().IsZero())

	e.Toggle(wine)
	e.SetLocation("Selangor")
	assert.Empty(t, e.Selected())

	e.SetFilter("KL", "")
	e.Toggle(cream)
	e.SetFilter("KL", "")
	assert.Empty(t, e.Selected(), "re-applying the same filter still clears")
}

func TestScenario_UnconstrainedTotal(t *testing.T) {
	cream := rec("KL", "", "Cream", "28.02")
	e := newEngine(cream)
	e.SetFilter("KL", "")
	e.Toggle(cream)
	e.SetTarget(decimal.Zero)

	b := e.Budget()
	assert.True(t, b.Total.Equal(dec("28.02")))
	assert.Equal(t, model.StatusUnconstrained, b.Status())
	assert.False(t, b.Reached())
	assert.False(t, b.OverBudget())
}

func TestScenario_DisabledOverTarget(t *testing.T) {
	cream := rec("KL", "", "Cream", "28.02")
	e := newEngine(cream)
	e.SetTarget(dec("20"))

	assert.True(t, e.IsDisabled(cream))
	assert.ErrorIs(t, e.Select(cream), ErrOverBudget)

	// Forcing the selection bypasses the policy; selected items stay removable.
	e.Toggle(cream)
	assert.False(t, e.IsDisabled(cream))
	assert.Equal(t, model.StatusOver, e.Budget().Status())
}

func TestScenario_ExactlyReached(t *testing.T) {
	a := rec("KL", "", "Cream", "12.50")
	b := rec("KL", "", "Tissue", "17.50")
	e := newEngine(a, b)
	e.SetTarget(dec("30"))

	require.NoError(t, e.Select(a))
	require.NoError(t, e.Select(b))

	st := e.Budget()
	assert.True(t, st.Total.Equal(dec("30.00")))
	assert.True(t, st.Reached())
	assert.False(t, st.OverBudget())
	assert.Equal(t, model.StatusReached, st.Status())
	assert.True(t, st.Remaining().IsZero())
}

func TestIsDisabled_GreedyAgainstCurrentTotal(t *testing.T) {
	a := rec("KL", "", "A", "10")
	b := rec("KL", "", "B", "15")
	c := rec("KL", "", "C", "6")
	e := newEngine(a, b, c)
	e.SetTarget(dec("25"))

	require.NoError(t, e.Select(a))
	assert.False(t, e.IsDisabled(b), "10 + 15 == 25 is allowed")
	require.NoError(t, e.Select(b))
	assert.True(t, e.IsDisabled(c), "25 + 6 > 25")

	// Lowering the budget after selection leaves selected items removable.
	e.SetTarget(dec("5"))
	assert.False(t, e.IsDisabled(a))
	assert.False(t, e.IsDisabled(b))
	assert.Equal(t, model.StatusOver, e.Budget().Status())
}

func TestSelect_NotVisible(t *testing.T) {
	cream := rec("KL", "", "Cream", "28.02")
	wine := rec("KL", "1l", "Wine", "28.02")
	e := newEngine(cream, wine)

	assert.ErrorIs(t, e.Select(wine), ErrNotVisible)
	require.NoError(t, e.Select(cream))
	require.NoError(t, e.Select(cream), "already selected is a no-op")
	assert.Len(t, e.Selected(), 1)
}

func TestTotal_RestrictedToVisible(t *testing.T) {
	cream := rec("KL", "", "Cream", "28.02")
	wine := rec("KL", "1l", "Wine", "10")
	e := newEngine(cream, wine)

	// Toggle does not check visibility; invisible keys never count.
	e.Toggle(wine)
	assert.True(t, e.Total().IsZero())
	e.Toggle(cream)
	assert.True(t, e.Total().Equal(dec("28.02")))
}

func TestSetTargetInput_Coercion(t *testing.T) {
	e := newEngine(rec("KL", "", "Cream", "28.02"))

	tests := []struct {
		in   string
		want string
	}{
		{"100", "100"},
		{" 45.50 ", "45.5"},
		{"", "0"},
		{"abc", "0"},
		{"-10", "0"},
		{"1e2", "100"},
		{"100.000000000", "100"},
		{"1e999999999", "0"},
		{"1e-999999999", "0"},
		{"1e16", "0"},
		{"1000000000000000", "1000000000000000"},
	}
	for _, tt := range tests {
		got := e.SetTargetInput(tt.in)
		assert.True(t, dec(tt.want).Equal(got), "input %q: got %s want %s", tt.in, got, tt.want)
		assert.True(t, got.Equal(e.Target()))
	}

	e.SetTarget(dec("-3"))
	assert.True(t, e.Target().IsZero())
}

func TestSetTargetInput_HugeExponentStaysUsable(t *testing.T) {
	e := newEngine(rec("KL", "", "Cream", "28.02"))

	for _, in := range []string{"1e999999999", "1e-999999999"} {
		e.SetTargetInput(in)
		assert.False(t, e.IsDisabled(e.Visible()[0]), "input %q", in)
		assert.Equal(t, model.StatusUnconstrained, e.Budget().Status(), "input %q", in)
	}
}

func TestNegativePrice_PropagatesIntoTotal(t *testing.T) {
	refund := rec("KL", "", "Refund", "-5")
	cream := rec("KL", "", "Cream", "28.02")
	e := newEngine(cream, refund)

	e.Toggle(cream)
	e.Toggle(refund)
	assert.True(t, e.Total().Equal(dec("23.02")))
}

func TestFind(t *testing.T) {
	e := newEngine(rec("KL", "", "Cream", "28.02"), rec("KL", "", "Tissue", "3"))

	r, ok := e.Find("Tissue")
	require.True(t, ok)
	assert.Equal(t, "Tissue", r.Name)

	_, ok = e.Find("tissue")
	assert.False(t, ok)
}

func TestSelected_CatalogOrder(t *testing.T) {
	a := rec("KL", "", "A", "1")
	b := rec("KL", "", "B", "2")
	c := rec("KL", "", "C", "3")
	e := newEngine(a, b, c)

	e.Toggle(c)
	e.Toggle(a)
	sel := e.Selected()
	require.Len(t, sel, 2)
	assert.Equal(t, "A", sel[0].Name)
	assert.Equal(t, "C", sel[1].Name)
}

func TestLookup(t *testing.T) {
	e := newEngine(
		rec("KL", "kg", "Sugar", "3.10"),
		rec("Penang", "kg", "Sugar", "3.40"),
	)

	r, ok := e.Lookup(model.SelectionKey{Location: "KL", Unit: "kg", Name: "Sugar"})
	require.True(t, ok)
	assert.True(t, r.Price.Equal(dec("3.10")))

	_, ok = e.Lookup(model.SelectionKey{Location: "Penang", Unit: "kg", Name: "Sugar"})
	assert.False(t, ok)
}
