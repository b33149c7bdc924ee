package components

import (
	"strings"
	"testing"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Force TrueColor output so ANSI codes are generated in tests
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestCardRowBackgroundFill(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "Content", 22)
	tallCard := ContentCard("Tall", "Line 1\nLine 2\nLine 3\nLine 4\nLine 5", 22)

	shortLines := len(strings.Split(shortCard, "\n"))
	tallLines := len(strings.Split(tallCard, "\n"))
	require.Less(t, shortLines, tallLines, "short card should be shorter than tall card")

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")
	assert.Len(t, lines, tallLines)

	for i, line := range lines {
		if i >= shortLines {
			assert.Contains(t, line, "\x1b[", "padding line %d has no styling", i)
		}
	}
}

func TestCardRowWidthConsistency(t *testing.T) {
	theme.SetActive("flexoki-dark")

	shortCard := ContentCard("Short", "A", 30)
	tallCard := ContentCard("Tall", "A\nB\nC\nD\nE\nF", 20)

	joined := CardRow([]string{tallCard, shortCard})
	lines := strings.Split(joined, "\n")

	want := lipgloss.Width(tallCard) + lipgloss.Width(shortCard)
	for i, line := range lines {
		assert.Equal(t, want, lipgloss.Width(line), "line %d", i)
	}
}

func TestLayoutRow(t *testing.T) {
	assert.Equal(t, []int{34, 33, 33}, LayoutRow(100, 3))
	assert.Nil(t, LayoutRow(100, 0))
}

func TestMetricCardRowWidth(t *testing.T) {
	row := MetricCardRow([]Metric{
		{Label: "Total", Value: "RM 28.02"},
		{Label: "Budget", Value: "RM 30.00", Note: "target"},
		{Label: "Remaining", Value: "RM 1.98"},
	}, 90)

	for _, line := range strings.Split(row, "\n") {
		assert.Equal(t, 90, lipgloss.Width(line))
	}
}

func TestBadgeCardShowsBadge(t *testing.T) {
	card := BadgeCard("Selected", "2 items", "Cement", 40)
	assert.Contains(t, card, "2 items")
	assert.Contains(t, card, "Selected")
}

func TestTabVisualWidth(t *testing.T) {
	assert.Equal(t, len("Budget")+2, TabVisualWidth(Tabs[0], true))
	assert.Equal(t, len("[C]hat")+2, TabVisualWidth(Tabs[1], false))
	assert.Equal(t, len("Settings[x]")+2, TabVisualWidth(Tabs[2], false))
	assert.Equal(t, 2, TabIdxByKey('x'))
	assert.Equal(t, -1, TabIdxByKey('z'))
}

func TestBudgetBarAndBanner(t *testing.T) {
	d := decimal.RequireFromString

	assert.Empty(t, BudgetBar(model.BudgetState{Total: d("5")}, 20))
	assert.Empty(t, Banner(model.BudgetState{Total: d("5")}))

	over := model.BudgetState{Target: d("20"), Total: d("28.02")}
	assert.Contains(t, BudgetBar(over, 20), "140%")
	assert.Contains(t, Banner(over), "OVER BUDGET!")

	reached := model.BudgetState{Target: d("30"), Total: d("30")}
	assert.Contains(t, Banner(reached), "Budget Reached! Selection complete")
}

func TestRenderStatusBarWidth(t *testing.T) {
	bar := RenderStatusBar(60, "[?]help  [q]uit", "Total RM 28.02")
	assert.Equal(t, 60, lipgloss.Width(bar))
	assert.Contains(t, bar, "Total RM 28.02")
}
