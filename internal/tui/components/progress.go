package components

import (
	"fmt"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/cli"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ColorForStatus returns the accent color for a budget status.
func ColorForStatus(s model.BudgetStatus) lipgloss.Color {
	t := theme.Active
	switch s {
	case model.StatusOver:
		return t.Over
	case model.StatusReached:
		return t.Reached
	case model.StatusUnder:
		return t.Under
	default:
		return t.TextMuted
	}
}

// ColorForPct returns the status color based on how much of the budget is used.
func ColorForPct(pct float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pct > 1:
		return t.Over
	case pct >= 0.9:
		return t.Reached
	case pct >= 0.7:
		return t.Near
	default:
		return t.Under
	}
}

// BudgetBar renders total against target as a bar with a percentage.
// It returns "" when no target is set.
func BudgetBar(b model.BudgetState, barWidth int) string {
	if !b.Constrained() {
		return ""
	}
	t := theme.Active

	pct := cli.UsageRatio(b)
	if pct < 0 {
		pct = 0
	}
	fill := pct
	if fill > 1 {
		fill = 1
	}
	color := ColorForPct(pct)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return bar.ViewAs(fill) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", pct*100))
}

// Banner renders the budget status line, or "" when unconstrained.
func Banner(b model.BudgetState) string {
	text := cli.BudgetBanner(b)
	if text == "" {
		return ""
	}
	t := theme.Active
	return lipgloss.NewStyle().
		Foreground(ColorForStatus(b.Status())).
		Background(t.Surface).
		Bold(b.Status() != model.StatusUnder).
		Render(text)
}
