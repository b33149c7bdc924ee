package tui

import (
	"fmt"
	"strings"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/cli"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui/components"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const msgWouldExceed = "Adding this item would exceed the budget"

// budgetState tracks the budget tab state.
type budgetState struct {
	cursor  int
	editing bool
	input   textinput.Model
	notice  string // one-line feedback, cleared on the next action
}

func newBudgetState() budgetState {
	ti := textinput.New()
	ti.Placeholder = "Enter budget (e.g. 250.00)"
	ti.Prompt = "RM "
	ti.CharLimit = 32
	ti.Width = 24
	return budgetState{input: ti}
}

func (s *budgetState) moveCursor(delta, n int) {
	if n == 0 {
		s.cursor = 0
		return
	}
	s.cursor += delta
	if s.cursor < 0 {
		s.cursor = 0
	}
	if s.cursor >= n {
		s.cursor = n - 1
	}
}

func (s *budgetState) resetList() {
	s.cursor = 0
}

// cycle returns the value delta steps from current in values, wrapping.
// An unknown current starts from the first (or last) value.
func cycle(values []string, current string, delta int) string {
	if len(values) == 0 {
		return current
	}
	idx := -1
	for i, v := range values {
		if v == current {
			idx = i
			break
		}
	}
	if idx < 0 {
		if delta < 0 {
			return values[len(values)-1]
		}
		return values[0]
	}
	n := len(values)
	return values[((idx+delta)%n+n)%n]
}

func (a App) startBudgetEdit() (tea.Model, tea.Cmd) {
	a.budget.editing = true
	a.budget.notice = ""
	cmd := a.budget.input.Focus()
	return a, cmd
}

func (a App) updateBudgetInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		target := a.engine.SetTargetInput(a.budget.input.Value())
		a.log.Debug("budget applied",
			zap.String("input", a.budget.input.Value()),
			zap.String("target", target.String()))
		a.budget.input.SetValue(formatTargetInput(target.String()))
		a.budget.input.Blur()
		a.budget.editing = false
		return a, nil
	case "esc":
		a.budget.input.SetValue(formatTargetInput(a.engine.Target().String()))
		a.budget.input.Blur()
		a.budget.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.budget.input, cmd = a.budget.input.Update(msg)
	return a, cmd
}

// formatTargetInput shows a zero target as an empty field.
func formatTargetInput(s string) string {
	if s == "0" {
		return ""
	}
	return s
}

// updateBudgetKeys handles the budget tab bindings; handled is false for keys
// left to the global handlers.
func (a App) updateBudgetKeys(key string) (next tea.Model, cmd tea.Cmd, handled bool) {
	visible := a.engine.Visible()
	a.budget.notice = ""

	switch key {
	case "e", "/":
		next, cmd = a.startBudgetEdit()
		return next, cmd, true
	case "j", "down":
		a.budget.moveCursor(1, len(visible))
	case "k", "up":
		a.budget.moveCursor(-1, len(visible))
	case "g":
		a.budget.resetList()
	case "G":
		a.budget.moveCursor(len(visible), len(visible))
	case " ", "enter":
		a.toggleAtCursor(visible)
	case "[", "]":
		loc, _ := a.engine.Filter()
		delta := 1
		if key == "[" {
			delta = -1
		}
		a.engine.SetLocation(cycle(a.engine.Locations(), loc, delta))
		a.budget.resetList()
	case "{", "}":
		_, unit := a.engine.Filter()
		delta := 1
		if key == "{" {
			delta = -1
		}
		a.engine.SetUnit(cycle(a.engine.Units(), unit, delta))
		a.budget.resetList()
	case "C":
		a.engine.Clear()
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a *App) toggleAtCursor(visible []model.PriceRecord) {
	if a.budget.cursor < 0 || a.budget.cursor >= len(visible) {
		return
	}
	rec := visible[a.budget.cursor]
	if a.engine.IsDisabled(rec) {
		a.budget.notice = msgWouldExceed
		return
	}
	a.engine.Toggle(rec)
}

func (a App) renderBudgetTab(cw, h int) string {
	t := theme.Active
	budget := a.engine.Budget()
	selected := a.engine.Selected()
	loc, unit := a.engine.Filter()

	// Metric row
	remainingColor := lipgloss.Color("")
	remaining := "-"
	if budget.Constrained() {
		remaining = cli.FormatMoney(budget.Remaining())
		remainingColor = components.ColorForStatus(budget.Status())
	}
	target := "not set"
	if budget.Constrained() {
		target = cli.FormatMoney(budget.Target)
	}
	metrics := components.MetricCardRow([]components.Metric{
		{Label: "Total", Value: cli.FormatMoney(budget.Total), Color: t.AccentBright},
		{Label: "Budget", Value: target},
		{Label: "Remaining", Value: remaining, Color: remainingColor},
		{Label: "Selected", Value: cli.FormatCount(len(selected))},
	}, cw)

	// Budget input + filter pickers
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface).Render("  ")

	var controls strings.Builder
	controls.WriteString(labelStyle.Render("Budget    "))
	if a.budget.editing {
		controls.WriteString(a.budget.input.View())
	} else {
		val := a.budget.input.Value()
		if val == "" {
			val = "(none)"
		}
		controls.WriteString(valueStyle.Render("RM " + val))
		controls.WriteString(space + hintStyle.Render("[e] edit"))
	}
	controls.WriteString("\n")
	controls.WriteString(labelStyle.Render("Location  ") + valueStyle.Render(loc) + space + hintStyle.Render("[ ]"))
	controls.WriteString("\n")
	controls.WriteString(labelStyle.Render("Unit      ") + valueStyle.Render(cli.FormatUnit(unit)) + space + hintStyle.Render("{ }"))
	if bar := components.BudgetBar(budget, 30); bar != "" {
		controls.WriteString("\n\n")
		controls.WriteString(bar)
	}
	if banner := components.Banner(budget); banner != "" {
		controls.WriteString("\n")
		controls.WriteString(banner)
	}
	if a.budget.notice != "" {
		controls.WriteString("\n")
		controls.WriteString(lipgloss.NewStyle().Foreground(t.Reached).Background(t.Surface).Render(a.budget.notice))
	}

	// Item list and selection side by side, or stacked when narrow
	used := lipgloss.Height(metrics) + 1
	var b strings.Builder
	b.WriteString(metrics)
	b.WriteString("\n")

	if a.isCompactLayout() {
		controlsCard := components.FocusCard("Budget", controls.String(), cw)
		b.WriteString(controlsCard)
		b.WriteString("\n")
		used += lipgloss.Height(controlsCard) + 1

		listRows := h - used - 3
		b.WriteString(components.BadgeCard("Items", cli.FormatCount(len(a.engine.Visible())),
			a.renderItemList(components.CardInnerWidth(cw), listRows), cw))
		b.WriteString("\n")
		b.WriteString(components.BadgeCard("Selected", cli.FormatCount(len(selected)),
			a.renderSelectedList(selected, components.CardInnerWidth(cw)), cw))
		return b.String()
	}

	widths := components.LayoutRow(cw, 2)
	left := components.FocusCard("Budget", controls.String(), widths[0])
	right := components.BadgeCard("Selected", cli.FormatCount(len(selected)),
		a.renderSelectedList(selected, components.CardInnerWidth(widths[1])), widths[1])
	top := components.CardRow([]string{left, right})
	b.WriteString(top)
	b.WriteString("\n")
	used += lipgloss.Height(top) + 1

	listRows := h - used - 3
	b.WriteString(components.BadgeCard("Items", cli.FormatCount(len(a.engine.Visible())),
		a.renderItemList(components.CardInnerWidth(cw), listRows), cw))

	return b.String()
}

// renderItemList draws the visible records with checkbox, cursor, and disabled
// state, windowed to maxRows around the cursor.
func (a App) renderItemList(innerW, maxRows int) string {
	t := theme.Active
	visible := a.engine.Visible()

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(visible) == 0 {
		return mutedStyle.Render(cli.MsgNoItems)
	}

	if maxRows < 3 {
		maxRows = 3
	}
	cursor := a.budget.cursor
	if cursor >= len(visible) {
		cursor = len(visible) - 1
	}
	offset := 0
	if cursor >= maxRows {
		offset = cursor - maxRows + 1
	}

	priceW := 14
	nameW := innerW - priceW - 8
	if nameW < 10 {
		nameW = 10
	}

	end := offset + maxRows
	if end > len(visible) {
		end = len(visible)
	}

	var b strings.Builder
	for i := offset; i < end; i++ {
		rec := visible[i]
		selected := a.engine.IsSelected(rec)
		disabled := a.engine.IsDisabled(rec)
		isCursor := i == cursor

		bg := t.Surface
		if isCursor {
			bg = t.SurfaceBright
		}
		fg := t.TextPrimary
		switch {
		case disabled:
			fg = t.TextDim
		case selected:
			fg = t.Positive
		}
		rowStyle := lipgloss.NewStyle().Foreground(fg).Background(bg)
		markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(bg)

		marker := "  "
		if isCursor {
			marker = "▸ "
		}
		box := "[ ]"
		if selected {
			box = "[x]"
		}

		line := fmt.Sprintf("%s %-*s %*s",
			box, nameW, cli.Truncate(rec.Name, nameW), priceW, cli.FormatMoney(rec.Price))
		b.WriteString(markerStyle.Render(marker))
		b.WriteString(rowStyle.Strikethrough(disabled).Render(line))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	if len(visible) > maxRows {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d-%d of %d", offset+1, end, len(visible))))
	}
	return b.String()
}

func (a App) renderSelectedList(selected []model.PriceRecord, innerW int) string {
	t := theme.Active
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	if len(selected) == 0 {
		return mutedStyle.Render(cli.MsgNoSelected)
	}

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	priceStyle := lipgloss.NewStyle().Foreground(t.Positive).Background(t.Surface)

	priceW := 14
	nameW := innerW - priceW - 1
	if nameW < 10 {
		nameW = 10
	}

	lines := make([]string, 0, len(selected)+2)
	for _, rec := range selected {
		lines = append(lines,
			nameStyle.Render(fmt.Sprintf("%-*s ", nameW, cli.Truncate(rec.Name, nameW)))+
				priceStyle.Render(fmt.Sprintf("%*s", priceW, cli.FormatMoney(rec.Price))))
	}
	totalStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	lines = append(lines, "",
		totalStyle.Render(fmt.Sprintf("%-*s %*s", nameW, "Total", priceW, cli.FormatMoney(a.engine.Total()))))
	return strings.Join(lines, "\n")
}
