package tui

import (
	"fmt"
	"strings"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/cli"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/config"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/logging"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/selection"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui/components"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const (
	settingsFieldTheme = iota
	settingsFieldBudget
	settingsFieldEndpoint
	settingsFieldAPIKey
	settingsFieldLogLevel
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   string // flash message after a successful save
	saveErr error  // non-nil if last save failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = ""

	ti := newSettingsInput()

	switch a.settings.cursor {
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(a.cfg.Appearance.Theme)
	case settingsFieldBudget:
		ti.Placeholder = "250.00 (leave empty for no budget)"
		ti.SetValue(a.cfg.Budget.Target)
	case settingsFieldEndpoint:
		ti.Placeholder = "https://<project>.supabase.co/functions/v1/analyze-prices"
		ti.SetValue(a.cfg.Relay.Endpoint)
	case settingsFieldAPIKey:
		ti.Placeholder = "anon key"
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '*'
		ti.SetValue(a.cfg.Relay.APIKey)
	case settingsFieldLogLevel:
		ti.Placeholder = "debug, info, warn, error"
		ti.SetValue(a.cfg.Log.Level)
	}

	cmd := ti.Focus()
	a.settings.input = ti
	return a, cmd
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

func (a *App) settingsSave() {
	val := strings.TrimSpace(a.settings.input.Value())
	note := "Saved!"

	switch a.settings.cursor {
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return
		}
		a.cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldBudget:
		target := selection.ParseAmount(val)
		a.cfg.Budget.Target = formatTargetInput(target.String())
		a.engine.SetTarget(target)
		a.budget.input.SetValue(a.cfg.Budget.Target)
	case settingsFieldEndpoint:
		a.cfg.Relay.Endpoint = val
		note = "Saved! Relay changes apply on next launch."
	case settingsFieldAPIKey:
		a.cfg.Relay.APIKey = val
		note = "Saved! Relay changes apply on next launch."
	case settingsFieldLogLevel:
		a.cfg.Log.Level = logging.ParseLevel(val).String()
	}

	a.settings.saveErr = config.SaveTo(a.configPath, a.cfg)
	if a.settings.saveErr != nil {
		a.log.Warn("saving settings failed", zap.Error(a.settings.saveErr))
		return
	}
	a.settings.saved = note
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.Positive).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	budget := "(not set)"
	if a.cfg.Budget.Target != "" {
		budget = cli.FormatMoney(selection.ParseAmount(a.cfg.Budget.Target))
	}
	endpoint := a.cfg.Relay.Endpoint
	if endpoint == "" {
		endpoint = "(not set)"
	}

	fields := []struct{ label, value string }{
		{"Theme", a.cfg.Appearance.Theme},
		{"Default Budget", budget},
		{"Relay Endpoint", endpoint},
		{"Relay API Key", config.Mask(a.cfg.Relay.APIKey)},
		{"Log Level", a.cfg.Log.Level},
	}

	innerW := components.CardInnerWidth(cw)

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(cli.Truncate(f.value, innerW-22))
			formBody.WriteString(marker + label + value)
			usedWidth := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if padLen := innerW - usedWidth; padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(cli.Truncate(f.value, innerW-22)))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Over).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved != "" {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render(a.settings.saved))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	// Catalog info card
	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Catalog records: ") + valueStyle.Render(fmt.Sprintf("%d", len(a.engine.Source().Records()))) + "\n")
	infoBody.WriteString(labelStyle.Render("Locations:       ") + valueStyle.Render(strings.Join(a.engine.Locations(), ", ")) + "\n")
	infoBody.WriteString(labelStyle.Render("Units:           ") + valueStyle.Render(formatUnits(a.engine.Units())) + "\n")
	infoBody.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(a.configPath))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("Catalog", infoBody.String(), cw))

	return b.String()
}

func formatUnits(units []string) string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = cli.FormatUnit(u)
	}
	return strings.Join(out, ", ")
}
