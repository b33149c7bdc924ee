// Package tui provides the interactive Bubble Tea dashboard for pibudget.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/cli"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/config"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/logging"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/relay"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/selection"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui/components"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const (
	tabBudget = iota
	tabChat
	tabSettings
)

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 160

	minContentHeight = 5 // minimum content area height
)

// RelayReplyMsg carries the outcome of an in-flight relay call.
type RelayReplyMsg struct {
	Reply string
	Err   error
}

// Options configures the dashboard.
type Options struct {
	Engine     *selection.Engine
	Relay      *relay.Relay
	Config     config.Config
	ConfigPath string // where Settings saves; defaults to config.Path()
	FirstRun   bool   // show the setup form before the dashboard
	Logger     *zap.Logger
}

// App is the root Bubble Tea model.
type App struct {
	engine     *selection.Engine
	relay      *relay.Relay
	cfg        config.Config
	configPath string
	log        *zap.Logger

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	budget   budgetState
	chat     chatState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	needSetup bool

	spinner spinner.Model
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	path := opts.ConfigPath
	if path == "" {
		path = config.Path()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		engine:     opts.Engine,
		relay:      opts.Relay,
		cfg:        opts.Config,
		configPath: path,
		log:        logging.OrNop(opts.Logger),
		needSetup:  opts.FirstRun,
		budget:     newBudgetState(),
		chat:       newChatState(),
		spinner:    sp,
	}
	if a.engine != nil {
		a.budget.input.SetValue(formatTargetInput(a.engine.Target().String()))
	}

	if a.needSetup {
		a.setupVals = SetupValuesFrom(opts.Config)
		a.setupForm = NewSetupForm(&a.setupVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if a.showHelp || (a.needSetup && a.setupForm != nil) {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case RelayReplyMsg:
		if a.relay == nil {
			return a, nil
		}
		reply, ok := a.relay.Finish(msg.Reply, msg.Err)
		if ok {
			a.log.Debug("relay reply appended", zap.Int("chars", len(reply.Content)))
		}
		a.chat.scroll = 0
		if a.activeTab != tabChat {
			return a, nil
		}
		cmd := a.chat.input.Focus()
		return a, cmd

	case spinner.TickMsg:
		if a.relay != nil && a.relay.Busy() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	if a.activeTab == tabChat {
		var cmd tea.Cmd
		a.chat.input, cmd = a.chat.input.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global: quit
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	// First-run setup wizard intercepts all keys
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	// Text inputs own the keyboard while active
	if a.activeTab == tabBudget && a.budget.editing {
		return a.updateBudgetInput(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == tabChat {
		return a.updateChat(msg)
	}

	// Help toggle
	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}

	// Dismiss help
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	if a.activeTab == tabBudget {
		if next, cmd, handled := a.updateBudgetKeys(key); handled {
			return next, cmd
		}
	}

	// Settings tab navigation (non-editing mode)
	if a.activeTab == tabSettings {
		switch key {
		case "j", "down":
			if a.settings.cursor < settingsFieldCount-1 {
				a.settings.cursor++
			}
			return a, nil
		case "k", "up":
			if a.settings.cursor > 0 {
				a.settings.cursor--
			}
			return a, nil
		case "enter":
			return a.settingsStartEdit()
		}
	}

	if key == "q" {
		return a, tea.Quit
	}

	return a.switchTabByKey(key)
}

// switchTabByKey handles tab navigation keys shared by every tab.
func (a App) switchTabByKey(key string) (tea.Model, tea.Cmd) {
	prev := a.activeTab
	switch key {
	case "tab", "right":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	case "shift+tab", "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	default:
		if len(key) == 1 {
			if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a.enterTab(prev)
}

// enterTab focuses the chat input when the chat tab becomes active.
func (a App) enterTab(prev int) (tea.Model, tea.Cmd) {
	if a.activeTab == prev {
		return a, nil
	}
	if a.activeTab == tabChat && (a.relay == nil || !a.relay.Busy()) {
		cmd := a.chat.input.Focus()
		return a, cmd
	}
	a.chat.input.Blur()
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		switch a.activeTab {
		case tabBudget:
			a.budget.moveCursor(-1, len(a.engine.Visible()))
		case tabChat:
			a.chat.scroll++
		}
		return a, nil

	case tea.MouseButtonWheelDown:
		switch a.activeTab {
		case tabBudget:
			a.budget.moveCursor(1, len(a.engine.Visible()))
		case tabChat:
			if a.chat.scroll > 0 {
				a.chat.scroll--
			}
		}
		return a, nil

	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return a, nil
		}
		// Tab bar is the first line
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				prev := a.activeTab
				a.activeTab = tab
				return a.enterTab(prev)
			}
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.applySetup()
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}

	return a, cmd
}

func (a *App) applySetup() {
	a.setupVals.Apply(&a.cfg)
	theme.SetActive(a.cfg.Appearance.Theme)
	a.engine.SetTargetInput(a.cfg.Budget.Target)
	a.budget.input.SetValue(a.cfg.Budget.Target)

	if err := config.SaveTo(a.configPath, a.cfg); err != nil {
		a.log.Warn("saving setup config failed", zap.Error(err))
		a.settings.saveErr = err
	}
}

// askCmd performs the relay call off the UI goroutine.
func askCmd(inv relay.Invoker, prompt string) tea.Cmd {
	return func() tea.Msg {
		reply, err := inv.Invoke(context.Background(), prompt)
		return RelayReplyMsg{Reply: reply, Err: err}
	}
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	// First-run setup wizard
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  pibudget needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Key).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"b c x", "Jump to tab"},
			{"Tab ← →", "Previous / Next tab"},
			{"j k", "Move through lists"},
		}},
		{"Budget", []struct{ key, desc string }{
			{"[ ]", "Previous / Next location"},
			{"{ }", "Previous / Next unit"},
			{"Space", "Toggle item"},
			{"e", "Edit budget (Enter applies)"},
			{"C", "Clear selection"},
		}},
		{"Chat", []struct{ key, desc string }{
			{"Enter", "Send question"},
			{"PgUp PgDn", "Scroll transcript"},
			{"Esc", "Leave chat"},
		}},
		{"General", []struct{ key, desc string }{
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + filter pill
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	loc, unit := a.engine.Filter()
	filterStr := pillStyle.Render(" ") +
		accentStyle.Render(loc) +
		pillStyle.Render(" │ ") + accentStyle.Render(cli.FormatUnit(unit))
	if target := a.engine.Target(); target.IsPositive() {
		filterStr += pillStyle.Render(" │ budget ") + accentStyle.Render(cli.FormatMoney(target))
	}
	filterStr += pillStyle.Render(" ")

	filterRowStyle := lipgloss.NewStyle().Background(t.Surface).Width(w)
	header := components.RenderTabBar(a.activeTab, w) + "\n" + filterRowStyle.Render(filterStr)

	// 2. Status bar
	statusBar := components.RenderStatusBar(w, a.statusHints(), a.statusInfo())

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	switch a.activeTab {
	case tabBudget:
		content = a.renderBudgetTab(cw, contentH)
	case tabChat:
		content = a.renderChatTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	// 5. Truncate + pad to exactly contentH lines, fill with background
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusHints() string {
	switch a.activeTab {
	case tabChat:
		return "[Enter]send  [Esc]back  [^c]quit"
	case tabBudget:
		if a.budget.editing {
			return "[Enter]apply  [Esc]cancel"
		}
		return "[space]toggle  [e]budget  [?]help  [q]uit"
	default:
		return "[?]help  [q]uit"
	}
}

func (a App) statusInfo() string {
	info := fmt.Sprintf("%s  Total %s",
		cli.FormatCount(len(a.engine.Selected())),
		cli.FormatMoney(a.engine.Total()))
	if a.relay != nil && a.relay.Busy() {
		info = a.spinner.View() + " asking…  " + info
	}
	return info
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)

		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
