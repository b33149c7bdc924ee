package tui

import (
	"strings"

	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/model"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui/components"
	"github.com/RentalNBDAC/PI-Budget-Calculator/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

const chatPlaceholder = "Ask about the price data..."

// chatState tracks the chat tab state.
type chatState struct {
	input  textinput.Model
	scroll int // lines scrolled up from the bottom of the transcript
}

func newChatState() chatState {
	ti := textinput.New()
	ti.Placeholder = chatPlaceholder
	ti.Prompt = "› "
	ti.CharLimit = 2000
	ti.Width = 60
	return chatState{input: ti}
}

func (a App) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	busy := a.relay != nil && a.relay.Busy()

	switch msg.String() {
	case "tab", "shift+tab":
		return a.switchTabByKey(msg.String())
	case "esc":
		prev := a.activeTab
		a.activeTab = tabBudget
		return a.enterTab(prev)
	case "pgup", "ctrl+u":
		a.chat.scroll += 5
		return a, nil
	case "pgdown", "ctrl+d":
		a.chat.scroll -= 5
		if a.chat.scroll < 0 {
			a.chat.scroll = 0
		}
		return a, nil
	case "enter":
		if busy || a.relay == nil {
			return a, nil
		}
		userMsg, ok := a.relay.Begin(a.chat.input.Value())
		if !ok {
			return a, nil
		}
		a.log.Debug("relay ask", zap.String("id", userMsg.ID))
		a.chat.input.SetValue("")
		a.chat.input.Blur()
		a.chat.scroll = 0
		return a, tea.Batch(askCmd(a.relay.Invoker(), userMsg.Content), a.spinner.Tick)
	}

	// Input is disabled while a call is in flight
	if busy {
		return a, nil
	}

	var cmd tea.Cmd
	a.chat.input, cmd = a.chat.input.Update(msg)
	return a, cmd
}

func (a App) renderChatTab(cw, h int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	var transcript []model.Message
	busy := false
	if a.relay != nil {
		transcript = a.relay.Transcript()
		busy = a.relay.Busy()
	}

	lines := renderTranscript(transcript, innerW)
	if busy {
		thinking := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).
			Render(a.spinner.View() + " Thinking...")
		lines = append(lines, "", thinking)
	}

	// Transcript card fills what the input card leaves
	visibleRows := h - 2 - 5
	if visibleRows < 3 {
		visibleRows = 3
	}
	maxScroll := len(lines) - visibleRows
	if maxScroll < 0 {
		maxScroll = 0
	}
	scroll := a.chat.scroll
	if scroll > maxScroll {
		scroll = maxScroll
	}
	end := len(lines) - scroll
	start := end - visibleRows
	if start < 0 {
		start = 0
	}

	title := "Assistant"
	if scroll > 0 {
		title += "  ↑ scrolled"
	}

	input := a.chat.input
	input.Width = innerW - 4
	if busy {
		input.Placeholder = "Waiting for response..."
	}

	var b strings.Builder
	b.WriteString(components.ContentCard(title, strings.Join(lines[start:end], "\n"), cw))
	b.WriteString("\n")
	b.WriteString(components.FocusCard("Ask", input.View(), cw))
	return b.String()
}

// renderTranscript wraps every message to width and labels it by role.
func renderTranscript(msgs []model.Message, width int) []string {
	t := theme.Active

	userLabel := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	botLabel := lipgloss.NewStyle().Foreground(t.Assistant).Background(t.Surface).Bold(true)
	body := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(width)

	var lines []string
	for i, m := range msgs {
		if i > 0 {
			lines = append(lines, "")
		}
		label := botLabel.Render("Assistant")
		if m.Role == model.RoleUser {
			label = userLabel.Render("You")
		}
		lines = append(lines, label)
		lines = append(lines, strings.Split(body.Render(m.Content), "\n")...)
	}
	return lines
}
