package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"business-chatbot/internal/chat"
	"business-chatbot/internal/models"
)

const (
	title       = "Business Chatbot"
	placeholder = "Ask me anything!"
	typing      = "Bot is typing..."
	helpLine    = "enter send • ctrl+t theme • esc quit"
)

// answerMsg carries the settled /ask call back into Update.
type answerMsg struct {
	answer string
	err    error
}

// Model is the Bubble Tea model of the chat client.
type Model struct {
	session  *chat.Session
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	ready    bool
}

func New(session *chat.Session) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type your question and press Enter"
	ti.CharLimit = 0
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// title, input box, status and help lines
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 + 1
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.input.Width = max(10, msg.Width-6)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+t":
			m.session.ToggleTheme()
			m.refresh()
			return m, nil
		case "enter":
			if m.session.InFlight() {
				return m, nil
			}
			q, ok := m.session.Begin(m.input.Value())
			if !ok {
				return m, nil
			}
			m.input.Reset()
			m.input.Blur()
			m.refresh()
			return m, tea.Batch(askCmd(m.session, q), m.spinner.Tick)
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case answerMsg:
		m.session.Resolve(msg.answer, msg.err)
		m.refresh()
		return m, m.input.Focus()

	case spinner.TickMsg:
		if !m.session.InFlight() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.session.InFlight() {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	th := m.theme()

	status := ""
	if m.session.InFlight() {
		status = m.spinner.View() + " " + th.status.Render(typing)
	}

	return th.title.Render(title) + "\n" +
		m.viewport.View() + "\n" +
		status + "\n" +
		inputBoxStyle.Copy().BorderForeground(th.border).Render(m.input.View()) + "\n" +
		th.help.Render(helpLine)
}

// askCmd runs the /ask round trip off the UI goroutine.
func askCmd(session *chat.Session, question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := session.Ask(context.Background(), question)
		return answerMsg{answer: answer, err: err}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	th := m.theme()
	msgs := m.session.Messages()
	if len(msgs) == 0 {
		return lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Center, th.placeholder.Render(placeholder))
	}

	bubbleWidth := max(10, m.viewport.Width*3/4)
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		switch {
		case msg.Role == models.RoleUser:
			b.WriteString(lipgloss.PlaceHorizontal(m.viewport.Width, lipgloss.Right, bubble(th.user, msg.Content, bubbleWidth)))
		case strings.HasPrefix(msg.Content, chat.ErrorPrefix):
			b.WriteString(bubble(th.errorBubble, msg.Content, bubbleWidth))
		default:
			b.WriteString(bubble(th.assistant, msg.Content, bubbleWidth))
		}
	}
	return b.String()
}

// bubble renders content no wider than maxWidth, shrinking to fit short
// messages.
func bubble(style lipgloss.Style, content string, maxWidth int) string {
	// Width covers padding but not the border
	w := min(lipgloss.Width(content)+style.GetHorizontalFrameSize(), maxWidth)
	return style.Copy().Width(w - style.GetHorizontalBorderSize()).Render(content)
}

func (m Model) theme() theme {
	if m.session.DarkMode() {
		return darkTheme
	}
	return lightTheme
}
