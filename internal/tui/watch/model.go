package watch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/minibridge/internal/events"
)

const maxEventLog = 500

// Model is the main BubbleTea model for the watch TUI.
type Model struct {
	apiURL string
	apiKey string

	width  int
	height int

	health    healthMsg
	healthy   bool
	connected bool
	lastError string

	eventLog []events.Event
	viewport viewport.Model
	ready    bool

	theme Theme

	hubEvents chan events.Event
}

// NewModel creates a watch model pointed at the given admin API.
func NewModel(apiURL, apiKey string) Model {
	return Model{
		apiURL:    strings.TrimRight(apiURL, "/"),
		apiKey:    apiKey,
		theme:     DefaultTheme(),
		hubEvents: make(chan events.Event, 64),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		subscribeToEvents(m.apiURL, m.apiKey, m.hubEvents),
		receiveNextEvent(m.hubEvents),
		fetchHealth(m.apiURL),
		tick(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logHeight := m.height - 4 // header, separator, footer
		if logHeight < 3 {
			logHeight = 3
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, logHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = logHeight
		}
		m.viewport.SetContent(m.renderEvents())

	case eventMsg:
		m.connected = true
		m.eventLog = append(m.eventLog, events.Event(msg))
		if len(m.eventLog) > maxEventLog {
			m.eventLog = m.eventLog[len(m.eventLog)-maxEventLog:]
		}
		if m.ready {
			m.viewport.SetContent(m.renderEvents())
			m.viewport.GotoBottom()
		}
		return m, receiveNextEvent(m.hubEvents)

	case healthMsg:
		m.health = msg
		m.healthy = msg.Status == "ok"
		m.lastError = ""

	case tickMsg:
		return m, tea.Batch(fetchHealth(m.apiURL), tick())

	case sseDisconnectedMsg:
		m.connected = false
		return m, reconnectLater()

	case reconnectMsg:
		return m, subscribeToEvents(m.apiURL, m.apiKey, m.hubEvents)

	case errMsg:
		m.healthy = false
		m.lastError = msg.Error()
	}

	var cmd tea.Cmd
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "starting watch..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(m.width, 1)))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.theme.Help.Render("q: quit  ↑/↓: scroll"))
	return b.String()
}

func (m Model) renderHeader() string {
	status := m.theme.StatusBad.Render("● down")
	if m.healthy {
		status = m.theme.StatusOK.Render("● up")
	}
	stream := m.theme.StatusBad.Render("stream: off")
	if m.connected {
		stream = m.theme.StatusOK.Render("stream: live")
	}

	parts := []string{
		m.theme.Header.Render("minibridge watch"),
		status,
		stream,
		fmt.Sprintf("namespaces: %d", m.health.Namespaces),
		fmt.Sprintf("journal: %d", m.health.JournalEntries),
		fmt.Sprintf("up: %ds", m.health.UptimeSeconds),
	}
	if m.lastError != "" {
		parts = append(parts, m.theme.ErrorText.Render(m.lastError))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "  "))
}

func (m Model) renderEvents() string {
	if len(m.eventLog) == 0 {
		return m.theme.Help.Render("waiting for bridge activity...")
	}

	var b strings.Builder
	for _, ev := range m.eventLog {
		b.WriteString(m.theme.Timestamp.Render(ev.At.Format("15:04:05")))
		b.WriteString(" ")
		b.WriteString(m.theme.EventType.Render(fmt.Sprintf("%-9s", ev.Type)))
		b.WriteString(" ")
		b.WriteString(summarize(ev))
		b.WriteString("\n")
	}
	return b.String()
}

// summarize renders one event's payload as a compact single line.
func summarize(ev events.Event) string {
	var data map[string]any
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return string(ev.Data)
	}

	switch ev.Type {
	case events.TypeDispatch:
		line := fmt.Sprintf("%v.%v → %v", data["namespace"], data["method"], data["status"])
		if errText, _ := data["error"].(string); errText != "" {
			line += " (" + errText + ")"
		}
		return line
	case events.TypePush:
		return fmt.Sprintf("push %v", data["event"])
	default:
		return string(ev.Data)
	}
}

// Run starts the watch TUI and blocks until the user quits.
func Run(apiURL, apiKey string) error {
	p := tea.NewProgram(NewModel(apiURL, apiKey), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
