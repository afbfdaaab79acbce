package sim

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-narrator/core/a11y"
	"github.com/koscakluka/ema-narrator/core/events"
	"github.com/koscakluka/ema-narrator/core/speech"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

const (
	KeyBackspace a11y.Key = "Backspace"
	KeySpace     a11y.Key = "Space"
	KeyTab       a11y.Key = "Tab"

	maxLogLines  = 500
	listWidth    = 44
	headerHeight = 3
)

type (
	startedMsg   struct{ err error }
	eventMsg     struct{ event events.Event }
	highlightMsg struct{ rect *a11y.Rect }
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	focusedStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("214"))
	elementStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	paneStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63"))
	highlightStyle = paneStyle.BorderForeground(lipgloss.Color("214"))
	spokenStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	droppedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type model struct {
	desktop  *Desktop
	start    func(context.Context) error
	playback func() speech.PlaybackState

	width  int
	height int

	viewport  viewport.Model
	spinner   spinner.Model
	log       []string
	status    string
	speaking  bool
	highlight *a11y.Rect
}

func newModel(desktop *Desktop, start func(context.Context) error, playback func() speech.PlaybackState) model {
	return model{
		desktop:  desktop,
		start:    start,
		playback: playback,
		viewport: viewport.New(60, 12),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		status:   "starting",
	}
}

func (m model) Init() tea.Cmd {
	start := m.start
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		if start == nil {
			return startedMsg{}
		}
		return startedMsg{err: start(context.Background())}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(20, msg.Width-listWidth-4)
		m.viewport.Height = max(5, msg.Height-headerHeight-2)
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case startedMsg:
		if msg.err != nil {
			m.status = "failed to start"
			m.appendLog(droppedStyle.Render("start failed: " + msg.err.Error()))
			return m, nil
		}
		m.status = "running"
		return m, nil

	case eventMsg:
		if line := describeEvent(msg.event); line != "" {
			m.appendLog(line)
		}
		return m, nil

	case highlightMsg:
		m.highlight = msg.rect
		return m, nil

	case spinner.TickMsg:
		if m.playback != nil {
			m.speaking = m.playback() == speech.PlaybackPlaying
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyCtrlQ:
		m.status = "stopping"
		return m, tea.Quit
	case tea.KeyTab, tea.KeyDown:
		m.desktop.Move(1)
	case tea.KeyShiftTab, tea.KeyUp:
		m.desktop.Move(-1)
	case tea.KeyCtrlR:
		m.desktop.Refocus()
	case tea.KeyEsc:
		m.desktop.Press(a11y.KeyEscape)
	case tea.KeyEnter:
		m.desktop.Press(a11y.KeyEnter)
	case tea.KeyBackspace:
		m.desktop.Press(KeyBackspace)
	case tea.KeySpace:
		m.desktop.Press(KeySpace)
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyRunes:
		if msg.Alt {
			return m, nil
		}
		for _, r := range msg.Runes {
			m.desktop.Press(a11y.Key(string(r)))
		}
	default:
		// Any other chord is reported as Control, the way a global key hook
		// sees the modifier first.
		if strings.HasPrefix(msg.String(), "ctrl+") {
			m.desktop.Press(a11y.KeyControl)
		}
	}
	return m, nil
}

func (m *model) appendLog(line string) {
	m.log = append(m.log, line)
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
	m.refreshLog()
}

func (m *model) refreshLog() {
	wrapped := make([]string, 0, len(m.log))
	for _, line := range m.log {
		wrapped = append(wrapped, wordwrap.String(line, m.viewport.Width))
	}
	m.viewport.SetContent(strings.Join(wrapped, "\n"))
	m.viewport.GotoBottom()
}

func (m model) View() string {
	title := titleStyle.Render("ema-narrator")
	status := m.status
	if m.speaking {
		status = m.spinner.View() + " speaking"
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", statusStyle.Render(status))
	help := statusStyle.Render("tab/shift+tab move focus · type into fields · esc silence · ctrl+q quit")

	elements, focused := m.desktop.Elements()
	rows := make([]string, 0, len(elements))
	for i, element := range elements {
		label := element.Name
		if element.Role != "" {
			label += " [" + element.Role + "]"
		}
		if element.Control.AcceptsInput() && element.Value != "" {
			label += ": " + element.Value
		}
		label = truncate.StringWithTail(label, uint(listWidth-4), "…")
		if i == focused {
			rows = append(rows, focusedStyle.Render(label))
		} else {
			rows = append(rows, elementStyle.Render(label))
		}
	}
	rows = append(rows, "", statusStyle.Render(describeHighlight(m.highlight)))

	list := paneStyle
	if m.highlight != nil {
		list = highlightStyle
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		list.Width(listWidth).Render(strings.Join(rows, "\n")),
		paneStyle.Render(m.viewport.View()),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, help, body)
}

func describeHighlight(rect *a11y.Rect) string {
	if rect == nil {
		return "highlight: none"
	}
	return fmt.Sprintf("highlight: %d,%d %dx%d", rect.Left, rect.Top, rect.Width(), rect.Height())
}

func describeEvent(event events.Event) string {
	switch event := event.(type) {
	case events.FocusChanged:
		return statusStyle.Render(fmt.Sprintf("focus %s (%s)", event.Element, event.ControlType))
	case events.UtteranceStarted:
		return spokenStyle.Render("» " + event.Utterance.Text)
	case events.UtteranceMuted:
		return droppedStyle.Render("muted: " + event.Utterance.Text)
	case events.UtteranceRejected:
		return droppedStyle.Render("rejected: " + event.Utterance.Text)
	case events.UtteranceSuperseded:
		return statusStyle.Render("superseded: " + event.Utterance.Text)
	case events.UtteranceFailed:
		return droppedStyle.Render(fmt.Sprintf("failed: %s: %v", event.Utterance.Text, event.Err))
	case events.SpeechSilenced:
		return statusStyle.Render("(silenced)")
	case events.NarratorStarted:
		return statusStyle.Render("narrator started")
	case events.NarratorStopping:
		return statusStyle.Render("narrator stopping")
	}
	return ""
}
