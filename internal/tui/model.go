// Package tui is the terminal shell for the voice command pipeline.
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.aimuz.me/robovoice/audiocapture"
	"go.aimuz.me/robovoice/internal/app"
	"go.aimuz.me/robovoice/internal/types"
)

// Pipeline is the part of app.Service the shell drives.
type Pipeline interface {
	StartGesture() (string, error)
	StopGesture() error
	Config() types.PipelineConfig
	UpdateConfig(types.PipelineConfig) error
	Notifications() <-chan types.Notification
}

const maxLogLines = 500

// Model is the bubbletea model of the shell.
type Model struct {
	pipeline Pipeline
	cfg      types.PipelineConfig

	width  int
	height int
	ready  bool

	listening  bool
	processing bool
	editing    bool

	viewport viewport.Model
	spinner  spinner.Model
	input    textinput.Model

	lines []logLine
}

// New creates the shell model for a pipeline.
func New(p Pipeline) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	ti := textinput.New()
	ti.Placeholder = "https://example.ngrok-free.app/command"
	ti.CharLimit = 512
	ti.Prompt = "URL: "

	return Model{
		pipeline: p,
		cfg:      p.Config(),
		spinner:  sp,
		input:    ti,
	}
}

// Init starts the spinner and the notification pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForNotification(m.pipeline.Notifications()),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 4
		viewportHeight := max(msg.Height-headerHeight-footerHeight, 3)

		if !m.ready {
			m.viewport = viewport.New(msg.Width-4, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 4
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case notificationMsg:
		n := types.Notification(msg)
		m.appendLog(formatNotification(n))
		if n.Final {
			m.processing = false
			m.listening = false
		}
		cmds = append(cmds, waitForNotification(m.pipeline.Notifications()))

	case notificationsClosedMsg:
		return m, tea.Quit
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		// An open session is discarded by the service on Close.
		return m, tea.Quit

	case " ", "space":
		m.toggleListening()
		return m, nil

	case "s":
		pc := m.cfg
		pc.SendingEnabled = !pc.SendingEnabled
		m.applyConfig(pc)
		if pc.SendingEnabled {
			m.info("Sending commands enabled")
		} else {
			m.info("Sending commands disabled")
		}
		return m, nil

	case "e":
		m.editing = true
		m.input.SetValue(m.cfg.EndpointURL)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case "pgup", "up", "pgdown", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		url := strings.TrimSpace(m.input.Value())
		m.editing = false
		m.input.Blur()
		if url == "" {
			m.errorf("URL must not be empty")
			return m, nil
		}
		if url != m.cfg.EndpointURL {
			pc := m.cfg
			pc.EndpointURL = url
			m.applyConfig(pc)
			m.info("Robot URL set to " + url)
		}
		return m, nil

	case tea.KeyEsc:
		m.editing = false
		m.input.Blur()
		return m, nil

	case tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// toggleListening is ignored while a run is in flight.
func (m *Model) toggleListening() {
	if m.processing {
		m.info("Still processing the previous command")
		return
	}

	if !m.listening {
		if _, err := m.pipeline.StartGesture(); err != nil {
			// Device failures arrive as an error notification.
			if !errors.Is(err, audiocapture.ErrDeviceUnavailable) {
				m.errorf("Could not start listening: %v", err)
			}
			return
		}
		m.listening = true
		return
	}

	if err := m.pipeline.StopGesture(); err != nil {
		m.errorf("Could not stop listening: %v", err)
		m.listening = false
		return
	}
	m.listening = false
	m.processing = true
	m.info(app.StatusProcessing)
}

func (m *Model) applyConfig(pc types.PipelineConfig) {
	m.cfg = pc
	if err := m.pipeline.UpdateConfig(pc); err != nil {
		slog.Error("update config", "error", err)
		m.errorf("Could not save settings: %v", err)
	}
}

func (m *Model) info(text string) {
	m.appendLog(logLine{Tag: tagInfo, Text: text})
}

func (m *Model) errorf(format string, args ...any) {
	m.appendLog(logLine{Tag: tagError, Text: fmt.Sprintf(format, args...)})
}

func (m *Model) appendLog(l logLine) {
	m.lines = append(m.lines, l)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
	m.updateViewportContent()
}

func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	rendered := make([]string, len(m.lines))
	for i, l := range m.lines {
		rendered[i] = l.render()
	}
	m.viewport.SetContent(strings.Join(rendered, "\n"))
	m.viewport.GotoBottom()
}

// ─────────────────────────────────────────────────────────────────────────────
// View
// ─────────────────────────────────────────────────────────────────────────────

// View renders the UI.
func (m Model) View() string {
	if !m.ready {
		return "Starting robovoice..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Robot Voice Control"))
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(logPanelStyle.Width(m.width - 2).Render(m.viewport.View()))
	b.WriteString("\n")
	if m.editing {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(m.renderHelpBar())
	}
	return b.String()
}

func (m Model) renderStatusBar() string {
	var state string
	switch {
	case m.listening:
		state = recStyle.Render("● LISTENING")
	case m.processing:
		state = m.spinner.View() + busyStyle.Render(" PROCESSING")
	default:
		state = helpDescStyle.Render("IDLE")
	}

	sending := offStyle.Render("OFF")
	if m.cfg.SendingEnabled {
		sending = onStyle.Render("ON")
	}

	content := lipgloss.JoinHorizontal(lipgloss.Center,
		state,
		"   Send: ", sending,
		"   ", helpDescStyle.Render(m.cfg.EndpointURL),
	)
	return statusBarStyle.Width(max(m.width-2, 0)).Render(content)
}

func (m Model) renderHelpBar() string {
	listen := "start"
	if m.listening {
		listen = "stop"
	}
	hints := []string{
		renderKeyHint("space", listen),
		renderKeyHint("s", "toggle sending"),
		renderKeyHint("e", "edit url"),
		renderKeyHint("q", "quit"),
	}
	return strings.Join(hints, "  ")
}
