// Package tui is the terminal host: a command palette with a notification
// log standing in for an editor's command surface and notices.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zsiec/webulator/internal/command"
	"github.com/zsiec/webulator/internal/device"
	"github.com/zsiec/webulator/internal/lifecycle"
)

const (
	styleInfo    = "info"
	styleSuccess = "success"
	styleWarn    = "warn"
	styleError   = "error"
)

const maxLogs = 200

// Executor runs palette commands.
type Executor interface {
	Execute(name string) error
	Names() []string
}

// StateSource reports the lifecycle state shown in the header.
type StateSource interface {
	State() lifecycle.State
}

// DeviceSwitcher changes the device every panel renders.
type DeviceSwitcher interface {
	SetDevice(name string) error
	Device() string
}

// Deps are the collaborators the model drives.
type Deps struct {
	Commands Executor
	State    StateSource
	Devices  DeviceSwitcher
	Notices  *Notifier
	Open     func(url string) error
	Version  string
}

// noticeMsg is a host notice read from the Notifier.
type noticeMsg struct {
	text  string
	style string
}

// logMsg is palette output.
type logMsg struct {
	text  string
	style string
}

type tickMsg time.Time

type logEntry struct {
	time  time.Time
	text  string
	style string
}

// Model is the bubbletea model of the terminal host.
type Model struct {
	deps     Deps
	input    textinput.Model
	viewport viewport.Model
	logs     []logEntry
	state    lifecycle.State
	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates the model.
func New(deps Deps) Model {
	ti := textinput.New()
	ti.Placeholder = "Type start, stop, status or help..."
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60
	ti.Prompt = "❯ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5E7EB"))

	vp := viewport.New(80, 10)
	vp.SetContent("")

	m := Model{
		deps:     deps,
		input:    ti,
		viewport: vp,
	}
	if deps.State != nil {
		m.state = deps.State.State()
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.listenForNotices(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) listenForNotices() tea.Cmd {
	if m.deps.Notices == nil {
		return nil
	}
	ch := m.deps.Notices.ch
	return func() tea.Msg {
		return <-ch
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			input := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if input != "" {
				m.addLog("❯ "+input, styleInfo)
				m.updateViewportContent()
				cmds = append(cmds, m.handleCommand(input))
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 6

		headerHeight := 4
		inputHeight := 3
		statusHeight := 2
		vpHeight := msg.Height - headerHeight - inputHeight - statusHeight - 2
		if vpHeight < 5 {
			vpHeight = 5
		}
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = vpHeight
		m.ready = true

	case noticeMsg:
		m.addLog(msg.text, msg.style)
		m.updateViewportContent()
		m.refreshState()
		cmds = append(cmds, m.listenForNotices())

	case logMsg:
		m.addLog(msg.text, msg.style)
		m.updateViewportContent()

	case tickMsg:
		m.refreshState()
		cmds = append(cmds, tickCmd())

	case clearMsg:
		m.logs = nil
		m.viewport.SetContent("")
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) refreshState() {
	if m.deps.State != nil {
		m.state = m.deps.State.State()
	}
}

func (m *Model) addLog(text, style string) {
	m.logs = append(m.logs, logEntry{time: time.Now(), text: text, style: style})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *Model) updateViewportContent() {
	lines := make([]string, 0, len(m.logs))
	for _, entry := range m.logs {
		timestamp := logTimeStyle.Render(entry.time.Format("15:04:05"))
		lines = append(lines, fmt.Sprintf("%s  %s", timestamp, styleFor(entry.style).Render(entry.text)))
	}

	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// Logs returns the text of the log entries, oldest first.
func (m Model) Logs() []string {
	out := make([]string, len(m.logs))
	for i, entry := range m.logs {
		out[i] = entry.text
	}
	return out
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := titleStyle.Render("Webulator " + m.deps.Version)
	status := dimStyle.Render("  Server: ") + onOff(m.state.ServerActive, m.state.ServerURL) +
		dimStyle.Render("  •  Panel: ") + onOff(m.state.PanelActive, m.state.PanelURL)

	deviceLine := ""
	if m.deps.Devices != nil {
		deviceLine = dimStyle.Render("  Device: ") + urlStyle.Render(m.deps.Devices.Device())
	}

	logBox := borderStyle.Width(max(m.width-2, 20)).Render(m.viewport.View())
	inputBox := borderStyle.Width(max(m.width-2, 20)).Render(m.input.View())
	footer := dimStyle.Render("start • stop • status • device <name> • open • help • Ctrl+C: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, status, deviceLine, logBox, inputBox, footer)
}

func onOff(active bool, url string) string {
	if active {
		return urlStyle.Render(url)
	}
	return stoppedStyle.Render("stopped")
}

type clearMsg struct{}

func logCmd(text, style string) tea.Cmd {
	return func() tea.Msg {
		return logMsg{text: text, style: style}
	}
}

// handleCommand maps palette input to a command. Lifecycle commands run
// off the event loop because they post notices back to it.
func (m Model) handleCommand(input string) tea.Cmd {
	parts := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(parts) == 0 {
		return logCmd(fmt.Sprintf("Unknown command: %s (try help)", strings.TrimSpace(input)), styleError)
	}
	name := strings.ToLower(parts[0])
	args := parts[1:]

	switch name {
	case "help", "h", "?":
		return m.cmdHelp()
	case "quit", "q", "exit":
		return tea.Quit
	case "clear", "c":
		return func() tea.Msg { return clearMsg{} }
	case "status", "s":
		return m.cmdStatus()
	case "device", "d":
		return m.cmdDevice(strings.Join(args, " "))
	case "open", "o":
		return m.cmdOpen()
	}

	executor := m.deps.Commands
	full := command.Resolve(parts[0])
	return func() tea.Msg {
		if err := executor.Execute(full); err != nil {
			if errors.Is(err, command.ErrUnknownCommand) {
				return logMsg{text: fmt.Sprintf("Unknown command: %s (try help)", parts[0]), style: styleError}
			}
			return logMsg{text: err.Error(), style: styleError}
		}
		return nil
	}
}

func (m Model) cmdHelp() tea.Cmd {
	lines := []string{
		"Commands:",
		"  start           Start the demo server and open the panel",
		"  stop            Stop the demo server and close the panel",
		"  status, s       Show server and panel state",
		"  device <name>   Switch the simulated device",
		"  open, o         Open the panel in the browser",
		"  clear, c        Clear the log",
		"  quit, q         Exit (Ctrl+C also works)",
	}
	if m.deps.Commands != nil {
		lines = append(lines, "", "Registered: "+strings.Join(m.deps.Commands.Names(), ", "))
	}
	return logCmd(strings.Join(lines, "\n"), styleInfo)
}

func (m Model) cmdStatus() tea.Cmd {
	if m.deps.State == nil {
		return logCmd("Status unavailable", styleWarn)
	}
	s := m.deps.State.State()

	server := "stopped"
	if s.ServerActive {
		server = "running on " + s.ServerURL
	}
	panel := "closed"
	if s.PanelActive {
		panel = "open at " + s.PanelURL
	}

	text := fmt.Sprintf("Server: %s\nPanel: %s", server, panel)
	if m.deps.Devices != nil {
		text += "\nDevice: " + m.deps.Devices.Device()
	}
	return logCmd(text, styleInfo)
}

func (m Model) cmdDevice(name string) tea.Cmd {
	if name == "" {
		return logCmd("Usage: device <name>  ("+strings.Join(device.Names(), ", ")+")", styleWarn)
	}
	if !device.Known(name) {
		return logCmd(fmt.Sprintf("Unknown device %q, known: %s", name, strings.Join(device.Names(), ", ")), styleError)
	}
	if m.deps.Devices == nil {
		return logCmd("Device switching unavailable", styleWarn)
	}
	if err := m.deps.Devices.SetDevice(name); err != nil {
		return logCmd(fmt.Sprintf("Failed to switch device: %v", err), styleError)
	}
	return logCmd("Device: "+name, styleSuccess)
}

func (m Model) cmdOpen() tea.Cmd {
	if m.deps.State == nil || m.deps.Open == nil {
		return logCmd("Open unavailable", styleWarn)
	}
	s := m.deps.State.State()
	if !s.PanelActive {
		return logCmd("No panel open, run start first", styleWarn)
	}
	if err := m.deps.Open(s.PanelURL); err != nil {
		return logCmd(fmt.Sprintf("Failed to open browser: %v. Please open manually: %s", err, s.PanelURL), styleError)
	}
	return logCmd("Opening "+s.PanelURL, styleSuccess)
}
