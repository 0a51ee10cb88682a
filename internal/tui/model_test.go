package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/webulator/internal/command"
	"github.com/zsiec/webulator/internal/lifecycle"
)

type fakeState struct {
	state lifecycle.State
}

func (f *fakeState) State() lifecycle.State { return f.state }

type fakeDevices struct {
	name string
	err  error
}

func (f *fakeDevices) SetDevice(name string) error {
	if f.err != nil {
		return f.err
	}
	f.name = name
	return nil
}

func (f *fakeDevices) Device() string { return f.name }

type fixture struct {
	registry *command.Registry
	state    *fakeState
	devices  *fakeDevices
	notices  *Notifier
	opened   []string
	starts   int
}

func newFixture(t *testing.T) (*fixture, Model) {
	t.Helper()
	f := &fixture{
		registry: command.NewRegistry(),
		state:    &fakeState{},
		devices:  &fakeDevices{name: "iPhone 16"},
		notices:  NewNotifier(8),
	}
	_, err := f.registry.Register(command.Start, func() { f.starts++ })
	require.NoError(t, err)

	m := New(Deps{
		Commands: f.registry,
		State:    f.state,
		Devices:  f.devices,
		Notices:  f.notices,
		Open: func(url string) error {
			f.opened = append(f.opened, url)
			return nil
		},
		Version: "test",
	})
	return f, m
}

// submit types input and presses enter, then runs the resulting command
// and feeds its message back into the model.
func submit(t *testing.T, m Model, input string) Model {
	t.Helper()
	m.input.SetValue(input)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	return drain(m, cmd)
}

func drain(m Model, cmd tea.Cmd) Model {
	if cmd == nil {
		return m
	}
	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			// skip blink and tick timers
			done := make(chan tea.Msg, 1)
			go func(c tea.Cmd) { done <- c() }(c)
			select {
			case inner := <-done:
				if _, ok := inner.(logMsg); ok {
					updated, _ := m.Update(inner)
					m = updated.(Model)
				}
				if _, ok := inner.(clearMsg); ok {
					updated, _ := m.Update(inner)
					m = updated.(Model)
				}
			case <-time.After(50 * time.Millisecond):
			}
		}
	case logMsg, clearMsg:
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func lastLog(m Model) string {
	logs := m.Logs()
	if len(logs) == 0 {
		return ""
	}
	return logs[len(logs)-1]
}

func TestStartCommandExecutesRegistry(t *testing.T) {
	f, m := newFixture(t)

	m = submit(t, m, "start")

	assert.Equal(t, 1, f.starts)
	assert.Equal(t, "❯ start", m.Logs()[0])

	m = submit(t, m, "/webulator.start")
	assert.Equal(t, 2, f.starts)
}

func TestUnknownCommand(t *testing.T) {
	_, m := newFixture(t)

	m = submit(t, m, "launch")

	assert.Equal(t, "Unknown command: launch (try help)", lastLog(m))
}

func TestBareSlashIsUnknown(t *testing.T) {
	f, m := newFixture(t)

	for _, input := range []string{"/", "/   "} {
		require.NotPanics(t, func() { m = submit(t, m, input) }, input)
		assert.Equal(t, "Unknown command: / (try help)", lastLog(m))
		assert.Equal(t, styleError, m.logs[len(m.logs)-1].style)
	}
	assert.Zero(t, f.starts)
}

func TestStatusCommand(t *testing.T) {
	f, m := newFixture(t)

	m = submit(t, m, "status")
	assert.Equal(t, "Server: stopped\nPanel: closed\nDevice: iPhone 16", lastLog(m))

	f.state.state = lifecycle.State{
		ServerActive: true,
		PanelActive:  true,
		ServerURL:    "http://localhost:3000",
		PanelURL:     "http://localhost:3001/panels/abc",
	}
	m = submit(t, m, "status")
	assert.Equal(t, "Server: running on http://localhost:3000\nPanel: open at http://localhost:3001/panels/abc\nDevice: iPhone 16", lastLog(m))
}

func TestDeviceCommand(t *testing.T) {
	f, m := newFixture(t)

	m = submit(t, m, "device iPhone 15")
	assert.Equal(t, "iPhone 15", f.devices.name)
	assert.Equal(t, "Device: iPhone 15", lastLog(m))

	m = submit(t, m, "device Pixel 9")
	assert.Contains(t, lastLog(m), `Unknown device "Pixel 9"`)
	assert.Equal(t, "iPhone 15", f.devices.name)

	m = submit(t, m, "device")
	assert.True(t, strings.HasPrefix(lastLog(m), "Usage: device <name>"))

	f.devices.err = errors.New("render failed")
	m = submit(t, m, "device iPhone 16 Pro")
	assert.Equal(t, "Failed to switch device: render failed", lastLog(m))
}

func TestOpenCommand(t *testing.T) {
	f, m := newFixture(t)

	m = submit(t, m, "open")
	assert.Equal(t, "No panel open, run start first", lastLog(m))
	assert.Empty(t, f.opened)

	f.state.state = lifecycle.State{PanelActive: true, PanelURL: "http://localhost:3001/panels/abc"}
	m = submit(t, m, "open")
	assert.Equal(t, []string{"http://localhost:3001/panels/abc"}, f.opened)
	assert.Equal(t, "Opening http://localhost:3001/panels/abc", lastLog(m))
}

func TestHelpAndClear(t *testing.T) {
	_, m := newFixture(t)

	m = submit(t, m, "help")
	assert.Contains(t, lastLog(m), "device <name>")
	assert.Contains(t, lastLog(m), "Registered: webulator.start")

	m = submit(t, m, "clear")
	assert.Empty(t, m.Logs())
}

func TestQuit(t *testing.T) {
	_, m := newFixture(t)
	m.input.SetValue("quit")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	var quit bool
	first := cmd()
	if _, ok := first.(tea.QuitMsg); ok {
		quit = true
	}
	if batch, ok := first.(tea.BatchMsg); ok {
		for _, c := range batch {
			if c == nil {
				continue
			}
			done := make(chan tea.Msg, 1)
			go func(c tea.Cmd) { done <- c() }(c)
			select {
			case msg := <-done:
				if _, ok := msg.(tea.QuitMsg); ok {
					quit = true
				}
			case <-time.After(50 * time.Millisecond):
			}
		}
	}
	assert.True(t, quit)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Equal(t, "", updated.(Model).View())
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestNoticesAppearInLog(t *testing.T) {
	f, m := newFixture(t)

	go f.notices.ShowInformationMessage("Webulator started! Server running on http://localhost:3000")
	msg := m.listenForNotices()()
	updated, _ := m.Update(msg)
	m = updated.(Model)

	assert.Equal(t, "Webulator started! Server running on http://localhost:3000", lastLog(m))
	assert.Equal(t, styleSuccess, m.logs[len(m.logs)-1].style)

	go f.notices.ShowErrorMessage("Port 3000 is already in use. Please stop other processes using this port.")
	updated, _ = m.Update(m.listenForNotices()())
	m = updated.(Model)
	assert.Equal(t, styleError, m.logs[len(m.logs)-1].style)
}

func TestNotifierCloseUnblocksSenders(t *testing.T) {
	n := NewNotifier(0)
	done := make(chan struct{})
	go func() {
		n.ShowInformationMessage("dropped")
		close(done)
	}()

	n.Close()
	n.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sender still blocked after close")
	}
}

func TestLogIsBounded(t *testing.T) {
	_, m := newFixture(t)
	for i := 0; i < maxLogs+10; i++ {
		m.addLog("line", styleInfo)
	}
	assert.Len(t, m.logs, maxLogs)
}

func TestViewShowsState(t *testing.T) {
	f, m := newFixture(t)
	f.state.state = lifecycle.State{ServerActive: true, ServerURL: "http://localhost:3000"}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(Model)
	updated, _ = m.Update(tickMsg(time.Now()))
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "Webulator test")
	assert.Contains(t, view, "http://localhost:3000")
	assert.Contains(t, view, "stopped")
	assert.Contains(t, view, "iPhone 16")
}
