// Package view renders the control panel shown inside a Webulator panel.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var controlPanelTemplate = template.Must(template.ParseFS(templateFS, "templates/control_panel.html.tmpl"))

// InitialRequestDelay is how long the page waits before its first hello.
const InitialRequestDelay = time.Second

// Endpoints are the demo server routes the page calls.
type Endpoints struct {
	Hello  string `json:"hello"`
	Status string `json:"status"`
	Echo   string `json:"echo"`
}

// DefaultEndpoints matches the routes of the demo server.
var DefaultEndpoints = Endpoints{
	Hello:  "/api/hello",
	Status: "/api/status",
	Echo:   "/api/echo",
}

// Action is a button in the control panel.
type Action struct {
	ID    string
	Label string
}

// ControlPanel is the view-model of the generated panel content.
type ControlPanel struct {
	Title           string
	Heading         string
	Description     string
	ServerURL       string
	Endpoints       Endpoints
	Actions         []Action
	EchoPlaceholder string
	Placeholder     string
	InitialDelay    time.Duration
}

// NewControlPanel builds the standard control panel talking to serverURL.
func NewControlPanel(title, serverURL string) ControlPanel {
	return ControlPanel{
		Title:       title,
		Heading:     title + " Control Panel",
		Description: "This is a demonstration of a developer tool communicating with an HTTP server.",
		ServerURL:   serverURL,
		Endpoints:   DefaultEndpoints,
		Actions: []Action{
			{ID: "hello", Label: "Say Hello"},
			{ID: "status", Label: "Get Status"},
			{ID: "clear", Label: "Clear"},
		},
		EchoPlaceholder: "Enter message to echo...",
		Placeholder:     "Click a button to see the response from the HTTP server...",
		InitialDelay:    InitialRequestDelay,
	}
}

type controlPanelData struct {
	ControlPanel
	InitialDelayMS int64
}

// Render produces the full HTML document for the panel.
func (cp ControlPanel) Render() (string, error) {
	var buf bytes.Buffer
	err := controlPanelTemplate.Execute(&buf, controlPanelData{
		ControlPanel:   cp,
		InitialDelayMS: cp.InitialDelay.Milliseconds(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render control panel: %w", err)
	}
	return buf.String(), nil
}
