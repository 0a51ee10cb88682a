package device

import (
	"bytes"
	"fmt"
	"html/template"
	"sync"
	"time"
)

// DefaultLoadDelay is how long the loading screen stays up after the
// embedded content reports a load.
const DefaultLoadDelay = time.Second

// State is the visible state of the frame's screen.
type State int

const (
	StateLoading State = iota
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText renders the state as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Config configures a Frame. Name is reactive: passing a new Config to
// Render swaps the device and re-renders.
type Config struct {
	Name      string
	LoadDelay time.Duration
}

// Status is a point-in-time view of a frame.
type Status struct {
	Device string `json:"device"`
	State  State  `json:"state"`
	URL    string `json:"url"`
}

// Frame is a phone bezel with an embedded browsing context. It tracks the
// LOADING/LOADED state on the server side and renders markup whose script
// applies the same transitions in the browser.
type Frame struct {
	mu    sync.Mutex
	cfg   Config
	spec  Spec
	src   string
	state State
	html  template.HTML
}

// NewFrame creates a frame and renders it once.
func NewFrame(cfg Config) (*Frame, error) {
	f := &Frame{}
	if err := f.Render(cfg); err != nil {
		return nil, err
	}
	return f, nil
}

// Render replaces the configuration and regenerates the markup. The screen
// returns to the loading state; the current source is kept so the new
// markup reloads it.
func (f *Frame) Render(cfg Config) error {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.LoadDelay <= 0 {
		cfg.LoadDelay = DefaultLoadDelay
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.render(cfg, f.src)
}

// render regenerates the markup for cfg and src. Callers hold f.mu; state
// is only replaced when rendering succeeds.
func (f *Frame) render(cfg Config, src string) error {
	spec := Lookup(cfg.Name)
	html, err := renderFrame(frameData{
		Name:        cfg.Name,
		Spec:        spec,
		Src:         src,
		LoadDelayMS: cfg.LoadDelay.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("failed to render device frame: %w", err)
	}

	f.cfg = cfg
	f.spec = spec
	f.src = src
	f.state = StateLoading
	f.html = html
	return nil
}

// HTML returns the most recently rendered markup.
func (f *Frame) HTML() template.HTML {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.html
}

// Navigate points the embedded frame at url. An empty url is ignored. On
// a render failure the previous source and markup are kept.
func (f *Frame) Navigate(url string) error {
	if url == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.render(f.cfg, url)
}

// HandleLoad records a load event from the embedded frame. After the load
// delay the screen switches to LOADED. The timer is never cancelled, so a
// ShowLoading in between is overridden when it fires.
func (f *Frame) HandleLoad() {
	f.mu.Lock()
	delay := f.cfg.LoadDelay
	hasSource := f.src != ""
	f.mu.Unlock()

	if !hasSource {
		return
	}

	time.AfterFunc(delay, func() {
		f.mu.Lock()
		f.state = StateLoaded
		f.mu.Unlock()
	})
}

// ShowLoading forces the loading screen regardless of the current state.
func (f *Frame) ShowLoading() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateLoading
}

// State returns the current screen state.
func (f *Frame) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Spec returns the metrics of the rendered device.
func (f *Frame) Spec() Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spec
}

// Name returns the configured device name.
func (f *Frame) Name() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg.Name
}

// Source returns the url the embedded frame points at.
func (f *Frame) Source() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.src
}

// Status snapshots the frame.
func (f *Frame) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Status{Device: f.cfg.Name, State: f.state, URL: f.src}
}

type frameData struct {
	Name        string
	Spec        Spec
	Src         string
	LoadDelayMS int64
}

func renderFrame(data frameData) (template.HTML, error) {
	var buf bytes.Buffer
	if err := frameTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
