// Package lifecycle owns the demo server and the display panel. Each
// resource is started at most once and either can be stopped, or closed by
// the user, independently of the other.
package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zsiec/webulator/internal/config"
	"github.com/zsiec/webulator/internal/host"
	"github.com/zsiec/webulator/internal/logger"
	"github.com/zsiec/webulator/internal/metrics"
	"github.com/zsiec/webulator/internal/server"
	"github.com/zsiec/webulator/internal/view"
)

// ErrPortInUse classifies a server bind failure caused by another process
// holding the port.
var ErrPortInUse = errors.New("port already in use")

const (
	ViewType = "webulator"

	MsgStarted = "Webulator started! Server running on %s"
	MsgStopped = "Webulator stopped!"
)

// ServerHandle is the part of the demo server the controller drives.
type ServerHandle interface {
	Start() error
	Close() <-chan struct{}
	Running() bool
	Port() int
	URL() string
}

// State is a snapshot of the controller.
type State struct {
	ServerActive bool
	PanelActive  bool
	Port         int
	ServerURL    string
	PanelURL     string
}

// Controller starts and stops the demo server and the panel. It is built
// once per process and shared by the command bindings.
type Controller struct {
	config    *config.Config
	host      host.Host
	logger    *logrus.Entry
	newServer func() ServerHandle
	content   func() (string, error)

	// op serialises Start and Stop; mu guards the handles, which the
	// panel disposal hook also touches from other goroutines.
	op      sync.Mutex
	mu      sync.Mutex
	server  ServerHandle
	panel   host.Panel
	closing <-chan struct{}
}

// Option customises a Controller.
type Option func(*Controller)

// WithServerFactory replaces how the demo server is built.
func WithServerFactory(fn func() ServerHandle) Option {
	return func(c *Controller) { c.newServer = fn }
}

// WithContent replaces the panel content generator.
func WithContent(fn func() (string, error)) Option {
	return func(c *Controller) { c.content = fn }
}

// New creates a controller with no active resources.
func New(cfg *config.Config, h host.Host, log *logrus.Logger, opts ...Option) *Controller {
	c := &Controller{
		config: cfg,
		host:   h,
		logger: logger.WithComponent(log, "lifecycle"),
		newServer: func() ServerHandle {
			return server.New(&cfg.Server, log)
		},
		content: func() (string, error) {
			return view.NewControlPanel(cfg.Panel.Title, cfg.Server.URL()).Render()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start brings up whichever of the server and the panel is missing and
// reveals an existing panel. Failures are logged and shown as notices;
// Start itself never fails.
func (c *Controller) Start() {
	c.op.Lock()
	defer c.op.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.logger.WithField("panic", r).Error("Error starting Webulator")
			c.host.ShowErrorMessage(fmt.Sprintf("Failed to start Webulator: %v", r))
		}
	}()

	attempted, failed := 0, 0

	if !c.hasServer() {
		attempted++
		if err := c.startServer(); err != nil {
			failed++
			c.logger.WithError(err).Error("Error starting HTTP server")
			c.host.ShowErrorMessage(c.startErrorMessage(err))
		}
	}

	attempted++
	if err := c.showPanel(); err != nil {
		failed++
		c.logger.WithError(err).Error("Error creating panel")
		c.host.ShowErrorMessage(fmt.Sprintf("Failed to start Webulator: %v", err))
	}

	if failed < attempted {
		c.host.ShowInformationMessage(fmt.Sprintf(MsgStarted, c.serverURL()))
	}
}

func (c *Controller) hasServer() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server != nil
}

func (c *Controller) startServer() error {
	c.awaitPendingClose()

	srv := c.newServer()
	if err := srv.Start(); err != nil {
		metrics.IncrementStartFailure(metrics.ResourceServer)
		if errors.Is(err, syscall.EADDRINUSE) {
			return fmt.Errorf("%w: %w", ErrPortInUse, err)
		}
		return err
	}

	c.mu.Lock()
	c.server = srv
	c.mu.Unlock()

	metrics.SetResourceActive(metrics.ResourceServer, true)
	metrics.RecordTransition(metrics.ResourceServer, metrics.TransitionStart)
	c.logger.WithField("url", srv.URL()).Info("HTTP server started")
	return nil
}

// awaitPendingClose waits, within the shutdown timeout, for a previous
// server to release the port.
func (c *Controller) awaitPendingClose() {
	if !c.config.Lifecycle.AwaitClose {
		return
	}

	c.mu.Lock()
	closing := c.closing
	c.mu.Unlock()

	if closing == nil {
		return
	}

	select {
	case <-closing:
	case <-time.After(c.config.Server.ShutdownTimeout):
		c.logger.Warn("Previous HTTP server still closing, binding anyway")
	}
}

func (c *Controller) startErrorMessage(err error) string {
	if errors.Is(err, ErrPortInUse) {
		return fmt.Sprintf("Port %d is already in use. Please stop other processes using this port.", c.config.Server.Port)
	}
	return fmt.Sprintf("Failed to start Webulator: %v", err)
}

func (c *Controller) showPanel() error {
	c.mu.Lock()
	existing := c.panel
	c.mu.Unlock()

	if existing != nil {
		existing.Reveal()
		metrics.RecordTransition(metrics.ResourcePanel, metrics.TransitionReveal)
		return nil
	}

	p, err := c.host.CreatePanel(host.PanelOptions{
		ViewType:                ViewType,
		Title:                   c.config.Panel.Title,
		EnableScripts:           true,
		RetainContextWhenHidden: true,
	})
	if err != nil {
		metrics.IncrementStartFailure(metrics.ResourcePanel)
		return fmt.Errorf("failed to create panel: %w", err)
	}

	c.mu.Lock()
	c.panel = p
	c.mu.Unlock()
	p.OnDidDispose(func() { c.panelDisposed(p) })

	html, err := c.content()
	if err == nil {
		err = p.SetHTML(html)
	}
	if err != nil {
		c.mu.Lock()
		c.panel = nil
		c.mu.Unlock()
		p.Dispose()
		metrics.IncrementStartFailure(metrics.ResourcePanel)
		return fmt.Errorf("failed to populate panel: %w", err)
	}

	metrics.SetResourceActive(metrics.ResourcePanel, true)
	metrics.RecordTransition(metrics.ResourcePanel, metrics.TransitionStart)
	c.logger.WithField("url", p.URL()).Info("Panel created")
	return nil
}

// panelDisposed clears the reference when p goes away outside of Stop.
func (c *Controller) panelDisposed(p host.Panel) {
	c.mu.Lock()
	current := c.panel == p
	if current {
		c.panel = nil
	}
	c.mu.Unlock()

	if !current {
		return
	}

	metrics.SetResourceActive(metrics.ResourcePanel, false)
	metrics.RecordTransition(metrics.ResourcePanel, metrics.TransitionDisposed)
	c.logger.Info("Panel closed")
}

// Stop closes the server and disposes the panel. The server reference is
// dropped before its close completes. Stop with nothing active only shows
// the notice.
func (c *Controller) Stop() {
	c.op.Lock()
	defer c.op.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.logger.WithField("panic", r).Error("Error stopping Webulator")
			c.host.ShowErrorMessage(fmt.Sprintf("Failed to stop Webulator: %v", r))
		}
	}()

	c.mu.Lock()
	srv, p := c.server, c.panel
	c.server, c.panel = nil, nil
	if srv != nil {
		c.closing = srv.Close()
	}
	c.mu.Unlock()

	if srv != nil {
		metrics.SetResourceActive(metrics.ResourceServer, false)
		metrics.RecordTransition(metrics.ResourceServer, metrics.TransitionStop)
		c.logger.Info("HTTP server closing")
	}

	if p != nil {
		p.Dispose()
		metrics.SetResourceActive(metrics.ResourcePanel, false)
		metrics.RecordTransition(metrics.ResourcePanel, metrics.TransitionStop)
	}

	c.host.ShowInformationMessage(MsgStopped)
}

// Deactivate is the teardown hook run when the host shuts down.
func (c *Controller) Deactivate() {
	c.Stop()
}

// AwaitClose returns a channel closed once the most recently stopped
// server has released its port. With no pending close it is already closed.
func (c *Controller) AwaitClose() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closing == nil {
		done := make(chan struct{})
		close(done)
		return done
	}
	return c.closing
}

// State snapshots the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	srv, p := c.server, c.panel
	c.mu.Unlock()

	s := State{
		ServerActive: srv != nil,
		PanelActive:  p != nil,
		Port:         c.config.Server.Port,
		ServerURL:    c.config.Server.URL(),
	}
	if srv != nil {
		s.Port = srv.Port()
		s.ServerURL = srv.URL()
	}
	if p != nil {
		s.PanelURL = p.URL()
	}
	return s
}

func (c *Controller) serverURL() string {
	return c.State().ServerURL
}
