// Package panel serves Webulator panels as browser pages. Each panel is a
// device frame whose embedded screen shows the panel content; the page
// reports frame loads and its own closing back to the host.
package panel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/zsiec/webulator/internal/config"
	"github.com/zsiec/webulator/internal/device"
	apperrors "github.com/zsiec/webulator/internal/errors"
	"github.com/zsiec/webulator/internal/health"
	"github.com/zsiec/webulator/internal/host"
	"github.com/zsiec/webulator/internal/logger"
	"github.com/zsiec/webulator/internal/metrics"
)

// Host implements host.Host on top of a local HTTP server and the user's
// browser. The listener is bound when the first panel is created.
type Host struct {
	config       *config.PanelConfig
	notifier     host.Notifier
	logger       *logrus.Logger
	errorHandler *apperrors.ErrorHandler
	router       *mux.Router
	handler      http.Handler
	opener       func(url string) error
	health       *health.Handler

	mu         sync.Mutex
	device     device.Config
	panels     map[string]*browserPanel
	httpServer *http.Server
	listener   net.Listener
}

// Option customises a Host.
type Option func(*Host)

// WithOpener replaces the browser launcher.
func WithOpener(fn func(url string) error) Option {
	return func(h *Host) { h.opener = fn }
}

// WithHealth mounts the health endpoints on the panel host.
func WithHealth(handler *health.Handler) Option {
	return func(h *Host) { h.health = handler }
}

// New creates a panel host. Notices are forwarded to notifier.
func New(cfg *config.PanelConfig, dev config.DeviceConfig, notifier host.Notifier, log *logrus.Logger, opts ...Option) *Host {
	h := &Host{
		config:       cfg,
		notifier:     notifier,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
		router:       mux.NewRouter(),
		opener:       OpenURL,
		device:       device.Config{Name: dev.Name, LoadDelay: dev.LoadDelay},
		panels:       make(map[string]*browserPanel),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.setupRoutes()
	h.handler = h.errorHandler.Middleware(h.router)

	return h
}

// ShowInformationMessage forwards an information notice.
func (h *Host) ShowInformationMessage(msg string) {
	h.notifier.ShowInformationMessage(msg)
}

// ShowErrorMessage forwards an error notice.
func (h *Host) ShowErrorMessage(msg string) {
	h.notifier.ShowErrorMessage(msg)
}

// CreatePanel creates a panel page, binding the panel host if needed, and
// shows it.
func (h *Host) CreatePanel(opts host.PanelOptions) (host.Panel, error) {
	if err := h.listen(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	devCfg := h.device
	h.mu.Unlock()

	frame, err := device.NewFrame(devCfg)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	limiter := rate.NewLimiter(rate.Limit(h.config.EventRate), h.config.EventBurst)
	p := newBrowserPanel(id, opts, h, frame, limiter)
	if err := frame.Navigate(h.contentURL(id)); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.panels[id] = p
	count := len(h.panels)
	h.mu.Unlock()

	metrics.SetPanelsOpen(count)
	logger.WithPanel(h.logger, id).WithFields(logrus.Fields{
		"view_type": opts.ViewType,
		"title":     opts.Title,
		"device":    devCfg.Name,
	}).Info("Panel created")

	p.Reveal()
	return p, nil
}

// SetDevice switches every open panel, and panels created later, to the
// named device.
func (h *Host) SetDevice(name string) error {
	h.mu.Lock()
	h.device.Name = name
	cfg := h.device
	panels := h.sortedPanels()
	h.mu.Unlock()

	var errs []error
	for _, p := range panels {
		if err := p.frame.Render(cfg); err != nil {
			errs = append(errs, fmt.Errorf("panel %s: %w", p.id, err))
		}
	}

	h.logger.WithFields(logrus.Fields{
		"device": name,
		"panels": len(panels),
	}).Info("Device changed")

	return errors.Join(errs...)
}

// Device returns the device new panels are created with.
func (h *Host) Device() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.device.Name
}

// Panels returns the ids of the open panels.
func (h *Host) Panels() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	ids := make([]string, 0, len(h.panels))
	for _, p := range h.sortedPanels() {
		ids = append(ids, p.id)
	}
	return ids
}

func (h *Host) sortedPanels() []*browserPanel {
	panels := make([]*browserPanel, 0, len(h.panels))
	for _, p := range h.panels {
		panels = append(panels, p)
	}
	sort.Slice(panels, func(i, j int) bool { return panels[i].id < panels[j].id })
	return panels
}

func (h *Host) lookup(id string) (*browserPanel, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.panels[id]
	return p, ok
}

func (h *Host) remove(id string) {
	h.mu.Lock()
	delete(h.panels, id)
	count := len(h.panels)
	h.mu.Unlock()

	metrics.SetPanelsOpen(count)
	logger.WithPanel(h.logger, id).Info("Panel disposed")
}

func (h *Host) open(p *browserPanel) {
	url := p.URL()
	if !h.config.OpenBrowser {
		h.logger.WithField("url", url).Debug("Browser launch disabled")
		return
	}

	if err := h.opener(url); err != nil {
		logger.WithPanel(h.logger, p.id).WithError(err).Warn("Failed to open browser")
		h.notifier.ShowInformationMessage("Open " + url + " to view the panel.")
	}
}

// listen binds the panel host on first use.
func (h *Host) listen() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.listener != nil {
		return nil
	}

	addr := fmt.Sprintf("%s:%d", h.config.Host, h.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start panel host on %s: %w", addr, err)
	}

	h.listener = ln
	h.httpServer = &http.Server{Handler: h.handler}

	srv := h.httpServer
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			h.logger.WithError(err).Error("Panel host error")
		}
	}()

	h.logger.WithField("url", h.baseURL()).Info("Panel host listening")
	return nil
}

// Shutdown disposes every panel and stops the panel host.
func (h *Host) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	panels := h.sortedPanels()
	h.mu.Unlock()

	for _, p := range panels {
		p.Dispose()
	}

	h.mu.Lock()
	srv := h.httpServer
	h.httpServer = nil
	h.listener = nil
	h.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// URL is the base address of the panel host.
func (h *Host) URL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.baseURL()
}

func (h *Host) baseURL() string {
	port := h.config.Port
	if h.listener != nil {
		if addr, ok := h.listener.Addr().(*net.TCPAddr); ok {
			port = addr.Port
		}
	}
	return fmt.Sprintf("http://%s:%d", h.config.Host, port)
}

func (h *Host) panelURL(id string) string {
	return h.URL() + "/panels/" + id
}

func (h *Host) contentURL(id string) string {
	return h.panelURL(id) + "/content"
}

// Handler returns the HTTP handler, for tests.
func (h *Host) Handler() http.Handler {
	return h.handler
}
