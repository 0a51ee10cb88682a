package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/webulator/internal/config"
	apperrors "github.com/zsiec/webulator/internal/errors"
	"github.com/zsiec/webulator/internal/logger"
	"github.com/zsiec/webulator/pkg/version"
)

// ErrAlreadyRunning is returned by Start on a server that is already bound.
var ErrAlreadyRunning = errors.New("server already running")

// processStart anchors the uptime reported by /api/status.
var processStart = time.Now()

// Server is the demo HTTP server. One instance binds the configured port
// at most once; a closed server is discarded and a new one built.
type Server struct {
	config       *config.ServerConfig
	router       *mux.Router
	handler      http.Handler
	logger       *logrus.Logger
	errorHandler *apperrors.ErrorHandler
	versionFunc  func() (string, error)
	now          func() time.Time

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	closed     chan struct{}
}

// Option customises a Server.
type Option func(*Server)

// WithVersionFunc overrides the version metadata lookup.
func WithVersionFunc(fn func() (string, error)) Option {
	return func(s *Server) { s.versionFunc = fn }
}

// WithClock overrides the clock used for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new demo server with its routes wired.
func New(cfg *config.ServerConfig, log *logrus.Logger, opts ...Option) *Server {
	s := &Server{
		config:       cfg,
		router:       mux.NewRouter(),
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
		versionFunc:  version.Metadata,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	s.handler = s.requestIDMiddleware(s.corsMiddleware(s.recoveryMiddleware(s.router)))

	return s
}

// Start binds the port synchronously and serves in the background. A bind
// failure, such as the port being in use, is returned to the caller.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return ErrAlreadyRunning
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.listener = ln
	s.closed = make(chan struct{})
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.WithField("port", s.port()).Infof("Webulator HTTP server running on %s", s.url())

	srv := s.httpServer
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Server error")
		}
	}()

	return nil
}

// Close shuts the server down in the background. The returned channel is
// closed once the listener has been released; callers may ignore it.
// Closing a server that is not running returns an already-closed channel.
func (s *Server) Close() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpServer == nil {
		done := make(chan struct{})
		close(done)
		return done
	}

	srv, done := s.httpServer, s.closed
	s.httpServer = nil
	s.listener = nil

	go func() {
		defer close(done)

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			s.logger.WithError(err).Warn("Graceful shutdown timed out, forcing close")
			_ = srv.Close()
		}
		s.logger.Info("HTTP server stopped")
	}()

	return done
}

// Running reports whether the server currently holds its listener.
func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener != nil
}

// Port returns the bound port, or the configured port when not bound.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port()
}

func (s *Server) port() int {
	if s.listener != nil {
		if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
			return addr.Port
		}
	}
	return s.config.Port
}

// Addr returns the listen address, ":port".
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.Port())
}

// URL is the address clients use to reach the server.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url()
}

func (s *Server) url() string {
	return fmt.Sprintf("http://%s:%d", s.config.Host, s.port())
}

// Handler returns the full middleware chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// GetRouter returns the router for testing.
func (s *Server) GetRouter() *mux.Router {
	return s.router
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Use(logger.RequestLoggerMiddleware(s.logger))
	s.router.Use(s.metricsMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/hello", s.handleHello).Methods(http.MethodGet)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/echo", s.handleEcho).Methods(http.MethodPost)

	s.router.NotFoundHandler = http.HandlerFunc(s.errorHandler.HandleNotFound)
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.errorHandler.HandleMethodNotAllowed)
}
