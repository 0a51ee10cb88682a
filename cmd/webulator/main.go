package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/webulator/internal/command"
	"github.com/zsiec/webulator/internal/config"
	"github.com/zsiec/webulator/internal/health"
	"github.com/zsiec/webulator/internal/host"
	"github.com/zsiec/webulator/internal/lifecycle"
	"github.com/zsiec/webulator/internal/logger"
	"github.com/zsiec/webulator/internal/panel"
	"github.com/zsiec/webulator/internal/tui"
	"github.com/zsiec/webulator/pkg/version"
)

// heap limit past which the memory check reports degraded
const memoryLimit = 256 << 20

func main() {
	var (
		configPath  string
		showVersion bool
		headless    bool
		deviceName  string
		noOpen      bool
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&headless, "headless", false, "Start immediately and run without the terminal UI")
	flag.StringVar(&deviceName, "device", "", "Device frame to render panels in")
	flag.BoolVar(&noOpen, "no-open", false, "Do not open panels in the browser")
	flag.Parse()

	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if deviceName != "" {
		cfg.Device.Name = deviceName
	}
	if noOpen {
		cfg.Panel.OpenBrowser = false
	}

	// The terminal UI owns the screen, so console logging goes to a file.
	if !headless && (cfg.Logging.Output == "stdout" || cfg.Logging.Output == "stderr") {
		cfg.Logging.Output = filepath.Join(os.TempDir(), "webulator", "webulator.log")
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithField("version", version.GetInfo().Short()).Info("Starting Webulator")
	log.WithField("config_path", configPath).Debug("Configuration loaded")

	if err := run(cfg, configPath, headless, log); err != nil {
		log.WithError(err).Error("Webulator exited with error")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log.Info("Webulator shutdown complete")
}

func run(cfg *config.Config, configPath string, headless bool, log *logrus.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics, logger.NewLogrusAdapter(logger.WithComponent(log, "metrics")))
	}

	var (
		notifier host.Notifier
		notices  *tui.Notifier
	)
	if headless {
		notifier = newLogNotifier(logger.NewLogrusAdapter(logrus.NewEntry(log)))
	} else {
		notices = tui.NewNotifier(32)
		notifier = notices
	}

	healthManager := health.NewManager(log)
	panelHost := panel.New(&cfg.Panel, cfg.Device, notifier, log,
		panel.WithOpener(panel.OpenURL),
		panel.WithHealth(health.NewHandler(healthManager)),
	)
	ctrl := lifecycle.New(cfg, panelHost, log)

	healthManager.Register(health.NewPortChecker("server", func() (string, bool) {
		s := ctrl.State()
		return net.JoinHostPort(cfg.Server.Host, strconv.Itoa(s.Port)), s.ServerActive
	}))
	healthManager.Register(health.NewMemoryChecker(memoryLimit))

	registry := command.NewRegistry()
	subs := &host.Subscriptions{}
	if err := command.Activate(registry, ctrl, subs, notifier, log); err != nil {
		return err
	}

	if configPath != "" {
		err := config.Watch(ctx, configPath, logger.WithComponent(log, "config"), func(next *config.Config) {
			if next.Device.Name == panelHost.Device() {
				return
			}
			if err := panelHost.SetDevice(next.Device.Name); err != nil {
				log.WithError(err).Warn("Failed to apply device change")
			}
		})
		if err != nil {
			log.WithError(err).Warn("Config hot reload disabled")
		}
	}

	var runErr error
	if headless {
		runErr = runHeadless(ctx, registry, log)
	} else {
		model := tui.New(tui.Deps{
			Commands: registry,
			State:    ctrl,
			Devices:  panelHost,
			Notices:  notices,
			Open:     panel.OpenURL,
			Version:  version.GetInfo().Short(),
		})
		_, runErr = tea.NewProgram(model, tea.WithAltScreen()).Run()
	}

	// Nothing reads notices once the UI has exited.
	if notices != nil {
		notices.Close()
	}
	command.Deactivate(ctrl, subs)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	select {
	case <-ctrl.AwaitClose():
	case <-shutdownCtx.Done():
		log.Warn("HTTP server did not close before shutdown timeout")
	}
	if err := panelHost.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Failed to shut down panel host")
	}
	return runErr
}

// runHeadless starts the demo server and panel, then blocks until a
// shutdown signal arrives.
func runHeadless(ctx context.Context, registry *command.Registry, log *logrus.Logger) error {
	if err := registry.Execute(command.Start); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig).Info("Received shutdown signal")
	case <-ctx.Done():
	}
	return nil
}

// startMetricsServer starts the Prometheus metrics server
func startMetricsServer(cfg config.MetricsConfig, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithField("addr", addr).Info("Starting metrics server")

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Error("Metrics server error")
	}
}
