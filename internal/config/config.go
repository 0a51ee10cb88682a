package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Panel     PanelConfig     `mapstructure:"panel"`
	Device    DeviceConfig    `mapstructure:"device"`
	Lifecycle LifecycleConfig `mapstructure:"lifecycle"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig configures the demo HTTP server.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// URL is the base address the panel content uses to reach the server.
func (s ServerConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", s.Host, s.Port)
}

// PanelConfig configures the browser panel host.
type PanelConfig struct {
	Host        string  `mapstructure:"host"`
	Port        int     `mapstructure:"port"`
	Title       string  `mapstructure:"title"`
	OpenBrowser bool    `mapstructure:"open_browser"`
	EventRate   float64 `mapstructure:"event_rate"`  // events per second per panel
	EventBurst  int     `mapstructure:"event_burst"`
}

type DeviceConfig struct {
	Name      string        `mapstructure:"name"`
	LoadDelay time.Duration `mapstructure:"load_delay"`
}

type LifecycleConfig struct {
	// AwaitClose makes Start wait for a previous server close to release
	// the port before binding again.
	AwaitClose bool `mapstructure:"await_close"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`     // json or text
	Output     string `mapstructure:"output"`     // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"`   // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	Port    int    `mapstructure:"port"`
}

// Load reads configuration from configPath, environment variables and
// defaults. An empty configPath loads defaults and environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Environment variable override
	v.SetEnvPrefix("WEBULATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration produced by the built-in defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// defaults always validate unless the environment overrides them
		panic(fmt.Sprintf("default config: %v", err))
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	// Demo server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.max_body_bytes", 100*1024) // 100kb

	// Panel host defaults
	v.SetDefault("panel.host", "localhost")
	v.SetDefault("panel.port", 3001)
	v.SetDefault("panel.title", "Webulator")
	v.SetDefault("panel.open_browser", true)
	v.SetDefault("panel.event_rate", 5)
	v.SetDefault("panel.event_burst", 10)

	// Device defaults
	v.SetDefault("device.name", "iPhone 16")
	v.SetDefault("device.load_delay", "1s")

	v.SetDefault("lifecycle.await_close", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 7)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.port", 9091)
}
