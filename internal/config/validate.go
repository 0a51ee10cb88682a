package config

import (
	"fmt"
)

func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Panel.Validate(); err != nil {
		return fmt.Errorf("panel config: %w", err)
	}

	if err := c.Device.Validate(); err != nil {
		return fmt.Errorf("device config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if c.Server.Port == c.Panel.Port {
		return fmt.Errorf("server and panel ports must be different")
	}

	if c.Metrics.Enabled && (c.Metrics.Port == c.Server.Port || c.Metrics.Port == c.Panel.Port) {
		return fmt.Errorf("metrics port %d collides with another listener", c.Metrics.Port)
	}

	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", s.Port)
	}

	if s.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}

	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}

	if s.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive")
	}

	return nil
}

func (p *PanelConfig) Validate() error {
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("invalid panel port: %d", p.Port)
	}

	if p.Host == "" {
		return fmt.Errorf("panel host cannot be empty")
	}

	if p.EventRate <= 0 {
		return fmt.Errorf("event_rate must be positive")
	}

	if p.EventBurst <= 0 {
		return fmt.Errorf("event_burst must be positive")
	}

	return nil
}

func (d *DeviceConfig) Validate() error {
	if d.LoadDelay < 0 {
		return fmt.Errorf("load_delay cannot be negative")
	}

	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"panic": true,
		"fatal": true,
		"error": true,
		"warn":  true,
		"info":  true,
		"debug": true,
		"trace": true,
	}

	if !validLevels[l.Level] {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}

	if l.Format != "json" && l.Format != "text" {
		return fmt.Errorf("log format must be 'json' or 'text'")
	}

	if l.Output != "stdout" && l.Output != "stderr" {
		if l.MaxSize <= 0 {
			return fmt.Errorf("max_size must be positive for file output")
		}
		if l.MaxBackups < 0 {
			return fmt.Errorf("max_backups cannot be negative")
		}
		if l.MaxAge < 0 {
			return fmt.Errorf("max_age cannot be negative")
		}
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if m.Enabled {
		if m.Port < 1 || m.Port > 65535 {
			return fmt.Errorf("invalid metrics port: %d", m.Port)
		}

		if m.Path == "" {
			return fmt.Errorf("metrics path cannot be empty")
		}
	}

	return nil
}
