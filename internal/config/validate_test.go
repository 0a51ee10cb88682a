package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServerConfigValidate(t *testing.T) {
	valid := ServerConfig{
		Host:            "localhost",
		Port:            3000,
		ShutdownTimeout: time.Second,
		MaxBodyBytes:    1024,
	}

	tests := []struct {
		name    string
		mutate  func(c *ServerConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(c *ServerConfig) {}},
		{name: "port zero", mutate: func(c *ServerConfig) { c.Port = 0 }, wantErr: "invalid server port"},
		{name: "port too large", mutate: func(c *ServerConfig) { c.Port = 70000 }, wantErr: "invalid server port"},
		{name: "empty host", mutate: func(c *ServerConfig) { c.Host = "" }, wantErr: "host cannot be empty"},
		{name: "no shutdown timeout", mutate: func(c *ServerConfig) { c.ShutdownTimeout = 0 }, wantErr: "shutdown_timeout"},
		{name: "no body limit", mutate: func(c *ServerConfig) { c.MaxBodyBytes = 0 }, wantErr: "max_body_bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPanelConfigValidate(t *testing.T) {
	valid := PanelConfig{Host: "localhost", Port: 3001, EventRate: 5, EventBurst: 10}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Port = -1
	assert.Error(t, bad.Validate())

	bad = valid
	bad.EventRate = 0
	assert.Error(t, bad.Validate())

	bad = valid
	bad.EventBurst = 0
	assert.Error(t, bad.Validate())
}

func TestDeviceConfigValidate(t *testing.T) {
	assert.NoError(t, (&DeviceConfig{Name: "anything"}).Validate())
	assert.Error(t, (&DeviceConfig{LoadDelay: -time.Second}).Validate())
}

func TestLoggingConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  LoggingConfig
		wantErr bool
	}{
		{name: "stdout json", config: LoggingConfig{Level: "info", Format: "json", Output: "stdout"}},
		{name: "stderr text", config: LoggingConfig{Level: "debug", Format: "text", Output: "stderr"}},
		{name: "file output", config: LoggingConfig{Level: "warn", Format: "json", Output: "/tmp/webulator.log", MaxSize: 10}},
		{name: "file without size", config: LoggingConfig{Level: "warn", Format: "json", Output: "/tmp/webulator.log"}, wantErr: true},
		{name: "bad level", config: LoggingConfig{Level: "loud", Format: "json", Output: "stdout"}, wantErr: true},
		{name: "bad format", config: LoggingConfig{Level: "info", Format: "xml", Output: "stdout"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMetricsConfigValidate(t *testing.T) {
	assert.NoError(t, (&MetricsConfig{Enabled: false}).Validate())
	assert.NoError(t, (&MetricsConfig{Enabled: true, Port: 9091, Path: "/metrics"}).Validate())
	assert.Error(t, (&MetricsConfig{Enabled: true, Port: 0, Path: "/metrics"}).Validate())
	assert.Error(t, (&MetricsConfig{Enabled: true, Port: 9091}).Validate())
}

func TestConfigValidateMetricsPortCollision(t *testing.T) {
	cfg := Default()
	cfg.Metrics = MetricsConfig{Enabled: true, Port: cfg.Server.Port, Path: "/metrics"}

	err := cfg.Validate()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "collides")
	}
}
