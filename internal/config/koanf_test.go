// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Store.MaxEvents != 100000 {
		t.Errorf("Store.MaxEvents = %d, want 100000", cfg.Store.MaxEvents)
	}
	if cfg.Store.MaxHistory != 1440 {
		t.Errorf("Store.MaxHistory = %d, want 1440", cfg.Store.MaxHistory)
	}
	if cfg.Store.MaxDetections != 100000 {
		t.Errorf("Store.MaxDetections = %d, want 100000", cfg.Store.MaxDetections)
	}
	if cfg.Collector.Interval != time.Minute || cfg.Detector.Interval != time.Minute {
		t.Errorf("loop intervals = %v/%v, want 1m", cfg.Collector.Interval, cfg.Detector.Interval)
	}
	if cfg.Collector.AutoStart || cfg.Detector.AutoStart {
		t.Error("loops should not auto-start by default")
	}
	if cfg.Notify.Webhook.Enabled || cfg.Notify.NATS.Enabled {
		t.Error("notifiers should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{"HTTP_PORT", "server.port"},
		{"COLLECTOR_INTERVAL", "collector.interval"},
		{"DETECTOR_AUTO_START", "detector.auto_start"},
		{"NOTIFY_TIMEOUT", "notify.timeout"},
		{"WEBHOOK_URL", "notify.webhook.url"},
		{"NATS_EMBEDDED", "notify.nats.embedded"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.input); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLoad_EnvVars(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("COLLECTOR_INTERVAL", "30s")
	t.Setenv("DETECTOR_AUTO_START", "true")
	t.Setenv("MAX_EVENTS", "500")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Collector.Interval != 30*time.Second {
		t.Errorf("Collector.Interval = %v, want 30s", cfg.Collector.Interval)
	}
	if !cfg.Detector.AutoStart {
		t.Error("Detector.AutoStart = false, want true")
	}
	if cfg.Store.MaxEvents != 500 {
		t.Errorf("Store.MaxEvents = %d, want 500", cfg.Store.MaxEvents)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Security.CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
}

func TestLoad_ConfigFileAndEnvPrecedence(t *testing.T) {
	content := `
server:
  port: 8888
  host: "127.0.0.1"
detector:
  interval: 2m
notify:
  timeout: 45s
  webhook:
    enabled: true
    url: "https://hooks.example/alert"
    headers:
      X-Token: "abc"
logging:
  level: "warn"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8888 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server = %+v, want 127.0.0.1:8888", cfg.Server)
	}
	if cfg.Detector.Interval != 2*time.Minute {
		t.Errorf("Detector.Interval = %v, want 2m", cfg.Detector.Interval)
	}
	if !cfg.Notify.Webhook.Enabled || cfg.Notify.Webhook.URL != "https://hooks.example/alert" {
		t.Errorf("Webhook = %+v", cfg.Notify.Webhook)
	}
	if cfg.Notify.Timeout != 45*time.Second {
		t.Errorf("Notify.Timeout = %v, want 45s", cfg.Notify.Timeout)
	}
	if cfg.Notify.Webhook.Headers["X-Token"] != "abc" {
		t.Errorf("Webhook.Headers = %v", cfg.Notify.Webhook.Headers)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error (env overrides file)", cfg.Logging.Level)
	}
	if cfg.Collector.Interval != time.Minute {
		t.Errorf("Collector.Interval = %v, want 1m (default)", cfg.Collector.Interval)
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for out-of-range port")
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 3000}
	if got := s.Addr(); got != "127.0.0.1:3000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:3000", got)
	}
}
