// Authwatch - Login Anomaly Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/authwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/authwatch/config.yaml",
	"/etc/authwatch/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default retention caps and loop intervals.
const (
	DefaultMaxEvents     = 100000
	DefaultMaxHistory    = 1440
	DefaultMaxDetections = 100000
	DefaultLoopInterval  = 60 * time.Second
	DefaultNotifyTimeout = 30 * time.Second
)

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3000,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			MaxEvents:     DefaultMaxEvents,
			MaxHistory:    DefaultMaxHistory,
			MaxDetections: DefaultMaxDetections,
		},
		Collector: LoopConfig{
			Interval:  DefaultLoopInterval,
			AutoStart: false,
		},
		Detector: LoopConfig{
			Interval:  DefaultLoopInterval,
			AutoStart: false,
		},
		Notify: NotifyConfig{
			Timeout: DefaultNotifyTimeout,
			Webhook: WebhookConfig{
				Enabled:         false,
				Timeout:         10 * time.Second,
				MinInterval:     time.Second,
				BreakerFailures: 5,
				BreakerTimeout:  30 * time.Second,
			},
			NATS: NATSConfig{
				Enabled:  false,
				URL:      "nats://127.0.0.1:4222",
				Subject:  "authwatch.detections.suspicious",
				Embedded: false,
				Port:     4222,
			},
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration with precedence ENV > file > defaults and
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as a single string.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_port":        "server.port",
	"http_host":        "server.host",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	// Retention
	"max_events":     "store.max_events",
	"max_history":    "store.max_history",
	"max_detections": "store.max_detections",

	// Loops
	"collector_interval":   "collector.interval",
	"collector_auto_start": "collector.auto_start",
	"detector_interval":    "detector.interval",
	"detector_auto_start":  "detector.auto_start",

	// Notifiers
	"notify_timeout": "notify.timeout",

	// Webhook notifier
	"webhook_enabled":          "notify.webhook.enabled",
	"webhook_url":              "notify.webhook.url",
	"webhook_timeout":          "notify.webhook.timeout",
	"webhook_min_interval":     "notify.webhook.min_interval",
	"webhook_breaker_failures": "notify.webhook.breaker_failures",
	"webhook_breaker_timeout":  "notify.webhook.breaker_timeout",

	// NATS notifier
	"nats_enabled":  "notify.nats.enabled",
	"nats_url":      "notify.nats.url",
	"nats_subject":  "notify.nats.subject",
	"nats_embedded": "notify.nats.embedded",
	"nats_port":     "notify.nats.port",

	// Security
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns "" for unmapped variables so koanf skips them.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
